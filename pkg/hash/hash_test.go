package hash

import (
	"strings"
	"testing"
)

func TestSHA256Hex(t *testing.T) {
	// Known SHA256 of "hello"
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	got := SHA256Hex("hello")
	if got != want {
		t.Errorf("SHA256Hex(\"hello\") = %s, want %s", got, want)
	}
}

func TestPrefix(t *testing.T) {
	full := SHA256Hex("@GoogleDevelopers")

	tests := []struct {
		name string
		n    int
		want string
	}{
		{"16 char prefix", 16, full[:16]},
		{"8 char prefix", 8, full[:8]},
		{"full hash if n too long", 100, full},
		{"full hash if n is zero", 0, full},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Prefix("@GoogleDevelopers", tt.n)
			if got != tt.want {
				t.Errorf("Prefix(_, %d) = %s, want %s", tt.n, got, tt.want)
			}
		})
	}
}

func TestHashIP(t *testing.T) {
	ip := "192.168.1.1"
	salt := "random-salt-value"
	hash := HashIP(ip, salt)

	if want := SHA256Hex(salt + ip)[:16]; hash != want {
		t.Errorf("HashIP = %s, want %s", hash, want)
	}
	if len(hash) != 16 {
		t.Errorf("HashIP length = %d, want 16", len(hash))
	}
	if strings.Contains(hash, ip) {
		t.Error("hash must not contain the raw IP")
	}
	if hash == HashIP(ip, "different-salt") {
		t.Error("different salts should produce different hashes")
	}
	if hash == HashIP("10.0.0.1", salt) {
		t.Error("different IPs should produce different hashes")
	}
}
