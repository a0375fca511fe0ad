package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// Prefix returns the first n characters of SHA256Hex(input). Used to build
// fixed-length cache keys from arbitrary user queries.
func Prefix(input string, n int) string {
	full := SHA256Hex(input)
	if n <= 0 || n > len(full) {
		return full
	}
	return full[:n]
}

// HashIP hashes a client address with a salt so request logs never carry the
// raw IP: one salted SHA256, truncated to 16 characters.
func HashIP(ip, salt string) string {
	return Prefix(salt+ip, 16)
}
