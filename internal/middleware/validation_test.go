package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mathieu-neron/channelpulse/internal/analytics"
	"github.com/mathieu-neron/channelpulse/internal/model"
)

func TestValidateChannelPathID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantID  int64
		wantErr bool
	}{
		{"valid", "42", 42, false},
		{"trims whitespace", " 7 ", 7, false},
		{"empty", "", 0, true},
		{"zero", "0", 0, true},
		{"negative", "-3", 0, true},
		{"not a number", "UCabc", 0, true},
		{"overflow", "99999999999999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateChannelPathID(tt.input)
			if tt.wantErr {
				assert.NotEmpty(t, errMsg)
			} else {
				assert.Empty(t, errMsg)
			}
			assert.Equal(t, tt.wantID, got)
		})
	}
}

func TestValidatePeriod(t *testing.T) {
	p, msg := ValidatePeriod("", analytics.Period30D)
	assert.Empty(t, msg)
	assert.Equal(t, analytics.Period30D, p)

	p, msg = ValidatePeriod(" 1Y ", analytics.Period30D)
	assert.Empty(t, msg)
	assert.Equal(t, analytics.Period1Y, p)

	_, msg = ValidatePeriod("14d", analytics.Period30D)
	assert.Equal(t, "period must be one of 1d, 7d, 30d, 90d, 1y, all", msg)

	for _, want := range analytics.Periods {
		got, msg := ValidatePeriod(want.String(), analytics.Period30D)
		assert.Empty(t, msg)
		assert.Equal(t, want, got)
	}
}

func TestValidateCategory(t *testing.T) {
	c, msg := ValidateCategory("  Music ")
	assert.Empty(t, msg)
	assert.Equal(t, "Music", c)

	long := make([]byte, MaxCategoryLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, msg = ValidateCategory(string(long))
	assert.NotEmpty(t, msg)
}

func TestValidateStruct(t *testing.T) {
	assert.Empty(t, ValidateStruct(model.AddChannelRequest{ChannelQuery: "@handle"}))

	msg := ValidateStruct(model.AddChannelRequest{})
	assert.Equal(t, "channel_query is required", msg)

	long := string(make([]rune, MaxNicknameLen+1))
	msg = ValidateStruct(model.AddChannelRequest{ChannelQuery: "x", Nickname: long})
	assert.Contains(t, msg, "nickname must be at most 100 characters")

	tooLong := "a"
	for len(tooLong) <= MaxCategoryLen {
		tooLong += "a"
	}
	msg = ValidateStruct(model.UpdateChannelRequest{Category: &tooLong})
	assert.Equal(t, "category must be at most 50 characters", msg)
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "/api/channels/:id/export/csv", sanitizePath("/api/channels/12/export/csv"))
	assert.Equal(t, "/api/channels", sanitizePath("/api/channels"))
	assert.Equal(t, "/api/dashboard", sanitizePath("/api/dashboard"))
}
