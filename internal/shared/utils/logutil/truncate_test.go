package logutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateForLog(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"empty string", "", 10, ""},
		{"zero maxLen", "hello", 0, "..."},
		{"negative maxLen", "hello", -1, "..."},
		{"shorter than maxLen", "hello", 10, "hello"},
		{"equal to maxLen", "hello", 5, "hello"},
		{"longer than maxLen", "hello world", 5, "hello..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateForLog(tt.input, tt.maxLen))
		})
	}
}

func TestToken(t *testing.T) {
	assert.Equal(t, "", Token(""))
	assert.Equal(t, "0123abcd...", Token("0123abcdef4567890123"))
	assert.Equal(t, "short", Token("short"))
}
