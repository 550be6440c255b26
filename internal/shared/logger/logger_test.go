package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/lineconnect/internal/shared/config"
)

func newCapture(levels ...slog.Level) (*bytes.Buffer, Interface) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &buf, Wrap(slog.New(newBrokerHandler(base, levels...)))
}

func TestBrokerHandler_Source(t *testing.T) {
	tests := []struct {
		name       string
		log        func(l Interface)
		wantSource bool
	}{
		{"info has no source", func(l Interface) { l.Infow("m") }, false},
		{"warn has source", func(l Interface) { l.Warnw("m") }, true},
		{"error has source", func(l Interface) { l.Errorw("m") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, l := newCapture(slog.LevelWarn, slog.LevelError)

			tt.log(l.With("component", "test"))

			assert.Contains(t, buf.String(), "component=test")
			if tt.wantSource {
				assert.Contains(t, buf.String(), "logger_test.go", "source should point at the caller")
			} else {
				assert.NotContains(t, buf.String(), "source=")
			}
		})
	}
}

func TestBrokerHandler_Redacts(t *testing.T) {
	buf, l := newCapture()

	l.With("channel_secret", "abcd1234").Infow("token exchanged",
		"access_token", "at-live",
		"ID_Token", "eyJhbGciOi",
		"refresh_token", "",
		"uid", "U1234",
		slog.Group("req", "code", "authcode-1", "state", "st-1"),
	)

	out := buf.String()
	for _, secret := range []string{"abcd1234", "at-live", "eyJhbGciOi", "authcode-1"} {
		assert.NotContains(t, out, secret)
	}
	assert.Contains(t, out, "uid=U1234")
	assert.Contains(t, out, "req.state=st-1")
	assert.Contains(t, out, "refresh_token=\"\"")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestInit_JSONFile(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	path := filepath.Join(t.TempDir(), "app.log")
	err := Init(&config.LoggerConfig{Level: "info", Format: "json", OutputPath: path}, "release")
	require.NoError(t, err)

	NewLogger().Named("resolver").Infow("session established", "local_user_id", 7)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"session established"`)
	assert.Contains(t, string(data), `"logger":"resolver"`)
	assert.Contains(t, string(data), `"local_user_id":7`)
}
