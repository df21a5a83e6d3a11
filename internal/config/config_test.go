package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.AuthEnabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"PORT":         "9090",
		"WORKERS":      "8",
		"RATE_LIMIT":   "2.5",
		"RATE_BURST":   "4",
		"LOG_LEVEL":    "debug",
		"DATABASE_URL": "postgres://localhost/contour",
		"TOKEN_KEY":    "secret",
		"OUTPUT_DIR":   "/var/lib/contour",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 4, cfg.RateBurst)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "/var/lib/contour", cfg.OutputDir)
	assert.True(t, cfg.AuthEnabled())
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad workers", map[string]string{"WORKERS": "many"}},
		{"zero workers", map[string]string{"WORKERS": "0"}},
		{"bad rate", map[string]string{"RATE_LIMIT": "-1"}},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}},
		{"half tls", map[string]string{"TLS_CERT": "server.crt"}},
		{"auth without key", map[string]string{"AUTH_MEMORY": "true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envMap(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReadsProcessEnv(t *testing.T) {
	t.Setenv("ADDR", "127.0.0.1:7000")
	t.Setenv("WORKERS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Equal(t, 3, cfg.Workers)
}
