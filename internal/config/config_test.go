package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, 12, cfg.GridColumns)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "medash:", cfg.StoragePrefix)
	assert.Equal(t, ".medash_history", cfg.ShellHistory)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", " Memory ")
	t.Setenv("GRID_COLUMNS", "24")
	t.Setenv("JWT_EXPIRY", "90m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 24, cfg.GridColumns)
	assert.Equal(t, 90*time.Minute, cfg.JWTExpiry)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"STORAGE_DRIVER": "postgres"}},
		{name: "zero columns", env: map[string]string{"GRID_COLUMNS": "0"}},
		{name: "bad duration", env: map[string]string{"JWT_EXPIRY": "soon"}},
		{name: "dev secret in production", env: map[string]string{"ENV": "production"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestShareURL(t *testing.T) {
	cfg := Config{PublicOrigin: "https://dash.example.com/"}
	assert.Equal(t, "https://dash.example.com?share=share_abc", cfg.ShareURL("share_abc"))
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Config{LogLevel: "DEBUG"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, Config{LogLevel: "warning"}.SlogLevel())
	assert.Equal(t, slog.LevelError, Config{LogLevel: "error"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, Config{LogLevel: "loud"}.SlogLevel())
}
