package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dom/wedding-planner/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 8, cfg.PairingKeyLength)
	assert.Equal(t, 10, cfg.KeyIssueAttempts)
	assert.Equal(t, uint(0), cfg.SchemaVersion)
	assert.Equal(t, "couple-events", cfg.RedisChannel)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("SCHEMA_VERSION", "1")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, uint(1), cfg.SchemaVersion)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wedding.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt_secret: from-file\npairing_key_length: 10\n"), 0o600))
	t.Setenv("WEDDING_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 10, cfg.PairingKeyLength)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing jwt secret",
			env:  map[string]string{},
		},
		{
			name: "key too short",
			env:  map[string]string{"JWT_SECRET": "secret", "PAIRING_KEY_LENGTH": "2"},
		},
		{
			name: "no issue attempts",
			env:  map[string]string{"JWT_SECRET": "secret", "KEY_ISSUE_ATTEMPTS": "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
