package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "sql", cfg.Storage.Metadata)
	assert.Equal(t, "local", cfg.Storage.Content)
	assert.Equal(t, 300, cfg.Documents.LockTimeout)
	assert.Equal(t, "application/pdf", cfg.Documents.MimeType)
}

func TestLoadConfig_YAMLAndEnvOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
serverAddr: ":9000"
databaseConfig:
  driver: sqlite
  dsn: "file:meta.db"
storage:
  metadata: redis
  content: s3
documents:
  lock_timeout: 120
  loa:
    low: "http://id.elegnamnden.se/loa/1.0/loa2"
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("MULTISIGN_REDIS_ADDR", "redis:6380")
	t.Setenv("MULTISIGN_DOC_LOCK_TIMEOUT", "60")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ServerAddr)
	assert.Equal(t, "sqlite", cfg.DatabaseConfig.Driver)
	assert.Equal(t, "redis", cfg.Storage.Metadata)
	assert.Equal(t, "s3", cfg.Storage.Content)
	assert.Equal(t, "redis:6380", cfg.RedisConfig.Addr)
	assert.Equal(t, 60, cfg.Documents.LockTimeout)
	assert.Equal(t, "http://id.elegnamnden.se/loa/1.0/loa2", cfg.Documents.LoA["low"])
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "unknown metadata backend", yaml: "storage:\n  metadata: mongo\n"},
		{name: "unknown driver", yaml: "databaseConfig:\n  driver: mysql\n"},
		{name: "bad lock timeout", env: map[string]string{"MULTISIGN_DOC_LOCK_TIMEOUT": "0"}},
		{name: "unparsable env", env: map[string]string{"MULTISIGN_DOC_LOCK_TIMEOUT": "soon"}},
		{name: "broken yaml", yaml: "storage: [\n"},
		{name: "sweeper without interval", yaml: "documents:\n  max_age: 24\n  sweep_interval: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig(path)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
