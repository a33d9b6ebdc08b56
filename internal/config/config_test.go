package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENGINE_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 10*time.Second, cfg.QuoteTimeout)
	assert.Equal(t, 15*time.Minute, cfg.QuoteMaxAge)
	require.NotNil(t, cfg.Backup)
	assert.False(t, cfg.Backup.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENGINE_DATA_DIR", t.TempDir())
	t.Setenv("ENGINE_PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("QUOTE_TIMEOUT", "3s")
	t.Setenv("QUOTE_MAX_AGE", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 3*time.Second, cfg.QuoteTimeout)
	assert.Equal(t, 5*time.Minute, cfg.QuoteMaxAge)
}

func TestValidateBackupRequiresBucket(t *testing.T) {
	cfg := &Config{
		QuoteTimeout: time.Second,
		Backup: &BackupConfig{
			Enabled:         true,
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
		},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKUP_BUCKET")
}

func TestValidateBackupRequiresCredentials(t *testing.T) {
	cfg := &Config{
		QuoteTimeout: time.Second,
		Backup: &BackupConfig{
			Enabled: true,
			Bucket:  "backups",
		},
	}

	require.Error(t, cfg.Validate())
}

func TestValidateQuoteTimeout(t *testing.T) {
	cfg := &Config{QuoteTimeout: 0}
	require.Error(t, cfg.Validate())
}
