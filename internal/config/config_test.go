package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(3001), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 5, cfg.Global.ShutdownTimeoutInSeconds)
	assert.False(t, cfg.Global.ReadOnly)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Database.LogLevel)
	assert.Equal(t, 14*24*time.Hour, cfg.Loans.LoanPeriod())
	assert.Equal(t, 90, cfg.Audit.RetentionDays)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 2, cfg.Tasks.Workers)
	assert.Equal(t, 15*time.Minute, cfg.Tasks.ReleaseAfter)
	assert.Equal(t, "0 * * * *", cfg.Schedules.OverdueScan)
	assert.Equal(t, "30 3 * * *", cfg.Schedules.AuditCleanup)
	assert.Equal(t, AuthModeNone, cfg.Auth.Mode)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.UI.StaticPath)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("READ_ONLY", "true")
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("DATABASE_DSN", "host=localhost dbname=library")
	t.Setenv("AUTH_MODE", "BASIC")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://library.example.com,")
	t.Setenv("DEFAULT_LOAN_DAYS", "7")
	t.Setenv("TASK_RELEASE_AFTER", "30m")

	cfg := NewConfig()

	assert.Equal(t, int32(8080), cfg.HTTP.Port)
	assert.True(t, cfg.Global.ReadOnly)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=localhost dbname=library", cfg.Database.DSN)
	assert.Equal(t, AuthModeBasic, cfg.Auth.Mode)
	assert.Equal(t, []string{"http://localhost:5173", "https://library.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 7*24*time.Hour, cfg.Loans.LoanPeriod())
	assert.Equal(t, 30*time.Minute, cfg.Tasks.ReleaseAfter)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AUDIT_RETENTION_DAYS=30\nHOST=127.0.0.1\n"), 0o600))

	t.Setenv("HOST", "10.0.0.1")
	t.Cleanup(func() { os.Unsetenv("AUDIT_RETENTION_DAYS") })

	LoadEnvFile(path, filepath.Join(t.TempDir(), "missing.env"))
	cfg := NewConfig()

	assert.Equal(t, 30, cfg.Audit.RetentionDays)
	assert.Equal(t, "10.0.0.1", cfg.HTTP.Host, "existing variables take precedence")
}
