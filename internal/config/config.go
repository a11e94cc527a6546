package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeBasic AuthMode = "basic" // HTTP basic auth against staff accounts for writes
)

type (
	Config struct {
		HTTP
		Global
		Database
		Loans
		Audit
		Tasks
		Schedules
		Auth
		CORS
		UI
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		ReadOnly                 bool
	}
	Database struct {
		Driver   string // sqlite or postgres
		Path     string
		DSN      string
		LogLevel string
	}
	Loans struct {
		DefaultLoanDays int
	}
	Audit struct {
		RetentionDays int // Days to keep audit events (default: 90)
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Schedules struct {
		OverdueScan  string // Cron format: "0 * * * *" = hourly
		AuditCleanup string
	}
	Auth struct {
		Mode       AuthMode
		BcryptCost int
		Realm      string
	}
	CORS struct {
		AllowedOrigins []string
	}
	UI struct {
		StaticPath string // Pre-built SPA bundle, served when set
	}
)

// LoanPeriod returns the default loan duration.
func (c Loans) LoanPeriod() time.Duration {
	return time.Duration(c.DefaultLoanDays) * 24 * time.Hour
}

// LoadEnvFile loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadEnvFile(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("WARNING: could not load %s: %v", path, err)
		}
	}
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 3001)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("read_only", false)

	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_log_level", "warn")

	v.SetDefault("default_loan_days", 14)
	v.SetDefault("audit_retention_days", 90)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("overdue_scan_schedule", "0 * * * *")    // Hourly at :00
	v.SetDefault("audit_cleanup_schedule", "30 3 * * *") // Daily at 03:30

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_realm", "library")

	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("static_path", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			ReadOnly:                 v.GetBool("READ_ONLY"),
		},
		Database: Database{
			Driver:   strings.ToLower(v.GetString("DATABASE_DRIVER")),
			Path:     v.GetString("DATABASE_PATH"),
			DSN:      v.GetString("DATABASE_DSN"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Loans: Loans{
			DefaultLoanDays: v.GetInt("DEFAULT_LOAN_DAYS"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Schedules: Schedules{
			OverdueScan:  v.GetString("OVERDUE_SCAN_SCHEDULE"),
			AuditCleanup: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Auth: Auth{
			Mode:       AuthMode(strings.ToLower(v.GetString("AUTH_MODE"))),
			BcryptCost: v.GetInt("AUTH_BCRYPT_COST"),
			Realm:      v.GetString("AUTH_REALM"),
		},
		CORS: CORS{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		UI: UI{
			StaticPath: v.GetString("STATIC_PATH"),
		},
	}
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
