package tasks

import "time"

// Config holds configuration for the maintenance task queue.
type Config struct {
	// Enabled turns the queue and its scheduler on. Default: true
	Enabled bool

	// Workers is the number of concurrent task workers. Default: 2
	Workers int

	// ReleaseAfter is when stuck tasks are released back to the queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often completed tasks are purged. Default: 1h
	CleanupInterval time.Duration

	// AuditRetentionDays is passed to scheduled audit cleanups. Default: 90
	AuditRetentionDays int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		Workers:            2,
		ReleaseAfter:       15 * time.Minute,
		CleanupInterval:    time.Hour,
		AuditRetentionDays: DefaultAuditRetentionDays,
	}
}
