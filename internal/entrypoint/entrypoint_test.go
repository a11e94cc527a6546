package entrypoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatgenie/library/internal/config"
	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/tasks"
)

func TestMaintenanceJobs(t *testing.T) {
	cfg := &config.Config{}
	cfg.Schedules.OverdueScan = "0 * * * *"
	cfg.Schedules.AuditCleanup = "30 3 * * *"
	cfg.Audit.RetentionDays = 30

	jobs := maintenanceJobs(cfg)
	require.Len(t, jobs, 2)

	assert.Equal(t, tasks.TypeScanOverdueLoans, jobs[0].Name)
	assert.Equal(t, tasks.ScanOverdueLoansTask{}, jobs[0].Task())
	assert.Equal(t, tasks.TypeCleanupAuditEvents, jobs[1].Name)
	assert.Equal(t, tasks.CleanupAuditEventsTask{RetentionDays: 30}, jobs[1].Task())
}

func TestMaintenanceJobs_EmptyScheduleDisablesJob(t *testing.T) {
	cfg := &config.Config{}
	cfg.Schedules.AuditCleanup = "30 3 * * *"

	jobs := maintenanceJobs(cfg)
	require.Len(t, jobs, 1)
	assert.Equal(t, tasks.TypeCleanupAuditEvents, jobs[0].Name)
}

func TestOpenDatabase(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = database.DriverSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "nested", "library.db")
	cfg.Database.LogLevel = "silent"

	db, err := OpenDatabase(cfg)
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Ping())
	assert.Equal(t, database.DialectSQLite3, db.Dialect)
}

func TestOpenDatabase_UnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "oracle"

	_, err := OpenDatabase(cfg)
	assert.Error(t, err)
}
