package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatgenie/library/internal/config"
	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/database/dbtest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Database.Driver = database.DriverSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "library.db")
	cfg.Database.LogLevel = "silent"
	cfg.Auth.BcryptCost = 4
	return cfg
}

func TestMigrateCommand(t *testing.T) {
	cfg := testConfig(t)
	custom := filepath.Join(t.TempDir(), "other.db")

	cmd := NewMigrateCommand(cfg)
	var out bytes.Buffer
	cmd.Out = &out

	require.NoError(t, cmd.ParseFlags([]string{"-db", custom}))
	assert.Equal(t, custom, cfg.Database.Path)
	require.NoError(t, cmd.Run())
	assert.FileExists(t, custom)
	assert.Contains(t, out.String(), "up to date")
}

func TestSeedCommand(t *testing.T) {
	cfg := testConfig(t)

	cmd := NewSeedCommand(cfg)
	var out bytes.Buffer
	cmd.Out = &out
	require.NoError(t, cmd.ParseFlags(nil))

	require.NoError(t, cmd.Run())
	assert.Contains(t, out.String(), "Seeded 4 authors, 4 members, 8 books and 6 loans")

	err := cmd.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to seed")
}

func TestOverdueReportCommand(t *testing.T) {
	cfg := testConfig(t)

	db, err := database.Open(database.Options{Path: cfg.Database.Path, LogLevel: "silent"})
	require.NoError(t, err)
	dbtest.Seed(t, db.DB)
	require.NoError(t, db.Close())

	cmd := NewOverdueReportCommand(cfg)
	var out bytes.Buffer
	cmd.Out = &out
	require.NoError(t, cmd.ParseFlags([]string{"-as-of", "2024-01-10T00:00:00Z"}))
	require.NoError(t, cmd.Run())

	var report struct {
		Data []struct {
			ID          uint   `json:"id"`
			BookTitle   string `json:"book_title"`
			DaysOverdue int    `json:"days_overdue"`
		} `json:"data"`
		Meta struct {
			Total int64  `json:"total"`
			Limit int    `json:"limit"`
			AsOf  string `json:"asOf"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.Len(t, report.Data, 1)
	assert.Equal(t, "Starfall", report.Data[0].BookTitle)
	assert.Equal(t, 5, report.Data[0].DaysOverdue)
	assert.EqualValues(t, 1, report.Meta.Total)
	assert.Equal(t, 50, report.Meta.Limit)
	assert.Equal(t, "2024-01-10T00:00:00Z", report.Meta.AsOf)
}

func TestOverdueReportCommand_ParseFlags(t *testing.T) {
	t.Run("defaults to now", func(t *testing.T) {
		cmd := NewOverdueReportCommand(testConfig(t))
		fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		cmd.now = func() time.Time { return fixed }

		require.NoError(t, cmd.ParseFlags(nil))
		assert.Equal(t, fixed, cmd.asOf)
	})

	for _, args := range [][]string{
		{"-as-of", "yesterday"},
		{"-limit", "0"},
		{"-limit", "51"},
		{"-offset", "-1"},
	} {
		cmd := NewOverdueReportCommand(testConfig(t))
		assert.Error(t, cmd.ParseFlags(args), args)
	}
}

func TestCreateStaffCommand(t *testing.T) {
	cfg := testConfig(t)

	t.Run("requires a username", func(t *testing.T) {
		cmd := NewCreateStaffCommand(cfg)
		assert.Error(t, cmd.ParseFlags([]string{"-password", "long enough password"}))
	})

	t.Run("requires a password", func(t *testing.T) {
		t.Setenv(PasswordEnv, "")
		cmd := NewCreateStaffCommand(cfg)
		assert.Error(t, cmd.ParseFlags([]string{"-username", "librarian"}))
	})

	t.Run("creates the account", func(t *testing.T) {
		t.Setenv(PasswordEnv, "correct horse battery")
		cmd := NewCreateStaffCommand(cfg)
		var out bytes.Buffer
		cmd.Out = &out

		require.NoError(t, cmd.ParseFlags([]string{"-username", "librarian"}))
		require.NoError(t, cmd.Run())
		assert.Contains(t, out.String(), `Created staff account "librarian"`)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		cmd := NewCreateStaffCommand(cfg)
		require.NoError(t, cmd.ParseFlags([]string{"-username", "librarian", "-password", "another long password"}))
		assert.Error(t, cmd.Run())
	})
}
