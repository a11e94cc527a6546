package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/seatgenie/library/internal/entities"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// Goqu dialect names matching the drivers above.
	DialectSQLite3  = "sqlite3"
	DialectPostgres = "postgres"
)

// sqliteParams enables foreign keys, waits on locked databases and makes
// every transaction take the write lock up front.
const sqliteParams = "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"

// openLoanIndex guarantees at most one open loan per book.
const openLoanIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_loans_open_book ON loans (book_id) WHERE returned_at IS NULL`

type Database struct {
	DB *gorm.DB
	// Dialect is the goqu dialect name for the connected driver.
	Dialect string
}

type Options struct {
	Driver   string // sqlite (default) or postgres
	Path     string // sqlite file path
	DSN      string // postgres connection string
	LogLevel string // silent, error, warn, info
}

// NewDatabase opens (creating if needed) and migrates a SQLite database at dbPath.
func NewDatabase(dbPath string) (*Database, error) {
	return Open(Options{Driver: DriverSQLite, Path: dbPath, LogLevel: "warn"})
}

func Open(opts Options) (*Database, error) {
	dialector, dialect, err := newDialector(opts)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(parseLogLevel(opts.LogLevel)),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if opts.Driver == DriverPostgres {
		log.Printf("Database initialized successfully (postgres)")
	} else {
		log.Printf("Database initialized successfully at %s", opts.Path)
	}

	return &Database{DB: db, Dialect: dialect}, nil
}

func newDialector(opts Options) (gorm.Dialector, string, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		if opts.Path == "" {
			return nil, "", fmt.Errorf("database path is required for the sqlite driver")
		}
		if err := ensureDirectory(opts.Path); err != nil {
			return nil, "", err
		}
		return sqlite.Open(sqliteDSN(opts.Path)), DialectSQLite3, nil
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, "", fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
		return postgres.Open(opts.DSN), DialectPostgres, nil
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?" + sqliteParams
}

func ensureDirectory(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Migrate creates or updates every table and the open-loan index.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.Author{},
		&entities.Member{},
		&entities.Book{},
		&entities.Loan{},
		&entities.AuditEvent{},
		&entities.Staff{},
	)
	if err != nil {
		return err
	}
	return db.Exec(openLoanIndex).Error
}

func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
