package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatgenie/library/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test_"+t.Name()+".db")
	db, err := Open(Options{Driver: DriverSQLite, Path: dbPath, LogLevel: "silent"})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}
	return db, cleanup
}

func TestOpen(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	t.Run("uses the sqlite3 dialect", func(t *testing.T) {
		assert.Equal(t, DialectSQLite3, db.Dialect)
	})

	t.Run("creates every table", func(t *testing.T) {
		for _, table := range []string{"authors", "members", "books", "loans", "audit_events", "staff"} {
			assert.True(t, db.DB.Migrator().HasTable(table), table)
		}
	})

	t.Run("creates the open loan index", func(t *testing.T) {
		var count int64
		err := db.DB.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_loans_open_book'").
			Scan(&count).Error
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("enables foreign keys", func(t *testing.T) {
		var enabled int
		require.NoError(t, db.DB.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
		assert.Equal(t, 1, enabled)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, db.Ping())
	})

	t.Run("migrate is idempotent", func(t *testing.T) {
		assert.NoError(t, Migrate(db.DB))
	})
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(Options{Driver: "oracle"})
	assert.Error(t, err)

	_, err = Open(Options{Driver: DriverPostgres})
	assert.ErrorContains(t, err, "DATABASE_DSN")

	_, err = Open(Options{Driver: DriverSQLite})
	assert.Error(t, err)
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "library.db")
	db, err := NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
}

func TestConstraintErrors(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	member := entities.Member{Name: "Ava Li", Email: "ava@example.com"}
	require.NoError(t, db.DB.Create(&member).Error)
	book := entities.Book{Title: "Starfall", ISBN: "9780000000101", Status: entities.BookStatusAvailable}
	require.NoError(t, db.DB.Create(&book).Error)

	t.Run("duplicate email is a unique violation", func(t *testing.T) {
		err := db.DB.Create(&entities.Member{Name: "Other", Email: "ava@example.com"}).Error
		require.Error(t, err)
		assert.True(t, IsUniqueViolation(err))
		assert.False(t, IsForeignKeyViolation(err))
	})

	t.Run("second open loan for a book is a unique violation", func(t *testing.T) {
		first := entities.Loan{BookID: book.ID, MemberID: member.ID, LoanedAt: time.Now(), DueAt: time.Now().Add(time.Hour)}
		require.NoError(t, db.DB.Create(&first).Error)

		second := entities.Loan{BookID: book.ID, MemberID: member.ID, LoanedAt: time.Now(), DueAt: time.Now().Add(time.Hour)}
		err := db.DB.Create(&second).Error
		require.Error(t, err)
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("closed loans do not count against the index", func(t *testing.T) {
		returned := time.Now()
		closed := entities.Loan{BookID: book.ID, MemberID: member.ID, LoanedAt: time.Now(), DueAt: time.Now().Add(time.Hour), ReturnedAt: &returned}
		assert.NoError(t, db.DB.Create(&closed).Error)
	})

	t.Run("unknown member is a foreign key violation", func(t *testing.T) {
		other := entities.Book{Title: "Moonrise", ISBN: "9780000000102", Status: entities.BookStatusAvailable}
		require.NoError(t, db.DB.Create(&other).Error)

		loan := entities.Loan{BookID: other.ID, MemberID: 9999, LoanedAt: time.Now(), DueAt: time.Now().Add(time.Hour)}
		err := db.DB.Create(&loan).Error
		require.Error(t, err)
		assert.True(t, IsForeignKeyViolation(err))
	})

	t.Run("nil is neither", func(t *testing.T) {
		assert.False(t, IsUniqueViolation(nil))
		assert.False(t, IsForeignKeyViolation(nil))
	})
}

func TestTimestamp_Scan(t *testing.T) {
	want := time.Date(2024, time.January, 5, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value any
	}{
		{"driver format string", "2024-01-05 09:30:00+00:00"},
		{"bytes", []byte("2024-01-05 09:30:00+00:00")},
		{"rfc3339 with Z", "2024-01-05T09:30:00Z"},
		{"time value", want},
		{"offset time value", want.In(time.FixedZone("CET", 3600))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, ts.Scan(tt.value))
			assert.True(t, want.Equal(ts.Time))
			assert.Equal(t, time.UTC, ts.Location())
		})
	}

	t.Run("nil is zero", func(t *testing.T) {
		ts := Timestamp{Time: want}
		require.NoError(t, ts.Scan(nil))
		assert.True(t, ts.IsZero())
	})

	t.Run("garbage fails", func(t *testing.T) {
		var ts Timestamp
		assert.Error(t, ts.Scan("yesterday"))
		assert.Error(t, ts.Scan(42))
	})

	t.Run("format round trip", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, ts.Scan(FormatTime(want)))
		assert.True(t, want.Equal(ts.Time))
	})
}

func TestSort_Clause(t *testing.T) {
	columns := map[string]string{"id": "books.id", "title": "books.title"}

	assert.Equal(t, "books.id DESC", Sort{}.Clause(columns))
	assert.Equal(t, "books.id ASC", Sort{By: "id", Order: SortAsc}.Clause(columns))
	assert.Equal(t, "books.title ASC, books.id ASC", Sort{By: "title", Order: SortAsc}.Clause(columns))
	assert.Equal(t, "books.title DESC, books.id DESC", Sort{By: "title", Order: SortDesc}.Clause(columns))
	assert.Equal(t, "books.id DESC", Sort{By: "title; DROP TABLE books"}.Clause(columns))
}

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Limit: DefaultLimit}, Page{}.Normalize(MaxLimit))
	assert.Equal(t, Page{Limit: 100, Offset: 5}, Page{Limit: 500, Offset: 5}.Normalize(MaxLimit))
	assert.Equal(t, Page{Limit: 50}, Page{Limit: 60, Offset: -1}.Normalize(50))
}
