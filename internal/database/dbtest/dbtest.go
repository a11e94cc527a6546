// Package dbtest opens throwaway databases and seeds a small circulation
// history for repository and handler tests.
package dbtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/entities"
)

// Open creates a migrated SQLite database inside the test's temp dir.
func Open(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.Open(database.Options{
		Driver:   database.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "library.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Fixture is the seeded dataset. As of AsOf (2024-01-10):
//   - Books[0] is on an overdue loan to Ava (due 2024-01-05)
//   - Books[1] is on an open loan to Ava (due 2024-01-15)
//   - Books[2] was borrowed by Ben and returned on 2024-01-10
//   - Books[3] is lost
type Fixture struct {
	Author       entities.Author
	Ava          entities.Member
	Ben          entities.Member
	Books        []entities.Book
	OverdueLoan  entities.Loan
	OpenLoan     entities.Loan
	ReturnedLoan entities.Loan
	AsOf         time.Time
}

func Seed(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()

	bio := "Writes about distant stars."
	f := &Fixture{
		Author: entities.Author{Name: "Nova Hart", Bio: &bio},
		Ava:    entities.Member{Name: "Ava Li", Email: "ava@example.com"},
		Ben:    entities.Member{Name: "Ben Wu", Email: "ben@example.com"},
		AsOf:   Date(2024, time.January, 10),
	}
	require.NoError(t, db.Create(&f.Author).Error)
	require.NoError(t, db.Create(&f.Ava).Error)
	require.NoError(t, db.Create(&f.Ben).Error)

	year := 2020
	books := []struct {
		title  string
		isbn   string
		status entities.BookStatus
	}{
		{"Starfall", "9780000000101", entities.BookStatusCheckedOut},
		{"Moonrise", "9780000000102", entities.BookStatusCheckedOut},
		{"Sunset Lines", "9780000000103", entities.BookStatusAvailable},
		{"Lost Orbit", "9780000000104", entities.BookStatusLost},
	}
	for _, b := range books {
		book := entities.Book{
			Title:         b.title,
			ISBN:          b.isbn,
			AuthorID:      &f.Author.ID,
			PublishedYear: &year,
			Status:        b.status,
		}
		require.NoError(t, db.Create(&book).Error)
		f.Books = append(f.Books, book)
	}

	returnedAt := Date(2024, time.January, 10)
	f.OverdueLoan = entities.Loan{
		BookID:   f.Books[0].ID,
		MemberID: f.Ava.ID,
		LoanedAt: Date(2024, time.January, 1),
		DueAt:    Date(2024, time.January, 5),
	}
	f.OpenLoan = entities.Loan{
		BookID:   f.Books[1].ID,
		MemberID: f.Ava.ID,
		LoanedAt: Date(2024, time.January, 8),
		DueAt:    Date(2024, time.January, 15),
	}
	f.ReturnedLoan = entities.Loan{
		BookID:     f.Books[2].ID,
		MemberID:   f.Ben.ID,
		LoanedAt:   Date(2024, time.January, 2),
		DueAt:      Date(2024, time.January, 12),
		ReturnedAt: &returnedAt,
	}
	for _, loan := range []*entities.Loan{&f.OverdueLoan, &f.OpenLoan, &f.ReturnedLoan} {
		require.NoError(t, db.Create(loan).Error)
	}

	return f
}

// BookStatus reloads the status of a book.
func BookStatus(t *testing.T, db *gorm.DB, bookID uint) entities.BookStatus {
	t.Helper()
	var book entities.Book
	require.NoError(t, db.Select("status").First(&book, bookID).Error)
	return book.Status
}
