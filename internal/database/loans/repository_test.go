package loans

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/database/dbtest"
	"github.com/seatgenie/library/internal/entities"
)

func TestRepository_Checkout(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db.DB)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	available := f.Books[2]

	t.Run("opens a loan and checks the book out", func(t *testing.T) {
		due := time.Now().UTC().Add(72 * time.Hour)
		loan, err := repo.Checkout(ctx, CheckoutInput{BookID: available.ID, MemberID: f.Ben.ID, DueAt: due})
		require.NoError(t, err)
		assert.NotZero(t, loan.ID)
		assert.Nil(t, loan.ReturnedAt)
		assert.True(t, loan.DueAt.Equal(due))
		require.NotNil(t, loan.BookTitle)
		assert.Equal(t, "Sunset Lines", *loan.BookTitle)
		require.NotNil(t, loan.MemberEmail)
		assert.Equal(t, "ben@example.com", *loan.MemberEmail)
		assert.Equal(t, entities.BookStatusCheckedOut, dbtest.BookStatus(t, db.DB, available.ID))
	})

	t.Run("book already on loan", func(t *testing.T) {
		_, err := repo.Checkout(ctx, CheckoutInput{BookID: available.ID, MemberID: f.Ava.ID})
		assert.ErrorIs(t, err, ErrBookUnavailable)
	})

	t.Run("lost book", func(t *testing.T) {
		_, err := repo.Checkout(ctx, CheckoutInput{BookID: f.Books[3].ID, MemberID: f.Ava.ID})
		assert.ErrorIs(t, err, ErrBookUnavailable)
	})

	t.Run("missing book", func(t *testing.T) {
		_, err := repo.Checkout(ctx, CheckoutInput{BookID: 9999, MemberID: f.Ava.ID})
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("missing member leaves book available", func(t *testing.T) {
		book := entities.Book{Title: "Fresh", ISBN: "9780000000301", Status: entities.BookStatusAvailable}
		require.NoError(t, db.DB.Create(&book).Error)

		_, err := repo.Checkout(ctx, CheckoutInput{BookID: book.ID, MemberID: 9999})
		assert.ErrorIs(t, err, ErrMemberNotFound)
		assert.Equal(t, entities.BookStatusAvailable, dbtest.BookStatus(t, db.DB, book.ID))
	})

	t.Run("due date before loan date", func(t *testing.T) {
		book := entities.Book{Title: "Early", ISBN: "9780000000302", Status: entities.BookStatusAvailable}
		require.NoError(t, db.DB.Create(&book).Error)

		_, err := repo.Checkout(ctx, CheckoutInput{
			BookID:   book.ID,
			MemberID: f.Ava.ID,
			LoanedAt: dbtest.Date(2024, time.March, 10),
			DueAt:    dbtest.Date(2024, time.March, 1),
		})
		assert.ErrorIs(t, err, ErrDueBeforeLoan)
	})

	t.Run("past due date with default loan date", func(t *testing.T) {
		book := entities.Book{Title: "Overdue", ISBN: "9780000000304", Status: entities.BookStatusAvailable}
		require.NoError(t, db.DB.Create(&book).Error)

		due := dbtest.Date(2024, time.January, 5)
		loan, err := repo.Checkout(ctx, CheckoutInput{BookID: book.ID, MemberID: f.Ben.ID, DueAt: due})
		require.NoError(t, err)
		assert.True(t, loan.DueAt.Equal(due))
		assert.True(t, loan.LoanedAt.After(due))
		assert.Equal(t, entities.BookStatusCheckedOut, dbtest.BookStatus(t, db.DB, book.ID))

		returned := dbtest.Date(2024, time.January, 10)
		loan, err = repo.Update(ctx, loan.ID, UpdateInput{ReturnedAt: &returned})
		require.NoError(t, err)
		require.NotNil(t, loan.ReturnedAt)
		assert.True(t, loan.ReturnedAt.Equal(returned))
		assert.Equal(t, entities.BookStatusAvailable, dbtest.BookStatus(t, db.DB, book.ID))
	})

	t.Run("default due date uses the loan period", func(t *testing.T) {
		book := entities.Book{Title: "Default", ISBN: "9780000000303", Status: entities.BookStatusAvailable}
		require.NoError(t, db.DB.Create(&book).Error)

		loanedAt := dbtest.Date(2024, time.March, 1)
		loan, err := NewRepository(db.DB).WithLoanPeriod(7*24*time.Hour).
			Checkout(ctx, CheckoutInput{BookID: book.ID, MemberID: f.Ava.ID, LoanedAt: loanedAt})
		require.NoError(t, err)
		assert.True(t, loan.DueAt.Equal(dbtest.Date(2024, time.March, 8)))
	})
}

func TestRepository_ConcurrentCheckout(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db.DB)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	book := entities.Book{Title: "Contested", ISBN: "9780000000401", Status: entities.BookStatusAvailable}
	require.NoError(t, db.DB.Create(&book).Error)

	const attempts = 8
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		succeeded   int
		unavailable int
		other       []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			member := f.Ava.ID
			if i%2 == 1 {
				member = f.Ben.ID
			}
			_, err := repo.Checkout(ctx, CheckoutInput{BookID: book.ID, MemberID: member})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrBookUnavailable):
				unavailable++
			default:
				other = append(other, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, unavailable)

	var open int64
	require.NoError(t, db.DB.Model(&entities.Loan{}).Where("book_id = ? AND returned_at IS NULL", book.ID).Count(&open).Error)
	assert.Equal(t, int64(1), open)
}

func TestRepository_Update(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db.DB)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	t.Run("requires a field", func(t *testing.T) {
		_, err := repo.Update(ctx, f.OpenLoan.ID, UpdateInput{})
		assert.ErrorIs(t, err, ErrNoChanges)
	})

	t.Run("extends due date without touching the book", func(t *testing.T) {
		due := dbtest.Date(2024, time.January, 20)
		loan, err := repo.Update(ctx, f.OpenLoan.ID, UpdateInput{DueAt: &due})
		require.NoError(t, err)
		assert.True(t, loan.DueAt.Equal(due))
		assert.Nil(t, loan.ReturnedAt)
		assert.Equal(t, entities.BookStatusCheckedOut, dbtest.BookStatus(t, db.DB, f.OpenLoan.BookID))
	})

	t.Run("returning releases the book", func(t *testing.T) {
		returned := dbtest.Date(2024, time.January, 9)
		loan, err := repo.Update(ctx, f.OpenLoan.ID, UpdateInput{ReturnedAt: &returned})
		require.NoError(t, err)
		require.NotNil(t, loan.ReturnedAt)
		assert.True(t, loan.ReturnedAt.Equal(returned))
		assert.Equal(t, entities.BookStatusAvailable, dbtest.BookStatus(t, db.DB, f.OpenLoan.BookID))
	})

	t.Run("already returned", func(t *testing.T) {
		returned := dbtest.Date(2024, time.January, 11)
		_, err := repo.Update(ctx, f.ReturnedLoan.ID, UpdateInput{ReturnedAt: &returned})
		assert.ErrorIs(t, err, ErrAlreadyReturned)
	})

	t.Run("due date of a returned loan can still be corrected", func(t *testing.T) {
		due := dbtest.Date(2024, time.January, 14)
		loan, err := repo.Update(ctx, f.ReturnedLoan.ID, UpdateInput{DueAt: &due})
		require.NoError(t, err)
		assert.True(t, loan.DueAt.Equal(due))
	})

	t.Run("missing loan", func(t *testing.T) {
		due := dbtest.Date(2024, time.February, 1)
		_, err := repo.Update(ctx, 9999, UpdateInput{DueAt: &due})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRepository_Return(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db.DB)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	loan, err := repo.Return(ctx, f.OverdueLoan.ID)
	require.NoError(t, err)
	require.NotNil(t, loan.ReturnedAt)
	assert.WithinDuration(t, time.Now(), *loan.ReturnedAt, time.Minute)
	assert.Equal(t, entities.BookStatusAvailable, dbtest.BookStatus(t, db.DB, f.OverdueLoan.BookID))

	_, err = repo.Return(ctx, f.OverdueLoan.ID)
	assert.ErrorIs(t, err, ErrAlreadyReturned)

	// The released book can be borrowed again.
	_, err = repo.Checkout(ctx, CheckoutInput{BookID: f.OverdueLoan.BookID, MemberID: f.Ben.ID})
	assert.NoError(t, err)
}

func TestRepository_Delete(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db.DB)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	t.Run("open loan releases the book", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, f.OpenLoan.ID))
		_, err := repo.Get(ctx, f.OpenLoan.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, entities.BookStatusAvailable, dbtest.BookStatus(t, db.DB, f.OpenLoan.BookID))
	})

	t.Run("returned loan leaves the book alone", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, f.ReturnedLoan.ID))
		assert.Equal(t, entities.BookStatusAvailable, dbtest.BookStatus(t, db.DB, f.ReturnedLoan.BookID))
	})

	t.Run("missing loan", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, 9999), ErrNotFound)
	})
}

func TestRepository_List(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db.DB)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	t.Run("all loans newest first", func(t *testing.T) {
		rows, total, err := repo.List(ctx, ListParams{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, rows, 3)
		assert.Equal(t, f.ReturnedLoan.ID, rows[0].ID)
		require.NotNil(t, rows[0].MemberName)
		assert.Equal(t, "Ben Wu", *rows[0].MemberName)
	})

	t.Run("open only", func(t *testing.T) {
		_, total, err := repo.List(ctx, ListParams{Status: entities.LoanStatusOpen})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("returned only", func(t *testing.T) {
		rows, total, err := repo.List(ctx, ListParams{Status: entities.LoanStatusReturned})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, entities.LoanStatusReturned, rows[0].Status())
	})

	t.Run("by member and book", func(t *testing.T) {
		_, total, err := repo.List(ctx, ListParams{MemberID: &f.Ava.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		rows, total, err := repo.List(ctx, ListParams{MemberID: &f.Ava.ID, BookID: &f.Books[1].ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, f.OpenLoan.ID, rows[0].ID)
	})

	t.Run("page", func(t *testing.T) {
		rows, total, err := repo.List(ctx, ListParams{Page: database.Page{Limit: 1, Offset: 2}})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, rows, 1)
		assert.Equal(t, f.OverdueLoan.ID, rows[0].ID)
	})
}

func TestRepository_CountOverdue(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db.DB)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	loans, books, err := repo.CountOverdue(ctx, f.AsOf)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loans)
	assert.Equal(t, int64(1), books)

	loans, books, err = repo.CountOverdue(ctx, dbtest.Date(2024, time.February, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), loans)
	assert.Equal(t, int64(2), books)
}
