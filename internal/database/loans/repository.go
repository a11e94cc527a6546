// Package loans provides the checkout and return lifecycle.
//
// This package implements the LoanStore interface defined in internal/http/loans.go.
//
// Every operation that opens or closes a loan flips the book's status in
// the same transaction, using conditional updates so that two concurrent
// checkouts of one book cannot both succeed. The partial unique index on
// open loans backs this up at the schema level.
package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/entities"
)

var (
	ErrNotFound        = errors.New("loan not found")
	ErrBookNotFound    = errors.New("book not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrBookUnavailable = errors.New("book not available")
	ErrAlreadyReturned = errors.New("loan already returned")
	ErrDueBeforeLoan   = errors.New("due_at must be after loaned_at")
	ErrNoChanges       = errors.New("at least one of due_at or returned_at is required")
)

const DefaultLoanPeriod = 14 * 24 * time.Hour

type CheckoutInput struct {
	BookID   uint
	MemberID uint
	LoanedAt time.Time // zero means now
	DueAt    time.Time // zero means LoanedAt plus the loan period
}

type UpdateInput struct {
	DueAt      *time.Time
	ReturnedAt *time.Time
}

type ListParams struct {
	database.Page
	Status   entities.LoanStatus
	MemberID *uint
	BookID   *uint
}

type Repository struct {
	db         *gorm.DB
	loanPeriod time.Duration
	now        func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		loanPeriod: DefaultLoanPeriod,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithLoanPeriod sets the period used when a checkout has no due date.
func (r *Repository) WithLoanPeriod(period time.Duration) *Repository {
	if period > 0 {
		r.loanPeriod = period
	}
	return r
}

// withDetails selects loans joined with book and member display fields.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&entities.Loan{}).
		Select("loans.*, books.title AS book_title, books.isbn AS book_isbn, " +
			"members.name AS member_name, members.email AS member_email").
		Joins("JOIN books ON books.id = loans.book_id").
		Joins("JOIN members ON members.id = loans.member_id")
}

func applyFilter(query *gorm.DB, params ListParams) *gorm.DB {
	switch params.Status {
	case entities.LoanStatusOpen:
		query = query.Where("loans.returned_at IS NULL")
	case entities.LoanStatusReturned:
		query = query.Where("loans.returned_at IS NOT NULL")
	}
	if params.MemberID != nil {
		query = query.Where("loans.member_id = ?", *params.MemberID)
	}
	if params.BookID != nil {
		query = query.Where("loans.book_id = ?", *params.BookID)
	}
	return query
}

// List returns loans newest first.
func (r *Repository) List(ctx context.Context, params ListParams) ([]entities.Loan, int64, error) {
	page := params.Page.Normalize(database.MaxLimit)

	var total int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&entities.Loan{}), params).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count loans: %w", err)
	}

	loans := make([]entities.Loan, 0)
	err := applyFilter(withDetails(r.db.WithContext(ctx)), params).
		Order("loans.id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&loans).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list loans: %w", err)
	}
	return loans, total, nil
}

func (r *Repository) Get(ctx context.Context, id uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := withDetails(r.db.WithContext(ctx)).Where("loans.id = ?", id).First(&loan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get loan %d: %w", id, err)
	}
	return &loan, nil
}

// Checkout opens a loan and marks the book checked out.
//
// The due date is only checked against an explicit loan date. With the loan
// date defaulted to now, a past due date records a loan that is already
// overdue.
func (r *Repository) Checkout(ctx context.Context, in CheckoutInput) (*entities.Loan, error) {
	loanedAt := in.LoanedAt.UTC()
	if in.LoanedAt.IsZero() {
		loanedAt = r.now()
	}
	dueAt := in.DueAt.UTC()
	if in.DueAt.IsZero() {
		dueAt = loanedAt.Add(r.loanPeriod)
	}
	if !in.LoanedAt.IsZero() && !in.DueAt.IsZero() && !dueAt.After(loanedAt) {
		return nil, ErrDueBeforeLoan
	}

	loan := entities.Loan{
		BookID:   in.BookID,
		MemberID: in.MemberID,
		LoanedAt: loanedAt,
		DueAt:    dueAt,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		err := tx.Select("id", "status").First(&book, in.BookID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		if err != nil {
			return fmt.Errorf("load book %d: %w", in.BookID, err)
		}
		if book.Status != entities.BookStatusAvailable {
			return ErrBookUnavailable
		}

		var members int64
		if err := tx.Model(&entities.Member{}).Where("id = ?", in.MemberID).Count(&members).Error; err != nil {
			return fmt.Errorf("check member %d: %w", in.MemberID, err)
		}
		if members == 0 {
			return ErrMemberNotFound
		}

		err = tx.Omit("Book", "Member").Create(&loan).Error
		if database.IsUniqueViolation(err) {
			return ErrBookUnavailable
		}
		if err != nil {
			return fmt.Errorf("create loan: %w", err)
		}

		result := tx.Model(&entities.Book{}).
			Where("id = ? AND status = ?", in.BookID, entities.BookStatusAvailable).
			Update("status", entities.BookStatusCheckedOut)
		if result.Error != nil {
			return fmt.Errorf("check out book %d: %w", in.BookID, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrBookUnavailable
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, loan.ID)
}

// Update changes the due date and/or closes the loan. Closing an open loan
// makes the book available again.
func (r *Repository) Update(ctx context.Context, id uint, in UpdateInput) (*entities.Loan, error) {
	if in.DueAt == nil && in.ReturnedAt == nil {
		return nil, ErrNoChanges
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan entities.Loan
		err := tx.First(&loan, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load loan %d: %w", id, err)
		}

		updates := map[string]any{}
		if in.DueAt != nil {
			updates["due_at"] = in.DueAt.UTC()
		}

		closing := false
		if in.ReturnedAt != nil {
			if !loan.IsOpen() {
				return ErrAlreadyReturned
			}
			updates["returned_at"] = in.ReturnedAt.UTC()
			closing = true
		}

		if err := tx.Model(&loan).Updates(updates).Error; err != nil {
			return fmt.Errorf("update loan %d: %w", id, err)
		}
		if closing {
			return releaseBook(tx, loan.BookID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, id)
}

// Return closes an open loan as of now.
func (r *Repository) Return(ctx context.Context, id uint) (*entities.Loan, error) {
	now := r.now()
	return r.Update(ctx, id, UpdateInput{ReturnedAt: &now})
}

// Delete removes a loan. Deleting an open loan releases its book.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan entities.Loan
		err := tx.First(&loan, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load loan %d: %w", id, err)
		}

		if err := tx.Delete(&entities.Loan{}, id).Error; err != nil {
			return fmt.Errorf("delete loan %d: %w", id, err)
		}
		if loan.IsOpen() {
			return releaseBook(tx, loan.BookID)
		}
		return nil
	})
}

// CountOverdue counts open loans past due at asOf and the distinct books they hold.
func (r *Repository) CountOverdue(ctx context.Context, asOf time.Time) (loans int64, books int64, err error) {
	overdue := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&entities.Loan{}).
			Where("returned_at IS NULL AND due_at < ?", asOf.UTC())
	}

	if err := overdue().Count(&loans).Error; err != nil {
		return 0, 0, fmt.Errorf("count overdue loans: %w", err)
	}
	if err := overdue().Distinct("book_id").Count(&books).Error; err != nil {
		return 0, 0, fmt.Errorf("count overdue books: %w", err)
	}
	return loans, books, nil
}

func releaseBook(tx *gorm.DB, bookID uint) error {
	err := tx.Model(&entities.Book{}).
		Where("id = ? AND status = ?", bookID, entities.BookStatusCheckedOut).
		Update("status", entities.BookStatusAvailable).Error
	if err != nil {
		return fmt.Errorf("release book %d: %w", bookID, err)
	}
	return nil
}
