// Package reports provides read-only reporting queries over loans and the
// catalogue.
//
// Queries are assembled with goqu for the configured dialect and executed
// through gorm, so reports share the connection pool of the repositories.
//
// This package implements the ReportStore interface defined in internal/http/reports.go.
package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
	"gorm.io/gorm"

	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/entities"
)

const MaxLimit = 50

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrBookNotFound   = errors.New("book not found")
)

// Window narrows report rows by loan date and loan status.
type Window struct {
	Since  *time.Time
	Until  *time.Time
	Status entities.LoanStatus
}

type OverdueLoan struct {
	ID          uint       `json:"id"`
	BookID      uint       `json:"book_id"`
	MemberID    uint       `json:"member_id"`
	LoanedAt    time.Time  `json:"loaned_at"`
	DueAt       time.Time  `json:"due_at"`
	ReturnedAt  *time.Time `json:"returned_at"`
	BookTitle   string     `json:"book_title"`
	BookISBN    string     `gorm:"column:book_isbn" json:"book_isbn"`
	MemberName  string     `json:"member_name"`
	MemberEmail string     `json:"member_email"`
	DaysOverdue int        `gorm:"-" json:"days_overdue"`
}

type ActiveMember struct {
	ID           uint               `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	LoanCount    int64              `json:"loan_count"`
	LastLoanedAt database.Timestamp `json:"last_loaned_at"`
}

type BorrowedBook struct {
	ID           uint               `json:"id"`
	Title        string             `json:"title"`
	ISBN         string             `gorm:"column:isbn" json:"isbn"`
	AuthorID     *uint              `json:"author_id"`
	AuthorName   *string            `json:"author_name"`
	LoanCount    int64              `json:"loan_count"`
	LastLoanedAt database.Timestamp `json:"last_loaned_at"`
}

type StatusCounts struct {
	Available  int64 `json:"available"`
	CheckedOut int64 `json:"checkedOut"`
	Lost       int64 `json:"lost"`
}

type OverdueCounts struct {
	Loans int64 `json:"loans"`
	Books int64 `json:"books"`
}

type statusCount struct {
	Status entities.BookStatus
	Count  int64
}

type InventoryHealth struct {
	TotalBooks   int64         `json:"totalBooks"`
	StatusCounts StatusCounts  `json:"statusCounts"`
	Overdue      OverdueCounts `json:"overdue"`
}

type MemberHistory struct {
	Member entities.Member `json:"member"`
	Loans  []entities.Loan `json:"loans"`
}

type BookHistory struct {
	Book  entities.Book   `json:"book"`
	Loans []entities.Loan `json:"loans"`
}

type Repository struct {
	db      *gorm.DB
	dialect goqu.DialectWrapper
}

// NewRepository creates a reports repository building SQL for the given
// goqu dialect ("sqlite3" or "postgres").
func NewRepository(db *gorm.DB, dialect string) *Repository {
	if dialect == "" {
		dialect = database.DialectSQLite3
	}
	return &Repository{db: db, dialect: goqu.Dialect(dialect)}
}

var loanColumns = []any{
	goqu.I("l.id"),
	goqu.I("l.book_id"),
	goqu.I("l.member_id"),
	goqu.I("l.loaned_at"),
	goqu.I("l.due_at"),
	goqu.I("l.returned_at"),
	goqu.I("l.created_at"),
	goqu.I("l.updated_at"),
	goqu.I("b.title").As("book_title"),
	goqu.I("b.isbn").As("book_isbn"),
	goqu.I("m.name").As("member_name"),
	goqu.I("m.email").As("member_email"),
}

func (r *Repository) loanRows() *goqu.SelectDataset {
	return r.dialect.From(goqu.T("loans").As("l")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
		Join(goqu.T("members").As("m"), goqu.On(goqu.I("m.id").Eq(goqu.I("l.member_id"))))
}

func overdueAt(asOf time.Time) []exp.Expression {
	return []exp.Expression{
		goqu.I("l.returned_at").IsNull(),
		goqu.I("l.due_at").Lt(database.FormatTime(asOf)),
	}
}

func (w Window) expressions() []exp.Expression {
	var exprs []exp.Expression
	if w.Since != nil {
		exprs = append(exprs, goqu.I("l.loaned_at").Gte(database.FormatTime(*w.Since)))
	}
	if w.Until != nil {
		exprs = append(exprs, goqu.I("l.loaned_at").Lte(database.FormatTime(*w.Until)))
	}
	switch w.Status {
	case entities.LoanStatusOpen:
		exprs = append(exprs, goqu.I("l.returned_at").IsNull())
	case entities.LoanStatusReturned:
		exprs = append(exprs, goqu.I("l.returned_at").IsNotNull())
	}
	return exprs
}

func (r *Repository) scan(ctx context.Context, ds *goqu.SelectDataset, dest any) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return fmt.Errorf("build report query: %w", err)
	}
	return r.db.WithContext(ctx).Raw(query, args...).Scan(dest).Error
}

func (r *Repository) count(ctx context.Context, ds *goqu.SelectDataset) (int64, error) {
	var total int64
	if err := r.scan(ctx, ds.Select(goqu.COUNT(goqu.Star()).As("total")), &total); err != nil {
		return 0, err
	}
	return total, nil
}

// OverdueLoans lists open loans past due at asOf, oldest due date first.
func (r *Repository) OverdueLoans(ctx context.Context, asOf time.Time, page database.Page) ([]OverdueLoan, int64, error) {
	page = page.Normalize(MaxLimit)
	filtered := r.loanRows().Where(overdueAt(asOf)...)

	total, err := r.count(ctx, filtered)
	if err != nil {
		return nil, 0, fmt.Errorf("count overdue loans: %w", err)
	}

	rows := make([]OverdueLoan, 0)
	ds := filtered.Select(loanColumns...).
		Order(goqu.I("l.due_at").Asc(), goqu.I("l.id").Asc()).
		Limit(uint(page.Limit)).
		Offset(uint(page.Offset))
	if err := r.scan(ctx, ds, &rows); err != nil {
		return nil, 0, fmt.Errorf("list overdue loans: %w", err)
	}

	for i := range rows {
		rows[i].DaysOverdue = DaysBetween(rows[i].DueAt, asOf)
	}
	return rows, total, nil
}

// DaysBetween returns the number of whole days from due to asOf.
func DaysBetween(due, asOf time.Time) int {
	return int(asOf.Sub(due) / (24 * time.Hour))
}

// MostActiveMembers ranks members by number of loans in the window.
func (r *Repository) MostActiveMembers(ctx context.Context, limit int, window Window) ([]ActiveMember, error) {
	limit = database.Page{Limit: limit}.Normalize(MaxLimit).Limit

	ds := r.dialect.From(goqu.T("loans").As("l")).
		Join(goqu.T("members").As("m"), goqu.On(goqu.I("m.id").Eq(goqu.I("l.member_id")))).
		Select(
			goqu.I("m.id"),
			goqu.I("m.name"),
			goqu.I("m.email"),
			goqu.COUNT(goqu.I("l.id")).As("loan_count"),
			goqu.MAX(goqu.I("l.loaned_at")).As("last_loaned_at"),
		).
		Where(window.expressions()...).
		GroupBy(goqu.I("m.id"), goqu.I("m.name"), goqu.I("m.email")).
		Order(goqu.C("loan_count").Desc(), goqu.C("last_loaned_at").Desc(), goqu.I("m.id").Asc()).
		Limit(uint(limit))

	rows := make([]ActiveMember, 0)
	if err := r.scan(ctx, ds, &rows); err != nil {
		return nil, fmt.Errorf("most active members: %w", err)
	}
	return rows, nil
}

// MostBorrowedBooks ranks books by number of loans in the window.
func (r *Repository) MostBorrowedBooks(ctx context.Context, limit int, window Window) ([]BorrowedBook, error) {
	limit = database.Page{Limit: limit}.Normalize(MaxLimit).Limit

	ds := r.dialect.From(goqu.T("loans").As("l")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
		LeftJoin(goqu.T("authors").As("a"), goqu.On(goqu.I("a.id").Eq(goqu.I("b.author_id")))).
		Select(
			goqu.I("b.id"),
			goqu.I("b.title"),
			goqu.I("b.isbn"),
			goqu.I("b.author_id"),
			goqu.I("a.name").As("author_name"),
			goqu.COUNT(goqu.I("l.id")).As("loan_count"),
			goqu.MAX(goqu.I("l.loaned_at")).As("last_loaned_at"),
		).
		Where(window.expressions()...).
		GroupBy(goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.isbn"), goqu.I("b.author_id"), goqu.I("a.name")).
		Order(goqu.C("loan_count").Desc(), goqu.C("last_loaned_at").Desc(), goqu.I("b.id").Asc()).
		Limit(uint(limit))

	rows := make([]BorrowedBook, 0)
	if err := r.scan(ctx, ds, &rows); err != nil {
		return nil, fmt.Errorf("most borrowed books: %w", err)
	}
	return rows, nil
}

// InventoryHealth summarises book statuses and overdue loans at asOf.
func (r *Repository) InventoryHealth(ctx context.Context, asOf time.Time) (*InventoryHealth, error) {
	var statuses []statusCount
	byStatus := r.dialect.From("books").
		Select(goqu.C("status"), goqu.COUNT(goqu.Star()).As("count")).
		GroupBy(goqu.C("status"))
	if err := r.scan(ctx, byStatus, &statuses); err != nil {
		return nil, fmt.Errorf("count books by status: %w", err)
	}

	health := &InventoryHealth{}
	for _, s := range statuses {
		health.TotalBooks += s.Count
		switch s.Status {
		case entities.BookStatusAvailable:
			health.StatusCounts.Available = s.Count
		case entities.BookStatusCheckedOut:
			health.StatusCounts.CheckedOut = s.Count
		case entities.BookStatusLost:
			health.StatusCounts.Lost = s.Count
		}
	}

	overdue := r.dialect.From(goqu.T("loans").As("l")).
		Select(
			goqu.COUNT(goqu.Star()).As("loans"),
			goqu.COUNT(goqu.DISTINCT("l.book_id")).As("books"),
		).
		Where(overdueAt(asOf)...)
	if err := r.scan(ctx, overdue, &health.Overdue); err != nil {
		return nil, fmt.Errorf("count overdue loans: %w", err)
	}
	return health, nil
}

// MemberLoanHistory returns the member and a page of their loans, newest first.
func (r *Repository) MemberLoanHistory(ctx context.Context, memberID uint, page database.Page, window Window) (*MemberHistory, int64, error) {
	var member entities.Member
	err := r.db.WithContext(ctx).First(&member, memberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, ErrMemberNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load member %d: %w", memberID, err)
	}

	loans, total, err := r.history(ctx, goqu.I("l.member_id").Eq(memberID), page, window)
	if err != nil {
		return nil, 0, fmt.Errorf("member %d loan history: %w", memberID, err)
	}
	return &MemberHistory{Member: member, Loans: loans}, total, nil
}

// BookLoanHistory returns the book and a page of its loans, newest first.
func (r *Repository) BookLoanHistory(ctx context.Context, bookID uint, page database.Page, window Window) (*BookHistory, int64, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).
		Model(&entities.Book{}).
		Select("books.*, authors.name AS author_name").
		Joins("LEFT JOIN authors ON authors.id = books.author_id").
		Where("books.id = ?", bookID).
		First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, ErrBookNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load book %d: %w", bookID, err)
	}

	loans, total, err := r.history(ctx, goqu.I("l.book_id").Eq(bookID), page, window)
	if err != nil {
		return nil, 0, fmt.Errorf("book %d loan history: %w", bookID, err)
	}
	return &BookHistory{Book: book, Loans: loans}, total, nil
}

func (r *Repository) history(ctx context.Context, owner exp.Expression, page database.Page, window Window) ([]entities.Loan, int64, error) {
	page = page.Normalize(MaxLimit)
	filtered := r.loanRows().Where(append(window.expressions(), owner)...)

	total, err := r.count(ctx, filtered)
	if err != nil {
		return nil, 0, err
	}

	loans := make([]entities.Loan, 0)
	ds := filtered.Select(loanColumns...).
		Order(goqu.I("l.loaned_at").Desc(), goqu.I("l.id").Desc()).
		Limit(uint(page.Limit)).
		Offset(uint(page.Offset))
	if err := r.scan(ctx, ds, &loans); err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}
