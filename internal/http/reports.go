package http

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/database/reports"
	"github.com/seatgenie/library/internal/entities"
)

// ReportStore defines the read-only reporting queries.
type ReportStore interface {
	OverdueLoans(ctx context.Context, asOf time.Time, page database.Page) ([]reports.OverdueLoan, int64, error)
	MostActiveMembers(ctx context.Context, limit int, window reports.Window) ([]reports.ActiveMember, error)
	MostBorrowedBooks(ctx context.Context, limit int, window reports.Window) ([]reports.BorrowedBook, error)
	InventoryHealth(ctx context.Context, asOf time.Time) (*reports.InventoryHealth, error)
	MemberLoanHistory(ctx context.Context, memberID uint, page database.Page, window reports.Window) (*reports.MemberHistory, int64, error)
	BookLoanHistory(ctx context.Context, bookID uint, page database.Page, window reports.Window) (*reports.BookHistory, int64, error)
}

type ReportsController struct {
	store ReportStore
	now   func() time.Time
}

func NewReportsController(store ReportStore) *ReportsController {
	return &ReportsController{store: store, now: time.Now}
}

const rfc3339 = "2006-01-02T15:04:05Z07:00"

type reportPageQuery struct {
	Limit  int `form:"limit,default=25" binding:"min=1,max=50"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

type asOfQuery struct {
	AsOf *time.Time `form:"asOf" time_format:"2006-01-02T15:04:05Z07:00"`
}

type overdueQuery struct {
	reportPageQuery
	asOfQuery
}

type rankingQuery struct {
	Limit  int        `form:"limit,default=25" binding:"min=1,max=50"`
	Since  *time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	Status string     `form:"status" binding:"omitempty,oneof=open returned"`
}

type historyQuery struct {
	reportPageQuery
	Since  *time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	Until  *time.Time `form:"until" time_format:"2006-01-02T15:04:05Z07:00"`
	Status string     `form:"status" binding:"omitempty,oneof=open returned"`
}

type overdueMeta struct {
	PageMeta
	AsOf string `json:"asOf"`
}

type rankingMeta struct {
	Limit  int     `json:"limit"`
	Since  *string `json:"since"`
	Status *string `json:"status"`
}

type historyMeta struct {
	PageMeta
	Since  *string `json:"since"`
	Until  *string `json:"until"`
	Status *string `json:"status"`
}

func (rc *ReportsController) asOf(q asOfQuery) time.Time {
	if q.AsOf != nil {
		return q.AsOf.UTC()
	}
	return rc.now().UTC()
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(rfc3339)
	return &s
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// OverdueLoans lists open loans past due, oldest due date first
// GET /api/reports/overdue-loans
func (rc *ReportsController) OverdueLoans(c *gin.Context) {
	var q overdueQuery
	if !bindQuery(c, &q) {
		return
	}
	asOf := rc.asOf(q.asOfQuery)

	rows, total, err := rc.store.OverdueLoans(c.Request.Context(), asOf, database.Page{Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		respondInternalError(c, err, "overdue loans report")
		return
	}
	respondList(c, rows, overdueMeta{
		PageMeta: PageMeta{Total: total, Limit: q.Limit, Offset: q.Offset},
		AsOf:     asOf.Format(rfc3339),
	})
}

// MostActiveMembers ranks members by loan count
// GET /api/reports/most-active-members
func (rc *ReportsController) MostActiveMembers(c *gin.Context) {
	var q rankingQuery
	if !bindQuery(c, &q) {
		return
	}

	rows, err := rc.store.MostActiveMembers(c.Request.Context(), q.Limit, q.window())
	if err != nil {
		respondInternalError(c, err, "most active members report")
		return
	}
	respondList(c, rows, q.meta())
}

// MostBorrowedBooks ranks books by loan count
// GET /api/reports/most-borrowed-books
func (rc *ReportsController) MostBorrowedBooks(c *gin.Context) {
	var q rankingQuery
	if !bindQuery(c, &q) {
		return
	}

	rows, err := rc.store.MostBorrowedBooks(c.Request.Context(), q.Limit, q.window())
	if err != nil {
		respondInternalError(c, err, "most borrowed books report")
		return
	}
	respondList(c, rows, q.meta())
}

// InventoryHealth summarises book statuses and overdue loans
// GET /api/reports/inventory-health
func (rc *ReportsController) InventoryHealth(c *gin.Context) {
	var at asOfQuery
	if !bindQuery(c, &at) {
		return
	}
	asOf := rc.asOf(at)

	health, err := rc.store.InventoryHealth(c.Request.Context(), asOf)
	if err != nil {
		respondInternalError(c, err, "inventory health report")
		return
	}
	respondList(c, health, gin.H{"asOf": asOf.Format(rfc3339)})
}

// MemberLoanHistory returns a member and a page of their loans
// GET /api/reports/member-loan-history/:id
func (rc *ReportsController) MemberLoanHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "member")
	if !ok {
		return
	}
	var q historyQuery
	if !bindHistoryQuery(c, &q) {
		return
	}

	history, total, err := rc.store.MemberLoanHistory(c.Request.Context(), id, q.page(), q.window())
	if err != nil {
		if errors.Is(err, reports.ErrMemberNotFound) {
			respondNotFound(c, "Member")
			return
		}
		respondInternalError(c, err, "member loan history")
		return
	}
	respondList(c, history, q.meta(total))
}

// BookLoanHistory returns a book and a page of its loans
// GET /api/reports/book-loan-history/:id
func (rc *ReportsController) BookLoanHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "book")
	if !ok {
		return
	}
	var q historyQuery
	if !bindHistoryQuery(c, &q) {
		return
	}

	history, total, err := rc.store.BookLoanHistory(c.Request.Context(), id, q.page(), q.window())
	if err != nil {
		if errors.Is(err, reports.ErrBookNotFound) {
			respondNotFound(c, "Book")
			return
		}
		respondInternalError(c, err, "book loan history")
		return
	}
	respondList(c, history, q.meta(total))
}

func bindHistoryQuery(c *gin.Context, q *historyQuery) bool {
	if !bindQuery(c, q) {
		return false
	}
	if q.Since != nil && q.Until != nil && q.Until.Before(*q.Since) {
		respondValidation(c, map[string]string{"until": "must not be before since"})
		return false
	}
	return true
}

func (q rankingQuery) window() reports.Window {
	return reports.Window{Since: utcPtr(q.Since), Status: entities.LoanStatus(q.Status)}
}

func (q rankingQuery) meta() rankingMeta {
	return rankingMeta{Limit: q.Limit, Since: formatOptional(q.Since), Status: optionalString(q.Status)}
}

func (q historyQuery) page() database.Page {
	return database.Page{Limit: q.Limit, Offset: q.Offset}
}

func (q historyQuery) window() reports.Window {
	return reports.Window{Since: utcPtr(q.Since), Until: utcPtr(q.Until), Status: entities.LoanStatus(q.Status)}
}

func (q historyQuery) meta(total int64) historyMeta {
	return historyMeta{
		PageMeta: PageMeta{Total: total, Limit: q.Limit, Offset: q.Offset},
		Since:    formatOptional(q.Since),
		Until:    formatOptional(q.Until),
		Status:   optionalString(q.Status),
	}
}
