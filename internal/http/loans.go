package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seatgenie/library/internal/audit"
	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/database/loans"
	"github.com/seatgenie/library/internal/entities"
)

// LoanStore defines the loan lifecycle operations.
type LoanStore interface {
	List(ctx context.Context, params loans.ListParams) ([]entities.Loan, int64, error)
	Get(ctx context.Context, id uint) (*entities.Loan, error)
	Checkout(ctx context.Context, in loans.CheckoutInput) (*entities.Loan, error)
	Update(ctx context.Context, id uint, in loans.UpdateInput) (*entities.Loan, error)
	Return(ctx context.Context, id uint) (*entities.Loan, error)
	Delete(ctx context.Context, id uint) error
}

type LoansController struct {
	store    LoanStore
	recorder ChangeRecorder
}

func NewLoansController(store LoanStore, recorder ChangeRecorder) *LoansController {
	return &LoansController{store: store, recorder: recorder}
}

type loanListQuery struct {
	pageQuery
	Status   string `form:"status" binding:"omitempty,oneof=open returned"`
	MemberID *uint  `form:"memberId" binding:"omitempty,min=1"`
	BookID   *uint  `form:"bookId" binding:"omitempty,min=1"`
}

type loanListMeta struct {
	PageMeta
	Status *string `json:"status"`
}

type checkoutRequest struct {
	BookID   uint       `json:"bookId" binding:"required,min=1"`
	MemberID uint       `json:"memberId" binding:"required,min=1"`
	LoanedAt *time.Time `json:"loanedAt"`
	DueAt    *time.Time `json:"dueAt"`
}

type loanUpdateRequest struct {
	DueAt      *time.Time `json:"dueAt"`
	ReturnedAt *time.Time `json:"returnedAt"`
}

// List returns loans newest first
// GET /api/loans
func (lc *LoansController) List(c *gin.Context) {
	var q loanListQuery
	if !bindQuery(c, &q) {
		return
	}

	rows, total, err := lc.store.List(c.Request.Context(), loans.ListParams{
		Page:     database.Page{Limit: q.Limit, Offset: q.Offset},
		Status:   entities.LoanStatus(q.Status),
		MemberID: q.MemberID,
		BookID:   q.BookID,
	})
	if err != nil {
		respondInternalError(c, err, "list loans")
		return
	}
	respondList(c, rows, loanListMeta{PageMeta: q.meta(total), Status: optionalString(q.Status)})
}

// Get returns one loan
// GET /api/loans/:id
func (lc *LoansController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "loan")
	if !ok {
		return
	}

	loan, err := lc.store.Get(c.Request.Context(), id)
	if err != nil {
		lc.respondStoreError(c, err, "get loan")
		return
	}
	respondData(c, http.StatusOK, loan)
}

// Create checks a book out to a member
// POST /api/loans
func (lc *LoansController) Create(c *gin.Context) {
	var req checkoutRequest
	if !bindJSON(c, &req) {
		return
	}

	in := loans.CheckoutInput{BookID: req.BookID, MemberID: req.MemberID}
	if req.LoanedAt != nil {
		in.LoanedAt = *req.LoanedAt
	}
	if req.DueAt != nil {
		in.DueAt = *req.DueAt
	}

	loan, err := lc.store.Checkout(c.Request.Context(), in)
	if err != nil {
		lc.respondStoreError(c, err, "checkout")
		return
	}

	recordChange(c, lc.recorder, audit.Change{
		EventType:   entities.AuditEventCheckout,
		Action:      "loan_checkout",
		EntityType:  "loan",
		EntityID:    loan.ID,
		Description: fmt.Sprintf("Book %d checked out to member %d", loan.BookID, loan.MemberID),
		Metadata: map[string]any{
			"book_id":   loan.BookID,
			"member_id": loan.MemberID,
			"due_at":    loan.DueAt.Format(time.RFC3339),
			"status":    loan.Status(),
		},
	})
	respondData(c, http.StatusCreated, loan)
}

// Update changes the due date and/or records the return
// PUT /api/loans/:id
func (lc *LoansController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "loan")
	if !ok {
		return
	}
	var req loanUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.DueAt == nil && req.ReturnedAt == nil {
		respondValidation(c, map[string]string{"body": "dueAt or returnedAt is required"})
		return
	}

	loan, err := lc.store.Update(c.Request.Context(), id, loans.UpdateInput{
		DueAt:      req.DueAt,
		ReturnedAt: req.ReturnedAt,
	})
	if err != nil {
		lc.respondStoreError(c, err, "update loan")
		return
	}

	change := audit.Change{
		EventType:   entities.AuditEventUpdate,
		Action:      "loan_update",
		EntityType:  "loan",
		EntityID:    id,
		Description: fmt.Sprintf("Updated loan %d", id),
		Metadata:    map[string]any{"status": loan.Status()},
	}
	if req.ReturnedAt != nil {
		change.EventType = entities.AuditEventReturn
		change.Action = "loan_return"
		change.Description = fmt.Sprintf("Book %d returned by member %d", loan.BookID, loan.MemberID)
	}
	recordChange(c, lc.recorder, change)
	respondData(c, http.StatusOK, loan)
}

// Return closes an open loan as of now
// POST /api/loans/:id/return
func (lc *LoansController) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "loan")
	if !ok {
		return
	}

	loan, err := lc.store.Return(c.Request.Context(), id)
	if err != nil {
		lc.respondStoreError(c, err, "return loan")
		return
	}

	recordChange(c, lc.recorder, audit.Change{
		EventType:   entities.AuditEventReturn,
		Action:      "loan_return",
		EntityType:  "loan",
		EntityID:    id,
		Description: fmt.Sprintf("Book %d returned by member %d", loan.BookID, loan.MemberID),
		Metadata:    map[string]any{"status": loan.Status()},
	})
	respondData(c, http.StatusOK, loan)
}

// Delete removes a loan, releasing its book if it was open
// DELETE /api/loans/:id
func (lc *LoansController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "loan")
	if !ok {
		return
	}

	if err := lc.store.Delete(c.Request.Context(), id); err != nil {
		lc.respondStoreError(c, err, "delete loan")
		return
	}

	recordChange(c, lc.recorder, audit.Change{
		EventType:   entities.AuditEventDelete,
		Action:      "loan_delete",
		EntityType:  "loan",
		EntityID:    id,
		Description: fmt.Sprintf("Deleted loan %d", id),
	})
	respondNoContent(c)
}

func (lc *LoansController) respondStoreError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, loans.ErrNotFound):
		respondNotFound(c, "Loan")
	case errors.Is(err, loans.ErrBookNotFound):
		respondNotFound(c, "Book")
	case errors.Is(err, loans.ErrMemberNotFound):
		respondNotFound(c, "Member")
	case errors.Is(err, loans.ErrBookUnavailable):
		respondConflict(c, "Book not available")
	case errors.Is(err, loans.ErrAlreadyReturned):
		respondConflict(c, "Loan already returned")
	case errors.Is(err, loans.ErrDueBeforeLoan):
		respondValidation(c, map[string]string{"dueAt": "must be after loanedAt"})
	case errors.Is(err, loans.ErrNoChanges):
		respondValidation(c, map[string]string{"body": "dueAt or returnedAt is required"})
	default:
		respondInternalError(c, err, context)
	}
}
