package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seatgenie/library/internal/audit"
	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/database/members"
	"github.com/seatgenie/library/internal/entities"
)

// MemberStore defines database operations for members.
type MemberStore interface {
	List(ctx context.Context, params members.ListParams) ([]entities.Member, int64, error)
	Get(ctx context.Context, id uint) (*entities.Member, error)
	Create(ctx context.Context, member *entities.Member) error
	Update(ctx context.Context, member *entities.Member) error
	Delete(ctx context.Context, id uint) error
}

type MembersController struct {
	store    MemberStore
	recorder ChangeRecorder
}

func NewMembersController(store MemberStore, recorder ChangeRecorder) *MembersController {
	return &MembersController{store: store, recorder: recorder}
}

type memberListQuery struct {
	pageQuery
	Q         string `form:"q"`
	SortBy    string `form:"sortBy" binding:"omitempty,oneof=id name email created_at"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

type memberRequest struct {
	Name  string  `json:"name" binding:"required,notblank,max=200"`
	Email string  `json:"email" binding:"required,email,max=254"`
	Phone *string `json:"phone" binding:"omitempty,min=4,max=20"`
}

func (r memberRequest) entity(id uint) *entities.Member {
	return &entities.Member{ID: id, Name: r.Name, Email: r.Email, Phone: r.Phone}
}

// List returns a page of members
// GET /api/members
func (mc *MembersController) List(c *gin.Context) {
	var q memberListQuery
	if !bindQuery(c, &q) {
		return
	}

	rows, total, err := mc.store.List(c.Request.Context(), members.ListParams{
		Page: database.Page{Limit: q.Limit, Offset: q.Offset},
		Sort: database.Sort{By: q.SortBy, Order: database.SortOrder(q.SortOrder)},
		Q:    q.Q,
	})
	if err != nil {
		respondInternalError(c, err, "list members")
		return
	}
	respondList(c, rows, q.searchMeta(total, q.Q, q.SortBy, q.SortOrder))
}

// Get returns one member
// GET /api/members/:id
func (mc *MembersController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "member")
	if !ok {
		return
	}

	member, err := mc.store.Get(c.Request.Context(), id)
	if err != nil {
		mc.respondStoreError(c, err, "get member")
		return
	}
	respondData(c, http.StatusOK, member)
}

// Create registers a member
// POST /api/members
func (mc *MembersController) Create(c *gin.Context) {
	var req memberRequest
	if !bindJSON(c, &req) {
		return
	}

	member := req.entity(0)
	if err := mc.store.Create(c.Request.Context(), member); err != nil {
		mc.respondStoreError(c, err, "create member")
		return
	}

	recordChange(c, mc.recorder, audit.Change{
		EventType:   entities.AuditEventCreate,
		Action:      "member_create",
		EntityType:  "member",
		EntityID:    member.ID,
		Description: "Registered member " + member.Name,
	})
	respondData(c, http.StatusCreated, member)
}

// Update replaces a member's contact details
// PUT /api/members/:id
func (mc *MembersController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "member")
	if !ok {
		return
	}
	var req memberRequest
	if !bindJSON(c, &req) {
		return
	}

	member := req.entity(id)
	if err := mc.store.Update(c.Request.Context(), member); err != nil {
		mc.respondStoreError(c, err, "update member")
		return
	}

	recordChange(c, mc.recorder, audit.Change{
		EventType:   entities.AuditEventUpdate,
		Action:      "member_update",
		EntityType:  "member",
		EntityID:    id,
		Description: "Updated member " + member.Name,
	})
	respondData(c, http.StatusOK, member)
}

// Delete removes a member and their closed loans
// DELETE /api/members/:id
func (mc *MembersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "member")
	if !ok {
		return
	}

	if err := mc.store.Delete(c.Request.Context(), id); err != nil {
		mc.respondStoreError(c, err, "delete member")
		return
	}

	recordChange(c, mc.recorder, audit.Change{
		EventType:   entities.AuditEventDelete,
		Action:      "member_delete",
		EntityType:  "member",
		EntityID:    id,
		Description: "Deleted member",
	})
	respondNoContent(c)
}

func (mc *MembersController) respondStoreError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, members.ErrNotFound):
		respondNotFound(c, "Member")
	case errors.Is(err, members.ErrDuplicateEmail):
		respondConflict(c, "Member email already exists")
	case errors.Is(err, members.ErrActiveLoans):
		respondConflict(c, "Member has active loans")
	default:
		respondInternalError(c, err, context)
	}
}
