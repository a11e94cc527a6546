package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seatgenie/library/internal/audit"
	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/database/authors"
	"github.com/seatgenie/library/internal/entities"
)

// AuthorStore defines database operations for authors.
type AuthorStore interface {
	List(ctx context.Context, params authors.ListParams) ([]entities.Author, int64, error)
	Get(ctx context.Context, id uint) (*entities.Author, error)
	Create(ctx context.Context, author *entities.Author) error
	Update(ctx context.Context, author *entities.Author) error
	Delete(ctx context.Context, id uint) error
}

type AuthorsController struct {
	store    AuthorStore
	recorder ChangeRecorder
}

func NewAuthorsController(store AuthorStore, recorder ChangeRecorder) *AuthorsController {
	return &AuthorsController{store: store, recorder: recorder}
}

type authorListQuery struct {
	pageQuery
	Q         string `form:"q"`
	SortBy    string `form:"sortBy" binding:"omitempty,oneof=id name created_at"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

type authorRequest struct {
	Name string  `json:"name" binding:"required,notblank,max=200"`
	Bio  *string `json:"bio" binding:"omitempty,max=2000"`
}

func (r authorRequest) entity(id uint) *entities.Author {
	return &entities.Author{ID: id, Name: r.Name, Bio: r.Bio}
}

// List returns a page of authors
// GET /api/authors
func (ac *AuthorsController) List(c *gin.Context) {
	var q authorListQuery
	if !bindQuery(c, &q) {
		return
	}

	rows, total, err := ac.store.List(c.Request.Context(), authors.ListParams{
		Page: database.Page{Limit: q.Limit, Offset: q.Offset},
		Sort: database.Sort{By: q.SortBy, Order: database.SortOrder(q.SortOrder)},
		Q:    q.Q,
	})
	if err != nil {
		respondInternalError(c, err, "list authors")
		return
	}
	respondList(c, rows, q.searchMeta(total, q.Q, q.SortBy, q.SortOrder))
}

// Get returns one author
// GET /api/authors/:id
func (ac *AuthorsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "author")
	if !ok {
		return
	}

	author, err := ac.store.Get(c.Request.Context(), id)
	if err != nil {
		ac.respondStoreError(c, err, "get author")
		return
	}
	respondData(c, http.StatusOK, author)
}

// Create adds an author
// POST /api/authors
func (ac *AuthorsController) Create(c *gin.Context) {
	var req authorRequest
	if !bindJSON(c, &req) {
		return
	}

	author := req.entity(0)
	if err := ac.store.Create(c.Request.Context(), author); err != nil {
		respondInternalError(c, err, "create author")
		return
	}

	recordChange(c, ac.recorder, audit.Change{
		EventType:   entities.AuditEventCreate,
		Action:      "author_create",
		EntityType:  "author",
		EntityID:    author.ID,
		Description: "Created author " + author.Name,
	})
	respondData(c, http.StatusCreated, author)
}

// Update replaces an author's name and bio
// PUT /api/authors/:id
func (ac *AuthorsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "author")
	if !ok {
		return
	}
	var req authorRequest
	if !bindJSON(c, &req) {
		return
	}

	author := req.entity(id)
	if err := ac.store.Update(c.Request.Context(), author); err != nil {
		ac.respondStoreError(c, err, "update author")
		return
	}

	recordChange(c, ac.recorder, audit.Change{
		EventType:   entities.AuditEventUpdate,
		Action:      "author_update",
		EntityType:  "author",
		EntityID:    id,
		Description: "Updated author " + author.Name,
	})
	respondData(c, http.StatusOK, author)
}

// Delete removes an author; their books remain without an author
// DELETE /api/authors/:id
func (ac *AuthorsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "author")
	if !ok {
		return
	}

	if err := ac.store.Delete(c.Request.Context(), id); err != nil {
		ac.respondStoreError(c, err, "delete author")
		return
	}

	recordChange(c, ac.recorder, audit.Change{
		EventType:   entities.AuditEventDelete,
		Action:      "author_delete",
		EntityType:  "author",
		EntityID:    id,
		Description: "Deleted author",
	})
	respondNoContent(c)
}

func (ac *AuthorsController) respondStoreError(c *gin.Context, err error, context string) {
	if errors.Is(err, authors.ErrNotFound) {
		respondNotFound(c, "Author")
		return
	}
	respondInternalError(c, err, context)
}
