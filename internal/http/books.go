package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seatgenie/library/internal/audit"
	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/database/books"
	"github.com/seatgenie/library/internal/entities"
)

// BookStore defines database operations for the catalogue.
type BookStore interface {
	List(ctx context.Context, params books.ListParams) ([]entities.Book, int64, error)
	Get(ctx context.Context, id uint) (*entities.Book, error)
	Create(ctx context.Context, book *entities.Book) error
	Update(ctx context.Context, book *entities.Book) error
	Delete(ctx context.Context, id uint) error
}

type BooksController struct {
	store    BookStore
	recorder ChangeRecorder
}

func NewBooksController(store BookStore, recorder ChangeRecorder) *BooksController {
	return &BooksController{store: store, recorder: recorder}
}

type bookListQuery struct {
	pageQuery
	Status        string `form:"status" binding:"omitempty,oneof=available checked_out lost"`
	AuthorID      *uint  `form:"authorId" binding:"omitempty,min=1"`
	Title         string `form:"title"`
	ISBN          string `form:"isbn"`
	PublishedYear *int   `form:"publishedYear" binding:"omitempty,min=0,max=3000"`
	Q             string `form:"q"`
	SortBy        string `form:"sortBy" binding:"omitempty,oneof=id title published_year status created_at"`
	SortOrder     string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

type bookRequest struct {
	Title         string              `json:"title" binding:"required,notblank,max=500"`
	ISBN          string              `json:"isbn" binding:"required,min=10,max=17,isbn_format"`
	AuthorID      *uint               `json:"authorId" binding:"omitempty,min=1"`
	PublishedYear *int                `json:"publishedYear" binding:"omitempty,min=0,max=3000"`
	Status        entities.BookStatus `json:"status" binding:"omitempty,oneof=available checked_out lost"`
}

func (r bookRequest) entity(id uint) *entities.Book {
	return &entities.Book{
		ID:            id,
		Title:         r.Title,
		ISBN:          r.ISBN,
		AuthorID:      r.AuthorID,
		PublishedYear: r.PublishedYear,
		Status:        r.Status,
	}
}

// List returns a filtered page of books with their author names
// GET /api/books
func (bc *BooksController) List(c *gin.Context) {
	var q bookListQuery
	if !bindQuery(c, &q) {
		return
	}

	rows, total, err := bc.store.List(c.Request.Context(), books.ListParams{
		Page: database.Page{Limit: q.Limit, Offset: q.Offset},
		Sort: database.Sort{By: q.SortBy, Order: database.SortOrder(q.SortOrder)},
		Filter: books.Filter{
			Status:        entities.BookStatus(q.Status),
			AuthorID:      q.AuthorID,
			Title:         q.Title,
			ISBN:          q.ISBN,
			PublishedYear: q.PublishedYear,
			Q:             q.Q,
		},
	})
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	respondList(c, rows, q.searchMeta(total, q.Q, q.SortBy, q.SortOrder))
}

// Get returns one book
// GET /api/books/:id
func (bc *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "book")
	if !ok {
		return
	}

	book, err := bc.store.Get(c.Request.Context(), id)
	if err != nil {
		bc.respondStoreError(c, err, "get book")
		return
	}
	respondData(c, http.StatusOK, book)
}

// Create adds a book to the catalogue
// POST /api/books
func (bc *BooksController) Create(c *gin.Context) {
	var req bookRequest
	if !bindJSON(c, &req) {
		return
	}

	book := req.entity(0)
	if err := bc.store.Create(c.Request.Context(), book); err != nil {
		bc.respondStoreError(c, err, "create book")
		return
	}

	recordChange(c, bc.recorder, audit.Change{
		EventType:   entities.AuditEventCreate,
		Action:      "book_create",
		EntityType:  "book",
		EntityID:    book.ID,
		Description: "Added book " + book.Title,
		Metadata:    map[string]any{"isbn": book.ISBN, "status": book.Status},
	})
	respondData(c, http.StatusCreated, book)
}

// Update replaces a book's details; an omitted status keeps the current one
// PUT /api/books/:id
func (bc *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "book")
	if !ok {
		return
	}
	var req bookRequest
	if !bindJSON(c, &req) {
		return
	}

	book := req.entity(id)
	if err := bc.store.Update(c.Request.Context(), book); err != nil {
		bc.respondStoreError(c, err, "update book")
		return
	}

	recordChange(c, bc.recorder, audit.Change{
		EventType:   entities.AuditEventUpdate,
		Action:      "book_update",
		EntityType:  "book",
		EntityID:    id,
		Description: "Updated book " + book.Title,
		Metadata:    map[string]any{"status": book.Status},
	})
	respondData(c, http.StatusOK, book)
}

// Delete removes a book and its closed loans
// DELETE /api/books/:id
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "book")
	if !ok {
		return
	}

	if err := bc.store.Delete(c.Request.Context(), id); err != nil {
		bc.respondStoreError(c, err, "delete book")
		return
	}

	recordChange(c, bc.recorder, audit.Change{
		EventType:   entities.AuditEventDelete,
		Action:      "book_delete",
		EntityType:  "book",
		EntityID:    id,
		Description: "Deleted book",
	})
	respondNoContent(c)
}

func (bc *BooksController) respondStoreError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, books.ErrNotFound):
		respondNotFound(c, "Book")
	case errors.Is(err, books.ErrAuthorNotFound):
		respondNotFound(c, "Author")
	case errors.Is(err, books.ErrDuplicateISBN):
		respondConflict(c, "Book ISBN already exists")
	case errors.Is(err, books.ErrActiveLoan):
		respondConflict(c, "Book has an active loan")
	case errors.Is(err, books.ErrCheckoutWithoutLoan):
		respondConflict(c, "Book cannot be checked out without a loan")
	default:
		respondInternalError(c, err, context)
	}
}
