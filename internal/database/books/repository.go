// Package books provides database operations for the book catalogue.
//
// This package implements the BookStore interface defined in internal/http/books.go.
//
// A book's status mirrors its loans: it is checked_out exactly when an open
// loan exists. Status changes that would break that rule are rejected here;
// the loan lifecycle itself lives in the loans package.
package books

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/entities"
)

var (
	ErrNotFound            = errors.New("book not found")
	ErrAuthorNotFound      = errors.New("author not found")
	ErrDuplicateISBN       = errors.New("book ISBN already exists")
	ErrActiveLoan          = errors.New("book has an active loan")
	ErrCheckoutWithoutLoan = errors.New("book cannot be checked out without a loan")
)

var SortColumns = map[string]string{
	"id":             "books.id",
	"title":          "books.title",
	"published_year": "books.published_year",
	"status":         "books.status",
	"created_at":     "books.created_at",
}

type Filter struct {
	Status        entities.BookStatus
	AuthorID      *uint
	Title         string
	ISBN          string
	PublishedYear *int
	Q             string // title, isbn or author name
}

type ListParams struct {
	database.Page
	database.Sort
	Filter
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// withAuthor selects books joined with their author's name.
func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Model(&entities.Book{}).
		Select("books.*, authors.name AS author_name").
		Joins("LEFT JOIN authors ON authors.id = books.author_id")
}

func applyFilter(query *gorm.DB, f Filter) *gorm.DB {
	if f.Status != "" {
		query = query.Where("books.status = ?", f.Status)
	}
	if f.AuthorID != nil {
		query = query.Where("books.author_id = ?", *f.AuthorID)
	}
	if f.Title != "" {
		query = query.Where("LOWER(books.title) LIKE ?", database.ContainsPattern(f.Title))
	}
	if f.ISBN != "" {
		query = query.Where("books.isbn LIKE ?", database.ContainsPattern(f.ISBN))
	}
	if f.PublishedYear != nil {
		query = query.Where("books.published_year = ?", *f.PublishedYear)
	}
	if f.Q != "" {
		pattern := database.ContainsPattern(f.Q)
		query = query.Where(
			"LOWER(books.title) LIKE ? OR books.isbn LIKE ? OR LOWER(COALESCE(authors.name, '')) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	return query
}

// List returns a page of books with author names and the filtered total.
func (r *Repository) List(ctx context.Context, params ListParams) ([]entities.Book, int64, error) {
	page := params.Page.Normalize(database.MaxLimit)

	var total int64
	countQuery := r.db.WithContext(ctx).Model(&entities.Book{}).
		Joins("LEFT JOIN authors ON authors.id = books.author_id")
	if err := applyFilter(countQuery, params.Filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	books := make([]entities.Book, 0)
	err := applyFilter(withAuthor(r.db.WithContext(ctx)), params.Filter).
		Order(params.Sort.Clause(SortColumns)).
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&books).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	return books, total, nil
}

func (r *Repository) Get(ctx context.Context, id uint) (*entities.Book, error) {
	return getBook(withAuthor(r.db.WithContext(ctx)), id)
}

func getBook(query *gorm.DB, id uint) (*entities.Book, error) {
	var book entities.Book
	err := query.Where("books.id = ?", id).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	return &book, nil
}

// Create inserts a book. New books cannot start out checked out since no
// loan exists for them yet.
func (r *Repository) Create(ctx context.Context, book *entities.Book) error {
	if book.Status == "" {
		book.Status = entities.BookStatusAvailable
	}
	if book.Status == entities.BookStatusCheckedOut {
		return ErrCheckoutWithoutLoan
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAuthor(tx, book.AuthorID); err != nil {
			return err
		}

		if err := tx.Omit("Author").Create(book).Error; err != nil {
			return writeError(err, "create book")
		}

		created, err := getBook(withAuthor(tx), book.ID)
		if err != nil {
			return err
		}
		*book = *created
		return nil
	})
}

// Update overwrites the editable fields of a book. An empty Status keeps
// the current one.
func (r *Repository) Update(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := getBook(tx.Model(&entities.Book{}), book.ID)
		if err != nil {
			return err
		}
		if err := requireAuthor(tx, book.AuthorID); err != nil {
			return err
		}

		open, err := hasOpenLoan(tx, book.ID)
		if err != nil {
			return err
		}
		if book.Status == "" {
			book.Status = current.Status
		}
		if open && book.Status != entities.BookStatusCheckedOut {
			return ErrActiveLoan
		}
		if !open && book.Status == entities.BookStatusCheckedOut {
			return ErrCheckoutWithoutLoan
		}

		err = tx.Model(&entities.Book{ID: book.ID}).
			Select("title", "isbn", "author_id", "published_year", "status").
			Updates(book).Error
		if err != nil {
			return writeError(err, fmt.Sprintf("update book %d", book.ID))
		}

		updated, err := getBook(withAuthor(tx), book.ID)
		if err != nil {
			return err
		}
		*book = *updated
		return nil
	})
}

// Delete removes a book and its closed loan history. Books on loan are
// refused with ErrActiveLoan.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getBook(tx.Model(&entities.Book{}), id); err != nil {
			return err
		}

		open, err := hasOpenLoan(tx, id)
		if err != nil {
			return err
		}
		if open {
			return ErrActiveLoan
		}

		if err := tx.Where("book_id = ?", id).Delete(&entities.Loan{}).Error; err != nil {
			return fmt.Errorf("delete loan history for book %d: %w", id, err)
		}
		if err := tx.Delete(&entities.Book{}, id).Error; err != nil {
			return fmt.Errorf("delete book %d: %w", id, err)
		}
		return nil
	})
}

// writeError maps constraint failures on insert or update. A foreign key
// failure means the author was deleted after requireAuthor ran.
func writeError(err error, op string) error {
	switch {
	case database.IsUniqueViolation(err):
		return ErrDuplicateISBN
	case database.IsForeignKeyViolation(err):
		return ErrAuthorNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func requireAuthor(tx *gorm.DB, authorID *uint) error {
	if authorID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&entities.Author{}).Where("id = ?", *authorID).Count(&count).Error; err != nil {
		return fmt.Errorf("check author %d: %w", *authorID, err)
	}
	if count == 0 {
		return ErrAuthorNotFound
	}
	return nil
}

func hasOpenLoan(tx *gorm.DB, bookID uint) (bool, error) {
	var count int64
	err := tx.Model(&entities.Loan{}).
		Where("book_id = ? AND returned_at IS NULL", bookID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count open loans for book %d: %w", bookID, err)
	}
	return count > 0, nil
}
