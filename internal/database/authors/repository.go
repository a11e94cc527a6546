// Package authors provides database operations for authors.
//
// This package implements the AuthorStore interface defined in internal/http/authors.go.
//
// # Usage
//
//	repo := authors.NewRepository(db)
//	rows, total, err := repo.List(ctx, authors.ListParams{Q: "hart"})
package authors

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/entities"
)

var ErrNotFound = errors.New("author not found")

// SortColumns maps the accepted sortBy values to columns.
var SortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"created_at": "created_at",
}

type ListParams struct {
	database.Page
	database.Sort
	Q string
}

// Repository handles all author database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new authors repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns a page of authors and the total count matching the filter.
func (r *Repository) List(ctx context.Context, params ListParams) ([]entities.Author, int64, error) {
	page := params.Page.Normalize(database.MaxLimit)

	query := r.db.WithContext(ctx).Model(&entities.Author{})
	if params.Q != "" {
		pattern := database.ContainsPattern(params.Q)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(bio, '')) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count authors: %w", err)
	}

	authors := make([]entities.Author, 0)
	err := query.Order(params.Sort.Clause(SortColumns)).
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&authors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list authors: %w", err)
	}
	return authors, total, nil
}

func (r *Repository) Get(ctx context.Context, id uint) (*entities.Author, error) {
	var author entities.Author
	err := r.db.WithContext(ctx).First(&author, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get author %d: %w", id, err)
	}
	return &author, nil
}

func (r *Repository) Create(ctx context.Context, author *entities.Author) error {
	if err := r.db.WithContext(ctx).Create(author).Error; err != nil {
		return fmt.Errorf("create author: %w", err)
	}
	return nil
}

// Update overwrites name and bio of an existing author.
func (r *Repository) Update(ctx context.Context, author *entities.Author) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Author{ID: author.ID}).
		Select("name", "bio").
		Updates(author)
	if result.Error != nil {
		return fmt.Errorf("update author %d: %w", author.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	updated, err := r.Get(ctx, author.ID)
	if err != nil {
		return err
	}
	*author = *updated
	return nil
}

// Delete removes the author. Their books stay in the catalogue without an author.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Book{}).Where("author_id = ?", id).Update("author_id", nil).Error; err != nil {
			return fmt.Errorf("detach books from author %d: %w", id, err)
		}
		result := tx.Delete(&entities.Author{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete author %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
