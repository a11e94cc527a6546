// Package staff stores the accounts used for HTTP basic authentication.
package staff

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/entities"
)

var (
	ErrNotFound      = errors.New("staff account not found")
	ErrUsernameTaken = errors.New("username already exists")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, account *entities.Staff) error {
	err := r.db.WithContext(ctx).Create(account).Error
	if database.IsUniqueViolation(err) {
		return ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("create staff account: %w", err)
	}
	return nil
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*entities.Staff, error) {
	var account entities.Staff
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get staff account %q: %w", username, err)
	}
	return &account, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Staff{}).Count(&count).Error
	return count, err
}
