// Package members provides database operations for library members.
//
// This package implements the MemberStore interface defined in internal/http/members.go.
package members

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/entities"
)

var (
	ErrNotFound       = errors.New("member not found")
	ErrDuplicateEmail = errors.New("member email already exists")
	ErrActiveLoans    = errors.New("member has active loans")
)

var SortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"email":      "email",
	"created_at": "created_at",
}

type ListParams struct {
	database.Page
	database.Sort
	Q string
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns a page of members matching q against name, email or phone.
func (r *Repository) List(ctx context.Context, params ListParams) ([]entities.Member, int64, error) {
	page := params.Page.Normalize(database.MaxLimit)

	query := r.db.WithContext(ctx).Model(&entities.Member{})
	if params.Q != "" {
		pattern := database.ContainsPattern(params.Q)
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(COALESCE(phone, '')) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	members := make([]entities.Member, 0)
	err := query.Order(params.Sort.Clause(SortColumns)).
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&members).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	return members, total, nil
}

func (r *Repository) Get(ctx context.Context, id uint) (*entities.Member, error) {
	var member entities.Member
	err := r.db.WithContext(ctx).First(&member, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member %d: %w", id, err)
	}
	return &member, nil
}

func (r *Repository) Create(ctx context.Context, member *entities.Member) error {
	err := r.db.WithContext(ctx).Create(member).Error
	if database.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, member *entities.Member) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Member{ID: member.ID}).
		Select("name", "email", "phone").
		Updates(member)
	if database.IsUniqueViolation(result.Error) {
		return ErrDuplicateEmail
	}
	if result.Error != nil {
		return fmt.Errorf("update member %d: %w", member.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	updated, err := r.Get(ctx, member.ID)
	if err != nil {
		return err
	}
	*member = *updated
	return nil
}

// Delete removes a member together with their closed loan history. Members
// holding an open loan are refused with ErrActiveLoans.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member entities.Member
		err := tx.Select("id").First(&member, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load member %d: %w", id, err)
		}

		var open int64
		err = tx.Model(&entities.Loan{}).
			Where("member_id = ? AND returned_at IS NULL", id).
			Count(&open).Error
		if err != nil {
			return fmt.Errorf("count open loans for member %d: %w", id, err)
		}
		if open > 0 {
			return ErrActiveLoans
		}

		if err := tx.Where("member_id = ?", id).Delete(&entities.Loan{}).Error; err != nil {
			return fmt.Errorf("delete loan history for member %d: %w", id, err)
		}
		if err := tx.Delete(&entities.Member{}, id).Error; err != nil {
			return fmt.Errorf("delete member %d: %w", id, err)
		}
		return nil
	})
}
