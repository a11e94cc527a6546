package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/seatgenie/library/internal/database/staff"
	"github.com/seatgenie/library/internal/entities"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,64}$`)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStaffExists        = errors.New("staff account already exists")
	ErrUsernameInvalid    = errors.New("username must be 3-64 characters: letters, digits, dot, underscore or hyphen")
)

// StaffStore is the persistence the service needs.
type StaffStore interface {
	Create(ctx context.Context, account *entities.Staff) error
	GetByUsername(ctx context.Context, username string) (*entities.Staff, error)
	Count(ctx context.Context) (int64, error)
}

// Service manages staff accounts and verifies their credentials.
type Service struct {
	store      StaffStore
	bcryptCost int
}

func NewService(store StaffStore, bcryptCost int) *Service {
	return &Service{store: store, bcryptCost: bcryptCost}
}

// CreateStaff validates and stores a new staff account.
func (s *Service) CreateStaff(ctx context.Context, username, password string) (*entities.Staff, error) {
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	account := &entities.Staff{Username: username, PasswordHash: hash}
	if err := s.store.Create(ctx, account); err != nil {
		if errors.Is(err, staff.ErrUsernameTaken) {
			return nil, ErrStaffExists
		}
		return nil, fmt.Errorf("failed to create staff account: %w", err)
	}
	return account, nil
}

// Authenticate returns the staff account for valid credentials. Unknown
// usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entities.Staff, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.store.GetByUsername(ctx, username)
	if errors.Is(err, staff.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := CheckPassword(password, account.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return account, nil
}

// HasStaff reports whether at least one staff account exists.
func (s *Service) HasStaff(ctx context.Context) (bool, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
