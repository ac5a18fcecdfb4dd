package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"watchlist/db"
	"watchlist/models"
)

const (
	MaxNameLength     = 20
	MaxUsernameLength = 20
	AdminDisplayName  = "Admin"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type UserService struct {
	repo   db.UserRepository
	logger zerolog.Logger
}

func NewUserService(repo db.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// Owner returns the single user the watchlist belongs to, or db.ErrNotFound
func (s *UserService) Owner(ctx context.Context) (*models.User, error) {
	return s.repo.First(ctx)
}

func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return s.repo.FindByID(ctx, id)
}

// Authenticate checks credentials against the owner account. Unknown users and
// wrong passwords are both reported as ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	owner, err := s.repo.First(ctx)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if owner.Username != username || !owner.ValidatePassword(password) {
		s.logger.Warn().Str("username", username).Msg("Failed login attempt")
		return nil, ErrInvalidCredentials
	}
	return owner, nil
}

// UpdateName changes the display name shown in page titles
func (s *UserService) UpdateName(ctx context.Context, id uint, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return nil, ErrInvalidInput
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Name = name
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func validateCredentials(username, password string) error {
	if username == "" || password == "" || utf8.RuneCountInString(username) > MaxUsernameLength {
		return ErrInvalidInput
	}
	return nil
}

// CreateAdmin creates the owner account. It is only meant for an empty users table.
func (s *UserService) CreateAdmin(ctx context.Context, username, password string) (*models.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	u := &models.User{Name: AdminDisplayName, Username: username}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info().Str("username", username).Msg("Admin user created")
	return u, nil
}

// UpdateCredentials replaces the username and password of an existing user
func (s *UserService) UpdateCredentials(ctx context.Context, u *models.User, username, password string) error {
	if err := validateCredentials(username, password); err != nil {
		return err
	}

	u.Username = username
	if err := u.SetPassword(password); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	s.logger.Info().Str("username", username).Msg("Admin credentials updated")
	return nil
}
