package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"watchlist/models"
)

var (
	ErrNotFound = errors.New("record not found")
)

// UserRepository defines the interface for user operations
type UserRepository interface {
	// First returns the application's user, the one with the lowest id
	First(ctx context.Context) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// MovieRepository defines the interface for movie operations
type MovieRepository interface {
	FindAll(ctx context.Context) ([]*models.Movie, error)
	FindByID(ctx context.Context, id uint) (*models.Movie, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, movie *models.Movie) error
	Update(ctx context.Context, movie *models.Movie) error
	DeleteByID(ctx context.Context, id uint) error
}

// RepositoryFactory creates repositories sharing one gorm handle and one
// write queue
type RepositoryFactory struct {
	DB     *gorm.DB
	Writes *WriteQueue
}

// NewRepositoryFactory creates a new repository factory and starts its write queue
func NewRepositoryFactory(gdb *gorm.DB) *RepositoryFactory {
	return &RepositoryFactory{DB: gdb, Writes: NewWriteQueue()}
}

// NewUserRepository creates a new user repository
func (f *RepositoryFactory) NewUserRepository() UserRepository {
	return NewSQLiteUserRepository(f.DB, f.Writes)
}

// NewMovieRepository creates a new movie repository
func (f *RepositoryFactory) NewMovieRepository() MovieRepository {
	return NewSQLiteMovieRepository(f.DB, f.Writes)
}

// Transaction runs fn with a factory bound to a single transaction.
// Returning an error from fn rolls the transaction back. The whole
// transaction occupies the write queue; writes inside it run inline.
func (f *RepositoryFactory) Transaction(ctx context.Context, fn func(tx *RepositoryFactory) error) error {
	return f.Writes.Execute(ctx, func() error {
		return f.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&RepositoryFactory{DB: tx})
		})
	})
}

// Close stops the write queue and closes the underlying database connection
func (f *RepositoryFactory) Close() error {
	f.Writes.Stop()
	sqlDB, err := f.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQLite handle: %w", err)
	}
	return sqlDB.Close()
}
