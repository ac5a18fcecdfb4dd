package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"watchlist/internal/util"
	"watchlist/models"
)

// SQLiteUserRepository implements the UserRepository interface for SQLite
type SQLiteUserRepository struct {
	db     *gorm.DB
	writes *WriteQueue
}

// NewSQLiteUserRepository creates a new SQLiteUserRepository
func NewSQLiteUserRepository(db *gorm.DB, writes *WriteQueue) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db, writes: writes}
}

func (r *SQLiteUserRepository) First(ctx context.Context) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Order("id").First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return &user, nil
}

func (r *SQLiteUserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error loading user %d: %w", id, err)
	}
	return &user, nil
}

func (r *SQLiteUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return count, nil
}

// write runs op on the write queue, retrying while the database is locked
func (r *SQLiteUserRepository) write(ctx context.Context, op func() error) error {
	return r.writes.Execute(ctx, func() error {
		return util.RetryOnLock(ctx, op)
	})
}

func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.write(ctx, func() error {
		return r.db.WithContext(ctx).Create(user).Error
	})
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *SQLiteUserRepository) Update(ctx context.Context, user *models.User) error {
	err := r.write(ctx, func() error {
		return r.db.WithContext(ctx).Save(user).Error
	})
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	return nil
}

// SQLiteMovieRepository implements the MovieRepository interface for SQLite
type SQLiteMovieRepository struct {
	db     *gorm.DB
	writes *WriteQueue
}

// NewSQLiteMovieRepository creates a new SQLiteMovieRepository
func NewSQLiteMovieRepository(db *gorm.DB, writes *WriteQueue) *SQLiteMovieRepository {
	return &SQLiteMovieRepository{db: db, writes: writes}
}

// FindAll returns every movie in insertion order
func (r *SQLiteMovieRepository) FindAll(ctx context.Context) ([]*models.Movie, error) {
	var movies []*models.Movie
	if err := r.db.WithContext(ctx).Order("id").Find(&movies).Error; err != nil {
		return nil, fmt.Errorf("error listing movies: %w", err)
	}
	return movies, nil
}

func (r *SQLiteMovieRepository) FindByID(ctx context.Context, id uint) (*models.Movie, error) {
	var movie models.Movie
	err := r.db.WithContext(ctx).First(&movie, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error loading movie %d: %w", id, err)
	}
	return &movie, nil
}

func (r *SQLiteMovieRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Movie{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("error counting movies: %w", err)
	}
	return count, nil
}

func (r *SQLiteMovieRepository) write(ctx context.Context, op func() error) error {
	return r.writes.Execute(ctx, func() error {
		return util.RetryOnLock(ctx, op)
	})
}

func (r *SQLiteMovieRepository) Create(ctx context.Context, movie *models.Movie) error {
	err := r.write(ctx, func() error {
		return r.db.WithContext(ctx).Create(movie).Error
	})
	if err != nil {
		return fmt.Errorf("error creating movie: %w", err)
	}
	return nil
}

func (r *SQLiteMovieRepository) Update(ctx context.Context, movie *models.Movie) error {
	err := r.write(ctx, func() error {
		return r.db.WithContext(ctx).Save(movie).Error
	})
	if err != nil {
		return fmt.Errorf("error updating movie %d: %w", movie.ID, err)
	}
	return nil
}

// DeleteByID removes a movie, returning ErrNotFound when no row matched
func (r *SQLiteMovieRepository) DeleteByID(ctx context.Context, id uint) error {
	affected, err := ExecuteWithResult(ctx, r.writes, func() (int64, error) {
		return util.RetryOnLockWithResult(ctx, func() (int64, error) {
			result := r.db.WithContext(ctx).Delete(&models.Movie{}, id)
			return result.RowsAffected, result.Error
		})
	})
	if err != nil {
		return fmt.Errorf("error deleting movie %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
