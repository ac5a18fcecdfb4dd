package movie

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

var ErrInvalidInput = errors.New("invalid input")

type MovieService struct {
	repo   db.MovieRepository
	logger zerolog.Logger
}

func NewMovieService(repo db.MovieRepository, logger zerolog.Logger) *MovieService {
	return &MovieService{repo: repo, logger: logger}
}

// Validate normalizes and checks a title/year pair. Title is required and at
// most 60 characters; year must be exactly 4 characters.
func Validate(title, year string) (string, string, error) {
	title = strings.TrimSpace(title)
	year = strings.TrimSpace(year)

	if title == "" || year == "" {
		return "", "", ErrInvalidInput
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength || utf8.RuneCountInString(year) != models.YearLength {
		return "", "", ErrInvalidInput
	}
	return title, year, nil
}

func (s *MovieService) FindAll(ctx context.Context) ([]*models.Movie, error) {
	return s.repo.FindAll(ctx)
}

func (s *MovieService) FindByID(ctx context.Context, id uint) (*models.Movie, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *MovieService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *MovieService) Create(ctx context.Context, title, year string) (*models.Movie, error) {
	title, year, err := Validate(title, year)
	if err != nil {
		return nil, err
	}

	movie := &models.Movie{Title: title, Year: year}
	if err := s.repo.Create(ctx, movie); err != nil {
		return nil, err
	}

	s.logger.Info().Uint("movie_id", movie.ID).Str("title", movie.Title).Msg("Movie created")
	return movie, nil
}

// Update validates the new values before touching the stored row, so an
// invalid edit leaves the movie unchanged.
func (s *MovieService) Update(ctx context.Context, id uint, title, year string) (*models.Movie, error) {
	movie, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	title, year, err = Validate(title, year)
	if err != nil {
		return nil, err
	}

	movie.Title = title
	movie.Year = year
	if err := s.repo.Update(ctx, movie); err != nil {
		return nil, err
	}

	s.logger.Info().Uint("movie_id", movie.ID).Msg("Movie updated")
	return movie, nil
}

func (s *MovieService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete movie: %w", err)
	}
	s.logger.Info().Uint("movie_id", id).Msg("Movie deleted")
	return nil
}
