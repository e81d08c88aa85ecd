package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"mostwatchedlist/internal/domain"
	"mostwatchedlist/internal/repository"
)

// MovieService exposes read access to the shared catalog.
type MovieService interface {
	ListMovies(ctx context.Context) ([]domain.Movie, error)
	GetMovieByTitle(ctx context.Context, title string) (*domain.Movie, error)
	GetGenre(ctx context.Context, name string) (*domain.Genre, error)
	GetDirector(ctx context.Context, name string) (*domain.Director, error)
	SeedFromFile(ctx context.Context, path string) (int, error)
}

type movieService struct {
	movies       repository.MovieRepository
	storeTimeout time.Duration
}

func NewMovieService(movies repository.MovieRepository, storeTimeout time.Duration) MovieService {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &movieService{
		movies:       movies,
		storeTimeout: storeTimeout,
	}
}

func (s *movieService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *movieService) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.movies.List(ctx)
}

func (s *movieService) GetMovieByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	movie, err := s.movies.GetByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return movie, nil
}

func (s *movieService) GetGenre(ctx context.Context, name string) (*domain.Genre, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	movie, err := s.movies.GetByGenre(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &movie.Genre, nil
}

func (s *movieService) GetDirector(ctx context.Context, name string) (*domain.Director, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	movie, err := s.movies.GetByDirector(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &movie.Director, nil
}

type seedMovie struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Genre       struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"genre"`
	Director struct {
		Name string `json:"name"`
		Bio  string `json:"bio"`
	} `json:"director"`
	Featured bool `json:"featured"`
}

// SeedFromFile loads catalog entries from a JSON file. It only runs against
// an empty catalog so restarts do not duplicate titles.
func (s *movieService) SeedFromFile(ctx context.Context, path string) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	count, err := s.movies.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var entries []seedMovie
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	inserted := 0
	for _, entry := range entries {
		if entry.Title == "" {
			continue
		}
		movie := &domain.Movie{
			ID:          uuid.NewString(),
			Title:       entry.Title,
			Description: entry.Description,
			Genre: domain.Genre{
				Name:        entry.Genre.Name,
				Description: entry.Genre.Description,
			},
			Director: domain.Director{
				Name: entry.Director.Name,
				Bio:  entry.Director.Bio,
			},
			Featured: entry.Featured,
		}
		if err := s.movies.Create(ctx, movie); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
