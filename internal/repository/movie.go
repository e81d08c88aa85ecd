package repository

import (
	"context"

	"mostwatchedlist/internal/domain"
)

// MovieRepository exposes persistence operations for the shared catalog.
type MovieRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, movie *domain.Movie) error
	Get(ctx context.Context, id string) (*domain.Movie, error)
	GetByTitle(ctx context.Context, title string) (*domain.Movie, error)
	GetByGenre(ctx context.Context, genre string) (*domain.Movie, error)
	GetByDirector(ctx context.Context, director string) (*domain.Movie, error)
	List(ctx context.Context) ([]domain.Movie, error)
	Count(ctx context.Context) (int64, error)
}
