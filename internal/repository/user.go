package repository

import (
	"context"

	"mostwatchedlist/internal/domain"
)

// UserRepository defines persistence operations for User entities and their
// favorite-movie references.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	AddFavorite(ctx context.Context, userID, movieID string) error
	RemoveFavorite(ctx context.Context, userID, movieID string) error
	ListFavorites(ctx context.Context, userID string) ([]string, error)
}
