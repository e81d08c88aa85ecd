package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"mostwatchedlist/internal/domain"
	"mostwatchedlist/internal/repository"
)

type memUserRepo struct {
	users     map[string]*domain.User // keyed by id
	favorites map[string]map[string]bool
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:     map[string]*domain.User{},
		favorites: map[string]map[string]bool{},
	}
}

func (r *memUserRepo) Init(ctx context.Context) error { return nil }

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return fmt.Errorf("insert user: %w", repository.ErrDuplicate)
		}
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			copied.FavoriteMovies, _ = r.ListFavorites(ctx, user.ID)
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	copied.FavoriteMovies, _ = r.ListFavorites(ctx, id)
	return &copied, nil
}

func (r *memUserRepo) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	for _, user := range r.users {
		users = append(users, *user)
	}
	return users, nil
}

func (r *memUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	delete(r.favorites, id)
	return nil
}

func (r *memUserRepo) AddFavorite(ctx context.Context, userID, movieID string) error {
	if r.favorites[userID] == nil {
		r.favorites[userID] = map[string]bool{}
	}
	r.favorites[userID][movieID] = true
	return nil
}

func (r *memUserRepo) RemoveFavorite(ctx context.Context, userID, movieID string) error {
	delete(r.favorites[userID], movieID)
	return nil
}

func (r *memUserRepo) ListFavorites(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	for id := range r.favorites[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

type memMovieRepo struct {
	movies map[string]*domain.Movie
}

func newMemMovieRepo() *memMovieRepo {
	return &memMovieRepo{movies: map[string]*domain.Movie{}}
}

func (r *memMovieRepo) Init(ctx context.Context) error { return nil }

func (r *memMovieRepo) Create(ctx context.Context, movie *domain.Movie) error {
	r.movies[movie.ID] = movie
	return nil
}

func (r *memMovieRepo) Get(ctx context.Context, id string) (*domain.Movie, error) {
	movie, ok := r.movies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return movie, nil
}

func (r *memMovieRepo) GetByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	for _, movie := range r.movies {
		if movie.Title == title {
			return movie, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memMovieRepo) GetByGenre(ctx context.Context, genre string) (*domain.Movie, error) {
	for _, movie := range r.movies {
		if movie.Genre.Name == genre {
			return movie, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memMovieRepo) GetByDirector(ctx context.Context, director string) (*domain.Movie, error) {
	for _, movie := range r.movies {
		if movie.Director.Name == director {
			return movie, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memMovieRepo) List(ctx context.Context) ([]domain.Movie, error) {
	var movies []domain.Movie
	for _, movie := range r.movies {
		movies = append(movies, *movie)
	}
	return movies, nil
}

func (r *memMovieRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.movies)), nil
}

func newTestUserService(t *testing.T) (UserService, *memUserRepo, *memMovieRepo) {
	t.Helper()
	users := newMemUserRepo()
	movies := newMemMovieRepo()
	return NewUserService(users, movies, 5*time.Second), users, movies
}

func TestRegisterStoresOnlyHash(t *testing.T) {
	svc, repo, _ := newTestUserService(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Password: "password123456",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Empty(t, user.PasswordHash, "registration response must not carry the hash")

	stored, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "password123456", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123456")))
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "", Password: "password123456"})
	assert.Error(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "short"})
	assert.Error(t, err)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "password123456"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "otherpassword"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuthenticateDoesNotDistinguishFailures(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "password123456"})
	require.NoError(t, err)

	_, unknownErr := svc.Authenticate(context.Background(), "nobody", "password123456")
	_, wrongErr := svc.Authenticate(context.Background(), "alice", "wrongpassword")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr, wrongErr)
}

func TestAuthenticateSuccess(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "password123456"})
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "alice", "password123456")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)
}

func TestUpdateRehashesPassword(t *testing.T) {
	svc, repo, _ := newTestUserService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "password123456"})
	require.NoError(t, err)

	next := "newpassword99"
	_, err = svc.Update(context.Background(), "alice", UpdateInput{Password: &next})
	require.NoError(t, err)

	stored, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(next)))

	_, err = svc.Authenticate(context.Background(), "alice", "password123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAddFavoriteRequiresCatalogMovie(t *testing.T) {
	svc, _, movies := newTestUserService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "password123456"})
	require.NoError(t, err)

	_, err = svc.AddFavorite(context.Background(), "alice", "missing-movie")
	assert.ErrorIs(t, err, ErrMovieNotFound)

	require.NoError(t, movies.Create(context.Background(), &domain.Movie{ID: "m1", Title: "The Matrix"}))

	user, err := svc.AddFavorite(context.Background(), "alice", "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, user.FavoriteMovies)

	// Adding the same movie twice is a set add.
	user, err = svc.AddFavorite(context.Background(), "alice", "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, user.FavoriteMovies)
}

func TestRemoveFavoriteIsIdempotent(t *testing.T) {
	svc, _, movies := newTestUserService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "password123456"})
	require.NoError(t, err)
	require.NoError(t, movies.Create(context.Background(), &domain.Movie{ID: "m1", Title: "The Matrix"}))

	_, err = svc.AddFavorite(context.Background(), "alice", "m1")
	require.NoError(t, err)

	user, err := svc.RemoveFavorite(context.Background(), "alice", "m1")
	require.NoError(t, err)
	assert.Empty(t, user.FavoriteMovies)

	user, err = svc.RemoveFavorite(context.Background(), "alice", "m1")
	require.NoError(t, err)
	assert.Empty(t, user.FavoriteMovies)
}

func TestDeleteUser(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "password123456"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "alice"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "alice"), ErrUserNotFound)
}
