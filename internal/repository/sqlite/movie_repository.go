package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mostwatchedlist/internal/domain"
	"mostwatchedlist/internal/repository"
)

const createMoviesTable = `
CREATE TABLE IF NOT EXISTS movies (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	genre_name TEXT NOT NULL DEFAULT '',
	genre_description TEXT NOT NULL DEFAULT '',
	director_name TEXT NOT NULL DEFAULT '',
	director_bio TEXT NOT NULL DEFAULT '',
	featured INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type MovieRepository struct {
	db *sql.DB
}

func NewMovieRepository(db *sql.DB) repository.MovieRepository {
	return &MovieRepository{db: db}
}

func (r *MovieRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createMoviesTable); err != nil {
		return fmt.Errorf("create movies table: %w", err)
	}
	return nil
}

func (r *MovieRepository) Create(ctx context.Context, movie *domain.Movie) error {
	now := time.Now().UTC()
	movie.CreatedAt = now
	movie.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO movies (id, title, description, genre_name, genre_description, director_name, director_bio, featured, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		movie.ID,
		movie.Title,
		movie.Description,
		movie.Genre.Name,
		movie.Genre.Description,
		movie.Director.Name,
		movie.Director.Bio,
		movie.Featured,
		movie.CreatedAt,
		movie.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fmt.Errorf("insert movie %q: %w", movie.Title, repository.ErrDuplicate)
		}
		return fmt.Errorf("insert movie: %w", err)
	}
	return nil
}

const selectMovie = `
SELECT id, title, description, genre_name, genre_description, director_name, director_bio, featured, created_at, updated_at
FROM movies
`

func (r *MovieRepository) Get(ctx context.Context, id string) (*domain.Movie, error) {
	return scanMovie(r.db.QueryRowContext(ctx, selectMovie+`WHERE id = ?`, id))
}

func (r *MovieRepository) GetByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	return scanMovie(r.db.QueryRowContext(ctx, selectMovie+`WHERE title = ?`, title))
}

func (r *MovieRepository) GetByGenre(ctx context.Context, genre string) (*domain.Movie, error) {
	return scanMovie(r.db.QueryRowContext(ctx,
		selectMovie+`WHERE genre_name = ? COLLATE NOCASE ORDER BY title LIMIT 1`, genre))
}

func (r *MovieRepository) GetByDirector(ctx context.Context, director string) (*domain.Movie, error) {
	return scanMovie(r.db.QueryRowContext(ctx,
		selectMovie+`WHERE director_name = ? COLLATE NOCASE ORDER BY title LIMIT 1`, director))
}

func (r *MovieRepository) List(ctx context.Context) ([]domain.Movie, error) {
	rows, err := r.db.QueryContext(ctx, selectMovie+`ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	var movies []domain.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, *movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}

func (r *MovieRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return count, nil
}

func scanMovie(row interface {
	Scan(dest ...any) error
}) (*domain.Movie, error) {
	var movie domain.Movie
	if err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Description,
		&movie.Genre.Name,
		&movie.Genre.Description,
		&movie.Director.Name,
		&movie.Director.Bio,
		&movie.Featured,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan movie: %w", err)
	}
	return &movie, nil
}
