package domain

import "time"

// User represents a registered account and its curated favorite list.
type User struct {
	ID             string
	Username       string
	PasswordHash   string
	Email          string
	Birthday       string
	FavoriteMovies []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
