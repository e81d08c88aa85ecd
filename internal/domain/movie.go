package domain

import "time"

// Genre classifies a movie.
type Genre struct {
	Name        string
	Description string
}

// Director holds the director details attached to a movie.
type Director struct {
	Name string
	Bio  string
}

// Movie is one entry of the shared catalog.
type Movie struct {
	ID          string
	Title       string
	Description string
	Genre       Genre
	Director    Director
	Featured    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
