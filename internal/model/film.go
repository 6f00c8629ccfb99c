// Package model defines the core domain types for the video rental catalog.
package model

import "fmt"

// FilmStatus is the reservation state of a film.
type FilmStatus string

const (
	// StatusAvailable is the initial state of every film.
	StatusAvailable FilmStatus = "Beschikbaar"
	// StatusReserved marks a film as checked out.
	StatusReserved FilmStatus = "Gereserveerd"
)

// Valid reports whether s is one of the two canonical states.
func (s FilmStatus) Valid() bool {
	return s == StatusAvailable || s == StatusReserved
}

func (s FilmStatus) String() string { return string(s) }

// ParseFilmStatus converts a stored or submitted value into a FilmStatus.
func ParseFilmStatus(v string) (FilmStatus, error) {
	s := FilmStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("invalid film status %q", v)
	}
	return s, nil
}

// Film is a single title in the catalog.
type Film struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Status      FilmStatus `json:"status"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
}

// Available returns true when the film can be reserved.
func (f *Film) Available() bool {
	return f.Status == StatusAvailable
}

// Summary is the reduced view served by the public listing.
func (f *Film) Summary() FilmSummary {
	return FilmSummary{ID: f.ID, Title: f.Title}
}
