package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FilmID is a film identifier as submitted by a client. It accepts both a
// JSON number and a numeric string, since form-driven clients send the latter.
type FilmID int64

// UnmarshalJSON implements json.Unmarshaler.
func (id *FilmID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("film id %q is not a number", s)
		}
		*id = FilmID(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("film id: %w", err)
	}
	*id = FilmID(v)
	return nil
}

// FilmRef is the payload of reserve, return and delete requests.
type FilmRef struct {
	ID FilmID `json:"id"`
}

// FilmInput carries the editable fields of a film.
type FilmInput struct {
	Title  string     `json:"title" validate:"required,max=150"`
	Status FilmStatus `json:"status" validate:"omitempty,oneof=Beschikbaar Gereserveerd"`
}

// EditFilmRequest is the JSON payload of the legacy edit endpoint.
type EditFilmRequest struct {
	ID     FilmID     `json:"id"`
	Title  string     `json:"title"`
	Status FilmStatus `json:"status"`
}

// Credentials is the payload for registration and login.
type Credentials struct {
	Username string `json:"username" validate:"required,max=25"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// FilmSummary is one row of the public catalog listing.
type FilmSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// TokenResponse is returned by the JSON login endpoint.
type TokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// MessageResponse is a standard JSON success envelope.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
