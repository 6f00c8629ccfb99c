package model

import "time"

// Action labels a state-changing catalog operation in the audit trail.
type Action string

const (
	ActionAdded    Action = "Toegevoegd"
	ActionUpdated  Action = "Bijgewerkt"
	ActionReserved Action = "Gereserveerd"
	ActionReturned Action = "Teruggebracht"
	ActionDeleted  Action = "Verwijderd"
)

// AuditEntry records one committed catalog mutation.
//
// FilmID becomes nil once the film itself is deleted; FilmTitle keeps the
// entry readable afterwards.
type AuditEntry struct {
	ID        int64     `json:"id"`
	FilmID    *int64    `json:"film_id"`
	FilmTitle string    `json:"film_title"`
	Action    Action    `json:"action"`
	Username  string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditFilter narrows a history listing. A zero Limit means no limit.
type AuditFilter struct {
	FilmID *int64
	Limit  int
}
