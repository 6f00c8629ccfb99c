package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/videotheek/internal/model"
)

// AuditRepository appends to and reads the logging table.
type AuditRepository struct {
	db DBTX
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append writes one entry and stores the generated id and timestamp on it.
func (r *AuditRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO logging (film_id, film_title, action, username)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, timestamp`,
		entry.FilmID, entry.FilmTitle, string(entry.Action), entry.Username,
	).Scan(&entry.ID, &entry.Timestamp)
	if err != nil {
		return wrap("insert audit entry", err)
	}
	return nil
}

// List returns entries newest first.
func (r *AuditRepository) List(ctx context.Context, filter model.AuditFilter) ([]model.AuditEntry, error) {
	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(`SELECT id, film_id, film_title, action, username, timestamp FROM logging`)
	if filter.FilmID != nil {
		args = append(args, *filter.FilmID)
		fmt.Fprintf(&query, ` WHERE film_id = $%d`, len(args))
	}
	query.WriteString(` ORDER BY timestamp DESC, id DESC`)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&query, ` LIMIT $%d`, len(args))
	}

	rows, err := r.db.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, wrap("list audit entries", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var (
			e      model.AuditEntry
			action string
		)
		if err := rows.Scan(&e.ID, &e.FilmID, &e.FilmTitle, &action, &e.Username, &e.Timestamp); err != nil {
			return nil, wrap("scan audit entry", err)
		}
		e.Action = model.Action(action)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list audit entries", err)
	}
	return entries, nil
}
