// Package repository implements persistence for films, the audit log and
// accounts. It uses pgx directly (no ORM) and offers an in-memory store with
// the same contract for development and tests.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Shivanand-hulikatti/videotheek/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrReferentialConflict is returned when a delete would orphan rows that
// still reference the record.
var ErrReferentialConflict = errors.New("record is still referenced")

// ErrDuplicate is returned when a unique constraint rejects an insert.
var ErrDuplicate = errors.New("record already exists")

// DBTX is the subset of pgx used by the repositories.
// *pgxpool.Pool, pgx.Tx and pgxmock all satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Films is the catalog store.
type Films interface {
	Create(ctx context.Context, film *model.Film) error
	GetByID(ctx context.Context, id int64) (*model.Film, error)
	// GetForUpdate reads the film and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*model.Film, error)
	List(ctx context.Context) ([]model.Film, error)
	Update(ctx context.Context, film *model.Film) error
	SetStatus(ctx context.Context, id int64, status model.FilmStatus) error
	Delete(ctx context.Context, id int64) error
}

// AuditLog is the append-only action log.
type AuditLog interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
	List(ctx context.Context, filter model.AuditFilter) ([]model.AuditEntry, error)
}

// Accounts stores registered users.
type Accounts interface {
	Create(ctx context.Context, account *model.Account) error
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
}

// Repos vends the repositories bound to one connection or transaction.
type Repos interface {
	Films() Films
	Audit() AuditLog
	Accounts() Accounts
}

// Store is the root of the persistence layer.
type Store interface {
	Repos
	// InTx runs fn inside a transaction. It commits when fn returns nil and
	// rolls back on error or panic.
	InTx(ctx context.Context, fn func(Repos) error) error
}

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// wrap annotates err with op, mapping driver errors onto the package sentinels.
func wrap(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, ErrReferentialConflict)
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
