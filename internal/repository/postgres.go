package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Pool is a DBTX that can also start transactions. *pgxpool.Pool satisfies it.
type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore vends pgx-backed repositories.
type PostgresStore struct {
	db Pool
}

// NewPostgresStore constructs a PostgresStore on top of a connection pool.
func NewPostgresStore(db Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Films returns a FilmRepository bound to the pool.
func (s *PostgresStore) Films() Films { return NewFilmRepository(s.db) }

// Audit returns an AuditRepository bound to the pool.
func (s *PostgresStore) Audit() AuditLog { return NewAuditRepository(s.db) }

// Accounts returns an AccountRepository bound to the pool.
func (s *PostgresStore) Accounts() Accounts { return NewAccountRepository(s.db) }

// InTx begins a transaction, runs fn with repositories bound to it, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
func (s *PostgresStore) InTx(ctx context.Context, fn func(Repos) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(txRepos{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txRepos struct {
	tx pgx.Tx
}

func (r txRepos) Films() Films       { return NewFilmRepository(r.tx) }
func (r txRepos) Audit() AuditLog    { return NewAuditRepository(r.tx) }
func (r txRepos) Accounts() Accounts { return NewAccountRepository(r.tx) }
