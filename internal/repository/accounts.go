package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/videotheek/internal/model"
)

const accountColumns = `id, username, password_hash, role, created_at`

// AccountRepository handles persistence for user accounts.
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository constructs an AccountRepository.
func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account. A taken username yields ErrDuplicate.
func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, role)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		account.Username, string(account.PasswordHash), string(account.Role),
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		return wrap("insert account", err)
	}
	return nil
}

// GetByUsername returns the account or ErrNotFound.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM users WHERE username = $1`,
		username,
	)
	a, err := scanAccount(row)
	if err != nil {
		return nil, wrap("get account", err)
	}
	return a, nil
}

// GetByID returns the account or ErrNotFound.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM users WHERE id = $1`,
		id,
	)
	a, err := scanAccount(row)
	if err != nil {
		return nil, wrap("get account", err)
	}
	return a, nil
}

// List returns all accounts ordered by id.
func (r *AccountRepository) List(ctx context.Context) ([]model.Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, wrap("list accounts", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, wrap("scan account", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list accounts", err)
	}
	return accounts, nil
}

// scanAccount enforces the closed role set at the data-access boundary.
func scanAccount(row pgx.Row) (*model.Account, error) {
	var (
		a    model.Account
		hash string
		role string
	)
	if err := row.Scan(&a.ID, &a.Username, &hash, &role, &a.CreatedAt); err != nil {
		return nil, err
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return nil, err
	}
	a.PasswordHash = []byte(hash)
	a.Role = r
	return &a, nil
}
