package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/videotheek/internal/model"
)

const filmColumns = `id, title, status, COALESCE(description, ''), COALESCE(image, '')`

// FilmRepository handles persistence for films.
type FilmRepository struct {
	db DBTX
}

// NewFilmRepository constructs a FilmRepository.
func NewFilmRepository(db DBTX) *FilmRepository {
	return &FilmRepository{db: db}
}

// Create inserts a new film and stores the generated id on it.
func (r *FilmRepository) Create(ctx context.Context, film *model.Film) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO films (title, status, description, image)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		film.Title, string(film.Status), film.Description, film.Image,
	).Scan(&film.ID)
	if err != nil {
		return wrap("insert film", err)
	}
	return nil
}

// GetByID returns a single film or ErrNotFound.
func (r *FilmRepository) GetByID(ctx context.Context, id int64) (*model.Film, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+filmColumns+` FROM films WHERE id = $1`,
		id,
	)
	film, err := scanFilm(row)
	if err != nil {
		return nil, wrap("get film", err)
	}
	return film, nil
}

// GetForUpdate acquires an exclusive row-level lock on the film. Concurrent
// reserve or return attempts on the same film block here until the holder
// commits or rolls back, so the status check that follows cannot race.
func (r *FilmRepository) GetForUpdate(ctx context.Context, id int64) (*model.Film, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+filmColumns+` FROM films WHERE id = $1 FOR UPDATE`,
		id,
	)
	film, err := scanFilm(row)
	if err != nil {
		return nil, wrap("lock film row", err)
	}
	return film, nil
}

// List returns all films in insertion order.
func (r *FilmRepository) List(ctx context.Context) ([]model.Film, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+filmColumns+` FROM films ORDER BY id ASC`,
	)
	if err != nil {
		return nil, wrap("list films", err)
	}
	defer rows.Close()

	var films []model.Film
	for rows.Next() {
		f, err := scanFilm(rows)
		if err != nil {
			return nil, wrap("scan film", err)
		}
		films = append(films, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list films", err)
	}
	return films, nil
}

// Update overwrites title, status, description and image.
func (r *FilmRepository) Update(ctx context.Context, film *model.Film) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE films SET title = $2, status = $3, description = $4, image = $5
		 WHERE id = $1`,
		film.ID, film.Title, string(film.Status), film.Description, film.Image,
	)
	if err != nil {
		return wrap("update film", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update film: %w", ErrNotFound)
	}
	return nil
}

// SetStatus changes only the reservation status.
func (r *FilmRepository) SetStatus(ctx context.Context, id int64, status model.FilmStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE films SET status = $2 WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return wrap("set film status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set film status: %w", ErrNotFound)
	}
	return nil
}

// Delete removes the film. Audit rows are detached by the foreign key; an
// older schema without ON DELETE SET NULL yields ErrReferentialConflict.
func (r *FilmRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM films WHERE id = $1`, id)
	if err != nil {
		return wrap("delete film", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete film: %w", ErrNotFound)
	}
	return nil
}

func scanFilm(row pgx.Row) (*model.Film, error) {
	var (
		f      model.Film
		status string
	)
	if err := row.Scan(&f.ID, &f.Title, &status, &f.Description, &f.Image); err != nil {
		return nil, err
	}
	s, err := model.ParseFilmStatus(status)
	if err != nil {
		return nil, err
	}
	f.Status = s
	return &f, nil
}
