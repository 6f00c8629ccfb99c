// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/videotheek/internal/model"
	"github.com/Shivanand-hulikatti/videotheek/internal/repository"
)

// MetadataLookup resolves a title to a description and poster URL.
// Implementations never fail; they fall back to placeholder values.
type MetadataLookup interface {
	Lookup(ctx context.Context, title string) (description, image string)
}

// CatalogService orchestrates film operations. Every mutation commits together
// with its audit entry.
type CatalogService struct {
	store    repository.Store
	lookup   MetadataLookup
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewCatalogService constructs a CatalogService with its dependencies.
func NewCatalogService(store repository.Store, lookup MetadataLookup, logger zerolog.Logger) *CatalogService {
	return &CatalogService{
		store:    store,
		lookup:   lookup,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With().Str("component", "catalog").Logger(),
	}
}

// List returns all films in insertion order.
func (c *CatalogService) List(ctx context.Context) ([]model.Film, error) {
	films, err := c.store.Films().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list films: %w", err)
	}
	if films == nil {
		films = []model.Film{}
	}
	return films, nil
}

// Get returns a single film by ID.
func (c *CatalogService) Get(ctx context.Context, id int64) (*model.Film, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	film, err := c.store.Films().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get film: %w", err)
	}
	return film, nil
}

// Add validates the input, resolves metadata for the title and stores a new
// film. Status defaults to Beschikbaar.
func (c *CatalogService) Add(ctx context.Context, actor string, in model.FilmInput) (*model.Film, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	in, err := c.normalize(in)
	if err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = model.StatusAvailable
	}

	film := &model.Film{Title: in.Title, Status: in.Status}
	film.Description, film.Image = c.lookup.Lookup(ctx, film.Title)

	err = c.store.InTx(ctx, func(r repository.Repos) error {
		if err := r.Films().Create(ctx, film); err != nil {
			return err
		}
		return appendEntry(ctx, r, film, model.ActionAdded, actor)
	})
	if err != nil {
		return nil, fmt.Errorf("add film: %w", err)
	}

	c.logMutation(film, model.ActionAdded, actor)
	return film, nil
}

// Edit overwrites title and status and refreshes metadata for the new title.
// An empty status keeps the current one. Edit does not go through the
// reserve/return guard.
func (c *CatalogService) Edit(ctx context.Context, actor string, id int64, in model.FilmInput) (*model.Film, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := requireID(id); err != nil {
		return nil, err
	}
	// Existence is reported before the title check.
	if _, err := c.store.Films().GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("edit film: %w", err)
	}
	in, err := c.normalize(in)
	if err != nil {
		return nil, err
	}

	description, image := c.lookup.Lookup(ctx, in.Title)

	var film *model.Film
	err = c.store.InTx(ctx, func(r repository.Repos) error {
		current, err := r.Films().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		current.Title = in.Title
		if in.Status != "" {
			current.Status = in.Status
		}
		current.Description = description
		current.Image = image
		if err := r.Films().Update(ctx, current); err != nil {
			return err
		}
		film = current
		return appendEntry(ctx, r, current, model.ActionUpdated, actor)
	})
	if err != nil {
		return nil, fmt.Errorf("edit film: %w", err)
	}

	c.logMutation(film, model.ActionUpdated, actor)
	return film, nil
}

// Reserve moves a film from Beschikbaar to Gereserveerd.
func (c *CatalogService) Reserve(ctx context.Context, actor string, id int64) (*model.Film, error) {
	return c.transition(ctx, actor, id, model.StatusAvailable, model.StatusReserved, model.ActionReserved)
}

// Return moves a film from Gereserveerd back to Beschikbaar.
func (c *CatalogService) Return(ctx context.Context, actor string, id int64) (*model.Film, error) {
	return c.transition(ctx, actor, id, model.StatusReserved, model.StatusAvailable, model.ActionReturned)
}

// transition applies a guarded status change under a row lock. A failed
// precondition returns a *TransitionError and writes nothing.
func (c *CatalogService) transition(ctx context.Context, actor string, id int64, from, to model.FilmStatus, action model.Action) (*model.Film, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := requireID(id); err != nil {
		return nil, err
	}

	var film *model.Film
	err := c.store.InTx(ctx, func(r repository.Repos) error {
		current, err := r.Films().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != from {
			return &TransitionError{Film: *current, Action: action}
		}
		if err := r.Films().SetStatus(ctx, id, to); err != nil {
			return err
		}
		current.Status = to
		film = current
		return appendEntry(ctx, r, current, action, actor)
	})
	if err != nil {
		var terr *TransitionError
		if errors.As(err, &terr) {
			return nil, err
		}
		return nil, fmt.Errorf("%s film: %w", strings.ToLower(string(action)), err)
	}

	c.logMutation(film, action, actor)
	return film, nil
}

// Delete removes a film. Its history is kept: a Verwijderd entry is written
// first and the store detaches existing entries from the removed row.
func (c *CatalogService) Delete(ctx context.Context, actor string, id int64) (*model.Film, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := requireID(id); err != nil {
		return nil, err
	}

	var film *model.Film
	err := c.store.InTx(ctx, func(r repository.Repos) error {
		current, err := r.Films().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := appendEntry(ctx, r, current, model.ActionDeleted, actor); err != nil {
			return err
		}
		film = current
		return r.Films().Delete(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("delete film: %w", err)
	}

	c.logMutation(film, model.ActionDeleted, actor)
	return film, nil
}

// History returns audit entries, newest first.
func (c *CatalogService) History(ctx context.Context, filter model.AuditFilter) ([]model.AuditEntry, error) {
	if filter.Limit < 0 {
		return nil, &ValidationError{Field: "limit", Reason: "must not be negative"}
	}
	entries, err := c.store.Audit().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	return entries, nil
}

func (c *CatalogService) normalize(in model.FilmInput) (model.FilmInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Status = model.FilmStatus(strings.TrimSpace(string(in.Status)))
	if err := c.validate.Struct(in); err != nil {
		return in, translateValidation(err)
	}
	return in, nil
}

func (c *CatalogService) logMutation(film *model.Film, action model.Action, actor string) {
	c.logger.Info().
		Int64("film_id", film.ID).
		Str("title", film.Title).
		Str("status", string(film.Status)).
		Str("action", string(action)).
		Str("user", actor).
		Msg("catalog mutation")
}

func appendEntry(ctx context.Context, r repository.Repos, film *model.Film, action model.Action, actor string) error {
	id := film.ID
	return r.Audit().Append(ctx, &model.AuditEntry{
		FilmID:    &id,
		FilmTitle: film.Title,
		Action:    action,
		Username:  actor,
	})
}

func requireID(id int64) error {
	if id <= 0 {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	return nil
}

func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return &ValidationError{Field: "user", Reason: "is required"}
	}
	return nil
}
