package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/videotheek/internal/model"
)

// MemoryStore keeps everything in process memory. Transactions are
// serialised and roll back by restoring a snapshot; reads outside a
// transaction may observe uncommitted writes of a running one.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   memState
	now  func() time.Time
}

type memState struct {
	films       map[int64]model.Film
	audit       []model.AuditEntry
	accounts    map[int64]model.Account
	nextFilm    int64
	nextAudit   int64
	nextAccount int64
}

func (s memState) clone() memState {
	c := s
	c.films = maps.Clone(s.films)
	c.accounts = maps.Clone(s.accounts)
	c.audit = make([]model.AuditEntry, len(s.audit))
	for i, e := range s.audit {
		if e.FilmID != nil {
			id := *e.FilmID
			e.FilmID = &id
		}
		c.audit[i] = e
	}
	return c
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		st: memState{
			films:    make(map[int64]model.Film),
			accounts: make(map[int64]model.Account),
		},
		now: time.Now,
	}
}

// Films returns the film repository.
func (s *MemoryStore) Films() Films { return memFilms{s} }

// Audit returns the audit repository.
func (s *MemoryStore) Audit() AuditLog { return memAudit{s} }

// Accounts returns the account repository.
func (s *MemoryStore) Accounts() Accounts { return memAccounts{s} }

// InTx runs fn while holding the transaction lock and restores the previous
// state when fn fails or panics.
func (s *MemoryStore) InTx(ctx context.Context, fn func(Repos) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	return fn(s)
}

func (s *MemoryStore) restore(snapshot memState) {
	s.mu.Lock()
	s.st = snapshot
	s.mu.Unlock()
}

type memFilms struct{ s *MemoryStore }

func (r memFilms) Create(_ context.Context, film *model.Film) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.st.nextFilm++
	film.ID = r.s.st.nextFilm
	r.s.st.films[film.ID] = *film
	return nil
}

func (r memFilms) GetByID(_ context.Context, id int64) (*model.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, ok := r.s.st.films[id]
	if !ok {
		return nil, fmt.Errorf("get film: %w", ErrNotFound)
	}
	return &f, nil
}

// GetForUpdate needs no row lock: InTx already serialises writers.
func (r memFilms) GetForUpdate(ctx context.Context, id int64) (*model.Film, error) {
	return r.GetByID(ctx, id)
}

func (r memFilms) List(_ context.Context) ([]model.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := slices.Sorted(maps.Keys(r.s.st.films))
	films := make([]model.Film, 0, len(ids))
	for _, id := range ids {
		films = append(films, r.s.st.films[id])
	}
	return films, nil
}

func (r memFilms) Update(_ context.Context, film *model.Film) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.films[film.ID]; !ok {
		return fmt.Errorf("update film: %w", ErrNotFound)
	}
	r.s.st.films[film.ID] = *film
	return nil
}

func (r memFilms) SetStatus(_ context.Context, id int64, status model.FilmStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, ok := r.s.st.films[id]
	if !ok {
		return fmt.Errorf("set film status: %w", ErrNotFound)
	}
	f.Status = status
	r.s.st.films[id] = f
	return nil
}

// Delete mirrors ON DELETE SET NULL on the audit trail.
func (r memFilms) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.films[id]; !ok {
		return fmt.Errorf("delete film: %w", ErrNotFound)
	}
	delete(r.s.st.films, id)
	for i := range r.s.st.audit {
		if e := &r.s.st.audit[i]; e.FilmID != nil && *e.FilmID == id {
			e.FilmID = nil
		}
	}
	return nil
}

type memAudit struct{ s *MemoryStore }

func (r memAudit) Append(_ context.Context, entry *model.AuditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if entry.FilmID != nil {
		if _, ok := r.s.st.films[*entry.FilmID]; !ok {
			return fmt.Errorf("insert audit entry: %w", ErrReferentialConflict)
		}
	}
	if !r.s.hasUsername(entry.Username) {
		return fmt.Errorf("insert audit entry: %w", ErrReferentialConflict)
	}

	r.s.st.nextAudit++
	entry.ID = r.s.st.nextAudit
	entry.Timestamp = r.s.now().UTC()

	stored := *entry
	if entry.FilmID != nil {
		id := *entry.FilmID
		stored.FilmID = &id
	}
	r.s.st.audit = append(r.s.st.audit, stored)
	return nil
}

func (r memAudit) List(_ context.Context, filter model.AuditFilter) ([]model.AuditEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var entries []model.AuditEntry
	for i := len(r.s.st.audit) - 1; i >= 0; i-- {
		e := r.s.st.audit[i]
		if filter.FilmID != nil && (e.FilmID == nil || *e.FilmID != *filter.FilmID) {
			continue
		}
		if e.FilmID != nil {
			id := *e.FilmID
			e.FilmID = &id
		}
		entries = append(entries, e)
		if filter.Limit > 0 && len(entries) == filter.Limit {
			break
		}
	}
	return entries, nil
}

type memAccounts struct{ s *MemoryStore }

// hasUsername must be called with mu held.
func (s *MemoryStore) hasUsername(username string) bool {
	for _, a := range s.st.accounts {
		if a.Username == username {
			return true
		}
	}
	return false
}

func (r memAccounts) Create(_ context.Context, account *model.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.hasUsername(account.Username) {
		return fmt.Errorf("insert account: %w", ErrDuplicate)
	}
	r.s.st.nextAccount++
	account.ID = r.s.st.nextAccount
	account.CreatedAt = r.s.now().UTC()
	r.s.st.accounts[account.ID] = *account
	return nil
}

func (r memAccounts) GetByUsername(_ context.Context, username string) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.st.accounts {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("get account: %w", ErrNotFound)
}

func (r memAccounts) GetByID(_ context.Context, id int64) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.st.accounts[id]
	if !ok {
		return nil, fmt.Errorf("get account: %w", ErrNotFound)
	}
	return &a, nil
}

func (r memAccounts) List(_ context.Context) ([]model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := slices.Sorted(maps.Keys(r.s.st.accounts))
	accounts := make([]model.Account, 0, len(ids))
	for _, id := range ids {
		accounts = append(accounts, r.s.st.accounts[id])
	}
	return accounts, nil
}
