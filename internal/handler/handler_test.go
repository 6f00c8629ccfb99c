package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/videotheek/internal/config"
	"github.com/Shivanand-hulikatti/videotheek/internal/model"
	"github.com/Shivanand-hulikatti/videotheek/internal/repository"
	"github.com/Shivanand-hulikatti/videotheek/internal/service"
	"github.com/Shivanand-hulikatti/videotheek/internal/session"
)

const (
	cookieName    = "videotheek_session"
	browserAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

type fixedLookup struct{ description, image string }

func (f fixedLookup) Lookup(context.Context, string) (string, string) {
	return f.description, f.image
}

type testEnv struct {
	t          *testing.T
	router     http.Handler
	store      *repository.MemoryStore
	sessions   *session.Manager
	adminToken string
	userToken  string
}

func newTestEnv(t *testing.T, lookup service.MetadataLookup) *testEnv {
	t.Helper()
	return newTestEnvOn(t, lookup, nil)
}

// newTestEnvOn lets wrap decorate the memory store the services run on.
func newTestEnvOn(t *testing.T, lookup service.MetadataLookup, wrap func(*repository.MemoryStore) repository.Store) *testEnv {
	t.Helper()
	if lookup == nil {
		lookup = fixedLookup{description: "plot", image: "poster.jpg"}
	}
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	var store repository.Store = mem
	if wrap != nil {
		store = wrap(mem)
	}
	catalog := service.NewCatalogService(store, lookup, zerolog.Nop())
	accounts := service.NewAccountService(store, zerolog.Nop())

	admin, err := accounts.CreateAdmin(ctx, model.Credentials{Username: "admin", Password: "adminpass1"})
	require.NoError(t, err)
	user, err := accounts.Register(ctx, model.Credentials{Username: "alice", Password: "alicepass1"})
	require.NoError(t, err)

	sessions, err := session.NewManager(config.SessionConfig{Secret: "test-secret", TTL: time.Hour, CookieName: cookieName})
	require.NoError(t, err)

	h, err := New(catalog, accounts, sessions, zerolog.Nop())
	require.NoError(t, err)

	adminToken, err := sessions.Issue(admin)
	require.NoError(t, err)
	userToken, err := sessions.Issue(user)
	require.NoError(t, err)

	return &testEnv{
		t:          t,
		router:     NewRouter(h, nil, zerolog.Nop()),
		store:      mem,
		sessions:   sessions,
		adminToken: adminToken,
		userToken:  userToken,
	}
}

// json sends a JSON request the way an API client does.
func (e *testEnv) json(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// form sends a url-encoded form the way a browser does.
func (e *testEnv) form(method, path, token string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", browserAccept)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) addFilm(title string) {
	e.t.Helper()
	rec := e.json(http.MethodPost, "/add", e.adminToken, map[string]string{"title": title})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (e *testEnv) actions() []model.Action {
	e.t.Helper()
	entries, err := e.store.Audit().List(context.Background(), model.AuditFilter{})
	require.NoError(e.t, err)
	out := make([]model.Action, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i].Action)
	}
	return out
}

func (e *testEnv) film(id int64) *model.Film {
	e.t.Helper()
	f, err := e.store.Films().GetByID(context.Background(), id)
	require.NoError(e.t, err)
	return f
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestEndToEnd_ReserveFlowOverJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.json(http.MethodPost, "/add", env.adminToken, map[string]string{"title": "Matrix", "status": "Beschikbaar"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, msgAdded, decodeBody[model.MessageResponse](t, rec).Message)

	rec = env.json(http.MethodGet, "/api/videotheek", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"title":"Matrix"}]`, rec.Body.String())

	rec = env.json(http.MethodPost, "/reserve", env.userToken, map[string]any{"id": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "De film is gereserveerd", decodeBody[model.MessageResponse](t, rec).Message)

	rec = env.json(http.MethodPost, "/reserve", env.userToken, map[string]any{"id": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "De film is al gereserveerd", decodeBody[model.ErrorResponse](t, rec).Error)

	rec = env.json(http.MethodPost, "/return", env.userToken, map[string]any{"id": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Film is teruggebracht", decodeBody[model.MessageResponse](t, rec).Message)

	assert.Equal(t, model.StatusAvailable, env.film(1).Status)
	assert.Equal(t, []model.Action{model.ActionAdded, model.ActionReserved, model.ActionReturned}, env.actions())
}

func TestJSON_ErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		want   string
	}{
		{name: "reserve without id", method: http.MethodPost, path: "/reserve", body: map[string]any{}, status: http.StatusBadRequest, want: msgMissingID},
		{name: "reserve empty body", method: http.MethodPost, path: "/reserve", status: http.StatusBadRequest, want: msgMissingID},
		{name: "reserve string id", method: http.MethodPost, path: "/reserve", body: map[string]any{"id": "1"}, status: http.StatusOK},
		{name: "reserve unknown film", method: http.MethodPost, path: "/reserve", body: map[string]any{"id": 99}, status: http.StatusNotFound, want: msgFilmNotFound},
		{name: "return available film", method: http.MethodPost, path: "/return", body: map[string]any{"id": 1}, status: http.StatusBadRequest, want: msgNotReserved},
		{name: "return unknown film", method: http.MethodPost, path: "/return", body: map[string]any{"id": 99}, status: http.StatusNotFound, want: msgFilmNotFound},
		{name: "add without title", method: http.MethodPost, path: "/add", body: map[string]any{"status": "Beschikbaar"}, status: http.StatusBadRequest, want: msgTitleRequired},
		{name: "add invalid status", method: http.MethodPost, path: "/add", body: map[string]any{"title": "Alien", "status": "Kwijt"}, status: http.StatusBadRequest, want: msgInvalidStatus},
		{name: "edit without id", method: http.MethodPut, path: "/edit", body: map[string]any{"title": "x"}, status: http.StatusBadRequest, want: msgMissingID},
		{name: "edit unknown film", method: http.MethodPut, path: "/edit", body: map[string]any{"id": 99, "title": "x"}, status: http.StatusNotFound, want: msgFilmNotFound},
		{name: "edit without title", method: http.MethodPost, path: "/edit", body: map[string]any{"id": 1}, status: http.StatusBadRequest, want: msgTitleRequired},
		{name: "delete without id", method: http.MethodDelete, path: "/delete", body: map[string]any{}, status: http.StatusBadRequest, want: msgMissingID},
		{name: "delete unknown film", method: http.MethodDelete, path: "/delete", body: map[string]any{"id": 99}, status: http.StatusNotFound, want: msgFilmNotFound},
		{name: "unknown field", method: http.MethodPost, path: "/reserve", body: map[string]any{"film": 1}, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.addFilm("Matrix")
			before := env.actions()

			rec := env.json(tt.method, tt.path, env.adminToken, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status >= http.StatusBadRequest {
				errBody := decodeBody[model.ErrorResponse](t, rec)
				if tt.want != "" {
					assert.Equal(t, tt.want, errBody.Error)
				} else {
					assert.NotEmpty(t, errBody.Error)
				}
				assert.Equal(t, before, env.actions(), "failed requests write no audit entries")
			}
		})
	}
}

func TestJSON_AddUsesMetadata(t *testing.T) {
	env := newTestEnv(t, fixedLookup{description: "A hacker learns the truth.", image: "matrix.jpg"})
	env.addFilm("Matrix")

	rec := env.json(http.MethodGet, "/api/films/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	film := decodeBody[model.Film](t, rec)
	assert.Equal(t, "A hacker learns the truth.", film.Description)
	assert.Equal(t, "matrix.jpg", film.Image)
	assert.Equal(t, model.StatusAvailable, film.Status)
}

func TestJSON_EditAndDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addFilm("Matrix")

	rec := env.json(http.MethodPut, "/edit", env.adminToken, map[string]any{"id": 1, "title": "The Matrix", "status": "Gereserveerd"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, msgUpdated, decodeBody[model.MessageResponse](t, rec).Message)
	assert.Equal(t, "The Matrix", env.film(1).Title)
	assert.Equal(t, model.StatusReserved, env.film(1).Status)

	rec = env.json(http.MethodDelete, "/delete", env.adminToken, map[string]any{"id": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, msgDeleted, decodeBody[model.MessageResponse](t, rec).Message)

	rec = env.json(http.MethodGet, "/api/videotheek", "", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, []model.Action{model.ActionAdded, model.ActionUpdated, model.ActionDeleted}, env.actions())
}

func TestJSON_AuthorizationIsEnforced(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addFilm("Matrix")

	rec := env.json(http.MethodPost, "/reserve", "", map[string]any{"id": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgUnauthenticated, decodeBody[model.ErrorResponse](t, rec).Error)

	rec = env.json(http.MethodPost, "/add", env.userToken, map[string]any{"title": "Alien"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, msgForbidden, decodeBody[model.ErrorResponse](t, rec).Error)

	rec = env.json(http.MethodDelete, "/api/films/1", env.userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.json(http.MethodPost, "/api/films/1/reserve", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, model.StatusAvailable, env.film(1).Status)
	assert.Equal(t, []model.Action{model.ActionAdded}, env.actions())
}

func TestREST_FilmRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.json(http.MethodPost, "/api/films", env.adminToken, map[string]any{"title": "Alien"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.json(http.MethodPost, "/api/films/1/reserve", env.userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, msgReserved, decodeBody[model.MessageResponse](t, rec).Message)

	rec = env.json(http.MethodPost, "/api/films/1/reserve", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.json(http.MethodPost, "/api/films/1/return", env.userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.json(http.MethodPut, "/api/films/1", env.adminToken, map[string]any{"title": "Aliens"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.json(http.MethodGet, "/api/films", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	films := decodeBody[[]model.Film](t, rec)
	require.Len(t, films, 1)
	assert.Equal(t, "Aliens", films[0].Title)

	rec = env.json(http.MethodGet, "/api/films/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgInvalidID, decodeBody[model.ErrorResponse](t, rec).Error)

	rec = env.json(http.MethodGet, "/api/films/42", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.json(http.MethodGet, "/api/audit?film_id=1&limit=2", env.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeBody[[]model.AuditEntry](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ActionUpdated, entries[0].Action)
	assert.Equal(t, "admin", entries[0].Username)

	rec = env.json(http.MethodGet, "/api/audit?limit=abc", env.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.json(http.MethodDelete, "/api/films/1", env.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.json(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestAPI_LoginAndRegister(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addFilm("Matrix")

	rec := env.json(http.MethodPost, "/api/register", "", map[string]string{"username": "bob", "password": "bobpass123"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.json(http.MethodPost, "/api/register", "", map[string]string{"username": "bob", "password": "bobpass123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, msgUsernameTaken, decodeBody[model.ErrorResponse](t, rec).Error)

	rec = env.json(http.MethodPost, "/api/register", "", map[string]string{"username": "carol", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgPasswordLength, decodeBody[model.ErrorResponse](t, rec).Error)

	rec = env.json(http.MethodPost, "/api/login", "", map[string]string{"username": "bob", "password": "wrongpass1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgBadCredentials, decodeBody[model.ErrorResponse](t, rec).Error)

	rec = env.json(http.MethodPost, "/api/login", "", map[string]string{"username": "nobody", "password": "wrongpass1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgBadCredentials, decodeBody[model.ErrorResponse](t, rec).Error)

	rec = env.json(http.MethodPost, "/api/login", "", map[string]string{"username": "bob", "password": "bobpass123"})
	require.Equal(t, http.StatusOK, rec.Code)
	tok := decodeBody[model.TokenResponse](t, rec)
	assert.Equal(t, "bob", tok.Username)
	assert.Equal(t, model.RoleUser, tok.Role)

	rec = env.json(http.MethodPost, "/reserve", tok.Token, map[string]any{"id": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err := env.store.Audit().List(context.Background(), model.AuditFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bob", entries[0].Username)
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.json(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestJSON_ConcurrentReserveOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addFilm("Matrix")

	const n = 10
	codes := make(chan int, n)
	for i := 0; i < n; i++ {
		go func() {
			rec := env.jsonNoHelper(http.MethodPost, "/reserve", env.userToken, fmt.Sprintf(`{"id":%d}`, 1))
			codes <- rec.Code
		}()
	}

	counts := map[int]int{}
	for i := 0; i < n; i++ {
		counts[<-codes]++
	}
	assert.Equal(t, 1, counts[http.StatusOK])
	assert.Equal(t, n-1, counts[http.StatusBadRequest])
	assert.Equal(t, []model.Action{model.ActionAdded, model.ActionReserved}, env.actions())
}

// jsonNoHelper is safe to call from goroutines: it avoids require.
func (e *testEnv) jsonNoHelper(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type deleteConflictStore struct{ *repository.MemoryStore }

func (s deleteConflictStore) InTx(ctx context.Context, fn func(repository.Repos) error) error {
	return s.MemoryStore.InTx(ctx, func(r repository.Repos) error {
		return fn(deleteConflictRepos{r})
	})
}

type deleteConflictRepos struct{ repository.Repos }

func (r deleteConflictRepos) Films() repository.Films { return deleteConflictFilms{r.Repos.Films()} }

type deleteConflictFilms struct{ repository.Films }

func (deleteConflictFilms) Delete(context.Context, int64) error {
	return fmt.Errorf("delete film: %w", repository.ErrReferentialConflict)
}

func TestDelete_ReferentialConflictOnBothSurfaces(t *testing.T) {
	env := newTestEnvOn(t, nil, func(m *repository.MemoryStore) repository.Store {
		return deleteConflictStore{m}
	})
	env.addFilm("Matrix")

	rec := env.json(http.MethodDelete, "/api/films/1", env.adminToken, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgDeleteFailed, decodeBody[model.ErrorResponse](t, rec).Error)

	rec = env.form(http.MethodPost, "/delete", env.adminToken, url.Values{"id": {"1"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), msgFormDeleteFailed)

	assert.Equal(t, "Matrix", env.film(1).Title)
	assert.Equal(t, []model.Action{model.ActionAdded}, env.actions())
}

func TestAPIError_ReferentialConflictOutsideDeleteIsInternal(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/reserve", nil)
	status, msg := apiError(req, fmt.Errorf("reserve film: %w", service.ErrReferentialConflict))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, msgInternal, msg)
}

func TestAPI_RegisterRejectsPasswordOverByteLimit(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.json(http.MethodPost, "/api/register", "", map[string]string{
		"username": "bob",
		"password": strings.Repeat("é", 40),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgPasswordLength, decodeBody[model.ErrorResponse](t, rec).Error)
}
