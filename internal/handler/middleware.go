package handler

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Shivanand-hulikatti/videotheek/internal/service"
	"github.com/Shivanand-hulikatti/videotheek/internal/session"
)

// RequestLogger attaches logger to every request, tagged with the chi request
// id, and writes one access log line per request.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	withID := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := middleware.GetReqID(r.Context()); id != "" {
				l := zerolog.Ctx(r.Context())
				l.UpdateContext(func(c zerolog.Context) zerolog.Context {
					return c.Str("req_id", id)
				})
			}
			next.ServeHTTP(w, r)
		})
	}
	access := hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("latency", d).
			Msg("http")
	})
	return func(next http.Handler) http.Handler {
		return hlog.NewHandler(logger)(
			withID(
				hlog.RemoteAddrHandler("ip")(
					hlog.UserAgentHandler("ua")(
						access(next)))))
	}
}

// CORS allows cross-origin calls from the configured origins. "*" allows any.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowAll := len(origins) == 0 || slices.Contains(origins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || slices.Contains(origins, origin)) {
				h := w.Header()
				if allowAll {
					h.Set("Access-Control-Allow-Origin", "*")
				} else {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
				if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoadSession stores the caller's principal in the request context when a
// valid token names an existing account. Username and role come from the
// stored account. Invalid or stale cookies are cleared.
func (h *Handler) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := h.sessions.FromRequest(r)
		if err == nil {
			p, err = h.resolvePrincipal(r, p)
		}
		switch {
		case err == nil:
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("user", p.Username)
			})
			r = r.WithContext(session.WithPrincipal(r.Context(), p))
		case errors.Is(err, session.ErrNoSession):
		case errors.Is(err, errStaleSession), errors.Is(err, session.ErrInvalidToken):
			hlog.FromRequest(r).Debug().Err(err).Msg("ignoring invalid session")
			if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
				h.sessions.ClearCookie(w)
			}
		default:
			hlog.FromRequest(r).Error().Err(err).Msg("session lookup failed")
			if wantsJSON(r) {
				writeError(w, http.StatusInternalServerError, msgInternal)
			} else {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

var errStaleSession = errors.New("session account no longer exists")

// resolvePrincipal checks the token's account against the store.
func (h *Handler) resolvePrincipal(r *http.Request, p *session.Principal) (*session.Principal, error) {
	account, err := h.accounts.Get(r.Context(), p.AccountID)
	if errors.Is(err, service.ErrNotFound) {
		return nil, errStaleSession
	}
	if err != nil {
		return nil, err
	}
	if account.Username != p.Username {
		return nil, errStaleSession
	}
	return &session.Principal{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
		SessionID: p.SessionID,
	}, nil
}

// RequireUser rejects callers that are not signed in.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.PrincipalFrom(r.Context()); !ok {
			h.deny(w, r, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers that are not signed in with role admin.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := session.PrincipalFrom(r.Context())
		if !ok {
			h.deny(w, r, http.StatusUnauthorized)
			return
		}
		if !p.IsAdmin() {
			h.deny(w, r, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// deny answers JSON callers with 401/403 and sends browsers to /denied with
// a flash message.
func (h *Handler) deny(w http.ResponseWriter, r *http.Request, status int) {
	hlog.FromRequest(r).Info().Int("status", status).Str("path", r.URL.Path).Msg("access denied")
	if wantsJSON(r) {
		msg := msgUnauthenticated
		if status == http.StatusForbidden {
			msg = msgForbidden
		}
		writeError(w, status, msg)
		return
	}
	if status == http.StatusForbidden {
		session.AddFlash(w, r, session.FlashDanger, msgNoPermission)
	} else {
		session.AddFlash(w, r, session.FlashWarning, msgNeedLogin)
	}
	http.Redirect(w, r, "/denied", http.StatusSeeOther)
}
