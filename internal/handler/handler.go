// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer. Every catalog mutation
// has a JSON surface and a browser form surface backed by the same service
// call.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Shivanand-hulikatti/videotheek/internal/model"
	"github.com/Shivanand-hulikatti/videotheek/internal/service"
	"github.com/Shivanand-hulikatti/videotheek/internal/session"
)

// JSON surface messages.
const (
	msgReserved          = "De film is gereserveerd"
	msgAlreadyReserved   = "De film is al gereserveerd"
	msgReturned          = "Film is teruggebracht"
	msgNotReserved       = "Film is niet gereserveerd"
	msgUpdated           = "Film succesvol bijgewerkt"
	msgAdded             = "Film succesvol toegevoegd"
	msgDeleted           = "Film succesvol verwijderd"
	msgDeleteFailed      = "Fout bij het verwijderen van de film"
	msgMissingID         = "Geen film ID opgegeven"
	msgInvalidID         = "Ongeldig film ID"
	msgFilmNotFound      = "Film niet gevonden"
	msgTitleRequired     = "Titel is verplicht"
	msgTitleTooLong      = "Titel is te lang"
	msgInvalidStatus     = "Ongeldige status"
	msgInvalidLimit      = "Ongeldige limiet"
	msgInvalidBody       = "Ongeldige aanvraag"
	msgInternal          = "Er is een interne fout opgetreden"
	msgUnauthenticated   = "Je moet ingelogd zijn"
	msgForbidden         = "Je hebt geen toegang tot deze actie"
	msgBadCredentials    = "Verkeerde gebruikersnaam of wachtwoord"
	msgUsernameTaken     = "Gebruikersnaam is al in gebruik"
	msgUsernameRequired  = "Gebruikersnaam is verplicht"
	msgUsernameTooLong   = "Gebruikersnaam mag maximaal 25 tekens bevatten"
	msgPasswordRequired  = "Wachtwoord is verplicht"
	msgPasswordLength    = "Wachtwoord moet tussen 8 en 72 tekens bevatten"
	msgNeedLogin         = "You need to login to access this page."
	msgNoPermission      = "You do not have permission to access this page."
	msgLoggedIn          = "Succesvol ingelogd"
	msgRegistered        = "Gefeliciteerd je hebt een account"
	msgLoggedOut         = "Je bent uitgelogd"
	msgFormDeleteFailed  = "Er is een fout opgetreden tijdens het verwijderen van de film."
	msgFormReturned      = "De film is teruggebracht!"
	msgFormNotReserved   = "De film is niet gereserveerd."
	msgFormUpdated       = "De film is bijgewerkt!"
	msgFormAdded         = "De film is toegevoegd!"
	msgFormDeleted       = "De film is succesvol verwijderd!"
	msgFormTitleRequired = "Titel is verplicht!"
)

// Handler holds all HTTP handlers for the rental shop.
type Handler struct {
	catalog  *service.CatalogService
	accounts *service.AccountService
	sessions *session.Manager
	pages    *Renderer
	logger   zerolog.Logger
}

// New constructs a Handler and parses the page templates.
func New(
	catalog *service.CatalogService,
	accounts *service.AccountService,
	sessions *session.Manager,
	logger zerolog.Logger,
) (*Handler, error) {
	pages, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Handler{
		catalog:  catalog,
		accounts: accounts,
		sessions: sessions,
		pages:    pages,
		logger:   logger,
	}, nil
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.MessageResponse{Message: msg})
}

// decodeJSON reads a single JSON object. An empty body decodes to the zero
// value so that missing fields are reported by validation.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid film id %q", raw)
	}
	return id, nil
}

// formID parses the id form field. Anything unparsable counts as missing.
func formID(r *http.Request) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("id")), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// actor returns the username of the signed-in caller, or "".
func actor(r *http.Request) string {
	if p, ok := session.PrincipalFrom(r.Context()); ok {
		return p.Username
	}
	return ""
}

// apiError maps a service error onto a JSON status code and message.
func apiError(r *http.Request, err error) (int, string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return validationStatus(verr), validationMessage(verr)
	case errors.Is(err, service.ErrAlreadyReserved):
		return http.StatusBadRequest, msgAlreadyReserved
	case errors.Is(err, service.ErrNotReserved):
		return http.StatusBadRequest, msgNotReserved
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, msgFilmNotFound
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict, msgUsernameTaken
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgBadCredentials
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		return http.StatusInternalServerError, msgInternal
	}
}

func validationStatus(verr *service.ValidationError) int {
	if verr.Field == "user" {
		return http.StatusUnauthorized
	}
	return http.StatusBadRequest
}

func validationMessage(verr *service.ValidationError) string {
	tooLong := strings.HasPrefix(verr.Reason, "must be at most")
	switch verr.Field {
	case "id":
		return msgMissingID
	case "title":
		if tooLong {
			return msgTitleTooLong
		}
		return msgTitleRequired
	case "status":
		return msgInvalidStatus
	case "limit":
		return msgInvalidLimit
	case "user":
		return msgUnauthenticated
	case "username":
		if tooLong {
			return msgUsernameTooLong
		}
		return msgUsernameRequired
	case "password":
		if verr.Reason == "is required" {
			return msgPasswordRequired
		}
		return msgPasswordLength
	default:
		return msgInvalidBody
	}
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
