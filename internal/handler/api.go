package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/hlog"

	"github.com/Shivanand-hulikatti/videotheek/internal/model"
	"github.com/Shivanand-hulikatti/videotheek/internal/service"
)

// ListSummaries handles GET /api/videotheek
// Returns {id, title} for every film.
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	films, err := h.catalog.List(r.Context())
	if err != nil {
		status, msg := apiError(r, err)
		writeError(w, status, msg)
		return
	}

	out := make([]model.FilmSummary, 0, len(films))
	for i := range films {
		out = append(out, films[i].Summary())
	}
	writeJSON(w, http.StatusOK, out)
}

// ListFilms handles GET /api/films
func (h *Handler) ListFilms(w http.ResponseWriter, r *http.Request) {
	films, err := h.catalog.List(r.Context())
	if err != nil {
		status, msg := apiError(r, err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, films)
}

// GetFilm handles GET /api/films/{id}
func (h *Handler) GetFilm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidID)
		return
	}

	film, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		status, msg := apiError(r, err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, film)
}

// ─── Legacy JSON surface: id in the body ─────────────────────────────────────

// APIReserve handles POST /reserve for JSON callers.
func (h *Handler) APIReserve(w http.ResponseWriter, r *http.Request) {
	if id, ok := bodyID(w, r); ok {
		h.reserveJSON(w, r, id)
	}
}

// APIReturn handles POST /return for JSON callers.
func (h *Handler) APIReturn(w http.ResponseWriter, r *http.Request) {
	if id, ok := bodyID(w, r); ok {
		h.returnJSON(w, r, id)
	}
}

// APIDelete handles POST|DELETE /delete for JSON callers.
func (h *Handler) APIDelete(w http.ResponseWriter, r *http.Request) {
	if id, ok := bodyID(w, r); ok {
		h.deleteJSON(w, r, id)
	}
}

// APIEdit handles POST|PUT /edit for JSON callers.
func (h *Handler) APIEdit(w http.ResponseWriter, r *http.Request) {
	var req model.EditFilmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody+": "+err.Error())
		return
	}
	h.editJSON(w, r, int64(req.ID), model.FilmInput{Title: req.Title, Status: req.Status})
}

// APIAdd handles POST /add and POST /api/films.
func (h *Handler) APIAdd(w http.ResponseWriter, r *http.Request) {
	var in model.FilmInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody+": "+err.Error())
		return
	}

	if _, err := h.catalog.Add(r.Context(), actor(r), in); err != nil {
		status, msg := apiError(r, err)
		writeError(w, status, msg)
		return
	}
	writeMessage(w, http.StatusCreated, msgAdded)
}

// ─── REST surface: id in the path ────────────────────────────────────────────

// ReserveFilm handles POST /api/films/{id}/reserve
func (h *Handler) ReserveFilm(w http.ResponseWriter, r *http.Request) {
	if id, ok := urlID(w, r); ok {
		h.reserveJSON(w, r, id)
	}
}

// ReturnFilm handles POST /api/films/{id}/return
func (h *Handler) ReturnFilm(w http.ResponseWriter, r *http.Request) {
	if id, ok := urlID(w, r); ok {
		h.returnJSON(w, r, id)
	}
}

// UpdateFilm handles PUT /api/films/{id}
func (h *Handler) UpdateFilm(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var in model.FilmInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody+": "+err.Error())
		return
	}
	h.editJSON(w, r, id, in)
}

// DeleteFilm handles DELETE /api/films/{id}
func (h *Handler) DeleteFilm(w http.ResponseWriter, r *http.Request) {
	if id, ok := urlID(w, r); ok {
		h.deleteJSON(w, r, id)
	}
}

// ListAudit handles GET /api/audit?film_id=&limit=
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	filter, err := auditFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.catalog.History(r.Context(), filter)
	if err != nil {
		status, msg := apiError(r, err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ─── Shared JSON responders ──────────────────────────────────────────────────

func (h *Handler) reserveJSON(w http.ResponseWriter, r *http.Request, id int64) {
	if _, err := h.catalog.Reserve(r.Context(), actor(r), id); err != nil {
		status, msg := apiError(r, err)
		writeError(w, status, msg)
		return
	}
	writeMessage(w, http.StatusOK, msgReserved)
}

func (h *Handler) returnJSON(w http.ResponseWriter, r *http.Request, id int64) {
	if _, err := h.catalog.Return(r.Context(), actor(r), id); err != nil {
		status, msg := apiError(r, err)
		writeError(w, status, msg)
		return
	}
	writeMessage(w, http.StatusOK, msgReturned)
}

func (h *Handler) editJSON(w http.ResponseWriter, r *http.Request, id int64, in model.FilmInput) {
	if _, err := h.catalog.Edit(r.Context(), actor(r), id, in); err != nil {
		status, msg := apiError(r, err)
		writeError(w, status, msg)
		return
	}
	writeMessage(w, http.StatusOK, msgUpdated)
}

func (h *Handler) deleteJSON(w http.ResponseWriter, r *http.Request, id int64) {
	if _, err := h.catalog.Delete(r.Context(), actor(r), id); err != nil {
		if errors.Is(err, service.ErrReferentialConflict) {
			hlog.FromRequest(r).Error().Err(err).Msg("delete blocked by audit references")
			writeError(w, http.StatusInternalServerError, msgDeleteFailed)
			return
		}
		status, msg := apiError(r, err)
		writeError(w, status, msg)
		return
	}
	writeMessage(w, http.StatusOK, msgDeleted)
}

// bodyID decodes a {"id": ...} body. Missing ids are left to the service.
func bodyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var ref model.FilmRef
	if err := decodeJSON(w, r, &ref); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody+": "+err.Error())
		return 0, false
	}
	return int64(ref.ID), true
}

func urlID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidID)
		return 0, false
	}
	return id, true
}

// auditFilter reads film_id and limit from the query string.
func auditFilter(r *http.Request) (model.AuditFilter, error) {
	var filter model.AuditFilter
	q := r.URL.Query()
	if v := q.Get("film_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return filter, errInvalidQuery(msgInvalidID)
		}
		filter.FilmID = &id
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, errInvalidQuery(msgInvalidLimit)
		}
		filter.Limit = n
	}
	return filter, nil
}

type errInvalidQuery string

func (e errInvalidQuery) Error() string { return string(e) }
