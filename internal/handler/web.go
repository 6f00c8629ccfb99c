package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/Shivanand-hulikatti/videotheek/internal/model"
	"github.com/Shivanand-hulikatti/videotheek/internal/service"
	"github.com/Shivanand-hulikatti/videotheek/internal/session"
)

// ─── Pages ───────────────────────────────────────────────────────────────────

// Home handles GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, http.StatusOK, pageHome, PageData{Title: "Home"})
}

// Opdracht handles GET /opdracht
func (h *Handler) Opdracht(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, http.StatusOK, pageOpdracht, PageData{Title: "Opdracht"})
}

// Denied handles GET /denied
func (h *Handler) Denied(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, http.StatusOK, pageDenied, PageData{Title: "Geen toegang"})
}

// Dashboard handles GET /dashboard
// Lists all accounts.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	h.pages.Render(w, r, http.StatusOK, pageDashboard, PageData{Title: "Dashboard", Accounts: accounts})
}

// Admin handles GET|POST /admin
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	h.renderListing(w, r, http.StatusOK, pageAdmin, "")
}

// Videotheek handles GET|POST /videotheek
func (h *Handler) Videotheek(w http.ResponseWriter, r *http.Request) {
	h.renderListing(w, r, http.StatusOK, pageVideotheek, "")
}

// AuditLog handles GET /admin/logging
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	filter, err := auditFilter(r)
	if err == nil {
		var entries []model.AuditEntry
		entries, err = h.catalog.History(r.Context(), filter)
		if err == nil {
			h.pages.Render(w, r, http.StatusOK, pageLogging, PageData{Title: "Logboek", Entries: entries})
			return
		}
	}

	var qerr errInvalidQuery
	if errors.As(err, &qerr) {
		h.pages.Render(w, r, http.StatusBadRequest, pageLogging, PageData{Title: "Logboek", Error: qerr.Error()})
		return
	}
	h.pageError(w, r, err)
}

// AddPage handles GET /add
func (h *Handler) AddPage(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, http.StatusOK, pageAdd, PageData{Title: "Film toevoegen"})
}

// EditPage handles GET /edit?id=
func (h *Handler) EditPage(w http.ResponseWriter, r *http.Request) {
	film, err := h.catalog.Get(r.Context(), formID(r))
	if err != nil {
		status, msg := formError(r, err)
		h.renderListing(w, r, status, pageVideotheek, msg)
		return
	}
	h.pages.Render(w, r, http.StatusOK, pageEdit, PageData{Title: "Film bewerken", Film: film})
}

// ─── Form surface ────────────────────────────────────────────────────────────

// FormReserve handles POST /reserve for browsers.
func (h *Handler) FormReserve(w http.ResponseWriter, r *http.Request) {
	film, err := h.catalog.Reserve(r.Context(), actor(r), formID(r))
	if err != nil {
		status, msg := formError(r, err)
		h.renderListing(w, r, status, pageVideotheek, msg)
		return
	}
	h.redirectWithFlash(w, r, "/videotheek", fmt.Sprintf("Film \"%s\" is gereserveerd!", film.Title))
}

// FormReturn handles POST /return for browsers.
func (h *Handler) FormReturn(w http.ResponseWriter, r *http.Request) {
	if _, err := h.catalog.Return(r.Context(), actor(r), formID(r)); err != nil {
		status, msg := formError(r, err)
		h.renderListing(w, r, status, pageVideotheek, msg)
		return
	}
	h.redirectWithFlash(w, r, "/videotheek", msgFormReturned)
}

// FormEdit handles POST|PUT /edit for browsers.
func (h *Handler) FormEdit(w http.ResponseWriter, r *http.Request) {
	id := formID(r)
	in := model.FilmInput{
		Title:  r.FormValue("title"),
		Status: model.FilmStatus(r.FormValue("status")),
	}

	if _, err := h.catalog.Edit(r.Context(), actor(r), id, in); err != nil {
		status, msg := formError(r, err)
		var verr *service.ValidationError
		if errors.As(err, &verr) && verr.Field != "id" {
			// Keep the user on the edit form with what they submitted.
			film, gerr := h.catalog.Get(r.Context(), id)
			if gerr == nil {
				film.Title, film.Status = in.Title, in.Status
				h.pages.Render(w, r, status, pageEdit, PageData{Title: "Film bewerken", Film: film, Error: msg})
				return
			}
		}
		h.renderListing(w, r, status, pageVideotheek, msg)
		return
	}
	h.redirectWithFlash(w, r, "/videotheek", msgFormUpdated)
}

// FormAdd handles POST /add for browsers.
func (h *Handler) FormAdd(w http.ResponseWriter, r *http.Request) {
	in := model.FilmInput{
		Title:  r.FormValue("title"),
		Status: model.FilmStatus(r.FormValue("status")),
	}

	if _, err := h.catalog.Add(r.Context(), actor(r), in); err != nil {
		status, msg := formError(r, err)
		h.pages.Render(w, r, status, pageAdd, PageData{
			Title: "Film toevoegen",
			Error: msg,
			Form:  map[string]string{"title": in.Title, "status": string(in.Status)},
		})
		return
	}
	h.redirectWithFlash(w, r, "/admin", msgFormAdded)
}

// FormDelete handles POST|DELETE /delete for browsers.
func (h *Handler) FormDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.catalog.Delete(r.Context(), actor(r), formID(r)); err != nil {
		status, msg := http.StatusInternalServerError, msgFormDeleteFailed
		if errors.Is(err, service.ErrReferentialConflict) {
			hlog.FromRequest(r).Error().Err(err).Msg("delete blocked by audit references")
		} else {
			status, msg = formError(r, err)
		}
		h.renderListing(w, r, status, pageVideotheek, msg)
		return
	}
	h.redirectWithFlash(w, r, "/videotheek", msgFormDeleted)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// formError maps a service error onto a status code and a form message.
func formError(r *http.Request, err error) (int, string) {
	var terr *service.TransitionError
	if errors.As(err, &terr) {
		if terr.Action == model.ActionReserved {
			return http.StatusBadRequest, fmt.Sprintf("Film \"%s\" is al gereserveerd!", terr.Film.Title)
		}
		return http.StatusBadRequest, msgFormNotReserved
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		switch {
		case verr.Field == "id":
			// Forms always post an id; an unusable one names no film.
			return http.StatusNotFound, msgFilmNotFound
		case verr.Field == "title" && verr.Reason == "is required":
			return http.StatusBadRequest, msgFormTitleRequired
		}
	}
	return apiError(r, err)
}

func (h *Handler) renderListing(w http.ResponseWriter, r *http.Request, status int, page, errMsg string) {
	films, err := h.catalog.List(r.Context())
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	title := "Videotheek"
	if page == pageAdmin {
		title = "Beheer"
	}
	h.pages.Render(w, r, status, page, PageData{Title: title, Films: films, Error: errMsg})
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, to, msg string) {
	session.AddFlash(w, r, session.FlashSuccess, msg)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (h *Handler) pageError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := apiError(r, err)
	h.pages.Render(w, r, status, pageHome, PageData{Title: "Fout", Error: msg})
}
