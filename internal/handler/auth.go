package handler

import (
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/Shivanand-hulikatti/videotheek/internal/model"
	"github.com/Shivanand-hulikatti/videotheek/internal/session"
)

// LoginPage handles GET /login
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, http.StatusOK, pageLogin, PageData{Title: "Inloggen"})
}

// Login handles POST /login from the login form.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	creds := model.Credentials{Username: r.FormValue("username"), Password: r.FormValue("password")}

	account, err := h.accounts.Authenticate(r.Context(), creds)
	if err != nil {
		status, msg := apiError(r, err)
		h.pages.Render(w, r, status, pageLogin, PageData{
			Title: "Inloggen",
			Error: msg,
			Form:  map[string]string{"username": creds.Username},
		})
		return
	}

	token, err := h.sessions.Issue(account)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	h.sessions.SetCookie(w, token)
	hlog.FromRequest(r).Info().Str("user", account.Username).Msg("signed in")
	h.redirectWithFlash(w, r, "/dashboard", msgLoggedIn)
}

// RegisterPage handles GET /register
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, http.StatusOK, pageRegister, PageData{Title: "Registreren"})
}

// Register handles POST /register from the registration form.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	creds := model.Credentials{Username: r.FormValue("username"), Password: r.FormValue("password")}

	if _, err := h.accounts.Register(r.Context(), creds); err != nil {
		status, msg := apiError(r, err)
		h.pages.Render(w, r, status, pageRegister, PageData{
			Title: "Registreren",
			Error: msg,
			Form:  map[string]string{"username": creds.Username},
		})
		return
	}
	h.redirectWithFlash(w, r, "/login", msgRegistered)
}

// Logout handles GET /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	session.AddFlash(w, r, session.FlashInfo, msgLoggedOut)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// APILogin handles POST /api/login
// Returns a bearer token for the JSON surface.
func (h *Handler) APILogin(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody+": "+err.Error())
		return
	}

	account, err := h.accounts.Authenticate(r.Context(), creds)
	if err != nil {
		status, msg := apiError(r, err)
		writeError(w, status, msg)
		return
	}

	token, err := h.sessions.Issue(account)
	if err != nil {
		status, msg := apiError(r, err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, model.TokenResponse{Token: token, Username: account.Username, Role: account.Role})
}

// APIRegister handles POST /api/register
func (h *Handler) APIRegister(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody+": "+err.Error())
		return
	}

	account, err := h.accounts.Register(r.Context(), creds)
	if err != nil {
		status, msg := apiError(r, err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}
