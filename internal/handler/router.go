package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter builds the chi router with both surfaces mounted.
func NewRouter(h *Handler, corsOrigins []string, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(RequestLogger(logger))   // structured access log
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(CORS(corsOrigins))
	r.Use(h.LoadSession)

	// Health
	r.Get("/health", HealthCheck)

	// Public pages
	r.Get("/", h.Home)
	r.Get("/opdracht", h.Opdracht)
	r.Get("/denied", h.Denied)
	r.Get("/DENIED", h.Denied)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)
	r.Get("/register", h.RegisterPage)
	r.Post("/register", h.Register)

	// Signed-in users
	r.Group(func(r chi.Router) {
		r.Use(h.RequireUser)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/videotheek", h.Videotheek)
		r.Post("/videotheek", h.Videotheek)
		r.Post("/reserve", Negotiate(h.APIReserve, h.FormReserve))
		r.Post("/return", Negotiate(h.APIReturn, h.FormReturn))
	})

	// Administrators
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAdmin)
		r.Get("/admin", h.Admin)
		r.Post("/admin", h.Admin)
		r.Get("/admin/logging", h.AuditLog)

		r.Get("/add", h.AddPage)
		r.Post("/add", Negotiate(h.APIAdd, h.FormAdd))

		edit := Negotiate(h.APIEdit, h.FormEdit)
		r.Get("/edit", h.EditPage)
		r.Post("/edit", edit)
		r.Put("/edit", edit)

		del := Negotiate(h.APIDelete, h.FormDelete)
		r.Post("/delete", del)
		r.Delete("/delete", del)
	})

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Use(jsonSurface)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		})

		r.Get("/videotheek", h.ListSummaries)
		r.Post("/login", h.APILogin)
		r.Post("/register", h.APIRegister)
		r.Get("/films", h.ListFilms)
		r.Get("/films/{id}", h.GetFilm)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireUser)
			r.Post("/films/{id}/reserve", h.ReserveFilm)
			r.Post("/films/{id}/return", h.ReturnFilm)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Post("/films", h.APIAdd)
			r.Put("/films/{id}", h.UpdateFilm)
			r.Delete("/films/{id}", h.DeleteFilm)
			r.Get("/audit", h.ListAudit)
		})
	})

	return r
}
