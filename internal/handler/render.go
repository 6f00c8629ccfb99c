package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/Shivanand-hulikatti/videotheek/internal/model"
	"github.com/Shivanand-hulikatti/videotheek/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names, one per template file.
const (
	pageHome       = "home"
	pageLogin      = "login"
	pageRegister   = "register"
	pageDashboard  = "dashboard"
	pageAdmin      = "admin"
	pageVideotheek = "videotheek"
	pageAdd        = "add"
	pageEdit       = "edit"
	pageDenied     = "denied"
	pageLogging    = "logging"
	pageOpdracht   = "opdracht"
)

// PageData is passed to every page template.
type PageData struct {
	Title     string
	Principal *session.Principal
	Flashes   []session.Flash
	Error     string
	Films     []model.Film
	Film      *model.Film
	Accounts  []model.Account
	Entries   []model.AuditEntry
	Form      map[string]string
}

var templateFuncs = template.FuncMap{
	"statuses": func() []model.FilmStatus {
		return []model.FilmStatus{model.StatusAvailable, model.StatusReserved}
	},
	"deref": func(id *int64) string {
		if id == nil {
			return "-"
		}
		return fmt.Sprint(*id)
	},
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name == "base" {
			continue
		}
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/base.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages}, nil
}

// Render writes page with status. Pending flash messages are consumed.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data PageData) {
	t, ok := rd.pages[page]
	if !ok {
		hlog.FromRequest(r).Error().Str("page", page).Msg("unknown page template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if p, ok := session.PrincipalFrom(r.Context()); ok {
		data.Principal = p
	}
	data.Flashes = session.PopFlashes(w, r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("page", page).Msg("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
