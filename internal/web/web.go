// Package web serves the browser front end: login and signup, the personal
// task list and the superuser task administration pages. Pages call the
// task and user services in-process under the same access rules as the API.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/taskhub/taskhub-api/internal/api"
	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
)

// SessionCookie holds the access token of a logged-in browser.
const SessionCookie = "taskhub_session"

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"login.html",
	"signup.html",
	"tasklist.html",
	"admin.html",
	"task_form.html",
	"error.html",
}

// Options configures a Handler.
type Options struct {
	// Location is the display timezone for form datetimes.
	Location *time.Location

	// SecureCookie sets the Secure flag on the session cookie.
	SecureCookie bool
}

// Handler renders the HTML pages.
type Handler struct {
	tasks     service.TaskService
	users     service.UserService
	jwt       auth.JWTService
	loc       *time.Location
	secure    bool
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewHandler parses the embedded templates and returns a Handler.
func NewHandler(
	tasks service.TaskService,
	users service.UserService,
	jwt auth.JWTService,
	opts Options,
	log *slog.Logger,
) (*Handler, error) {
	if tasks == nil || users == nil || jwt == nil {
		return nil, errors.New("web: task service, user service and jwt service are required")
	}
	if log == nil {
		log = slog.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	h := &Handler{
		tasks:     tasks,
		users:     users,
		jwt:       jwt,
		loc:       loc,
		secure:    opts.SecureCookie,
		templates: make(map[string]*template.Template, len(pages)),
		logger:    log.With("component", "web"),
	}

	funcs := template.FuncMap{
		"localTime": h.displayTime,
		"fieldErrs": func(fields map[string][]string, name string) []string { return fields[name] },
	}
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		h.templates[page] = t
	}
	return h, nil
}

// Routes mounts every page on r. loginLimit wraps the credential POSTs and
// may be nil.
func (h *Handler) Routes(r chi.Router, loginLimit func(http.Handler) http.Handler) {
	if loginLimit == nil {
		loginLimit = func(next http.Handler) http.Handler { return next }
	}

	r.Get("/login", h.loginPage)
	r.With(loginLimit).Post("/login", h.login)
	r.Get("/signup", h.signupPage)
	r.Post("/signup", h.signup)
	r.Post("/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)

		r.Get("/", h.index)
		r.Get("/tasklist/", h.taskList)
		r.Post("/tasklist/{id}/status", h.updateStatus)
		r.Get("/tasklist/admin/", h.adminTaskList)
		r.Get("/tasks/new", h.newTaskPage)
		r.Post("/tasks/new", h.createTask)
		r.Get("/tasks/{id}/edit", h.editTaskPage)
		r.Post("/tasks/{id}/edit", h.updateTask)
		r.Post("/tasks/{id}/delete", h.deleteTask)
	})
}

// requireSession resolves the session cookie to a principal, sending
// anonymous browsers to the login page.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			h.toLogin(w, r)
			return
		}

		claims, err := h.jwt.ValidateToken(r.Context(), cookie.Value)
		if err != nil {
			logger.FromContextOrDefault(r.Context(), h.logger).Debug("rejecting session cookie", "error", err)
			h.clearSession(w)
			h.toLogin(w, r)
			return
		}

		ctx := shared.WithPrincipal(r.Context(), claims.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) toLogin(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if r.Method == http.MethodGet && r.URL.Path != "/" {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) startSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.jwt.AccessTokenLifetime().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// pageData is the root value of every template.
type pageData struct {
	Title      string
	User       *domain.Principal
	Error      string
	Notice     string
	Fields     map[string][]string
	Form       map[string]string
	Next       string
	Tasks      []taskView
	Users      []*domain.User
	Statuses   []domain.TaskStatus
	Priorities []domain.TaskPriority
	Sort       string
	Order      string
	Action     string
	TaskID     string
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	t, ok := h.templates[page]
	if !ok {
		h.renderFailure(w, r, fmt.Errorf("unknown template %q", page))
		return
	}
	if p, ok := shared.PrincipalFrom(r.Context()); ok && data.User == nil {
		data.User = &p
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.renderFailure(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContextOrDefault(r.Context(), h.logger).Error("failed to render page",
		"error", err,
		"path", r.URL.Path)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// renderError shows a service failure on the error page. It uses the same
// status and wording the API would.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := api.MapErrorToStatusCode(err)
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	if status >= http.StatusInternalServerError {
		log.Error("page request failed", "error", err, "path", r.URL.Path)
	} else {
		log.Debug("page request rejected", "error", err, "status", status, "path", r.URL.Path)
	}

	h.render(w, r, status, "error.html", pageData{
		Title: http.StatusText(status),
		Error: api.GetSafeErrorMessage(err),
	})
}

func (h *Handler) displayTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(h.loc).Format("2006-01-02 15:04")
}
