package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service"
)

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Log in", Next: r.URL.Query().Get("next")}
	if r.URL.Query().Get("registered") != "" {
		data.Notice = "Your account has been created. Please log in."
	}
	h.render(w, r, http.StatusOK, "login.html", data)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	next := safeNext(r.PostFormValue("next"))

	data := pageData{
		Title: "Log in",
		Form:  map[string]string{"username": username},
		Next:  next,
	}

	if username == "" || password == "" {
		data.Error = "Please enter a correct username and password."
		h.render(w, r, http.StatusBadRequest, "login.html", data)
		return
	}

	user, err := h.users.Authenticate(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			data.Error = "Please enter a correct username and password."
			h.render(w, r, http.StatusUnauthorized, "login.html", data)
			return
		}
		h.renderError(w, r, err)
		return
	}

	token, err := h.jwt.GenerateToken(r.Context(), domain.PrincipalFor(user))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.startSession(w, token)

	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handler) signupPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "signup.html", pageData{Title: "Sign up"})
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	reg := service.Registration{
		Username:        strings.TrimSpace(r.PostFormValue("username")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		PasswordConfirm: r.PostFormValue("password_confirm"),
	}

	_, err := h.users.Register(r.Context(), reg)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			h.render(w, r, http.StatusBadRequest, "signup.html", pageData{
				Title:  "Sign up",
				Fields: verr.Fields,
				Form:   map[string]string{"username": reg.Username, "email": reg.Email},
			})
			return
		}
		h.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.clearSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFrom(r.Context())
	if p.IsSuperuser {
		http.Redirect(w, r, "/tasklist/admin/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/tasklist/", http.StatusSeeOther)
}

func (h *Handler) taskList(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFrom(r.Context())
	q := r.URL.Query()

	tasks, err := h.tasks.List(r.Context(), p, service.TaskQuery{
		Assignee: p.UserID.String(),
		Sort:     q.Get("sort"),
		Order:    q.Get("order"),
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "tasklist.html", pageData{
		Title:    "My tasks",
		Tasks:    newTaskViews(tasks, time.Now()),
		Statuses: domain.TaskStatuses,
		Sort:     q.Get("sort"),
		Order:    q.Get("order"),
	})
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFrom(r.Context())
	status := r.PostFormValue("status")

	_, err := h.tasks.PartialUpdate(r.Context(), p, pathID(r), domain.TaskInput{Status: &status})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	back := "/tasklist/"
	if r.PostFormValue("from") == "admin" && p.IsSuperuser {
		back = "/tasklist/admin/"
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *Handler) adminTaskList(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFrom(r.Context())
	if !p.IsSuperuser {
		h.renderError(w, r, domain.ErrForbidden)
		return
	}

	q := r.URL.Query()
	sort, order := q.Get("sort"), q.Get("order")
	if sort == "" {
		sort, order = string(domain.SortByDeadline), "desc"
	}

	tasks, err := h.tasks.List(r.Context(), p, service.TaskQuery{
		Assignee: q.Get("assignee"),
		Sort:     sort,
		Order:    order,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "admin.html", pageData{
		Title:    "All tasks",
		Tasks:    newTaskViews(tasks, time.Now()),
		Statuses: domain.TaskStatuses,
		Sort:     sort,
		Order:    order,
	})
}

func (h *Handler) newTaskPage(w http.ResponseWriter, r *http.Request) {
	h.showTaskForm(w, r, http.StatusOK, pageData{
		Title:  "New task",
		Action: "/tasks/new",
		Form: map[string]string{
			"status":   string(domain.DefaultTaskStatus),
			"priority": string(domain.DefaultTaskPriority),
		},
	})
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFrom(r.Context())
	values := formValues(r)

	_, err := h.tasks.Create(r.Context(), p, taskInput(values, h.loc))
	if err != nil {
		h.taskFormError(w, r, err, pageData{Title: "New task", Action: "/tasks/new", Form: values})
		return
	}
	http.Redirect(w, r, "/tasklist/admin/", http.StatusSeeOther)
}

func (h *Handler) editTaskPage(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFrom(r.Context())
	if !p.IsSuperuser {
		h.renderError(w, r, domain.ErrForbidden)
		return
	}

	id := pathID(r)
	task, err := h.tasks.Get(r.Context(), p, id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.showTaskForm(w, r, http.StatusOK, pageData{
		Title:  "Edit task",
		Action: "/tasks/" + id.String() + "/edit",
		TaskID: id.String(),
		Form:   taskFormValues(task, h.loc),
	})
}

// updateTask saves the edit form as a partial update, so an edit sends
// the update mail and the superuser notice like any other change.
func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFrom(r.Context())
	if !p.IsSuperuser {
		h.renderError(w, r, domain.ErrForbidden)
		return
	}

	id := pathID(r)
	values := formValues(r)

	_, err := h.tasks.PartialUpdate(r.Context(), p, id, taskInput(values, h.loc))
	if err != nil {
		h.taskFormError(w, r, err, pageData{
			Title:  "Edit task",
			Action: "/tasks/" + id.String() + "/edit",
			TaskID: id.String(),
			Form:   values,
		})
		return
	}
	http.Redirect(w, r, "/tasklist/admin/", http.StatusSeeOther)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFrom(r.Context())
	if err := h.tasks.Delete(r.Context(), p, pathID(r)); err != nil {
		h.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/tasklist/admin/", http.StatusSeeOther)
}

// showTaskForm renders the create/edit form with the assignee picker. The
// user list is superuser-only, so it also enforces access to the form.
func (h *Handler) showTaskForm(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	p, _ := shared.PrincipalFrom(r.Context())
	users, err := h.users.List(r.Context(), p)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	data.Users = users
	data.Statuses = domain.TaskStatuses
	data.Priorities = domain.TaskPriorities
	h.render(w, r, status, "task_form.html", data)
}

// taskFormError re-renders the form with field messages for validation
// failures and falls back to the error page for everything else.
func (h *Handler) taskFormError(w http.ResponseWriter, r *http.Request, err error, data pageData) {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		h.renderError(w, r, err)
		return
	}
	data.Fields = verr.Fields
	data.Error = shared.ValidationFailedMessage
	h.showTaskForm(w, r, http.StatusBadRequest, data)
}

func pathID(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// safeNext accepts only local absolute paths as a post-login redirect.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return ""
	}
	return next
}
