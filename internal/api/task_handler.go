package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/api/middleware"
	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service"
)

// TaskHandler serves the /api/tasks endpoints.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With("component", "task_handler"),
	}
}

// Routes mounts the task endpoints on r. Callers apply authentication.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Replace)
	r.Patch("/{id}", h.PartialUpdate)
	r.Delete("/{id}", h.Delete)
}

// List handles GET /api/tasks?assignee=&sort=&order=.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	tasks, err := h.tasks.List(r.Context(), p, service.TaskQuery{
		Assignee: query.Get("assignee"),
		Sort:     query.Get("sort"),
		Order:    query.Get("order"),
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, NewTaskResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	in, ok := h.readInput(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Create(r.Context(), p, in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, NewTaskWriteResponse(task))
}

// Replace handles PUT /api/tasks/{id}.
func (h *TaskHandler) Replace(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	in, ok := h.readInput(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Replace(r.Context(), p, pathID(r), in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskWriteResponse(task))
}

// PartialUpdate handles PATCH /api/tasks/{id}.
func (h *TaskHandler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	in, ok := h.readInput(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.PartialUpdate(r.Context(), p, pathID(r), in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskWriteResponse(task))
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), p, pathID(r)); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		h.logger.Warn("principal missing from request context", "path", r.URL.Path)
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication credentials were not provided.")
	}
	return p, ok
}

func (h *TaskHandler) readInput(w http.ResponseWriter, r *http.Request) (domain.TaskInput, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, shared.MaxBodyBytes))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request body", err)
		return domain.TaskInput{}, false
	}
	in, err := decodeTaskInput(body)
	if err != nil {
		HandleAPIError(w, r, err)
		return domain.TaskInput{}, false
	}
	return in, true
}

// pathID parses the {id} route parameter. A malformed id becomes uuid.Nil,
// which no task has, so the service reports it in its usual order.
func pathID(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil
	}
	return id
}
