package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taskhub/taskhub-api/internal/api/middleware"
	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/service"
)

// UserHandler serves signup and user administration.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, logger: logger.With("component", "user_handler")}
}

// Signup handles POST /api/users.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), service.Registration{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, NewUserResponse(user))
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	users, err := h.users.List(r.Context(), p)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// Delete handles DELETE /api/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	if err := h.users.Delete(r.Context(), p, pathID(r)); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	h.logger.Info("user removed", "user_id", chi.URLParam(r, "id"), "actor", p.Username)
	w.WriteHeader(http.StatusNoContent)
}
