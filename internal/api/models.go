package api

import (
	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// TokenRequest defines the payload for the token endpoint.
type TokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse is returned by both token endpoints.
type TokenResponse struct {
	// Access is the bearer token for API calls.
	Access string `json:"access"`

	// Refresh obtains a new pair once Access expires.
	Refresh string `json:"refresh"`

	// ExpiresAt is when Access stops being accepted.
	ExpiresAt string `json:"expires_at"`
}

// SignupRequest defines the payload for account registration.
type SignupRequest struct {
	Username        string `json:"username"         validate:"required,max=150"`
	Email           string `json:"email"            validate:"omitempty,email"`
	Password        string `json:"password"         validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	IsSuperuser bool      `json:"is_superuser"`
}

// NewUserResponse converts a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsSuperuser: u.IsSuperuser,
	}
}

// TaskResponse is the JSON shape of a task. AssigneeEmail is only present on
// write responses.
type TaskResponse struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Assignee         uuid.UUID `json:"assignee"`
	AssigneeUsername string    `json:"assignee_username"`
	Status           string    `json:"status"`
	StartDate        string    `json:"startDate"`
	Deadline         string    `json:"deadline"`
	Priority         string    `json:"priority"`
	AssigneeEmail    *string   `json:"assignee_email,omitempty"`
}

// NewTaskResponse converts a domain task for a read.
func NewTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Assignee:         t.AssigneeID,
		AssigneeUsername: t.AssigneeUsername,
		Status:           string(t.Status),
		StartDate:        domain.FormatTimestamp(t.StartDate),
		Deadline:         domain.FormatTimestamp(t.Deadline),
		Priority:         string(t.Priority),
	}
}

// NewTaskWriteResponse converts a domain task for a create or update.
func NewTaskWriteResponse(t *domain.Task) TaskResponse {
	resp := NewTaskResponse(t)
	email := t.AssigneeEmail
	resp.AssigneeEmail = &email
	return resp
}
