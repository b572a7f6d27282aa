package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
)

// AuthHandler handles token issue and refresh.
type AuthHandler struct {
	users      service.UserService
	jwtService auth.JWTService
	logger     *slog.Logger
	timeFunc   func() time.Time
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(users service.UserService, jwtService auth.JWTService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		users:      users,
		jwtService: jwtService,
		logger:     logger.With("component", "auth_handler"),
		timeFunc:   time.Now,
	}
}

// Token handles POST /api/token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	h.issue(w, r, domain.PrincipalFor(user))
}

// Refresh handles POST /api/token/refresh. The user is reloaded so the new
// access token reflects their current role, and deleted users are refused.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	user, err := h.users.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			HandleAPIError(w, r, auth.ErrInvalidRefreshToken)
			return
		}
		HandleAPIError(w, r, err)
		return
	}

	h.issue(w, r, domain.PrincipalFor(user))
}

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	access, err := h.jwtService.GenerateToken(r.Context(), p)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate authentication token", err)
		return
	}
	refresh, err := h.jwtService.GenerateRefreshToken(r.Context(), p)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate refresh token", err)
		return
	}

	expiresAt := h.timeFunc().Add(h.jwtService.AccessTokenLifetime())
	h.logger.Debug("issued token pair", "user_id", p.UserID)

	shared.RespondWithJSON(w, r, http.StatusOK, TokenResponse{
		Access:    access,
		Refresh:   refresh,
		ExpiresAt: domain.FormatTimestamp(expiresAt),
	})
}

// decodeAndValidate reads a JSON body into v and runs its validate tags. It
// writes the error response itself and reports whether to continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(w, r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		if fields := shared.ValidationFields(err); fields != nil {
			shared.RespondWithValidationError(w, r, fields)
			return false
		}
		HandleAPIError(w, r, err)
		return false
	}
	return true
}
