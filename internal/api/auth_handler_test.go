package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/mocks"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
)

func TestAuthHandler_Token(t *testing.T) {
	t.Parallel()

	user := &domain.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	fixedNow := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		body       string
		authErr    error
		tokenErr   error
		wantStatus int
		wantError  string
	}{
		{
			name:       "valid credentials",
			body:       `{"username":"alice","password":"password123"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong password",
			body:       `{"username":"alice","password":"nope-nope"}`,
			authErr:    service.ErrInvalidCredentials,
			wantStatus: http.StatusUnauthorized,
			wantError:  "No active account found with the given credentials",
		},
		{
			name:       "missing password",
			body:       `{"username":"alice"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation failed",
		},
		{
			name:       "malformed json",
			body:       `{"username":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request format",
		},
		{
			name:       "signing failure",
			body:       `{"username":"alice","password":"password123"}`,
			tokenErr:   errors.New("hmac unavailable"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to generate authentication token",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			users := &mocks.MockUserService{User: user, Err: tc.authErr}
			jwt := &mocks.MockJWTService{
				Token:        "access-token",
				RefreshToken: "refresh-token",
				Err:          tc.tokenErr,
				Lifetime:     30 * time.Minute,
			}
			h := NewAuthHandler(users, jwt, nil)
			h.timeFunc = func() time.Time { return fixedNow }

			req := httptest.NewRequest(http.MethodPost, "/api/token", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.Token(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantError != "" {
				assert.Contains(t, rec.Body.String(), tc.wantError)
				return
			}

			var resp TokenResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "access-token", resp.Access)
			assert.Equal(t, "refresh-token", resp.Refresh)
			assert.Equal(t, "2024-05-01T12:30:00Z", resp.ExpiresAt)
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name        string
		validateErr error
		getErr      error
		wantStatus  int
	}{
		{name: "valid refresh token", wantStatus: http.StatusOK},
		{name: "expired refresh token", validateErr: auth.ErrExpiredRefreshToken, wantStatus: http.StatusUnauthorized},
		{name: "access token supplied", validateErr: auth.ErrWrongTokenType, wantStatus: http.StatusUnauthorized},
		{name: "user deleted", getErr: service.ErrUserNotFound, wantStatus: http.StatusUnauthorized},
		{name: "store failure", getErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var issuedFor domain.Principal
			jwt := &mocks.MockJWTService{
				Claims:      &auth.Claims{UserID: userID, TokenType: auth.TokenTypeRefresh},
				ValidateErr: tc.validateErr,
				GenerateTokenFn: func(_ context.Context, p domain.Principal) (string, error) {
					issuedFor = p
					return "new-access", nil
				},
				RefreshToken: "new-refresh",
			}
			users := &mocks.MockUserService{
				GetUserFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
					if tc.getErr != nil {
						return nil, tc.getErr
					}
					return &domain.User{ID: id, Username: "alice", IsSuperuser: true}, nil
				},
			}
			h := NewAuthHandler(users, jwt, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/token/refresh",
				strings.NewReader(`{"refresh_token":"some-token"}`))
			rec := httptest.NewRecorder()
			h.Refresh(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, domain.Principal{UserID: userID, Username: "alice", IsSuperuser: true}, issuedFor)
				assert.Contains(t, rec.Body.String(), "new-access")
			}
		})
	}
}
