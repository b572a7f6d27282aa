package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-jwt-secret-that-is-32-chars-long"

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                   testSecret,
		TokenLifetimeMinutes:        15,
		RefreshTokenLifetimeMinutes: 1440,
		BCryptCost:                  bcrypt.MinCost,
	}
}

func newTestService(t *testing.T, now func() time.Time) *hmacJWTService {
	t.Helper()
	svc, err := newHMACJWTService(testAuthConfig(), now)
	require.NoError(t, err)
	return svc
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestNewJWTService_RejectsShortSecret(t *testing.T) {
	t.Parallel()

	cfg := testAuthConfig()
	cfg.JWTSecret = "too-short"
	_, err := NewJWTService(cfg)
	assert.Error(t, err)

	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, svc.AccessTokenLifetime())
}

func TestAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	issued := time.Date(2024, 7, 22, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, fixedClock(issued))

	tests := []struct {
		name string
		p    domain.Principal
	}{
		{"member", domain.Principal{UserID: uuid.New(), Username: "alice"}},
		{"superuser", domain.Principal{UserID: uuid.New(), Username: "admin", IsSuperuser: true}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			token, err := svc.GenerateToken(context.Background(), tc.p)
			require.NoError(t, err)

			claims, err := svc.ValidateToken(context.Background(), token)
			require.NoError(t, err)

			assert.Equal(t, tc.p, claims.Principal())
			assert.Equal(t, TokenTypeAccess, claims.TokenType)
			assert.Equal(t, tc.p.UserID.String(), claims.Subject)
			assert.Equal(t, issued.Unix(), claims.IssuedAt.Unix())
			assert.Equal(t, issued.Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
			assert.NotEmpty(t, claims.ID)
		})
	}
}

func TestValidateToken_Failures(t *testing.T) {
	t.Parallel()

	issued := time.Date(2024, 7, 22, 9, 0, 0, 0, time.UTC)
	p := domain.Principal{UserID: uuid.New(), Username: "alice"}

	signer := newTestService(t, fixedClock(issued))
	token, err := signer.GenerateToken(context.Background(), p)
	require.NoError(t, err)
	refresh, err := signer.GenerateRefreshToken(context.Background(), p)
	require.NoError(t, err)

	wrongKeyCfg := testAuthConfig()
	wrongKeyCfg.JWTSecret = "another-secret-that-is-32-chars-long!"
	wrongKey, err := newHMACJWTService(wrongKeyCfg, fixedClock(issued))
	require.NoError(t, err)

	tests := []struct {
		name    string
		svc     *hmacJWTService
		token   string
		wantErr error
	}{
		{"expired", newTestService(t, fixedClock(issued.Add(time.Hour))), token, ErrExpiredToken},
		{"within clock skew", newTestService(t, fixedClock(issued.Add(16*time.Minute))), token, nil},
		{"wrong signature", wrongKey, token, ErrInvalidToken},
		{"malformed", signer, "not.a.jwt", ErrInvalidToken},
		{"refresh token used as access", signer, refresh, ErrWrongTokenType},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := tc.svc.ValidateToken(context.Background(), tc.token)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidateToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	now := time.Now()
	claims := jwtCustomClaims{
		UserID:      uuid.New(),
		IsSuperuser: true,
		TokenType:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	svc := newTestService(t, time.Now)
	_, err = svc.ValidateToken(context.Background(), unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	issued := time.Date(2024, 7, 22, 9, 0, 0, 0, time.UTC)
	p := domain.Principal{UserID: uuid.New(), Username: "admin", IsSuperuser: true}
	svc := newTestService(t, fixedClock(issued))

	refresh, err := svc.GenerateRefreshToken(context.Background(), p)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(context.Background(), refresh)
	require.NoError(t, err)
	assert.Equal(t, p.UserID, claims.UserID)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
	assert.Empty(t, claims.Username, "refresh tokens carry no role data")
	assert.False(t, claims.IsSuperuser)
	assert.Equal(t, issued.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())

	access, err := svc.GenerateToken(context.Background(), p)
	require.NoError(t, err)
	_, err = svc.ValidateRefreshToken(context.Background(), access)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	later := newTestService(t, fixedClock(issued.Add(48*time.Hour)))
	_, err = later.ValidateRefreshToken(context.Background(), refresh)
	assert.ErrorIs(t, err, ErrExpiredRefreshToken)

	_, err = svc.ValidateRefreshToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestBcryptVerifier(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	v := NewBcryptVerifier()
	assert.NoError(t, v.Compare(string(hash), "correct horse"))
	assert.ErrorIs(t, v.Compare(string(hash), "wrong horse"), ErrPasswordMismatch)
	assert.Error(t, v.Compare("not-a-hash", "correct horse"))
}
