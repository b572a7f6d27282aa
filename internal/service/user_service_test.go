package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/store"
)

func newUserService(t *testing.T) (service.UserService, *MockUserStore, func(commit bool)) {
	t.Helper()
	db, sm := newTxDB(t)
	users := new(MockUserStore)
	svc := service.NewUserService(users, stubVerifier{password: "s3cret-pass"}, db, discardLogger())
	expectTx := func(commit bool) {
		if commit {
			expectCommit(sm)
		} else {
			expectRollback(sm)
		}
	}
	return svc, users, expectTx
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates a regular account", func(t *testing.T) {
		t.Parallel()
		svc, users, expectTx := newUserService(t)
		expectTx(true)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Username == "alice" && !u.IsSuperuser && u.Password == "s3cret-pass"
		})).Return(nil)

		user, err := svc.Register(context.Background(), service.Registration{
			Username:        " alice ",
			Email:           "alice@example.com",
			Password:        "s3cret-pass",
			PasswordConfirm: "s3cret-pass",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.False(t, user.IsSuperuser)
		users.AssertExpectations(t)
	})

	t.Run("collects field problems with the confirmation mismatch", func(t *testing.T) {
		t.Parallel()
		svc, users, _ := newUserService(t)

		_, err := svc.Register(context.Background(), service.Registration{
			Username:        "",
			Email:           "nope",
			Password:        "short",
			PasswordConfirm: "different",
		})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "username")
		assert.Contains(t, verr.Fields, "email")
		assert.Contains(t, verr.Fields, "password")
		assert.Equal(t, []string{"The two password fields didn't match."}, verr.Fields["password_confirm"])
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("taken username is a field error", func(t *testing.T) {
		t.Parallel()
		svc, users, expectTx := newUserService(t)
		expectTx(false)
		users.On("Create", mock.Anything, mock.Anything).Return(store.ErrUsernameExists)

		_, err := svc.Register(context.Background(), service.Registration{
			Username:        "alice",
			Password:        "s3cret-pass",
			PasswordConfirm: "s3cret-pass",
		})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"A user with that username already exists."}, verr.Fields["username"])
	})
}

func TestUserService_Authenticate(t *testing.T) {
	t.Parallel()

	alice := &domain.User{ID: uuid.New(), Username: "alice", HashedPassword: "hash"}

	tests := []struct {
		name     string
		username string
		password string
		setup    func(*MockUserStore)
		wantErr  error
	}{
		{
			name:     "valid credentials",
			username: "alice",
			password: "s3cret-pass",
			setup: func(m *MockUserStore) {
				m.On("GetByUsername", mock.Anything, "alice").Return(alice, nil)
			},
		},
		{
			name:     "wrong password",
			username: "alice",
			password: "guess",
			setup: func(m *MockUserStore) {
				m.On("GetByUsername", mock.Anything, "alice").Return(alice, nil)
			},
			wantErr: service.ErrInvalidCredentials,
		},
		{
			name:     "unknown user",
			username: "mallory",
			password: "s3cret-pass",
			setup: func(m *MockUserStore) {
				m.On("GetByUsername", mock.Anything, "mallory").Return(nil, store.ErrUserNotFound)
			},
			wantErr: service.ErrInvalidCredentials,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, users, _ := newUserService(t)
			tc.setup(users)

			user, err := svc.Authenticate(context.Background(), tc.username, tc.password)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, alice.ID, user.ID)
		})
	}

	t.Run("store failure is not reported as bad credentials", func(t *testing.T) {
		t.Parallel()
		svc, users, _ := newUserService(t)
		users.On("GetByUsername", mock.Anything, "alice").Return(nil, errors.New("conn refused"))

		_, err := svc.Authenticate(context.Background(), "alice", "s3cret-pass")
		require.Error(t, err)
		assert.False(t, errors.Is(err, service.ErrInvalidCredentials))
	})
}

func TestUserService_CreateAdmin(t *testing.T) {
	t.Parallel()

	t.Run("creates a superuser", func(t *testing.T) {
		t.Parallel()
		svc, users, expectTx := newUserService(t)
		expectTx(true)
		users.On("GetByUsername", mock.Anything, "admin").Return(nil, store.ErrUserNotFound)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.IsSuperuser && u.Email == "admin@taskhub.local"
		})).Return(nil)

		user, created, err := svc.CreateAdmin(context.Background(), "admin", "admin@taskhub.local", "admin-password")
		require.NoError(t, err)
		assert.True(t, created)
		assert.True(t, user.IsSuperuser)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		t.Parallel()
		svc, users, _ := newUserService(t)
		existing := &domain.User{ID: uuid.New(), Username: "admin", IsSuperuser: true}
		users.On("GetByUsername", mock.Anything, "admin").Return(existing, nil)

		user, created, err := svc.CreateAdmin(context.Background(), "admin", "admin@taskhub.local", "admin-password")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, existing, user)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestUserService_SuperuserOnly(t *testing.T) {
	t.Parallel()

	t.Run("members cannot list or delete", func(t *testing.T) {
		t.Parallel()
		svc, users, _ := newUserService(t)

		_, err := svc.List(context.Background(), aliceP)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.ErrorIs(t, svc.Delete(context.Background(), aliceP, bobP.UserID), domain.ErrForbidden)
		users.AssertNotCalled(t, "List", mock.Anything)
		users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("superuser deletes and missing users map to not found", func(t *testing.T) {
		t.Parallel()
		svc, users, expectTx := newUserService(t)
		expectTx(true)
		expectTx(false)
		ghost := uuid.New()
		users.On("Delete", mock.Anything, bobP.UserID).Return(nil)
		users.On("Delete", mock.Anything, ghost).Return(store.ErrUserNotFound)

		require.NoError(t, svc.Delete(context.Background(), adminP, bobP.UserID))
		assert.ErrorIs(t, svc.Delete(context.Background(), adminP, ghost), service.ErrUserNotFound)
	})

	t.Run("superuser lists", func(t *testing.T) {
		t.Parallel()
		svc, users, _ := newUserService(t)
		all := []*domain.User{{ID: adminP.UserID, Username: "admin"}}
		users.On("List", mock.Anything).Return(all, nil)

		got, err := svc.List(context.Background(), adminP)
		require.NoError(t, err)
		assert.Equal(t, all, got)
	})
}
