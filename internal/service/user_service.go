package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/domain/access"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/store"
)

// Registration carries a signup request.
type Registration struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

// UserService provides account operations.
type UserService interface {
	// Register creates a regular account. Every field problem is reported
	// at once, including a mismatched confirmation.
	Register(ctx context.Context, r Registration) (*domain.User, error)

	// Authenticate checks a username and password.
	// Returns ErrInvalidCredentials for an unknown user or a wrong password.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)

	// CreateAdmin creates a superuser unless the username is already taken,
	// in which case it returns the existing user and created=false.
	CreateAdmin(ctx context.Context, username, email, password string) (user *domain.User, created bool, err error)

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// List returns every user. Superusers only.
	List(ctx context.Context, p domain.Principal) ([]*domain.User, error)

	// Delete removes a user and every task assigned to them. Superusers only.
	Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	verifier  auth.PasswordVerifier
	db        *sql.DB
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	verifier auth.PasswordVerifier,
	db *sql.DB,
	logger *slog.Logger,
) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		userStore: userStore,
		verifier:  verifier,
		db:        db,
		logger:    logger.With("component", "user_service"),
	}
}

// Register implements UserService.
func (s *UserServiceImpl) Register(ctx context.Context, r Registration) (*domain.User, error) {
	user, err := domain.NewUser(r.Username, r.Email, r.Password, false)

	verr := domain.NewValidationError()
	var fieldErr *domain.ValidationError
	if errors.As(err, &fieldErr) {
		verr.Merge(fieldErr)
	} else if err != nil {
		return nil, NewUserServiceError("register", "failed to build user", err)
	}
	if r.PasswordConfirm != r.Password {
		verr.Add("password_confirm", "The two password fields didn't match.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			taken := domain.NewValidationError()
			taken.Add("username", "A user with that username already exists.")
			return nil, taken
		}
		return nil, NewUserServiceError("register", "failed to save user", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate implements UserService.
func (s *UserServiceImpl) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userStore.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if store.IsNotFoundError(err) {
			s.logger.Debug("login for unknown username")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to load user for login", "error", err)
		return nil, NewUserServiceError("authenticate", "failed to load user", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		s.logger.Debug("login with wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// CreateAdmin implements UserService.
func (s *UserServiceImpl) CreateAdmin(
	ctx context.Context,
	username, email, password string,
) (*domain.User, bool, error) {
	existing, err := s.userStore.GetByUsername(ctx, strings.TrimSpace(username))
	switch {
	case err == nil:
		s.logger.Info("superuser already exists", "username", existing.Username)
		return existing, false, nil
	case !store.IsNotFoundError(err):
		return nil, false, NewUserServiceError("create_admin", "failed to look up user", err)
	}

	user, err := domain.NewUser(username, email, password, true)
	if err != nil {
		return nil, false, err
	}
	if err := s.create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			// Lost a race with a concurrent run.
			existing, getErr := s.userStore.GetByUsername(ctx, user.Username)
			if getErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, NewUserServiceError("create_admin", "failed to save user", err)
	}

	s.logger.Info("superuser created", "user_id", user.ID, "username", user.Username)
	return user, true, nil
}

// GetUser implements UserService.
func (s *UserServiceImpl) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		if !store.IsNotFoundError(err) {
			s.logger.Error("failed to retrieve user", "error", err, "user_id", id)
		}
		return nil, NewUserServiceError("get", "failed to retrieve user", err)
	}
	return user, nil
}

// List implements UserService.
func (s *UserServiceImpl) List(ctx context.Context, p domain.Principal) ([]*domain.User, error) {
	if err := access.CanManageUsers(p); err != nil {
		return nil, err
	}
	users, err := s.userStore.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, NewUserServiceError("list", "failed to list users", err)
	}
	return users, nil
}

// Delete implements UserService.
func (s *UserServiceImpl) Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	if err := access.CanManageUsers(p); err != nil {
		return err
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if !store.IsNotFoundError(err) {
			s.logger.Error("failed to delete user", "error", err, "user_id", id)
		}
		return NewUserServiceError("delete", "failed to delete user", err)
	}

	s.logger.Info("user deleted", "user_id", id, "actor", p.Username)
	return nil
}

func (s *UserServiceImpl) create(ctx context.Context, user *domain.User) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})
	if err != nil && !errors.Is(err, store.ErrUsernameExists) {
		s.logger.Error("failed to save user", "error", err, "username", user.Username)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}
