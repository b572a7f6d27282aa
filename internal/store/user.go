package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// UserStore defines persistence for user accounts.
type UserStore interface {
	// Create validates and saves a new user, hashing user.Password.
	// Returns ErrUsernameExists if the username is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user. Returns ErrUserNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByUsername retrieves a user. Returns ErrUserNotFound if absent.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// List returns every user ordered by username.
	List(ctx context.Context) ([]*domain.User, error)

	// ListSuperusersWithEmail returns superusers whose email is not blank.
	ListSuperusersWithEmail(ctx context.Context) ([]*domain.User, error)

	// Delete removes a user and, by cascade, every task assigned to them.
	// Returns ErrUserNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a UserStore bound to tx.
	WithTx(tx *sql.Tx) UserStore
}
