package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// TaskStore defines persistence for tasks. Reads populate the assignee's
// username and email on the returned tasks.
type TaskStore interface {
	// Create inserts a new task.
	// Returns ErrInvalidEntity if the assignee does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task.
	// Returns ErrTaskNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns tasks matching filter in the filter's sort order.
	List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)

	// Update overwrites every writable column of an existing task. When
	// bumpWarning is true the stored warning version is incremented
	// atomically. task.WarningVersion and task.UpdatedAt are refreshed from
	// the database either way.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task, bumpWarning bool) error

	// Delete removes a task permanently.
	// Returns ErrTaskNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a TaskStore bound to tx.
	WithTx(tx *sql.Tx) TaskStore
}
