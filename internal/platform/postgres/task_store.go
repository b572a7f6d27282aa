package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

const taskColumns = `t.id, t.title, t.description, t.status, t.priority, t.assignee_id,
	t.start_date, t.deadline, t.warning_version, t.created_at, t.updated_at,
	u.username, u.email`

// taskSortColumns whitelists the ORDER BY expressions for each sort field.
var taskSortColumns = map[domain.TaskSortField]string{
	domain.SortByTitle:     "t.title",
	domain.SortByAssignee:  "u.username",
	domain.SortByStatus:    "t.status",
	domain.SortByStartDate: "t.start_date",
	domain.SortByDeadline:  "t.deadline",
	domain.SortByPriority:  "t.priority",
}

// PostgresTaskStore implements store.TaskStore
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a PostgresTaskStore. If logger is nil, the
// default logger is used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var status, priority string
	if err := row.Scan(
		&t.ID, &t.Title, &t.Description, &status, &priority, &t.AssigneeID,
		&t.StartDate, &t.Deadline, &t.WarningVersion, &t.CreatedAt, &t.UpdatedAt,
		&t.AssigneeUsername, &t.AssigneeEmail,
	); err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	t.Priority = domain.TaskPriority(priority)
	t.StartDate = t.StartDate.UTC()
	t.Deadline = t.Deadline.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

// Create implements store.TaskStore.Create. The assignee's username and
// email are filled in on task.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	query := `
		WITH ins AS (
			INSERT INTO tasks (id, title, description, status, priority, assignee_id,
				start_date, deadline, warning_version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING assignee_id
		)
		SELECT u.username, u.email FROM ins JOIN users u ON u.id = ins.assignee_id`

	err := s.db.QueryRowContext(ctx, query,
		task.ID, task.Title, task.Description, string(task.Status), string(task.Priority),
		task.AssigneeID, task.StartDate, task.Deadline, task.WarningVersion,
		task.CreatedAt, task.UpdatedAt,
	).Scan(&task.AssigneeUsername, &task.AssigneeEmail)
	if err != nil {
		s.logger.Error("failed to create task",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrUserNotFound)
	}

	s.logger.Debug("task created", slog.String("task_id", task.ID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks t JOIN users u ON u.id = t.assignee_id
		WHERE t.id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("failed to get task",
				slog.String("task_id", id.String()),
				slog.String("error", err.Error()))
		}
		return nil, MapError(err, store.ErrTaskNotFound)
	}
	return task, nil
}

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks t JOIN users u ON u.id = t.assignee_id`

	var args []any
	if filter.AssigneeID != nil {
		query += ` WHERE t.assignee_id = $1`
		args = append(args, *filter.AssigneeID)
	}
	query += ` ORDER BY ` + orderClause(filter.Sort)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, MapError(err, nil)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

func orderClause(sort domain.TaskSort) string {
	col, ok := taskSortColumns[sort.Field]
	if !ok {
		col = taskSortColumns[domain.DefaultTaskSort.Field]
		sort = domain.DefaultTaskSort
	}
	dir := "ASC"
	if sort.Descending {
		dir = "DESC"
	}
	return col + " " + dir + ", t.id ASC"
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task, bumpWarning bool) error {
	if err := task.Validate(); err != nil {
		return err
	}

	query := `
		WITH upd AS (
			UPDATE tasks SET
				title = $2, description = $3, status = $4, priority = $5,
				assignee_id = $6, start_date = $7, deadline = $8,
				warning_version = warning_version + CASE WHEN $9 THEN 1 ELSE 0 END,
				updated_at = NOW()
			WHERE id = $1
			RETURNING assignee_id, warning_version, updated_at
		)
		SELECT upd.warning_version, upd.updated_at, u.username, u.email
		FROM upd JOIN users u ON u.id = upd.assignee_id`

	err := s.db.QueryRowContext(ctx, query,
		task.ID, task.Title, task.Description, string(task.Status), string(task.Priority),
		task.AssigneeID, task.StartDate, task.Deadline, bumpWarning,
	).Scan(&task.WarningVersion, &task.UpdatedAt, &task.AssigneeUsername, &task.AssigneeEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrTaskNotFound
		}
		s.logger.Error("failed to update task",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrTaskNotFound)
	}
	task.UpdatedAt = task.UpdatedAt.UTC()
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		s.logger.Error("failed to delete task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrTaskNotFound)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}
