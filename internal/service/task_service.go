package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/domain/access"
	"github.com/taskhub/taskhub-api/internal/events"
	"github.com/taskhub/taskhub-api/internal/store"
)

// TaskQuery carries the raw list parameters a client supplied. Empty fields
// were not supplied.
type TaskQuery struct {
	Assignee string
	Sort     string
	Order    string
}

// TaskService provides task-related operations. Every method takes the
// authenticated principal the operation is performed for.
type TaskService interface {
	// List returns the tasks visible to p, filtered and ordered by q.
	List(ctx context.Context, p domain.Principal, q TaskQuery) ([]*domain.Task, error)

	// Get returns one task the principal may see.
	Get(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Task, error)

	// Create adds a task and schedules its notifications.
	Create(ctx context.Context, p domain.Principal, in domain.TaskInput) (*domain.Task, error)

	// Replace overwrites every writable field of a task.
	Replace(ctx context.Context, p domain.Principal, id uuid.UUID, in domain.TaskInput) (*domain.Task, error)

	// PartialUpdate changes only the supplied fields of a task.
	PartialUpdate(ctx context.Context, p domain.Principal, id uuid.UUID, in domain.TaskInput) (*domain.Task, error)

	// Delete removes a task.
	Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error
}

// taskServiceImpl implements TaskService
type taskServiceImpl struct {
	tasks   store.TaskStore
	users   store.UserStore
	db      *sql.DB
	emitter events.EventEmitter
	logger  *slog.Logger
	now     func() time.Time
}

var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a TaskService. Every dependency is required.
func NewTaskService(
	tasks store.TaskStore,
	users store.UserStore,
	db *sql.DB,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, fmt.Errorf("tasks cannot be nil")
	}
	if users == nil {
		return nil, fmt.Errorf("users cannot be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if emitter == nil {
		return nil, fmt.Errorf("emitter cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &taskServiceImpl{
		tasks:   tasks,
		users:   users,
		db:      db,
		emitter: emitter,
		logger:  logger.With("component", "task_service"),
		now:     time.Now,
	}, nil
}

// List implements TaskService.
func (s *taskServiceImpl) List(ctx context.Context, p domain.Principal, q TaskQuery) ([]*domain.Task, error) {
	var requested *uuid.UUID
	if raw := strings.TrimSpace(q.Assignee); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			if p.IsSuperuser {
				// A filter naming no possible user matches nothing.
				return []*domain.Task{}, nil
			}
		} else {
			requested = &id
		}
	}

	filter := domain.TaskFilter{
		AssigneeID: access.ListScope(p, requested),
		Sort:       domain.ParseTaskSort(q.Sort, q.Order),
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list tasks",
			"error", err,
			"user_id", p.UserID,
			"sort", filter.Sort.Field)
		return nil, NewTaskServiceError("list", "failed to list tasks", err)
	}
	return tasks, nil
}

// Get implements TaskService.
func (s *taskServiceImpl) Get(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, NewTaskServiceError("get", "failed to load task", err)
	}
	if err := access.CanView(p, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Create implements TaskService.
func (s *taskServiceImpl) Create(ctx context.Context, p domain.Principal, in domain.TaskInput) (*domain.Task, error) {
	if err := access.CanCreate(p); err != nil {
		s.logger.Debug("task create denied", "user_id", p.UserID)
		return nil, err
	}

	fields, verr := domain.ParseTaskInput(in, domain.ModeCreate)
	if err := s.checkAssignee(ctx, fields, in, verr); err != nil {
		return nil, NewTaskServiceError("create", "failed to verify assignee", err)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	task, err := domain.NewTask(fields, s.now())
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.tasks.WithTx(tx).Create(ctx, task)
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidEntity) {
			return nil, assigneeMissing(in)
		}
		s.logger.Error("failed to create task", "error", err, "assignee_id", task.AssigneeID)
		return nil, NewTaskServiceError("create", "failed to save task", err)
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"assignee_id", task.AssigneeID,
		"actor", p.Username)

	if err := s.publish(ctx, events.TypeTaskCreated, p, task, false); err != nil {
		return nil, NewTaskServiceError("create", "failed to schedule notifications", err)
	}
	return task, nil
}

// Replace implements TaskService.
func (s *taskServiceImpl) Replace(
	ctx context.Context,
	p domain.Principal,
	id uuid.UUID,
	in domain.TaskInput,
) (*domain.Task, error) {
	if err := access.CanReplace(p); err != nil {
		s.logger.Debug("task replace denied", "user_id", p.UserID, "task_id", id)
		return nil, err
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, NewTaskServiceError("replace", "failed to load task", err)
	}

	fields, verr := domain.ParseTaskInput(in, domain.ModeReplace)
	if err := s.checkAssignee(ctx, fields, in, verr); err != nil {
		return nil, NewTaskServiceError("replace", "failed to verify assignee", err)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	task.Apply(fields)
	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.update(ctx, task, true, in); err != nil {
		return nil, NewTaskServiceError("replace", "failed to save task", err)
	}

	s.logger.Info("task replaced",
		"task_id", task.ID,
		"warning_version", task.WarningVersion,
		"actor", p.Username)

	if err := s.publish(ctx, events.TypeTaskReplaced, p, task, true); err != nil {
		return nil, NewTaskServiceError("replace", "failed to schedule notifications", err)
	}
	return task, nil
}

// PartialUpdate implements TaskService.
func (s *taskServiceImpl) PartialUpdate(
	ctx context.Context,
	p domain.Principal,
	id uuid.UUID,
	in domain.TaskInput,
) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, NewTaskServiceError("partial_update", "failed to load task", err)
	}

	if err := access.CanPatch(p, task); err != nil {
		s.logger.Debug("task update denied", "user_id", p.UserID, "task_id", id)
		return nil, err
	}

	fields, verr := domain.ParseTaskInput(in, domain.ModePatch)
	if err := s.checkAssignee(ctx, fields, in, verr); err != nil {
		return nil, NewTaskServiceError("partial_update", "failed to verify assignee", err)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	deadlineChanged := task.Apply(fields)
	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.update(ctx, task, deadlineChanged, in); err != nil {
		return nil, NewTaskServiceError("partial_update", "failed to save task", err)
	}

	s.logger.Info("task updated",
		"task_id", task.ID,
		"deadline_changed", deadlineChanged,
		"actor", p.Username)

	if err := s.publish(ctx, events.TypeTaskUpdated, p, task, deadlineChanged); err != nil {
		return nil, NewTaskServiceError("partial_update", "failed to schedule notifications", err)
	}
	return task, nil
}

// Delete implements TaskService.
func (s *taskServiceImpl) Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	if err := access.CanDelete(p); err != nil {
		s.logger.Debug("task delete denied", "user_id", p.UserID, "task_id", id)
		return err
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.tasks.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if !store.IsNotFoundError(err) {
			s.logger.Error("failed to delete task", "error", err, "task_id", id)
		}
		return NewTaskServiceError("delete", "failed to delete task", err)
	}

	s.logger.Info("task deleted", "task_id", id, "actor", p.Username)
	return nil
}

func (s *taskServiceImpl) update(ctx context.Context, task *domain.Task, bumpWarning bool, in domain.TaskInput) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.tasks.WithTx(tx).Update(ctx, task, bumpWarning)
	})
	if errors.Is(err, store.ErrInvalidEntity) {
		return assigneeMissing(in)
	}
	if err != nil && !store.IsNotFoundError(err) {
		s.logger.Error("failed to update task", "error", err, "task_id", task.ID)
	}
	return err
}

// checkAssignee records a field error when a well-formed assignee id names
// no user. A non-nil return is a lookup failure, not a validation problem.
func (s *taskServiceImpl) checkAssignee(
	ctx context.Context,
	fields domain.TaskFields,
	in domain.TaskInput,
	verr *domain.ValidationError,
) error {
	if fields.AssigneeID == nil {
		return nil
	}
	_, err := s.users.GetByID(ctx, *fields.AssigneeID)
	switch {
	case err == nil:
		return nil
	case store.IsNotFoundError(err):
		verr.Addf("assignee", domain.MsgInvalidPK, *in.Assignee)
		return nil
	default:
		s.logger.Error("failed to look up assignee", "error", err, "assignee_id", *fields.AssigneeID)
		return err
	}
}

// publish emits the lifecycle event for a committed write. A failure here
// leaves the write in place.
func (s *taskServiceImpl) publish(
	ctx context.Context,
	eventType string,
	p domain.Principal,
	task *domain.Task,
	deadlineChanged bool,
) error {
	change := events.TaskChange{
		TaskID:           task.ID,
		Title:            task.Title,
		AssigneeID:       task.AssigneeID,
		AssigneeUsername: task.AssigneeUsername,
		AssigneeEmail:    task.AssigneeEmail,
		StartDate:        task.StartDate,
		Deadline:         task.Deadline,
		WarningVersion:   task.WarningVersion,
		Actor:            p.Username,
	}
	if eventType == events.TypeTaskUpdated {
		change.DeadlineChanged = deadlineChanged
	}

	event, err := events.NewEvent(eventType, change)
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		s.logger.Error("task saved but notification scheduling failed",
			"error", err,
			"task_id", task.ID,
			"event_type", eventType)
		return fmt.Errorf("%w: %v", ErrNotificationEnqueue, err)
	}
	return nil
}

func assigneeMissing(in domain.TaskInput) error {
	verr := domain.NewValidationError()
	value := ""
	if in.Assignee != nil {
		value = *in.Assignee
	}
	verr.Addf("assignee", domain.MsgInvalidPK, value)
	return verr
}
