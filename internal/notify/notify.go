package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/job"
)

// Job types produced by the Scheduler.
const (
	JobTaskCreatedEmail        = "task_created_email"
	JobTaskUpdatedEmail        = "task_updated_email"
	JobSuperusersNotifiedEmail = "superusers_notified_email"
	JobDeadlineWarningEmail    = "deadline_warning_email"
)

// WarningLead is how long before the deadline the warning is sent.
const WarningLead = 24 * time.Hour

// JobSubmitter persists jobs for deferred execution.
type JobSubmitter interface {
	Submit(ctx context.Context, j *job.Job) error
}

// TaskReader loads the current state of a task.
type TaskReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
}

// SuperuserLister lists the superusers that can receive mail.
type SuperuserLister interface {
	ListSuperusersWithEmail(ctx context.Context) ([]*domain.User, error)
}

// TaskMailPayload snapshots what the created and updated mails need.
type TaskMailPayload struct {
	TaskID    uuid.UUID `json:"task_id"`
	Title     string    `json:"title"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	StartDate time.Time `json:"start_date"`
	Deadline  time.Time `json:"deadline"`
}

// AdminNoticePayload is the payload of the superuser notice.
type AdminNoticePayload struct {
	TaskID uuid.UUID `json:"task_id"`
	Title  string    `json:"title"`
	Actor  string    `json:"actor"`
}

// DeadlineWarningPayload identifies the schedule a warning belongs to.
type DeadlineWarningPayload struct {
	TaskID         uuid.UUID `json:"task_id"`
	WarningVersion int       `json:"warning_version"`
}

// WarningTime returns when the deadline warning for deadline should fire and
// whether it should be scheduled at all.
func WarningTime(deadline, now time.Time) (time.Time, bool) {
	at := deadline.Add(-WarningLead)
	if at.Before(now) {
		return time.Time{}, false
	}
	return at, true
}
