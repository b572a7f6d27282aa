package notify

import (
	"context"
	"log/slog"

	"github.com/taskhub/taskhub-api/internal/job"
	"github.com/taskhub/taskhub-api/internal/platform/mail"
	"github.com/taskhub/taskhub-api/internal/store"
)

// Registrar binds job handlers to job types.
type Registrar interface {
	Register(jobType string, h job.Handler)
}

// Handlers executes notification jobs.
type Handlers struct {
	tasks    TaskReader
	users    SuperuserLister
	sender   mail.Sender
	messages Messages
	from     string
	logger   *slog.Logger
}

// NewHandlers creates Handlers that send from the given address.
func NewHandlers(
	tasks TaskReader,
	users SuperuserLister,
	sender mail.Sender,
	messages Messages,
	from string,
	logger *slog.Logger,
) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		tasks:    tasks,
		users:    users,
		sender:   sender,
		messages: messages,
		from:     from,
		logger:   logger.With("component", "notification_handlers"),
	}
}

// Register binds every notification job type on r.
func (h *Handlers) Register(r Registrar) {
	r.Register(JobTaskCreatedEmail, job.HandlerFunc(h.TaskCreated))
	r.Register(JobTaskUpdatedEmail, job.HandlerFunc(h.TaskUpdated))
	r.Register(JobSuperusersNotifiedEmail, job.HandlerFunc(h.SuperusersNotified))
	r.Register(JobDeadlineWarningEmail, job.HandlerFunc(h.DeadlineWarning))
}

// TaskCreated sends the creation mail to the assignee.
func (h *Handlers) TaskCreated(ctx context.Context, j *job.Job) error {
	var p TaskMailPayload
	if err := j.Decode(&p); err != nil {
		return err
	}
	if p.Email == "" {
		h.logger.Info("assignee has no email, skipping", "task_id", p.TaskID, "job_type", j.Type)
		return nil
	}

	subject, body := h.messages.Created(p.Username, p.Title, p.StartDate, p.Deadline)
	return h.send(ctx, []string{p.Email}, subject, body)
}

// TaskUpdated sends the update mail to the assignee.
func (h *Handlers) TaskUpdated(ctx context.Context, j *job.Job) error {
	var p TaskMailPayload
	if err := j.Decode(&p); err != nil {
		return err
	}
	if p.Email == "" {
		h.logger.Info("assignee has no email, skipping", "task_id", p.TaskID, "job_type", j.Type)
		return nil
	}

	subject, body := h.messages.Updated(p.Username, p.Title)
	return h.send(ctx, []string{p.Email}, subject, body)
}

// SuperusersNotified sends one notice addressed to every superuser with an
// email address, resolved when the job runs.
func (h *Handlers) SuperusersNotified(ctx context.Context, j *job.Job) error {
	var p AdminNoticePayload
	if err := j.Decode(&p); err != nil {
		return err
	}

	supers, err := h.users.ListSuperusersWithEmail(ctx)
	if err != nil {
		return err
	}
	recipients := make([]string, 0, len(supers))
	for _, u := range supers {
		if u.HasEmail() {
			recipients = append(recipients, u.Email)
		}
	}
	if len(recipients) == 0 {
		h.logger.Info("no superuser has an email, skipping notice", "task_id", p.TaskID)
		return nil
	}

	subject, body := h.messages.AdminNotice(p.Title, p.Actor)
	return h.send(ctx, recipients, subject, body)
}

// DeadlineWarning sends the warning if the task still exists and has not
// been rescheduled since the job was created.
func (h *Handlers) DeadlineWarning(ctx context.Context, j *job.Job) error {
	var p DeadlineWarningPayload
	if err := j.Decode(&p); err != nil {
		return err
	}

	task, err := h.tasks.GetByID(ctx, p.TaskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			h.logger.Info("task no longer exists, dropping warning", "task_id", p.TaskID)
			return nil
		}
		return err
	}
	if task.WarningVersion != p.WarningVersion {
		h.logger.Info("stale deadline warning, dropping",
			"task_id", p.TaskID,
			"job_version", p.WarningVersion,
			"current_version", task.WarningVersion)
		return nil
	}
	if task.AssigneeEmail == "" {
		h.logger.Info("assignee has no email, skipping", "task_id", p.TaskID, "job_type", j.Type)
		return nil
	}

	subject, body := h.messages.DeadlineWarning(task.AssigneeUsername, task.Title, task.Deadline)
	return h.send(ctx, []string{task.AssigneeEmail}, subject, body)
}

func (h *Handlers) send(ctx context.Context, to []string, subject, body string) error {
	return h.sender.Send(ctx, mail.Message{
		From:    h.from,
		To:      to,
		Subject: subject,
		Body:    body,
	})
}
