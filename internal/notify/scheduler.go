package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskhub/taskhub-api/internal/events"
	"github.com/taskhub/taskhub-api/internal/job"
)

// Scheduler turns task events into notification jobs.
type Scheduler struct {
	jobs   JobSubmitter
	logger *slog.Logger
	now    func() time.Time
}

// NewScheduler creates a Scheduler that submits to jobs.
func NewScheduler(jobs JobSubmitter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		jobs:   jobs,
		logger: logger.With("component", "notification_scheduler"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ events.EventHandler = (*Scheduler)(nil)

// HandleEvent implements events.EventHandler. Unrelated events are ignored.
func (s *Scheduler) HandleEvent(ctx context.Context, event *events.Event) error {
	switch event.Type {
	case events.TypeTaskCreated, events.TypeTaskReplaced, events.TypeTaskUpdated:
	default:
		s.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var change events.TaskChange
	if err := event.UnmarshalPayload(&change); err != nil {
		s.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	planned, err := s.plan(event.Type, change)
	if err != nil {
		return err
	}

	var errs []error
	for _, j := range planned {
		if err := s.jobs.Submit(ctx, j); err != nil {
			s.logger.Error("failed to submit notification job",
				"error", err,
				"job_type", j.Type,
				"task_id", change.TaskID)
			errs = append(errs, fmt.Errorf("submit %s: %w", j.Type, err))
			continue
		}
		s.logger.Debug("notification job scheduled",
			"job_type", j.Type,
			"task_id", change.TaskID,
			"run_at", j.RunAt)
	}
	return errors.Join(errs...)
}

type jobSpec struct {
	jobType string
	payload any
	runAt   time.Time
}

// plan lists the jobs an event should produce.
func (s *Scheduler) plan(eventType string, c events.TaskChange) ([]*job.Job, error) {
	now := s.now()
	mail := TaskMailPayload{
		TaskID:    c.TaskID,
		Title:     c.Title,
		Username:  c.AssigneeUsername,
		Email:     c.AssigneeEmail,
		StartDate: c.StartDate,
		Deadline:  c.Deadline,
	}

	var specs []jobSpec
	add := func(jobType string, payload any, runAt time.Time) {
		specs = append(specs, jobSpec{jobType, payload, runAt})
	}
	addWarning := func() {
		at, ok := WarningTime(c.Deadline, now)
		if !ok {
			s.logger.Debug("deadline too close, skipping warning",
				"task_id", c.TaskID,
				"deadline", c.Deadline)
			return
		}
		add(JobDeadlineWarningEmail, DeadlineWarningPayload{
			TaskID:         c.TaskID,
			WarningVersion: c.WarningVersion,
		}, at)
	}

	switch eventType {
	case events.TypeTaskCreated, events.TypeTaskReplaced:
		add(JobTaskCreatedEmail, mail, now)
		addWarning()
	case events.TypeTaskUpdated:
		add(JobTaskUpdatedEmail, mail, now)
		add(JobSuperusersNotifiedEmail, AdminNoticePayload{
			TaskID: c.TaskID,
			Title:  c.Title,
			Actor:  c.Actor,
		}, now)
		if c.DeadlineChanged {
			addWarning()
		}
	}

	jobs := make([]*job.Job, 0, len(specs))
	for _, spec := range specs {
		j, err := job.New(spec.jobType, spec.payload, spec.runAt)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}
