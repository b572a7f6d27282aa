package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a job
type Status string

// Possible job status values
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var (
	// ErrUnknownType is recorded on jobs whose type has no registered handler.
	ErrUnknownType = errors.New("no handler registered for job type")

	// ErrInvalidJob is returned by New when the job cannot be built.
	ErrInvalidJob = errors.New("invalid job")
)

// Job is a persisted unit of deferred work.
type Job struct {
	ID        uuid.UUID
	Type      string
	Payload   json.RawMessage
	Status    Status
	RunAt     time.Time
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds a pending job of the given type. payload is encoded as JSON.
// A zero runAt means "as soon as possible".
func New(jobType string, payload any, runAt time.Time) (*Job, error) {
	if strings.TrimSpace(jobType) == "" {
		return nil, fmt.Errorf("%w: type is required", ErrInvalidJob)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode payload: %v", ErrInvalidJob, err)
	}

	now := time.Now().UTC()
	if runAt.IsZero() {
		runAt = now
	}

	return &Job{
		ID:        uuid.New(),
		Type:      jobType,
		Payload:   raw,
		Status:    StatusPending,
		RunAt:     runAt.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Decode unmarshals the job payload into v.
func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", j.Type, err)
	}
	return nil
}

// Handler executes jobs of one type.
type Handler interface {
	Handle(ctx context.Context, job *Job) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, job *Job) error

// Handle calls f(ctx, job).
func (f HandlerFunc) Handle(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// Store persists jobs and their state transitions.
type Store interface {
	// Save inserts a new job.
	Save(ctx context.Context, job *Job) error

	// ClaimDue atomically moves up to limit pending jobs whose run_at is at
	// or before now into processing, incrementing their attempt count, and
	// returns them. Rows locked by another claimer are skipped.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*Job, error)

	// MarkCompleted records successful execution.
	MarkCompleted(ctx context.Context, id uuid.UUID) error

	// MarkFailed records a terminal failure.
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error

	// Reschedule returns a job to pending with a new run_at.
	Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, errMsg string) error

	// ResetProcessing returns processing jobs last touched more than
	// olderThan ago to pending. A zero olderThan resets all of them.
	ResetProcessing(ctx context.Context, olderThan time.Duration) (int64, error)

	// WithTx returns a Store bound to tx.
	WithTx(tx *sql.Tx) Store
}
