package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/job"
	"github.com/taskhub/taskhub-api/internal/store"
)

// PostgresJobStore implements job.Store
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a PostgresJobStore
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

var _ job.Store = (*PostgresJobStore)(nil)

// WithTx implements job.Store.WithTx
func (s *PostgresJobStore) WithTx(tx *sql.Tx) job.Store {
	return &PostgresJobStore{db: tx, logger: s.logger}
}

// Save implements job.Store.Save
func (s *PostgresJobStore) Save(ctx context.Context, j *job.Job) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, payload, status, run_at, attempts, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		j.ID, j.Type, []byte(j.Payload), string(j.Status), j.RunAt,
		j.Attempts, j.LastError, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to save job",
			"job_id", j.ID,
			"job_type", j.Type,
			"error", err)
		return fmt.Errorf("failed to save job to database: %w", MapError(err, nil))
	}
	return nil
}

// ClaimDue implements job.Store.ClaimDue
func (s *PostgresJobStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*job.Job, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		UPDATE jobs SET status = 'processing', attempts = attempts + 1, updated_at = $1
		WHERE id IN (
			SELECT id FROM jobs
			WHERE status = 'pending' AND run_at <= $1
			ORDER BY run_at ASC, created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, type, payload, status, run_at, attempts, last_error, created_at, updated_at`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []*job.Job
	for rows.Next() {
		var j job.Job
		var status string
		var payload []byte
		if err := rows.Scan(&j.ID, &j.Type, &payload, &status, &j.RunAt,
			&j.Attempts, &j.LastError, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		j.Payload = payload
		j.Status = job.Status(status)
		j.RunAt = j.RunAt.UTC()
		jobs = append(jobs, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}
	return jobs, nil
}

// MarkCompleted implements job.Store.MarkCompleted
func (s *PostgresJobStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, job.StatusCompleted, "")
}

// MarkFailed implements job.Store.MarkFailed
func (s *PostgresJobStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return s.setStatus(ctx, id, job.StatusFailed, errMsg)
}

// Reschedule implements job.Store.Reschedule
func (s *PostgresJobStore) Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, errMsg string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'pending', run_at = $2, last_error = $3, updated_at = NOW()
		WHERE id = $1`,
		id, runAt, errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to reschedule job: %w", err)
	}
	return s.checkAffected(result, id)
}

// ResetProcessing implements job.Store.ResetProcessing
func (s *PostgresJobStore) ResetProcessing(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `UPDATE jobs SET status = 'pending', updated_at = NOW() WHERE status = 'processing'`
	var args []any
	if olderThan > 0 {
		query += ` AND updated_at < $1`
		args = append(args, time.Now().UTC().Add(-olderThan))
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to reset processing jobs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (s *PostgresJobStore) setStatus(ctx context.Context, id uuid.UUID, status job.Status, errMsg string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = $2, last_error = $3, updated_at = NOW()
		WHERE id = $1`,
		id, string(status), errMsg,
	)
	if err != nil {
		s.logger.Error("failed to update job status",
			"job_id", id,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return s.checkAffected(result, id)
}

// checkAffected logs and ignores a missing job; a job deleted under the
// runner is not an error worth retrying.
func (s *PostgresJobStore) checkAffected(result sql.Result, id uuid.UUID) error {
	if err := CheckRowsAffected(result, nil); err != nil {
		if store.IsNotFoundError(err) {
			s.logger.Warn("no job found with ID to update", "job_id", id)
			return nil
		}
		return err
	}
	return nil
}
