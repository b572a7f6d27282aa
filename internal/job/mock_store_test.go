package job

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore implements Store in memory for runner tests
type memoryStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job

	SaveFn     func(ctx context.Context, job *Job) error
	ClaimDueFn func(ctx context.Context, now time.Time, limit int) ([]*Job, error)
}

func newMemoryStore() *memoryStore {
	return &memoryStore{jobs: make(map[uuid.UUID]*Job)}
}

func (s *memoryStore) Save(ctx context.Context, job *Job) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, job)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *memoryStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*Job, error) {
	if s.ClaimDueFn != nil {
		return s.ClaimDueFn(ctx, now, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*Job
	for _, j := range s.jobs {
		if j.Status == StatusPending && !j.RunAt.After(now) {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(a, b int) bool { return due[a].RunAt.Before(due[b].RunAt) })
	if len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]*Job, 0, len(due))
	for _, j := range due {
		j.Status = StatusProcessing
		j.Attempts++
		j.UpdatedAt = now
		cp := *j
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

func (s *memoryStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(id, StatusCompleted, "", time.Time{})
}

func (s *memoryStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return s.setStatus(id, StatusFailed, errMsg, time.Time{})
}

func (s *memoryStore) Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, errMsg string) error {
	return s.setStatus(id, StatusPending, errMsg, runAt)
}

func (s *memoryStore) ResetProcessing(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	cutoff := time.Now().UTC().Add(-olderThan)
	for _, j := range s.jobs {
		if j.Status != StatusProcessing {
			continue
		}
		if olderThan == 0 || j.UpdatedAt.Before(cutoff) {
			j.Status = StatusPending
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) WithTx(tx *sql.Tx) Store {
	return s
}

func (s *memoryStore) setStatus(id uuid.UUID, status Status, errMsg string, runAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil
	}
	j.Status = status
	j.LastError = errMsg
	if !runAt.IsZero() {
		j.RunAt = runAt
	}
	return nil
}

func (s *memoryStore) get(id uuid.UUID) Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.jobs[id]
}
