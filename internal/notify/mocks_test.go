package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/job"
	"github.com/taskhub/taskhub-api/internal/platform/mail"
	"github.com/taskhub/taskhub-api/internal/store"
)

type mockSubmitter struct {
	mu       sync.Mutex
	jobs     []*job.Job
	SubmitFn func(ctx context.Context, j *job.Job) error
}

func (m *mockSubmitter) Submit(ctx context.Context, j *job.Job) error {
	if m.SubmitFn != nil {
		if err := m.SubmitFn(ctx, j); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, j)
	return nil
}

func (m *mockSubmitter) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j.Type)
	}
	return out
}

func (m *mockSubmitter) byType(jobType string) *job.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.Type == jobType {
			return j
		}
	}
	return nil
}

type mockTaskReader struct {
	tasks map[uuid.UUID]*domain.Task
}

func (m *mockTaskReader) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return t, nil
}

type mockSuperusers struct {
	users []*domain.User
	err   error
}

func (m *mockSuperusers) ListSuperusersWithEmail(ctx context.Context) ([]*domain.User, error) {
	return m.users, m.err
}

type recordingSender struct {
	sent []mail.Message
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg mail.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

type mapRegistrar map[string]job.Handler

func (m mapRegistrar) Register(jobType string, h job.Handler) {
	m[jobType] = h
}
