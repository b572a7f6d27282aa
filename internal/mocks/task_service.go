package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service"
)

// MockTaskService implements service.TaskService for testing
type MockTaskService struct {
	ListFn          func(ctx context.Context, p domain.Principal, q service.TaskQuery) ([]*domain.Task, error)
	GetFn           func(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Task, error)
	CreateFn        func(ctx context.Context, p domain.Principal, in domain.TaskInput) (*domain.Task, error)
	ReplaceFn       func(ctx context.Context, p domain.Principal, id uuid.UUID, in domain.TaskInput) (*domain.Task, error)
	PartialUpdateFn func(ctx context.Context, p domain.Principal, id uuid.UUID, in domain.TaskInput) (*domain.Task, error)
	DeleteFn        func(ctx context.Context, p domain.Principal, id uuid.UUID) error

	// Default response values
	Task  *domain.Task
	Tasks []*domain.Task
	Err   error

	mu    sync.Mutex
	calls []string
}

var _ service.TaskService = (*MockTaskService)(nil)

func (m *MockTaskService) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

// Calls returns the names of the methods invoked so far, in order.
func (m *MockTaskService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// List implements service.TaskService
func (m *MockTaskService) List(ctx context.Context, p domain.Principal, q service.TaskQuery) ([]*domain.Task, error) {
	m.record("List")
	if m.ListFn != nil {
		return m.ListFn(ctx, p, q)
	}
	return m.Tasks, m.Err
}

// Get implements service.TaskService
func (m *MockTaskService) Get(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Task, error) {
	m.record("Get")
	if m.GetFn != nil {
		return m.GetFn(ctx, p, id)
	}
	return m.Task, m.Err
}

// Create implements service.TaskService
func (m *MockTaskService) Create(ctx context.Context, p domain.Principal, in domain.TaskInput) (*domain.Task, error) {
	m.record("Create")
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p, in)
	}
	return m.Task, m.Err
}

// Replace implements service.TaskService
func (m *MockTaskService) Replace(
	ctx context.Context,
	p domain.Principal,
	id uuid.UUID,
	in domain.TaskInput,
) (*domain.Task, error) {
	m.record("Replace")
	if m.ReplaceFn != nil {
		return m.ReplaceFn(ctx, p, id, in)
	}
	return m.Task, m.Err
}

// PartialUpdate implements service.TaskService
func (m *MockTaskService) PartialUpdate(
	ctx context.Context,
	p domain.Principal,
	id uuid.UUID,
	in domain.TaskInput,
) (*domain.Task, error) {
	m.record("PartialUpdate")
	if m.PartialUpdateFn != nil {
		return m.PartialUpdateFn(ctx, p, id, in)
	}
	return m.Task, m.Err
}

// Delete implements service.TaskService
func (m *MockTaskService) Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	m.record("Delete")
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, p, id)
	}
	return m.Err
}
