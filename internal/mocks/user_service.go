package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service"
)

// MockUserService implements service.UserService for testing
type MockUserService struct {
	RegisterFn     func(ctx context.Context, r service.Registration) (*domain.User, error)
	AuthenticateFn func(ctx context.Context, username, password string) (*domain.User, error)
	CreateAdminFn  func(ctx context.Context, username, email, password string) (*domain.User, bool, error)
	GetUserFn      func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListFn         func(ctx context.Context, p domain.Principal) ([]*domain.User, error)
	DeleteFn       func(ctx context.Context, p domain.Principal, id uuid.UUID) error

	// Default response values
	User  *domain.User
	Users []*domain.User
	Err   error
}

var _ service.UserService = (*MockUserService)(nil)

// Register implements service.UserService
func (m *MockUserService) Register(ctx context.Context, r service.Registration) (*domain.User, error) {
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, r)
	}
	return m.User, m.Err
}

// Authenticate implements service.UserService
func (m *MockUserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if m.AuthenticateFn != nil {
		return m.AuthenticateFn(ctx, username, password)
	}
	return m.User, m.Err
}

// CreateAdmin implements service.UserService
func (m *MockUserService) CreateAdmin(
	ctx context.Context,
	username, email, password string,
) (*domain.User, bool, error) {
	if m.CreateAdminFn != nil {
		return m.CreateAdminFn(ctx, username, email, password)
	}
	return m.User, m.User != nil, m.Err
}

// GetUser implements service.UserService
func (m *MockUserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetUserFn != nil {
		return m.GetUserFn(ctx, id)
	}
	return m.User, m.Err
}

// List implements service.UserService
func (m *MockUserService) List(ctx context.Context, p domain.Principal) ([]*domain.User, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, p)
	}
	return m.Users, m.Err
}

// Delete implements service.UserService
func (m *MockUserService) Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, p, id)
	}
	return m.Err
}
