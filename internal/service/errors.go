package service

import (
	"errors"
	"fmt"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// Sentinel errors shared by the services. The API layer maps each of them to
// a status code.
var (
	// ErrTaskNotFound indicates that the task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrNotificationEnqueue indicates the write committed but its follow-up
	// mail could not be scheduled.
	ErrNotificationEnqueue = errors.New("task saved but notification scheduling failed")

	// ErrInvalidCredentials indicates an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUsernameTaken indicates the requested username is already registered.
	ErrUsernameTaken = errors.New("username already exists")
)

// ServiceError wraps an unexpected failure with the operation that hit it.
type ServiceError struct {
	// Service names the service, e.g. "task" or "user".
	Service string
	// Operation is the operation that failed, e.g. "create" or "partial_update".
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError wraps err for the task service. Sentinels callers are
// expected to branch on are returned as they are.
func NewTaskServiceError(operation, message string, err error) error {
	return newServiceError("task", operation, message, err)
}

// NewUserServiceError wraps err for the user service.
func NewUserServiceError(operation, message string, err error) error {
	return newServiceError("user", operation, message, err)
}

func newServiceError(service, operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, store.ErrTaskNotFound):
		return ErrTaskNotFound
	case errors.Is(err, ErrUserNotFound), errors.Is(err, store.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, store.ErrUsernameExists):
		return ErrUsernameTaken
	case errors.Is(err, ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrValidation):
		return err
	}

	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
