// Package service contains the application use cases. Services enforce
// access policy, validate input, run store writes inside transactions and
// publish lifecycle events once a write has committed.
//
// Expected conditions surface as sentinel errors (ErrTaskNotFound,
// ErrInvalidCredentials, domain.ErrForbidden, *domain.ValidationError) so
// that callers can branch with errors.Is and errors.As. Anything else is
// wrapped in a service error type naming the failed operation.
package service
