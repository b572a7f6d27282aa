// Package access decides which tasks a principal may see and which
// mutations it may perform. Every function is pure.
package access

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// ListScope returns the assignee a task list must be restricted to, or nil
// for an unrestricted list.
//
// Superusers get exactly what they asked for. Everyone else is scoped to
// themselves whatever filter they supplied.
func ListScope(p domain.Principal, requested *uuid.UUID) *uuid.UUID {
	if p.IsSuperuser {
		return requested
	}
	self := p.UserID
	return &self
}

// CanCreate permits superusers only.
func CanCreate(p domain.Principal) error {
	return requireSuperuser(p, "create tasks")
}

// CanReplace permits superusers only.
func CanReplace(p domain.Principal) error {
	return requireSuperuser(p, "replace tasks")
}

// CanDelete permits superusers only.
func CanDelete(p domain.Principal) error {
	return requireSuperuser(p, "delete tasks")
}

// CanPatch permits the task's assignee and any superuser.
func CanPatch(p domain.Principal, task *domain.Task) error {
	if p.IsSuperuser || (task != nil && task.AssigneeID == p.UserID) {
		return nil
	}
	return fmt.Errorf("%w: only the assignee or a superuser may update this task", domain.ErrForbidden)
}

// CanView permits the task's assignee and any superuser to read a single
// task.
func CanView(p domain.Principal, task *domain.Task) error {
	if p.IsSuperuser || (task != nil && task.AssigneeID == p.UserID) {
		return nil
	}
	return fmt.Errorf("%w: only the assignee or a superuser may view this task", domain.ErrForbidden)
}

// CanManageUsers permits superusers only.
func CanManageUsers(p domain.Principal) error {
	return requireSuperuser(p, "manage users")
}

func requireSuperuser(p domain.Principal, action string) error {
	if p.IsSuperuser {
		return nil
	}
	return fmt.Errorf("%w: only superusers may %s", domain.ErrForbidden, action)
}
