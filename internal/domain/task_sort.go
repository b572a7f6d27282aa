package domain

import (
	"strings"

	"github.com/google/uuid"
)

// TaskSortField names a column tasks can be ordered by.
type TaskSortField string

// Sortable task fields, spelled as clients send them.
const (
	SortByTitle     TaskSortField = "title"
	SortByAssignee  TaskSortField = "assignee"
	SortByStatus    TaskSortField = "status"
	SortByStartDate TaskSortField = "startDate"
	SortByDeadline  TaskSortField = "deadline"
	SortByPriority  TaskSortField = "priority"
)

// TaskSort is a validated ordering for task lists.
type TaskSort struct {
	Field      TaskSortField
	Descending bool
}

// DefaultTaskSort orders by deadline, earliest first.
var DefaultTaskSort = TaskSort{Field: SortByDeadline}

// ParseTaskSort never fails. An unknown field falls back to deadline
// ascending, and an unknown order falls back to ascending.
func ParseTaskSort(field, order string) TaskSort {
	s := TaskSort{Field: TaskSortField(strings.TrimSpace(field))}
	switch s.Field {
	case SortByTitle, SortByAssignee, SortByStatus, SortByStartDate, SortByDeadline, SortByPriority:
	case "":
		s.Field = SortByDeadline
	default:
		return DefaultTaskSort
	}

	s.Descending = strings.EqualFold(strings.TrimSpace(order), "desc")
	return s
}

// TaskFilter narrows a task list. A nil AssigneeID means every assignee.
type TaskFilter struct {
	AssigneeID *uuid.UUID
	Sort       TaskSort
}
