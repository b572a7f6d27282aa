package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

// Valid task statuses.
const (
	TaskStatusToDo       TaskStatus = "To Do"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusInReview   TaskStatus = "In Review"
	TaskStatusDone       TaskStatus = "Done"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []TaskStatus{
	TaskStatusToDo,
	TaskStatusInProgress,
	TaskStatusInReview,
	TaskStatusDone,
}

// IsValid reports whether s is one of the enumerated statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusToDo, TaskStatusInProgress, TaskStatusInReview, TaskStatusDone:
		return true
	default:
		return false
	}
}

// TaskPriority ranks how urgent a task is.
type TaskPriority string

// Valid task priorities.
const (
	TaskPriorityLow      TaskPriority = "Low"
	TaskPriorityMedium   TaskPriority = "Medium"
	TaskPriorityHigh     TaskPriority = "High"
	TaskPriorityVeryHigh TaskPriority = "Very High"
)

// TaskPriorities lists every priority from lowest to highest.
var TaskPriorities = []TaskPriority{
	TaskPriorityLow,
	TaskPriorityMedium,
	TaskPriorityHigh,
	TaskPriorityVeryHigh,
}

// IsValid reports whether p is one of the enumerated priorities.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityVeryHigh:
		return true
	default:
		return false
	}
}

// Task defaults and limits.
const (
	DefaultTaskStatus   = TaskStatusToDo
	DefaultTaskPriority = TaskPriorityHigh
	MaxTaskTitleLength  = 250
)

// Task is a unit of work delegated to exactly one assignee.
type Task struct {
	ID          uuid.UUID
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	AssigneeID  uuid.UUID
	StartDate   time.Time
	Deadline    time.Time

	// WarningVersion identifies the only deadline warning that may still
	// fire for this task. It increases whenever the deadline is rescheduled.
	WarningVersion int

	CreatedAt time.Time
	UpdatedAt time.Time

	// Read-side fields joined from the assignee's user record.
	AssigneeUsername string
	AssigneeEmail    string
}

// TaskFields holds parsed values for a write. A nil field was not supplied.
type TaskFields struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
	AssigneeID  *uuid.UUID
	StartDate   *time.Time
	Deadline    *time.Time
}

// NewTask builds a task from create fields, filling defaults relative to now.
// Title, description and assignee must be present.
func NewTask(fields TaskFields, now time.Time) (*Task, error) {
	now = NormalizeTime(now)
	t := &Task{
		ID:             uuid.New(),
		Status:         DefaultTaskStatus,
		Priority:       DefaultTaskPriority,
		StartDate:      now,
		Deadline:       now,
		WarningVersion: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	missing := NewValidationError()
	if fields.Title == nil {
		missing.Add("title", MsgRequired)
	}
	if fields.Description == nil {
		missing.Add("description", MsgRequired)
	}
	if fields.AssigneeID == nil {
		missing.Add("assignee", MsgRequired)
	}
	if missing.HasErrors() {
		return nil, missing
	}

	t.Apply(fields)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Apply copies every supplied field onto t. It reports whether the deadline
// was among them.
func (t *Task) Apply(fields TaskFields) (deadlineSupplied bool) {
	if fields.Title != nil {
		t.Title = *fields.Title
	}
	if fields.Description != nil {
		t.Description = *fields.Description
	}
	if fields.Status != nil {
		t.Status = *fields.Status
	}
	if fields.Priority != nil {
		t.Priority = *fields.Priority
	}
	if fields.AssigneeID != nil {
		t.AssigneeID = *fields.AssigneeID
	}
	if fields.StartDate != nil {
		t.StartDate = NormalizeTime(*fields.StartDate)
	}
	if fields.Deadline != nil {
		t.Deadline = NormalizeTime(*fields.Deadline)
		return true
	}
	return false
}

// Validate checks every field and reports all problems at once.
func (t *Task) Validate() error {
	verr := NewValidationError()

	title := strings.TrimSpace(t.Title)
	switch {
	case title == "":
		verr.Add("title", MsgBlank)
	case utf8.RuneCountInString(t.Title) > MaxTaskTitleLength:
		verr.Addf("title", MsgTooLong, MaxTaskTitleLength)
	}
	if !t.Status.IsValid() {
		verr.Addf("status", MsgInvalidChoice, string(t.Status))
	}
	if !t.Priority.IsValid() {
		verr.Addf("priority", MsgInvalidChoice, string(t.Priority))
	}
	if t.AssigneeID == uuid.Nil {
		verr.Add("assignee", MsgRequired)
	}
	if t.StartDate.IsZero() {
		verr.Add("startDate", MsgRequired)
	}
	if t.Deadline.IsZero() {
		verr.Add("deadline", MsgRequired)
	}

	return verr.OrNil()
}
