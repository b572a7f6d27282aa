package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// InputMode selects which task fields a write must supply.
type InputMode int

const (
	// ModeCreate requires title, description and assignee. Other fields
	// fall back to defaults.
	ModeCreate InputMode = iota
	// ModeReplace requires every writable field.
	ModeReplace
	// ModePatch requires nothing. Only supplied fields are validated.
	ModePatch
)

// TaskInput carries task fields as received from a client, before parsing.
// A nil field was not supplied.
type TaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	Assignee    *string
	StartDate   *string
	Deadline    *string

	// Malformed holds problems the transport found while reading the raw
	// payload, such as nulls or non-string values. They are reported
	// together with everything ParseTaskInput finds.
	Malformed *ValidationError
}

// ParseTaskInput converts raw input into typed fields, collecting every
// problem instead of stopping at the first. The returned ValidationError is
// never nil. Callers add their own checks to it and finish with OrNil.
func ParseTaskInput(in TaskInput, mode InputMode) (TaskFields, *ValidationError) {
	var fields TaskFields
	verr := NewValidationError()
	verr.Merge(in.Malformed)

	required := func(name string, v *string) bool {
		if v != nil {
			return true
		}
		if _, already := verr.Fields[name]; already {
			return false
		}
		switch mode {
		case ModeCreate:
			if name == "title" || name == "description" || name == "assignee" {
				verr.Add(name, MsgRequired)
			}
		case ModeReplace:
			verr.Add(name, MsgRequired)
		}
		return false
	}

	if required("title", in.Title) {
		title := *in.Title
		switch {
		case strings.TrimSpace(title) == "":
			verr.Add("title", MsgBlank)
		case utf8.RuneCountInString(title) > MaxTaskTitleLength:
			verr.Addf("title", MsgTooLong, MaxTaskTitleLength)
		default:
			fields.Title = &title
		}
	}

	if required("description", in.Description) {
		desc := *in.Description
		fields.Description = &desc
	}

	if required("status", in.Status) {
		status := TaskStatus(*in.Status)
		if status.IsValid() {
			fields.Status = &status
		} else {
			verr.Addf("status", MsgInvalidChoice, *in.Status)
		}
	}

	if required("priority", in.Priority) {
		priority := TaskPriority(*in.Priority)
		if priority.IsValid() {
			fields.Priority = &priority
		} else {
			verr.Addf("priority", MsgInvalidChoice, *in.Priority)
		}
	}

	if required("assignee", in.Assignee) {
		id, err := uuid.Parse(strings.TrimSpace(*in.Assignee))
		if err != nil || id == uuid.Nil {
			verr.Addf("assignee", MsgInvalidPK, *in.Assignee)
		} else {
			fields.AssigneeID = &id
		}
	}

	if required("startDate", in.StartDate) {
		if t, err := ParseTimestamp(*in.StartDate); err != nil {
			verr.Add("startDate", MsgDatetime)
		} else {
			fields.StartDate = &t
		}
	}

	if required("deadline", in.Deadline) {
		if t, err := ParseTimestamp(*in.Deadline); err != nil {
			verr.Add("deadline", MsgDatetime)
		} else {
			fields.Deadline = &t
		}
	}

	return fields, verr
}
