package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Task lifecycle event types.
const (
	TypeTaskCreated  = "task.created"
	TypeTaskReplaced = "task.replaced"
	TypeTaskUpdated  = "task.updated"
)

// Event is something that happened to a domain entity.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the given type and JSON-encoded payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		Payload:    payloadBytes,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// TaskChange is the payload of every task lifecycle event. It snapshots the
// task as committed.
type TaskChange struct {
	TaskID           uuid.UUID `json:"task_id"`
	Title            string    `json:"title"`
	AssigneeID       uuid.UUID `json:"assignee_id"`
	AssigneeUsername string    `json:"assignee_username"`
	AssigneeEmail    string    `json:"assignee_email"`
	StartDate        time.Time `json:"start_date"`
	Deadline         time.Time `json:"deadline"`
	WarningVersion   int       `json:"warning_version"`

	// Actor is the username of the principal who made the change.
	Actor string `json:"actor"`

	// DeadlineChanged is set on task.updated when the deadline was supplied.
	DeadlineChanged bool `json:"deadline_changed,omitempty"`
}

// EventHandler processes events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter publishes events to handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}
