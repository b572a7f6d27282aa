package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

type subscription struct {
	handler EventHandler
	types   map[string]bool // nil matches every type
}

func (s subscription) matches(eventType string) bool {
	return s.types == nil || s.types[eventType]
}

// InMemoryEventEmitter calls its subscribers inline, in the order they
// subscribed. A task write and the jobs its event schedules therefore
// happen within the same request.
type InMemoryEventEmitter struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *slog.Logger
}

var _ EventEmitter = (*InMemoryEventEmitter)(nil)

// NewInMemoryEventEmitter returns an emitter with no subscribers.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{logger: logger.With("component", "event_emitter")}
}

// RegisterHandler subscribes handler to the given event types, or to all of
// them when none are named.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler, types ...string) {
	sub := subscription{handler: handler}
	if len(types) > 0 {
		sub.types = make(map[string]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}

	e.mu.Lock()
	e.subs = append(e.subs, sub)
	n := len(e.subs)
	e.mu.Unlock()

	e.logger.Debug("event handler subscribed", "types", types, "subscribers", n)
}

// EmitEvent delivers event to every matching subscriber. A failing
// subscriber does not stop delivery to the rest; all failures are joined
// into the returned error.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	subs := e.subs
	e.mu.RUnlock()

	log := e.logger.With("event_id", event.ID, "event_type", event.Type)

	var errs []error
	delivered := 0
	for i, sub := range subs {
		if !sub.matches(event.Type) {
			continue
		}
		delivered++
		if err := sub.handler.HandleEvent(ctx, event); err != nil {
			log.Error("event handler failed", "error", err, "subscriber", i)
			errs = append(errs, fmt.Errorf("subscriber %d: %w", i, err))
		}
	}

	if delivered == 0 {
		log.Warn("event had no subscribers")
		return nil
	}
	log.Debug("event delivered", "subscribers", delivered, "failed", len(errs))
	return errors.Join(errs...)
}
