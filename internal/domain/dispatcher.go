package domain

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"rollworks.io/erp/internal/pkg/logger"
)

// EventHandler processes a domain event.
type EventHandler func(ctx context.Context, event *DomainEvent) error

// Submitter runs task in the background with a context of its own choosing.
type Submitter func(task func(ctx context.Context)) error

// EventDispatcher routes domain events to registered handlers.
type EventDispatcher struct {
	handlers map[EventType][]EventHandler
	mu       sync.RWMutex
	submit   Submitter
}

// NewEventDispatcher creates a new EventDispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[EventType][]EventHandler),
	}
}

// Register registers a handler for a specific event type.
func (d *EventDispatcher) Register(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// UseDetached makes Publish hand events to submit instead of running the
// handlers on the caller's goroutine. Call it before the first Publish.
func (d *EventDispatcher) UseDetached(submit Submitter) {
	d.submit = submit
}

// Dispatch dispatches an event to all registered handlers.
// All handlers are called sequentially. If any handler fails, the error is logged
// but remaining handlers are still executed (best-effort delivery).
func (d *EventDispatcher) Dispatch(ctx context.Context, event *DomainEvent) error {
	d.mu.RLock()
	handlers := d.handlers[event.EventType]
	d.mu.RUnlock()

	if len(handlers) == 0 {
		logger.Debug("No handlers registered for event type",
			zap.String("event_type", string(event.EventType)),
			zap.String("event_id", event.EventID),
		)
		return nil
	}

	var firstErr error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			logger.Error("Event handler failed",
				zap.String("event_type", string(event.EventType)),
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("handler for %s failed: %w", event.EventType, err)
			}
		}
	}

	return firstErr
}

// Publish builds an event and dispatches it, in the background when a
// Submitter is set. Failures are logged, never returned: events describe
// work that has already committed. If the submitter rejects the task the
// event is dispatched inline.
func (d *EventDispatcher) Publish(ctx context.Context, eventType EventType, aggregateType, aggregateID string, payload any) {
	if d == nil {
		return
	}
	event, err := NewEvent(eventType, aggregateType, aggregateID, payload)
	if err != nil {
		logger.Warn("Domain event not built",
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
		return
	}
	if d.submit != nil {
		err := d.submit(func(ctx context.Context) { _ = d.Dispatch(ctx, event) })
		if err == nil {
			return
		}
		logger.Warn("Domain event not submitted, dispatching inline",
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
	}
	_ = d.Dispatch(ctx, event)
}
