// Package event dispatches domain events raised by archive and export
// aggregates to in-process handlers.
package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/temba/backend/internal/domain/shared"
	"github.com/temba/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// BusStats is a snapshot of bus counters
type BusStats struct {
	Published      int64 `json:"published"`
	HandlerErrors  int64 `json:"handler_errors"`
	HandlerPanics  int64 `json:"handler_panics"`
	Undelivered    int64 `json:"undelivered"`
	HandlersActive int   `json:"handlers_active"`
}

// InMemoryEventBus delivers events synchronously to registered handlers.
// A failing handler is logged and does not stop delivery to the others, so
// Publish only fails for a cancelled context.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	running  atomic.Bool

	published     atomic.Int64
	handlerErrors atomic.Int64
	handlerPanics atomic.Int64
	undelivered   atomic.Int64
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(log *zap.Logger) *InMemoryEventBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   log,
	}
}

// Publish delivers events to all handlers registered for their type
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	log := logger.WithLogger(ctx, b.logger)

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.published.Add(1)

		handlers := b.registry.GetHandlers(event.EventType())
		if len(handlers) == 0 {
			b.undelivered.Add(1)
			log.Debug("no handlers for event", zap.String("event_type", event.EventType()))
			continue
		}

		for _, handler := range handlers {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.handlerErrors.Add(1)
				log.Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.String("aggregate_id", event.AggregateID().String()),
					zap.String("event_org_id", event.OrgID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// PublishAggregate publishes and clears the aggregate's pending events
func (b *InMemoryEventBus) PublishAggregate(ctx context.Context, agg shared.AggregateRoot) error {
	events := agg.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}
	agg.ClearDomainEvents()
	return b.Publish(ctx, events...)
}

// Subscribe registers a handler for the given types, or the handler's own
// EventTypes when none are given
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start marks the bus as running
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started", zap.Int("handlers", b.registry.Len()))
	return nil
}

// Stop marks the bus as stopped. Delivery is synchronous so nothing is in flight.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)
	b.logger.Info("event bus stopped", zap.Int64("published", b.published.Load()))
	return nil
}

// Running reports whether Start was called without a matching Stop
func (b *InMemoryEventBus) Running() bool {
	return b.running.Load()
}

// Stats returns a snapshot of the bus counters
func (b *InMemoryEventBus) Stats() BusStats {
	return BusStats{
		Published:      b.published.Load(),
		HandlerErrors:  b.handlerErrors.Load(),
		HandlerPanics:  b.handlerPanics.Load(),
		Undelivered:    b.undelivered.Load(),
		HandlersActive: b.registry.Len(),
	}
}

// dispatch calls the handler, turning a panic into an error
func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
