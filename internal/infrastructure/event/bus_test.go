package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temba/backend/internal/domain/archive"
	"github.com/temba/backend/internal/domain/export"
	"github.com/temba/backend/internal/domain/shared"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Archive", uuid.New(), uuid.New()),
	}
}

type testHandler struct {
	eventTypes []string
	err        error
	panicWith  any

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to type handlers and wildcards", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		registered := newTestHandler(archive.EventTypeArchiveRegistered)
		rewritten := newTestHandler(archive.EventTypeArchiveRewritten)
		wildcard := newTestHandler()
		bus.Subscribe(registered)
		bus.Subscribe(rewritten)
		bus.Subscribe(wildcard)

		err := bus.Publish(ctx,
			newTestEvent(archive.EventTypeArchiveRegistered),
			newTestEvent(archive.EventTypeArchiveRegistered),
			newTestEvent(export.EventTypeExportCompleted),
		)
		require.NoError(t, err)

		assert.Equal(t, 2, registered.count())
		assert.Equal(t, 0, rewritten.count())
		assert.Equal(t, 3, wildcard.count())
		assert.Equal(t, int64(3), bus.Stats().Published)
		assert.Equal(t, 3, bus.Stats().HandlersActive)
	})

	t.Run("explicit types override handler types", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		h := newTestHandler(archive.EventTypeArchiveRegistered)
		bus.Subscribe(h, export.EventTypeExportFailed)

		require.NoError(t, bus.Publish(ctx, newTestEvent(archive.EventTypeArchiveRegistered)))
		require.NoError(t, bus.Publish(ctx, newTestEvent(export.EventTypeExportFailed)))
		assert.Equal(t, 1, h.count())
		assert.Equal(t, int64(1), bus.Stats().Undelivered)
	})

	t.Run("failing and panicking handlers don't stop delivery", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		bus := NewInMemoryEventBus(zap.New(core))

		failing := newTestHandler(export.EventTypeExportCreated)
		failing.err = errors.New("boom")
		panicking := newTestHandler(export.EventTypeExportCreated)
		panicking.panicWith = "bad state"
		ok := newTestHandler(export.EventTypeExportCreated)
		bus.Subscribe(failing)
		bus.Subscribe(panicking)
		bus.Subscribe(ok)

		require.NoError(t, bus.Publish(ctx, newTestEvent(export.EventTypeExportCreated)))

		assert.Equal(t, 1, ok.count())
		stats := bus.Stats()
		assert.Equal(t, int64(2), stats.HandlerErrors)
		assert.Equal(t, int64(1), stats.HandlerPanics)
		assert.Equal(t, 2, logs.FilterMessage("handler failed to process event").Len())
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		h := newTestHandler()
		bus.Subscribe(h)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := bus.Publish(cctx, newTestEvent("x"))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, h.count())
	})
}

func TestInMemoryEventBus_PublishAggregate(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := newTestHandler(archive.EventTypeArchiveRegistered)
	bus.Subscribe(h)

	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	a, err := archive.NewArchive(uuid.New(), archive.TypeMessage, archive.PeriodDaily, start,
		"s3://temba-archives/org/message_D20240105_abc.jsonl.gz", "abc", 100, 10, 0)
	require.NoError(t, err)

	require.NoError(t, bus.PublishAggregate(context.Background(), a))
	assert.Equal(t, 1, h.count())
	assert.Empty(t, a.GetDomainEvents(), "events are cleared after publishing")

	require.NoError(t, bus.PublishAggregate(context.Background(), a))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := newTestHandler("ArchiveRegistered")
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("ArchiveRegistered")))
	bus.Unsubscribe(h)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("ArchiveRegistered")))

	assert.Equal(t, 1, h.count())
	assert.Equal(t, 0, bus.Stats().HandlersActive)
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	require.NoError(t, bus.Start(context.Background()))
	assert.True(t, bus.Running())
	require.NoError(t, bus.Stop(context.Background()))
	assert.False(t, bus.Running())
}

func TestHandlerRegistry(t *testing.T) {
	r := NewHandlerRegistry()
	h1 := newTestHandler()
	h2 := newTestHandler()
	wildcard := newTestHandler()

	r.Register(h1, "ExportCreated", "ExportCompleted")
	r.Register(h1, "ExportCreated")
	r.Register(h2, "ExportCreated")
	r.Register(wildcard)

	assert.Len(t, r.GetHandlers("ExportCreated"), 3, "duplicate registration is ignored")
	assert.Len(t, r.GetHandlers("ExportCompleted"), 2)
	assert.Len(t, r.GetHandlers("Other"), 1)
	assert.Equal(t, 3, r.Len())

	r.Unregister(h1)
	assert.Len(t, r.GetHandlers("ExportCompleted"), 1)
	assert.Equal(t, 2, r.Len())

	r.Unregister(wildcard)
	assert.Empty(t, r.GetHandlers("Other"))
}
