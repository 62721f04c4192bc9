package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/temba/backend/internal/domain/export"
	"github.com/temba/backend/internal/domain/shared"
	"github.com/temba/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventHandler) EventTypes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func TestIdempotentHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("processes a new event once", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		inner := new(MockEventHandler)
		event := newTestEvent(export.EventTypeExportCompleted)
		inner.On("Handle", mock.Anything, event).Return(nil).Once()

		h := NewIdempotentHandler(inner, store, zap.NewNop())
		require.NoError(t, h.Handle(ctx, event))
		require.NoError(t, h.Handle(ctx, event))

		inner.AssertExpectations(t)
		stats := h.GetMetrics().Stats()
		assert.Equal(t, int64(1), stats.EventsProcessed)
		assert.Equal(t, int64(1), stats.EventsDuplicate)
	})

	t.Run("handler error is returned and key kept", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		inner := new(MockEventHandler)
		event := newTestEvent(export.EventTypeExportFailed)
		inner.On("Handle", mock.Anything, event).Return(errors.New("storage down")).Once()

		h := NewIdempotentHandler(inner, store, nil)
		assert.EqualError(t, h.Handle(ctx, event), "storage down")
		assert.NoError(t, h.Handle(ctx, event), "retry is suppressed until the TTL passes")

		assert.Equal(t, int64(1), h.GetMetrics().Stats().EventsFailed)
		inner.AssertExpectations(t)
	})

	t.Run("store error still processes", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := new(MockEventHandler)
		event := newTestEvent(export.EventTypeExportCreated)

		store.On("MarkProcessed", mock.Anything, event.EventID().String(), 24*time.Hour).Return(false, errors.New("redis timeout"))
		inner.On("Handle", mock.Anything, event).Return(nil)

		h := NewIdempotentHandler(inner, store, zap.NewNop())
		require.NoError(t, h.Handle(ctx, event))

		store.AssertExpectations(t)
		inner.AssertExpectations(t)
	})

	t.Run("disabled skips the store", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := new(MockEventHandler)
		event := newTestEvent(export.EventTypeExportCreated)
		inner.On("Handle", mock.Anything, event).Return(nil).Twice()

		h := NewIdempotentHandler(inner, store, zap.NewNop(),
			WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))
		require.NoError(t, h.Handle(ctx, event))
		require.NoError(t, h.Handle(ctx, event))

		store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
		inner.AssertExpectations(t)
	})

	t.Run("custom ttl", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := new(MockEventHandler)
		event := newTestEvent(export.EventTypeExportCreated)
		store.On("MarkProcessed", mock.Anything, mock.Anything, time.Hour).Return(true, nil)
		inner.On("Handle", mock.Anything, event).Return(nil)

		h := NewIdempotentHandler(inner, store, zap.NewNop(),
			WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: true, TTL: time.Hour}))
		require.NoError(t, h.Handle(ctx, event))
		store.AssertExpectations(t)
	})
}

func TestIdempotentHandler_ConcurrentDuplicates(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	handler := newTestHandler(export.EventTypeExportCompleted)
	h := NewIdempotentHandler(handler, store, zap.NewNop())
	event := newTestEvent(export.EventTypeExportCompleted)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Handle(context.Background(), event)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, handler.count())
	assert.Equal(t, int64(49), h.GetMetrics().Stats().EventsDuplicate)
}

func TestSubscribeIdempotent(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	bus := NewInMemoryEventBus(nil)
	created := newTestHandler(export.EventTypeExportCreated)
	completed := newTestHandler(export.EventTypeExportCompleted)

	metrics := SubscribeIdempotent(bus, store, nil, shared.DefaultIdempotencyConfig(), created, completed)

	event := newTestEvent(export.EventTypeExportCreated)
	require.NoError(t, bus.Publish(context.Background(), event, event))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent(export.EventTypeExportCompleted)))

	assert.Equal(t, 1, created.count())
	assert.Equal(t, 1, completed.count())
	assert.Equal(t, int64(2), metrics.Stats().EventsProcessed)
	assert.Equal(t, int64(1), metrics.Stats().EventsDuplicate)
}
