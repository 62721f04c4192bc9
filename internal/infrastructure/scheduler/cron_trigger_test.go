package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestIntervalTrigger(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	var polls, cleanups atomic.Int32
	trigger := NewIntervalTrigger(zap.New(core),
		Task{Name: "poll", Interval: 10 * time.Millisecond, RunOnStart: true, Run: func(ctx context.Context) error {
			polls.Add(1)
			return nil
		}},
		Task{Name: "cleanup", Interval: 10 * time.Millisecond, Run: func(ctx context.Context) error {
			cleanups.Add(1)
			return errors.New("storage unavailable")
		}},
		Task{Name: "disabled", Interval: 0, Run: func(ctx context.Context) error {
			t.Fatal("disabled task should not run")
			return nil
		}},
	)

	require.NoError(t, trigger.Start(context.Background()))
	assert.Eventually(t, func() bool { return polls.Load() >= 3 && cleanups.Load() >= 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, trigger.Stop(ctx))
	require.NoError(t, trigger.Stop(ctx))

	_, ok := trigger.LastRun("poll")
	assert.True(t, ok)
	_, ok = trigger.LastRun("disabled")
	assert.False(t, ok)
	assert.GreaterOrEqual(t, logs.FilterMessage("Interval task failed").Len(), 2)

	n := polls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, polls.Load(), "no runs after stop")
}
