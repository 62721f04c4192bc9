package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is work fired on a fixed interval, e.g. picking up pending exports
type Task struct {
	Name     string
	Interval time.Duration
	// RunOnStart fires the task once immediately instead of waiting an interval
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// IntervalTrigger fires tasks on their intervals until stopped. A task never
// overlaps with itself: a tick that arrives while it runs is dropped.
type IntervalTrigger struct {
	tasks  []Task
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   map[string]time.Time
}

// NewIntervalTrigger creates a trigger for the tasks. Tasks with a non
// positive interval are ignored.
func NewIntervalTrigger(logger *zap.Logger, tasks ...Task) *IntervalTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	valid := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Interval > 0 && t.Run != nil {
			valid = append(valid, t)
		}
	}
	return &IntervalTrigger{
		tasks:   valid,
		logger:  logger,
		lastRun: make(map[string]time.Time),
	}
}

// Start starts one loop per task
func (c *IntervalTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		return nil
	}
	c.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	for _, t := range c.tasks {
		c.wg.Add(1)
		go c.runLoop(ctx, t)
		c.logger.Info("Interval task started",
			zap.String("task", t.Name),
			zap.Duration("interval", t.Interval),
		)
	}
	return nil
}

// Stop stops all loops and waits for running tasks, or for ctx
func (c *IntervalTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.cancel()
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Interval trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastRun returns when the named task last finished
func (c *IntervalTrigger) LastRun(name string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.lastRun[name]
	return t, ok
}

func (c *IntervalTrigger) runLoop(ctx context.Context, t Task) {
	defer c.wg.Done()

	if t.RunOnStart {
		c.fire(ctx, t)
	}

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.fire(ctx, t)
		}
	}
}

func (c *IntervalTrigger) fire(ctx context.Context, t Task) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Interval task panicked", zap.String("task", t.Name), zap.Any("panic", r))
		}
	}()

	if err := t.Run(ctx); err != nil && ctx.Err() == nil {
		c.logger.Error("Interval task failed", zap.String("task", t.Name), zap.Error(err))
	}

	c.mu.Lock()
	c.lastRun[t.Name] = time.Now()
	c.mu.Unlock()
}
