package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/temba/backend/internal/domain/shared"
	"github.com/temba/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Locker hands out expiring named locks
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// ResultCache caches JSON encodable values
type ResultCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Stores groups the coordination and caching backends the service uses.
// They are either all Redis backed or all in-memory.
type Stores struct {
	Locker      Locker
	Results     ResultCache
	Idempotency shared.IdempotencyStore
	Redis       bool

	ping    func(ctx context.Context) error
	closers []func() error
}

// Ping checks the Redis connection. In-memory stores are always reachable.
func (s *Stores) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the Redis client or stops in-memory cleanup loops
func (s *Stores) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Factory creates stores based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisStores connects to Redis and builds stores sharing the client
func (f *Factory) CreateRedisStores(ctx context.Context) (*Stores, error) {
	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		return nil, err
	}
	return f.storesFromClient(client), nil
}

func (f *Factory) storesFromClient(client *redis.Client) *Stores {
	prefix := f.redisConfig.KeyPrefix
	return &Stores{
		Locker:      NewRedisLocker(client, prefix),
		Results:     NewRedisResultCache(client, prefix+"cache:", f.logger),
		Idempotency: NewRedisIdempotencyStore(client, prefix),
		Redis:       true,
		ping:        func(ctx context.Context) error { return client.Ping(ctx).Err() },
		closers:     []func() error{client.Close},
	}
}

// CreateInMemoryStores builds process-local stores.
// WARNING: they do not share state across instances, so locks don't stop
// two instances from processing the same export.
func (f *Factory) CreateInMemoryStores() *Stores {
	locker := NewInMemoryLocker()
	results := NewInMemoryResultCache()
	idem := NewInMemoryIdempotencyStore()
	return &Stores{
		Locker:      locker,
		Results:     results,
		Idempotency: idem,
		closers:     []func() error{locker.Close, results.Close, idem.Close},
	}
}

// CreateStores uses Redis when enabled, falling back to in-memory stores if
// Redis is disabled, or unavailable and fallback is allowed
func (f *Factory) CreateStores(ctx context.Context) (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory stores")
		return f.CreateInMemoryStores(), nil
	}

	stores, err := f.CreateRedisStores(ctx)
	if err == nil {
		f.logger.Info("Using Redis stores", zap.String("addr", f.redisConfig.Addr()))
		return stores, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Locks will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStores(), nil
}

var (
	_ Locker      = (*RedisLocker)(nil)
	_ Locker      = (*InMemoryLocker)(nil)
	_ ResultCache = (*RedisResultCache)(nil)
	_ ResultCache = (*InMemoryResultCache)(nil)
)
