package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/temba/backend/docs"
	archiveapp "github.com/temba/backend/internal/application/archive"
	exportapp "github.com/temba/backend/internal/application/export"
	flowresultapp "github.com/temba/backend/internal/application/flowresult"
	ivrapp "github.com/temba/backend/internal/application/ivr"
	"github.com/temba/backend/internal/domain/shared"
	"github.com/temba/backend/internal/infrastructure/auth"
	"github.com/temba/backend/internal/infrastructure/cache"
	"github.com/temba/backend/internal/infrastructure/config"
	"github.com/temba/backend/internal/infrastructure/event"
	"github.com/temba/backend/internal/infrastructure/logger"
	"github.com/temba/backend/internal/infrastructure/persistence"
	"github.com/temba/backend/internal/infrastructure/scheduler"
	"github.com/temba/backend/internal/infrastructure/storage"
	"github.com/temba/backend/internal/infrastructure/telemetry"
	"github.com/temba/backend/internal/interfaces/http/handler"
	"github.com/temba/backend/internal/interfaces/http/middleware"
	"github.com/temba/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// objectStorage is what the archive and export services need from a store
type objectStorage interface {
	archiveapp.ObjectStorage
	EnsureBucket(ctx context.Context, bucket string) error
}

//	@title			Temba Backend API
//	@version		1.0
//	@description	Archive registry, exports, flow result charts and IVR rendering for temba workspaces.

//	@contact.name	Temba
//	@contact.url	https://textit.com

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry comes first so the logger can be bridged to the collector
	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log = lp.Bridge(log, logger.ParseLevel(cfg.Log.Level))

	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		if err := tp.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to link spans to profiles", zap.Error(err))
		}
	}

	metrics, err := telemetry.NewServiceMetrics(mp.Meter("temba"))
	if err != nil {
		log.Fatal("Failed to create service metrics", zap.Error(err))
	}

	log.Info("Starting Temba backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled {
		if err := telemetry.NewDBTracingPlugin(telemetry.DefaultDBTracingConfig(), log).Register(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	stores, err := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStores(ctx)
	if err != nil {
		log.Fatal("Failed to create stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing stores", zap.Error(err))
		}
	}()

	objects, err := newObjectStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create object storage", zap.Error(err))
	}

	bus := event.NewInMemoryEventBus(log)

	// Services
	archiveService := archiveapp.NewArchiveService(persistence.NewGormArchiveRepository(db.DB), objects,
		archiveapp.WithLogger(log),
		archiveapp.WithMetrics(metrics),
		archiveapp.WithTempDir(cfg.Export.TempDir),
		archiveapp.WithPresignExpiry(cfg.Storage.PresignExpiry))
	archiveService.SetEventPublisher(bus)

	exportService := exportapp.NewExportService(persistence.NewGormExportRepository(db.DB), archiveService, objects,
		stores.Locker, cfg.Storage.ExportBucket,
		exportapp.WithLogger(log),
		exportapp.WithMetrics(metrics),
		exportapp.WithConfig(cfg.Export),
		exportapp.WithPresignExpiry(cfg.Storage.PresignExpiry),
		exportapp.WithMaxRetries(cfg.Scheduler.RetryAttempts))
	exportService.SetEventPublisher(bus)

	resultService := flowresultapp.NewService(archiveService, stores.Results,
		flowresultapp.WithLogger(log),
		flowresultapp.WithMetrics(metrics),
		flowresultapp.WithClasses(cfg.FlowResults.DefaultClasses, cfg.FlowResults.MaxClasses),
		flowresultapp.WithCacheTTL(cfg.FlowResults.CacheTTL))

	ivrService := ivrapp.NewService(log)

	// Event handlers
	event.SubscribeIdempotent(bus, stores.Idempotency, log,
		shared.IdempotencyConfig{TTL: cfg.Event.IdempotencyTTL, Enabled: cfg.Event.IdempotencyEnabled},
		exportapp.NewFinishedHandler(log),
		flowresultapp.NewArchiveChangedHandler(resultService, log),
	)
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Background export processing
	var (
		jobs    *scheduler.Scheduler
		trigger *scheduler.IntervalTrigger
	)
	if cfg.Scheduler.Enabled {
		jobs = scheduler.NewScheduler(cfg.Scheduler, exportService, log)
		exportapp.WithJobSubmitter(jobs)(exportService)
		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		trigger = scheduler.NewIntervalTrigger(log, exportService.Tasks()...)
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start interval trigger", zap.Error(err))
		}
	}

	// HTTP
	jwtService := auth.NewJWTService(cfg.JWT)
	engine := newEngine(cfg, log, mp)

	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.DefaultJWTConfig(jwtService))
	apiMiddleware := []gin.HandlerFunc{
		jwtMiddleware,
		middleware.TracingAttributeInjector(),
	}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(limiter))
	}

	systemHandler := handler.NewSystemHandler(version).
		WithCheck("database", func(context.Context) error { return db.Ping() })
	if stores.Redis {
		systemHandler.WithCheck("redis", stores.Ping)
	}

	router.Mount(engine, router.Handlers{
		Archive:    handler.NewArchiveHandler(archiveService),
		Export:     handler.NewExportHandler(exportService),
		FlowResult: handler.NewFlowResultHandler(resultService),
		IVR:        handler.NewIVRHandler(ivrService),
		System:     systemHandler,
	}, apiMiddleware...)
	router.MountDocs(engine, middleware.SwaggerProtection(cfg.Swagger, jwtMiddleware))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if trigger != nil {
		if err := trigger.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping interval trigger", zap.Error(err))
		}
	}
	if jobs != nil {
		if err := jobs.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tp.Shutdown,
		"meter":  mp.Shutdown,
		"logs":   lp.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// newObjectStorage connects to S3, or keeps objects in memory for local runs
func newObjectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (objectStorage, error) {
	var objects objectStorage
	switch cfg.Storage.Backend {
	case "memory":
		log.Warn("Using in-memory object storage, files are lost on restart")
		objects = storage.NewMemoryObjectStorage()
	default:
		s3, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiry(cfg.Storage.PresignExpiry))
		if err != nil {
			return nil, err
		}
		objects = s3
	}

	if err := objects.EnsureBucket(ctx, cfg.Storage.ExportBucket); err != nil {
		return nil, err
	}
	return objects, nil
}

// newEngine creates the gin engine with the middleware every request passes through
func newEngine(cfg *config.Config, log *zap.Logger, mp *telemetry.MeterProvider) *gin.Engine {
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(mp),
		middleware.Profiling(cfg.Telemetry.ProfilingEnabled),
		middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.HTTP.WriteTimeout),
	)
	return engine
}
