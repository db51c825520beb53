package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/cache"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/repository/memory"
	"github.com/utafrali/storefront/internal/repository/postgres"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/migrations"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/tracing"
)

// ServiceName identifies the catalog in traces, logs and metrics.
const ServiceName = "catalog"

// idempotencyTTL bounds how long consumed event ids are remembered.
const idempotencyTTL = 24 * time.Hour

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	producer       *pkgkafka.Producer
	ratingConsumer *pkgkafka.Consumer
	redisClient    *redis.Client
	closeStore     func()
	tracerShutdown func(context.Context) error
}

// stores is the persistence backend selected by STORE_BACKEND.
type stores struct {
	products   repository.ProductStore
	categories repository.CategoryRepository
	ping       health.Checker
	close      func()
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	healthHandler := health.NewHandler()
	if st.ping != nil {
		healthHandler.RegisterCritical("postgres", st.ping)
	}

	// Category activity is cached in Redis when it is reachable. A cache
	// outage at startup leaves the service on the store alone.
	var (
		redisClient *redis.Client
		lookup      service.ActivityLookup
		invalidator service.ActivityInvalidator
		idempotency pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL)
	)
	if cfg.RedisEnabled {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			logger.Warn("redis unavailable, continuing without category cache",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
			activity := cache.NewCategoryActivity(redisClient, st.categories, cfg.CategoryCacheTTL(), logger)
			lookup, invalidator = activity, activity
			idempotency = pkgkafka.NewRedisIdempotencyStore(redisClient, "storefront:catalog:events:", idempotencyTTL)
			client := redisClient
			healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			})
		}
	}

	// Kafka producer. With Kafka disabled events are dropped.
	var (
		producer  *pkgkafka.Producer
		publisher event.Publisher
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := pingKafkaWithRetry(ctx, producer, logger); err != nil {
			logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
		publisher = producer
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}
	eventProducer := event.NewProducer(publisher, logger)

	// Build the dependency graph.
	catalogService := service.NewCatalogService(st.products, logger)
	categoryService := service.NewCategoryService(st.categories, lookup, invalidator, eventProducer, logger)
	productService := service.NewProductService(st.products, categoryService, catalogService, eventProducer, logger)

	var ratingConsumer *pkgkafka.Consumer
	if cfg.KafkaEnabled {
		ratingConsumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:   cfg.KafkaBrokers,
			GroupID:   event.RatingGroupID,
			Topic:     event.TopicReviewRated,
			MinBytes:  1,
			MaxBytes:  10e6,
			EnableDLQ: true,
		}, pkgkafka.IdempotentHandler(idempotency, event.NewRatingHandler(productService, logger), logger), logger)
	}

	tokens := auth.NewJWTValidator(cfg.JWTSecret, cfg.JWTIssuer)

	// HTTP router.
	router := handler.NewRouter(catalogService, productService, categoryService, healthHandler, handler.RouterConfig{
		CORS:           cfg.CORS(),
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		ValidateJWT:    tokens.Validate,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.HTTPReadTimeoutSecs) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTPWriteTimeoutSecs) * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		httpServer:     httpServer,
		producer:       producer,
		ratingConsumer: ratingConsumer,
		redisClient:    redisClient,
		closeStore:     st.close,
		tracerShutdown: tracerShutdown,
	}, nil
}

// openStores connects the configured persistence backend.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		db := memory.NewDB()
		return &stores{
			products:   memory.NewProductRepository(db),
			categories: memory.NewCategoryRepository(db),
			close:      func() {},
		}, nil
	}

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, ServiceName); err != nil {
		logger.Warn("register pool metrics", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	return &stores{
		products:   postgres.NewProductRepository(pool),
		categories: postgres.NewCategoryRepository(pool),
		ping:       pool.Ping,
		close:      pool.Close,
	}, nil
}

// Run starts the HTTP server and the rating consumer, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.ratingConsumer != nil {
		go func() {
			if err := a.ratingConsumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("rating consumer: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown stops components in order: HTTP server, tracer, Kafka consumer,
// Kafka producer, Redis, store.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// Spans from drained requests are flushed after the HTTP drain.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.ratingConsumer != nil {
		if err := a.ratingConsumer.Close(); err != nil {
			a.logger.Error("rating consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.closeStore()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// pingKafkaWithRetry pings the producer with exponential backoff
// (3 attempts, 1s/2s with ±25% jitter between them).
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	const attempts = 3
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = producer.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		base := time.Duration(1<<uint(attempt)) * time.Second
		jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404 -- retry jitter
		wait := base + jitter
		logger.Warn("kafka producer ping failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", attempts),
			slog.Duration("backoff", wait),
			slog.String("error", lastErr.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka ping: context canceled during retry: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("kafka producer ping failed after %d attempts: %w", attempts, lastErr)
}
