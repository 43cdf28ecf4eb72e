package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mathurkshitij3776/Realpick/internal/auth"
	"github.com/mathurkshitij3776/Realpick/internal/config"
	"github.com/mathurkshitij3776/Realpick/internal/event"
	handler "github.com/mathurkshitij3776/Realpick/internal/handler/http"
	"github.com/mathurkshitij3776/Realpick/internal/repository"
	"github.com/mathurkshitij3776/Realpick/internal/repository/memory"
	"github.com/mathurkshitij3776/Realpick/internal/repository/postgres"
	esindex "github.com/mathurkshitij3776/Realpick/internal/search/elasticsearch"
	"github.com/mathurkshitij3776/Realpick/internal/service"
	"github.com/mathurkshitij3776/Realpick/migrations"
	"github.com/mathurkshitij3776/Realpick/pkg/database"
	"github.com/mathurkshitij3776/Realpick/pkg/health"
	pkgkafka "github.com/mathurkshitij3776/Realpick/pkg/kafka"
	"github.com/mathurkshitij3776/Realpick/pkg/middleware"
	"github.com/mathurkshitij3776/Realpick/pkg/tracing"
)

const serviceName = "realpick"

// App wires together all dependencies and runs the Realpick server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

type repositories struct {
	products      repository.ProductRepository
	reviews       repository.ReviewRepository
	users         repository.UserRepository
	subscriptions repository.SubscriptionRepository
}

// NewApp creates a new application instance, initializing all dependencies.
// On error every resource opened so far is released.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.release()
		}
	}()

	a.tracerShutdown, err = tracing.Init(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		Endpoint:       cfg.OTELEndpoint,
		SampleRatio:    cfg.OTELSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// Per-app collectors live in their own registry; the default gatherer
	// adds the runtime and kafka producer metrics.
	registry := prometheus.NewRegistry()
	healthHandler := health.NewHandler()

	repos, err := a.openStorage(ctx, registry, healthHandler)
	if err != nil {
		return nil, err
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitEnabled {
		if cfg.RedisURL != "" {
			a.redis, err = database.NewRedisClient(ctx, cfg.RedisURL)
			if err != nil {
				return nil, fmt.Errorf("connect to redis: %w", err)
			}
			logger.Info("connected to Redis")
			rdb := a.redis
			healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			})
		}
		limiter = middleware.NewRateLimiter(a.redis, middleware.RateLimitConfig{
			Limit:          middleware.PerWindow(cfg.RateLimitRequests, cfg.RateLimitWindow),
			TrustedProxies: cfg.TrustedProxyCIDRs,
			Prefix:         serviceName + ":ratelimit:",
		}, logger)
	}

	var publisher event.Publisher
	if cfg.EventsEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		producer := a.producer
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTIssuer)
	eventProducer := event.NewProducer(publisher, logger)

	catalog := service.NewCatalogService(repos.products, repos.reviews, eventProducer, location, logger)
	moderation := service.NewModerationService(repos.products, repos.users, eventProducer, logger)
	if cfg.ElasticsearchURL != "" {
		idx, err := esindex.New(ctx, cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to elasticsearch: %w", err)
		}
		healthHandler.RegisterNonCritical("elasticsearch", idx.Ping)
		catalog.UseSearchIndex(idx)
		moderation.UseSearchIndex(idx)

		n, err := catalog.Reindex(ctx)
		if err != nil {
			logger.Warn("initial reindex failed, search falls back to the catalog scan",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("search index rebuilt", slog.Int("products", n))
		}
	}

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName:    serviceName,
		Catalog:        catalog,
		Reviews:        service.NewReviewService(repos.reviews, repos.products, repos.users, eventProducer, logger),
		Moderation:     moderation,
		Auth:           service.NewAuthService(repos.users, jwtManager, eventProducer, cfg.AdminEmails, logger),
		Subscriptions:  service.NewSubscriptionService(repos.subscriptions),
		Health:         healthHandler,
		TokenValidator: jwtManager.Validator(),
		RateLimiter:    limiter,
		Metrics:        middleware.NewHTTPMetrics(registry, serviceName),
		MetricsHandler: promhttp.HandlerFor(
			prometheus.Gatherers{registry, prometheus.DefaultGatherer},
			promhttp.HandlerOpts{},
		),
		CORS:       middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins},
		PprofCIDRs: cfg.PprofAllowedCIDRs,
		Logger:     logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// openStorage returns the repositories for the configured driver. The
// postgres driver also runs migrations and registers pool metrics and the
// critical readiness check.
func (a *App) openStorage(ctx context.Context, reg prometheus.Registerer, hh *health.Handler) (repositories, error) {
	if a.cfg.StorageDriver == config.StorageMemory {
		a.logger.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return repositories{
			products:      store.Products(),
			reviews:       store.Reviews(),
			users:         store.Users(),
			subscriptions: store.Subscriptions(),
		}, nil
	}

	pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
		URL:             a.cfg.DatabaseURL,
		MaxConns:        a.cfg.DBMaxConns,
		MinConns:        a.cfg.DBMinConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}, a.logger)
	if err != nil {
		return repositories{}, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL")

	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return repositories{}, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	if err := database.RegisterPoolMetrics(reg, pool, serviceName); err != nil {
		return repositories{}, fmt.Errorf("register pool metrics: %w", err)
	}
	if a.cfg.SlowQueryThreshold > 0 {
		database.SetSlowQueryLogging(a.cfg.SlowQueryThreshold, a.logger)
	}
	hh.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	return repositories{
		products:      postgres.NewProductRepository(pool),
		reviews:       postgres.NewReviewRepository(pool),
		users:         postgres.NewUserRepository(pool),
		subscriptions: postgres.NewSubscriptionRepository(pool),
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.release()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer, Kafka producer, Redis and PostgreSQL
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.release(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// release closes every backing resource that was opened. Spans are flushed
// first so the ones from drained requests are kept.
func (a *App) release() error {
	var errs []error

	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.redis = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	return errors.Join(errs...)
}
