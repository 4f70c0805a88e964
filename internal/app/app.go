// Package app wires together all dependencies and runs the identity service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/aoinoikaz/TruthCapture/internal/auth"
	"github.com/aoinoikaz/TruthCapture/internal/config"
	"github.com/aoinoikaz/TruthCapture/internal/event"
	handler "github.com/aoinoikaz/TruthCapture/internal/handler/http"
	"github.com/aoinoikaz/TruthCapture/internal/mail"
	repopostgres "github.com/aoinoikaz/TruthCapture/internal/repository/postgres"
	reporedis "github.com/aoinoikaz/TruthCapture/internal/repository/redis"
	"github.com/aoinoikaz/TruthCapture/internal/service"
	"github.com/aoinoikaz/TruthCapture/migrations"
	"github.com/aoinoikaz/TruthCapture/pkg/database"
	"github.com/aoinoikaz/TruthCapture/pkg/health"
	pkgkafka "github.com/aoinoikaz/TruthCapture/pkg/kafka"
	"github.com/aoinoikaz/TruthCapture/pkg/tracing"
)

// App holds the identity service's long-lived components.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	consumers      []*pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "identity",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "identity")

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Redis holds action codes, session registrations and gate sessions.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("host", cfg.RedisHost))

	// Kafka producer for auth domain events.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Outbound mail transport. The mail dispatcher consumes the auth
	// events published above and runs in-process.
	var sender mail.Sender
	if cfg.MailMode == "smtp" {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		sender = mail.NewMockSender(logger)
	}
	consumerHandler := event.NewConsumerHandler(sender, cfg.PublicBaseURL, logger)
	consumers := event.NewConsumers(cfg.KafkaBrokers, consumerHandler, logger)

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTSessionExpiry)
	userRepo := repopostgres.NewUserRepository(pool)
	codeRepo := reporedis.NewActionCodeRepository(redisClient)
	sessionRepo := reporedis.NewSessionRepository(redisClient)
	gateRepo := reporedis.NewGateRepository(redisClient)
	eventProducer := event.NewProducer(producer, logger)

	authService := service.NewAuthService(
		userRepo, codeRepo, sessionRepo,
		jwtManager, eventProducer,
		cfg.VerifyCodeTTL, cfg.ResetCodeTTL,
		logger,
	)
	gateService := service.NewGateService(gateRepo, cfg.GatePasswordHash, cfg.GateSessionTTL, logger)
	if !cfg.GateEnabled() {
		logger.Warn("access gate has no password hash configured, unlock requests will be rejected")
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	router := handler.NewRouter(authService, gateService, healthHandler, logger, handler.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	}, handler.RateLimitConfig{
		RPS:   cfg.AuthRateLimitRPS,
		Burst: cfg.AuthRateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       producer,
		consumers:      consumers,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and the mail dispatcher consumers, blocking
// until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()
	for _, c := range a.consumers {
		go func(c *pkgkafka.Consumer) {
			if err := c.Start(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("kafka consumer stopped",
					slog.String("error", err.Error()),
				)
			}
		}(c)
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	stopConsumers()
	return a.Shutdown()
}

// Shutdown stops all components in dependency order: the HTTP server
// drains first, then the tracer flushes spans, then the messaging and
// storage layers close.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
