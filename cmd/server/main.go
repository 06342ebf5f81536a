package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dukerupert/mailinglist/internal"
	"github.com/dukerupert/mailinglist/internal/email"
	"github.com/dukerupert/mailinglist/internal/handler"
	"github.com/dukerupert/mailinglist/internal/jobs"
	"github.com/dukerupert/mailinglist/internal/middleware"
	"github.com/dukerupert/mailinglist/internal/postgres"
	"github.com/dukerupert/mailinglist/internal/queue"
	"github.com/dukerupert/mailinglist/internal/router"
	"github.com/dukerupert/mailinglist/internal/routes"
	"github.com/dukerupert/mailinglist/internal/service"
	"github.com/dukerupert/mailinglist/internal/telemetry"
	"github.com/dukerupert/mailinglist/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	// Connect to database, waiting for it to come up
	logger.Info("Connecting to database...")
	pool, err := postgres.Connect(ctx, cfg.Database.URL.Expose(), cfg.Database.ConnectTimeout, logger)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()
	logger.Info("Database connection established")

	// Run migrations over a database/sql handle sharing the pool
	logger.Info("Running database migrations...")
	sqlDB := stdlib.OpenDBFromPool(pool)
	if err := internal.RunMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return fmt.Errorf("migration failed: %w", err)
	}
	sqlDB.Close()
	logger.Info("Database migrations completed successfully")

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	businessMetrics := telemetry.NewBusinessMetrics("mailinglist", registry)
	httpMetrics := middleware.NewMetrics("mailinglist", registry)

	// Initialize email client
	logger.Info("Initializing email client...", "provider", cfg.EmailClient.Provider)
	transport, err := newTransport(cfg.EmailClient, logger)
	if err != nil {
		return err
	}
	sender, err := cfg.EmailClient.Sender()
	if err != nil {
		return fmt.Errorf("invalid sender email: %w", err)
	}
	emailClient, err := email.NewClient(sender, transport)
	if err != nil {
		return fmt.Errorf("failed to initialize email client: %w", err)
	}
	emailService, err := email.NewService(emailClient, cfg.App.ListName)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	// Background worker
	w := worker.NewWorker(worker.Config{
		MaxConcurrency: cfg.Queue.Concurrency,
		JobTimeout:     cfg.EmailClient.Timeout() + 5*time.Second,
	}, businessMetrics, logger)
	emailJobs := jobs.NewEmailHandler(emailService, businessMetrics)
	w.Register(jobs.JobTypeWelcome, emailJobs.HandleWelcome)

	// Job queue
	var q queue.Queue
	var natsQueue *queue.NATS
	if !cfg.Queue.NATSURL.IsEmpty() {
		nq, err := queue.NewNATS(queue.NATSConfig{
			URL:        cfg.Queue.NATSURL.Expose(),
			QueueGroup: cfg.Queue.QueueGroup,
		}, logger)
		if err != nil {
			return err
		}
		defer nq.Close(context.Background())
		if err := nq.Subscribe(w.Submit); err != nil {
			return err
		}
		natsQueue = nq
		q = nq
	} else {
		logger.Info("No NATS URL configured, running jobs in-process")
		iq, err := queue.NewInline(w.Submit)
		if err != nil {
			return err
		}
		q = iq
	}

	// Services
	subscriptionService := service.NewSubscriptionService(
		postgres.NewSubscriptionStore(pool),
		q,
		businessMetrics,
		logger,
	)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		httpMetrics.Middleware,
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)

	routes.Register(r, routes.Deps{
		SubscribeHandler: handler.NewSubscribeHandler(subscriptionService),
		MetricsHandler:   httpMetrics.Handler(),
	})

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              cfg.App.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	// Pending NATS deliveries must reach the worker before it stops accepting jobs.
	if natsQueue != nil {
		if err := natsQueue.Close(shutdownCtx); err != nil {
			logger.Error("queue drain failed", "error", err)
		}
	}
	if err := w.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker shutdown failed", "error", err)
	}

	return nil
}

// newTransport builds the outbound email transport for the configured provider.
func newTransport(cfg internal.EmailClientConfig, logger *slog.Logger) (email.Sender, error) {
	switch cfg.Provider {
	case "postmark":
		return email.NewPostmarkSender(email.PostmarkConfig{
			BaseURL: cfg.BaseURL,
			Token:   cfg.AuthorizationToken,
			Timeout: cfg.Timeout(),
			Logger:  logger,
		}), nil
	case "smtp":
		return email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			Timeout:  cfg.Timeout(),
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
