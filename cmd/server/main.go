package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyalPrince700/elite-sub002/internal"
	"github.com/RoyalPrince700/elite-sub002/internal/auth"
	"github.com/RoyalPrince700/elite-sub002/internal/handler"
	"github.com/RoyalPrince700/elite-sub002/internal/jobs"
	"github.com/RoyalPrince700/elite-sub002/internal/metrics"
	"github.com/RoyalPrince700/elite-sub002/internal/middleware"
	"github.com/RoyalPrince700/elite-sub002/internal/notify"
	"github.com/RoyalPrince700/elite-sub002/internal/repository"
	"github.com/RoyalPrince700/elite-sub002/internal/service"
	"github.com/RoyalPrince700/elite-sub002/internal/storage"
	"github.com/RoyalPrince700/elite-sub002/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize proof storage
	store, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// Initialize services
	quoter := service.NewPriceQuoter(cfg.PayPerImagePriceCents, cfg.Currency)
	ledgerService := service.NewLedgerService(repo, logger)
	allocatorService := service.NewAllocatorService(ledgerService, logger)
	orderService := service.NewOrderService(repo, quoter, logger)
	paymentService := service.NewPaymentService(db, repo, logger)
	deliverableService := service.NewDeliverableService(repo, logger)
	proofService := service.NewProofService(paymentService, store, service.NewImagingProcessor(), logger)

	// Initialize background worker
	workerCfg := worker.DefaultConfig()
	workerCfg.Concurrency = cfg.WorkerConcurrency
	workerCfg.PollInterval = cfg.WorkerPollInterval
	workerCfg.JobTimeout = cfg.WorkerJobTimeout

	jobWorker, err := worker.New(repo, workerCfg, logger)
	if err != nil {
		return fmt.Errorf("worker initialization failed: %w", err)
	}
	jobWorker.Register(jobs.NewResetUsageHandler(repo, logger))
	jobWorker.Register(jobs.NewNotifyStatusHandler(notify.LogNotifier{Logger: logger}, logger))

	// Initialize middleware
	// TODO: swap HeaderResolver for the session-backed resolver once the
	// auth service exposes one.
	actorMw := middleware.NewActorMiddleware(auth.HeaderResolver{}, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)

	requireActor := middleware.Stack(actorMw.WithActor, actorMw.RequireActor)
	requireStaff := middleware.Stack(actorMw.WithActor, actorMw.RequireStaff)

	// Initialize handlers
	subscriptionHandler := handler.NewSubscriptionHandler(ledgerService, logger)
	uploadHandler := handler.NewUploadHandler(allocatorService, quoter, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	receiptHandler := handler.NewReceiptHandler(paymentService, proofService, logger)
	deliverableHandler := handler.NewDeliverableHandler(deliverableService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics (basic auth when configured)
	mux.Handle("GET /metrics", metrics.Handler(cfg.MetricsUsername, cfg.MetricsPassword))

	subscriptionHandler.RegisterRoutes(mux, requireActor)
	uploadHandler.RegisterRoutes(mux, requireActor)
	orderHandler.RegisterRoutes(mux, requireActor)
	receiptHandler.RegisterRoutes(mux, requireActor, requireStaff)
	deliverableHandler.RegisterRoutes(mux, requireActor, requireStaff)

	// Outer stack: metrics first, then request logging.
	root := middleware.Stack(metrics.Middleware, loggingMw.Handler)(mux)

	// ==========================================================================
	// Start worker and server
	// ==========================================================================

	if cfg.WorkerEnabled {
		jobWorker.Start(ctx)
		defer jobWorker.Stop()

		// Periodically sweep lapsed billing periods.
		stopSweep := startUsageResetSweep(ctx, repo, cfg.UsageResetInterval, logger)
		defer stopSweep()
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: root,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newStorage selects the proof storage backend from configuration.
func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageProvider {
	case "r2":
		return storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	default:
		return storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	}
}

// startUsageResetSweep enqueues a reset_usage job immediately and then on a
// fixed interval. The job itself is idempotent, so overlapping sweeps from
// multiple instances are safe.
func startUsageResetSweep(ctx context.Context, repo *repository.Queries, interval time.Duration, logger *slog.Logger) func() {
	enqueue := func() {
		if _, err := worker.EnqueueJob(ctx, repo, worker.JobTypeResetUsage, worker.ResetUsagePayload{}); err != nil {
			logger.Error("Failed to enqueue usage reset job", "error", err)
		}
	}

	stopCh := make(chan struct{})
	go func() {
		enqueue()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				enqueue()
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() { close(stopCh) }
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
