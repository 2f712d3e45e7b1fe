package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estate_crm_backend/internal/agents"
	"estate_crm_backend/internal/assignments"
	"estate_crm_backend/internal/distribution"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/http/router"
	"estate_crm_backend/internal/leads"
	"estate_crm_backend/internal/pipeline"
	"estate_crm_backend/internal/reporting"
	"estate_crm_backend/internal/scheduler"
	"estate_crm_backend/migrations"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules: lead creation
	// triggers auto-distribution, assignment creation opens pipelines.
	eventBus := events.NewInMemoryBus(log)

	// Background job client for async bulk rescoring. Optional: without redis
	// the API falls back to inline recalculation.
	var jobs *scheduler.Client
	if cfg.GetRedisURL() != "" {
		jobs, err = scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize job queue client", "error", err)
			panic("failed to initialize job queue client: " + err.Error())
		}
		defer jobs.Close()
	} else {
		log.Warn("REDIS_URL not set, background job queue disabled")
	}

	leadsModule, err := leads.NewModule(pool, eventBus, cfg, jobs, log)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}
	agentsModule := agents.NewModule(pool)
	assignmentsModule := assignments.NewModule(pool, eventBus)
	pipelineModule := pipeline.NewModule(pool, eventBus, log)
	distributionModule, err := distribution.NewModule(pool, eventBus, cfg, log)
	if err != nil {
		log.Error("failed to initialize distribution module", "error", err)
		panic("failed to initialize distribution module: " + err.Error())
	}
	reportingModule := reporting.NewModule(pool)

	engine := router.New(cfg, log, router.Modules{
		Leads:        leadsModule,
		Agents:       agentsModule,
		Assignments:  assignmentsModule,
		Distribution: distributionModule,
		Pipeline:     pipelineModule,
		Reporting:    reportingModule,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
