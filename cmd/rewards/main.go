package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pakreward/rewards-service/internal/adgate"
	"github.com/pakreward/rewards-service/internal/app"
	"github.com/pakreward/rewards-service/internal/apperr"
	"github.com/pakreward/rewards-service/internal/auth"
	"github.com/pakreward/rewards-service/internal/database"
	"github.com/pakreward/rewards-service/internal/engine"
	"github.com/pakreward/rewards-service/internal/health"
	"github.com/pakreward/rewards-service/internal/idempotency"
	"github.com/pakreward/rewards-service/internal/jobs"
	jobhandlers "github.com/pakreward/rewards-service/internal/jobs/handlers"
	"github.com/pakreward/rewards-service/internal/ledger"
	"github.com/pakreward/rewards-service/internal/lifecycle"
	"github.com/pakreward/rewards-service/internal/ratelimit"
	"github.com/pakreward/rewards-service/internal/session"
	"github.com/pakreward/rewards-service/internal/store"
	"github.com/pakreward/rewards-service/internal/withdrawals"
	"github.com/pakreward/rewards-service/pkg/config"
	"github.com/pakreward/rewards-service/pkg/graceful"
	"github.com/pakreward/rewards-service/pkg/logger"
	"github.com/pakreward/rewards-service/pkg/metrics"
	appredis "github.com/pakreward/rewards-service/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, _, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			slog.Error("failed to init sentry", "error", err)
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	log.Info("starting rewards service", "env", cfg.AppEnv, "http_port", cfg.HTTP.Port, "store_backend", cfg.Store.Backend)

	redisClient, err := appredis.New(ctx, appredis.Config{
		Addr:            cfg.Redis.Addr,
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
		IdleTimeout:     cfg.Redis.IdleTimeout,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
	})
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	instrumentedRedis := appredis.NewMetricsClient(redisClient)

	var accountStore store.Store
	switch cfg.Store.Backend {
	case "file":
		accountStore = store.NewFileStore(cfg.Store.FilePath, log)
	default:
		accountStore = store.NewRedisStore(redisClient.Client, log)
	}

	sessions := session.NewManager(redisClient.Client, accountStore, log)
	ledgerSvc := ledger.NewService(accountStore, cfg.Ledger, log)

	var db *sql.DB
	var journal withdrawals.Journal
	if cfg.Postgres.Enabled {
		db, err = sql.Open("postgres", cfg.Postgres.DSN())
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}

		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping database", "error", err)
			os.Exit(1)
		}

		migrator := database.NewMigrator(db, log)
		if err := migrator.ApplyDir(ctx, cfg.Postgres.MigrationsDir); err != nil {
			log.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}

		journal = withdrawals.NewSQLJournal(db, log)
	}
	withdrawalSvc := withdrawals.NewService(ledgerSvc, journal, log)

	onceStore := idempotency.NewRedisStore(redisClient.Client, log)
	onceManager := idempotency.NewManager(onceStore, log)
	gate := adgate.New(cfg.AdGate.Countdown, onceManager, log)

	limiter := ratelimit.NewAdaptiveLimiter(
		ratelimit.NewRedisLimiter(redisClient.Client, log),
		ratelimit.NewMemoryLimiter(log),
		log,
	)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	authSvc := auth.NewService(accountStore, auth.NewPendingStore(redisClient.Client, cfg.Auth.PendingTTL, log), sessions, limiter, cfg.Auth, cfg.Ledger, rng, log)
	rewardEngine := engine.New(ledgerSvc, withdrawalSvc, gate, nil, rng, log)
	errHandler := apperr.NewHandler(log, cfg.Sentry.Enabled)

	application := &app.App{
		Auth:        authSvc,
		Engine:      rewardEngine,
		Sessions:    sessions,
		Ledger:      ledgerSvc,
		Withdrawals: withdrawalSvc,
		Store:       accountStore,
		Errors:      errHandler,
	}

	// startup session resolution: a present but dangling session
	// fails-soft to the unauthenticated state
	if account, err := application.Sessions.Resolve(ctx); err != nil {
		recovered := application.Errors.Handle(ctx, "session_resolve", err)
		log.Warn("starting unauthenticated", "notice", recovered.Notice, "retryable", recovered.Retryable)
		metrics.SetActiveSessions(0)
	} else if account != nil {
		metrics.SetActiveSessions(1)
		log.Info("active session resolved", "email", account.Email, "balance", application.Engine.Balance(account))
	} else {
		metrics.SetActiveSessions(0)
		log.Info("no active session")
	}

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("redis", func(ctx context.Context) error {
		return instrumentedRedis.Close()
	})
	if db != nil {
		shutdown.Register("postgres", func(ctx context.Context) error {
			return db.Close()
		})
	}

	if cfg.Jobs.SpinResetEnabled {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}

		scheduler := jobs.NewScheduler(redisOpt, cfg.Jobs.SpinResetSchedule, cfg.Ledger.SpinLimit, log)
		if err := scheduler.RegisterTasks(); err != nil {
			log.Error("failed to register scheduled tasks", "error", err)
			os.Exit(1)
		}
		scheduler.Run()
		shutdown.Register("scheduler", func(ctx context.Context) error {
			scheduler.Shutdown()
			return nil
		})

		worker := jobs.NewWorker(redisOpt, map[string]int{jobs.QueueDefault: 5, jobs.QueueLow: 1}, log)
		worker.RegisterHandler(jobs.TaskTypeSpinReset, jobhandlers.NewSpinResetHandler(accountStore, ledgerSvc, log))
		go func() {
			if err := worker.Run(); err != nil {
				log.Error("jobs worker stopped", "error", err)
			}
		}()
		shutdown.Register("jobs-worker", func(ctx context.Context) error {
			worker.Shutdown()
			return nil
		})
	}

	checker := health.NewChecker(log)
	checker.AddCheck("redis", instrumentedRedis)
	if db != nil {
		checker.AddCheck("postgres", health.DBCheck(db))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		results := checker.Check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if !health.AllOK(results) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(results)
	})

	server := graceful.NewServer(log, &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           logger.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}, cfg.HTTP.ShutdownTimeout)

	if err := server.ListenAndServe(ctx); err != nil {
		log.Error("http server terminated", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown completed with errors", "error", err)
	}

	log.Info("rewards service stopped")
}
