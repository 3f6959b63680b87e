package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"accountd/internal/account"
	"accountd/internal/config"
	"accountd/internal/docstore"
	pgstore "accountd/internal/docstore/postgres"
	redisstore "accountd/internal/docstore/redis"
	apphttp "accountd/internal/http"
	"accountd/internal/http/middleware"
	"accountd/internal/http/router"
	"accountd/internal/identity/devidp"
	"accountd/internal/jobs"
	"accountd/platform/db"
	"accountd/platform/logger"
	"accountd/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "docstore", cfg.DocstoreDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg.DatabaseURL, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg.DatabaseURL)
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

	store, err := newDocstore(cfg, pool)
	if err != nil {
		log.Error("failed to initialize document store", "error", err)
		panic("failed to initialize document store: " + err.Error())
	}

	idp := devidp.New(pool, devidp.Options{
		Secret:           cfg.JWTSecret,
		IDTokenTTL:       cfg.IDTokenTTL,
		ExchangeTokenTTL: cfg.ExchangeTokenTTL,
		VerifyLinkTTL:    cfg.VerifyLinkTTL,
		AppBaseURL:       cfg.AppBaseURL,
	})

	val := validator.New()

	accountModule := account.NewModule(idp, store, val, log)

	if cfg.RedisURL != "" {
		jobClient, err := jobs.NewClient(cfg.RedisURL, cfg.AsynqQueue)
		if err != nil {
			log.Error("failed to initialize job client", "error", err)
			panic("failed to initialize job client: " + err.Error())
		}
		defer func() { _ = jobClient.Close() }()
		accountModule.Engine.SetVerificationScheduler(jobClient)
	} else {
		log.Warn("REDIS_URL not configured; verification emails disabled")
	}

	app := &apphttp.App{
		Config:         cfg,
		Logger:         log,
		Health:         db.NewPoolAdapter(pool),
		AuthMiddleware: middleware.RequireAuth(accountModule.Engine),
		Modules: []apphttp.Module{
			accountModule,
			devidp.NewModule(idp, val),
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func newDocstore(cfg *config.Config, pool *pgxpool.Pool) (docstore.Store, error) {
	switch cfg.DocstoreDriver {
	case config.DriverRedis:
		opt, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return redisstore.New(goredis.NewClient(opt)), nil
	default:
		return pgstore.New(pool), nil
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
