package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admission_portal_backend/internal/auth"
	"admission_portal_backend/internal/email"
	"admission_portal_backend/internal/events"
	apphttp "admission_portal_backend/internal/http"
	"admission_portal_backend/internal/http/router"
	"admission_portal_backend/internal/intake"
	"admission_portal_backend/internal/journal"
	"admission_portal_backend/internal/reconcile"
	"admission_portal_backend/internal/registration"
	regdomain "admission_portal_backend/internal/registration/domain"
	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/internal/salesforce"
	"admission_portal_backend/internal/storage"
	"admission_portal_backend/internal/wizard"
	wizardservice "admission_portal_backend/internal/wizard/service"
	"admission_portal_backend/platform/config"
	"admission_portal_backend/platform/db"
	"admission_portal_backend/platform/logger"
	"admission_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
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
		return db.RunMigrations(ctx, cfg, "migrations")
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

	attemptJournal := journal.New(pool)

	rdb := initRedis(cfg, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	session := salesforce.NewSession(cfg, nil)
	crm := salesforce.NewClient(session, cfg.GetSFAPIVersion(), log)

	policy, err := regdomain.PolicyFromConfig(cfg)
	if err != nil {
		log.Error("invalid registration policy", "error", err)
		panic("invalid registration policy: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	sender := email.NewSender(cfg)
	email.SubscribeWelcome(eventBus, sender, cfg.PortalURL, log)

	reconciler, closeReconciler := initReconcileScheduler(cfg, log)
	if closeReconciler != nil {
		defer closeReconciler()
	}

	var archiver wizardservice.Archiver
	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure uploads bucket", 5, 2*time.Second, func() error {
			return storageSvc.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure uploads bucket", "error", err, "bucket", cfg.GetMinIOBucketUploads())
			panic("failed to ensure uploads bucket: " + err.Error())
		}
		archiver = storageSvc
		log.Info("storage service initialized", "bucket", cfg.GetMinIOBucketUploads())
	}

	val := validator.New()

	registrationModule := registration.NewModule(
		crm, cfg, policy, rdb,
		attemptJournal, reconciler, events.NewRegistrationPublisher(eventBus),
		val, log,
	)
	authModule := auth.NewModule(crm, registrationModule.Provisioner(), cfg, log)
	intakeModule := intake.NewModule(crm, events.NewIntakePublisher(eventBus), log)
	wizardModule := wizard.NewModule(crm, rdb, archiver, log)

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			registrationModule,
			authModule,
			intakeModule,
			wizardModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRedis(cfg config.SchedulerConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; caching and reconcile queue disabled")
		return nil
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		panic("invalid REDIS_URL: " + err.Error())
	}
	return redis.NewClient(opt)
}

func initReconcileScheduler(cfg config.SchedulerConfig, log *logger.Logger) (ports.ReconcileScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		var noop *reconcile.Client
		return noop, nil
	}
	client, err := reconcile.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reconcile scheduler", "error", err)
		panic("failed to initialize reconcile scheduler: " + err.Error())
	}
	return client, func() { _ = client.Close() }
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
