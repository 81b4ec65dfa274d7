package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/wholesale-backend/api/controllers"
	"github.com/angelmondragon/wholesale-backend/api/routes"
	"github.com/angelmondragon/wholesale-backend/internal/accounts"
	"github.com/angelmondragon/wholesale-backend/internal/catalog"
	"github.com/angelmondragon/wholesale-backend/internal/checkout"
	"github.com/angelmondragon/wholesale-backend/internal/ledger"
	"github.com/angelmondragon/wholesale-backend/internal/lock"
	"github.com/angelmondragon/wholesale-backend/internal/orders"
	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/angelmondragon/wholesale-backend/pkg/db"
	"github.com/angelmondragon/wholesale-backend/pkg/env"
	"github.com/angelmondragon/wholesale-backend/pkg/instance"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/metrics"
	"github.com/angelmondragon/wholesale-backend/pkg/migrate"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
	"github.com/angelmondragon/wholesale-backend/pkg/redis"
)

const (
	serviceName     = "api"
	shutdownTimeout = 15 * time.Second
)

func main() {
	bootLog := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		bootLog.Warn(context.Background(), ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"instance":     instance.GetID(),
		"lock_backend": cfg.Ordering.LockBackend,
	})

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer closeWith(ctx, logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer closeWith(ctx, logg, "redis", redisClient.Close)

	locker, err := newAccountLocker(cfg.Ordering, redisClient)
	if err != nil {
		return fmt.Errorf("account locker: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	services, err := buildServices(cfg, logg, dbClient, locker, metrics.NewCheckoutMetrics(registry))
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}

	server := &http.Server{
		Addr: ":" + env.Get("PORT", cfg.App.Port),
		Handler: routes.NewRouter(cfg, logg, services, routes.Infra{
			Idempotency: redisClient,
			Readiness:   map[string]controllers.Pinger{"db": dbClient, "redis": redisClient},
			Metrics:     registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	return serve(ctx, logg, server)
}

// serve blocks until the server fails or ctx ends, then drains in-flight
// requests for up to shutdownTimeout.
func serve(ctx context.Context, logg *logger.Logger, server *http.Server) error {
	failed := make(chan error, 1)
	go func() { failed <- server.ListenAndServe() }()
	logg.Info(logg.WithField(ctx, "addr", server.Addr), "api server listening")

	select {
	case err := <-failed:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(drainCtx)
}

func closeWith(ctx context.Context, logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "closing "+what, err)
	}
}

func newAccountLocker(cfg config.OrderingConfig, redisClient *redis.Client) (lock.Locker, error) {
	if !cfg.UsesRedisLock() {
		return lock.NewLocal(), nil
	}
	return lock.NewRedis(redisClient, lock.RedisOptions{
		TTL:          cfg.LockTTL,
		RetryBackoff: cfg.LockRetryInterval,
		MaxWait:      cfg.LockWait,
	})
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, locker lock.Locker, m *metrics.CheckoutMetrics) (routes.Services, error) {
	accountsRepo := accounts.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	accountsSvc, err := accounts.NewService(accountsRepo)
	if err != nil {
		return routes.Services{}, err
	}

	ledgerSvc, err := ledger.NewService(ledger.ServiceParams{
		DB:       dbClient,
		Ledger:   ledgerRepo,
		Accounts: accountsRepo,
		Locker:   locker,
		Outbox:   emitter,
		Logger:   logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	ordersSvc, err := orders.NewService(dbClient, ordersRepo, catalogRepo, emitter, logg)
	if err != nil {
		return routes.Services{}, err
	}

	assembler, err := checkout.NewAssembler(catalogRepo)
	if err != nil {
		return routes.Services{}, err
	}
	coordinator, err := checkout.NewCoordinator(checkout.CoordinatorParams{
		DB:       dbClient,
		Accounts: accountsRepo,
		Ledger:   ledgerRepo,
		Orders:   ordersRepo,
		Locker:   locker,
		Outbox:   emitter,
		Numbers:  checkout.NewOrderNumberGenerator(cfg.Ordering.OrderNumberPrefix),
		Metrics:  m,
		Logger:   logg,
	})
	if err != nil {
		return routes.Services{}, err
	}
	checkoutSvc, err := checkout.NewService(assembler, coordinator, m)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Accounts: accountsSvc,
		Checkout: checkoutSvc,
		Orders:   ordersSvc,
		Ledger:   ledgerSvc,
		Catalog:  catalogRepo,
	}, nil
}
