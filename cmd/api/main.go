package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/session"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
		Fields: map[string]any{
			"env":      cfg.App.Env,
			"instance": instance.GetID(),
		},
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	closers := []func() error{dbClient.Close}
	defer func() {
		for _, c := range closers {
			err = multierr.Append(err, c())
		}
	}()

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	productRepo := catalog.NewRepository(dbClient.DB())
	if cfg.FeatureFlags.SeedCatalog {
		if err := catalog.SeedIfEmpty(ctx, productRepo, logg); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
	} else if cfg.Cart.UsesRedis() {
		return errors.New("cart store is redis but no redis address is configured")
	} else {
		logg.Warn(ctx, "redis not configured; checkout idempotency and rate limiting disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storeMetrics := metrics.NewStorefrontMetrics(reg)

	sessions, err := session.NewManager(cfg.Session)
	if err != nil {
		return err
	}

	cartStore, err := newCartStore(cfg, redisClient, sessions.MaxAge())
	if err != nil {
		return err
	}

	catalogSvc, err := catalog.NewService(productRepo)
	if err != nil {
		return err
	}
	cartSvc, err := cart.NewService(cartStore, catalogSvc, cart.NewLocker(), storeMetrics)
	if err != nil {
		return err
	}
	orderRepo := orders.NewRepository(dbClient.DB())
	checkoutSvc, err := checkout.NewService(cartSvc, orderRepo, logg, storeMetrics, checkout.Options{
		StorageTimeout: cfg.Checkout.StorageTimeout,
		PersistRetries: cfg.Checkout.PersistRetries,
	})
	if err != nil {
		return err
	}
	orderSvc, err := orders.NewService(orderRepo)
	if err != nil {
		return err
	}

	deps := routes.Dependencies{
		Sessions: sessions,
		Catalog:  catalogSvc,
		Cart:     cartSvc,
		Checkout: checkoutSvc,
		Orders:   orderSvc,
		DB:       dbClient,
		Metrics:  reg,
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"addr":       addr,
		"db_driver":  dbClient.Driver(),
		"cart_store": cfg.Cart.Store,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newCartStore(cfg *config.Config, redisClient *redis.Client, ttl time.Duration) (cart.Store, error) {
	if cfg.Cart.UsesRedis() {
		return cart.NewRedisStore(redisClient, ttl)
	}
	return cart.NewMemoryStore(), nil
}
