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

	"github.com/angelmondragon/cafehop-backend/api/routes"
	"github.com/angelmondragon/cafehop-backend/internal/cafes"
	"github.com/angelmondragon/cafehop-backend/internal/cart"
	"github.com/angelmondragon/cafehop-backend/internal/checkout"
	"github.com/angelmondragon/cafehop-backend/internal/discovery"
	"github.com/angelmondragon/cafehop-backend/internal/menu"
	"github.com/angelmondragon/cafehop-backend/internal/orders"
	"github.com/angelmondragon/cafehop-backend/internal/reviews"
	"github.com/angelmondragon/cafehop-backend/pkg/config"
	"github.com/angelmondragon/cafehop-backend/pkg/db"
	"github.com/angelmondragon/cafehop-backend/pkg/instance"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
	"github.com/angelmondragon/cafehop-backend/pkg/metrics"
	"github.com/angelmondragon/cafehop-backend/pkg/migrate"
	"github.com/angelmondragon/cafehop-backend/pkg/redis"
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
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	if _, err := migrate.ApplyOnStartup(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	taxRate, err := cfg.Ordering.Rate()
	requireResource(ctx, logg, "tax rate", err)
	location, err := cfg.Discovery.Location()
	requireResource(ctx, logg, "discovery timezone", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cafeService, err := cafes.NewService(cafes.NewRepository(dbClient.DB()), logg)
	requireResource(ctx, logg, "cafe service", err)

	discoveryService, err := discovery.NewService(cafeService, discovery.Options{
		Cache:    redisClient,
		CacheTTL: cfg.Discovery.CafeCacheTTL,
		Location: location,
		Metrics:  metrics.NewDiscoveryMetrics(registry),
		Logger:   logg,
	})
	requireResource(ctx, logg, "discovery service", err)

	menuService, err := menu.NewService(menu.NewRepository(dbClient.DB()), logg)
	requireResource(ctx, logg, "menu service", err)

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.SessionTTL)
	requireResource(ctx, logg, "cart store", err)

	cartService, err := cart.NewService(cartStore, menuService, logg)
	requireResource(ctx, logg, "cart service", err)

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), orders.ServiceConfig{
		TaxRate:          taxRate,
		MaxPickupMinutes: cfg.Ordering.MaxPickupMinutes,
		Metrics:          metrics.NewOrderMetrics(registry),
		Logger:           logg,
	})
	requireResource(ctx, logg, "orders service", err)

	reviewsService, err := reviews.NewService(reviews.NewRepository(dbClient.DB()), reviews.Options{
		Discovery: discoveryService,
		Logger:    logg,
	})
	requireResource(ctx, logg, "reviews service", err)

	checkoutService, err := checkout.NewService(cartStore, menuService, ordersService, cfg.Ordering.DefaultPickupMinutes, logg)
	requireResource(ctx, logg, "checkout service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			metrics.NewHTTPMetrics(registry),
			discoveryService,
			cafeService,
			menuService,
			cartService,
			checkoutService,
			ordersService,
			reviewsService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	exitCode := 0
	select {
	case err := <-serverErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	if err != nil {
		logg.Error(ctx, "error during shutdown", err)
		exitCode = 1
	}
	logg.Info(ctx, "api server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
