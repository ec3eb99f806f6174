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
	"go.uber.org/multierr"

	"github.com/telemart/storefront-gateway/api/controllers"
	"github.com/telemart/storefront-gateway/api/routes"
	"github.com/telemart/storefront-gateway/internal/cart"
	checkoutsvc "github.com/telemart/storefront-gateway/internal/checkout"
	"github.com/telemart/storefront-gateway/internal/nav"
	"github.com/telemart/storefront-gateway/internal/notify"
	prefsvc "github.com/telemart/storefront-gateway/internal/prefs"
	"github.com/telemart/storefront-gateway/internal/upstream"
	"github.com/telemart/storefront-gateway/pkg/config"
	"github.com/telemart/storefront-gateway/pkg/db"
	"github.com/telemart/storefront-gateway/pkg/logger"
	"github.com/telemart/storefront-gateway/pkg/metrics"
	"github.com/telemart/storefront-gateway/pkg/migrate"
	"github.com/telemart/storefront-gateway/pkg/redis"
	"github.com/telemart/storefront-gateway/pkg/telegram"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRun(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	validator, err := telegram.NewValidator(cfg.Telegram.BotToken, cfg.Telegram.MaxAuthAge)
	if err != nil {
		logg.Error(context.Background(), "failed to build launch validator", err)
		os.Exit(1)
	}

	backend, err := upstream.NewClient(cfg.Upstream.BaseURL, upstream.WithTimeout(cfg.Upstream.Timeout))
	if err != nil {
		logg.Error(context.Background(), "failed to build backend client", err)
		os.Exit(1)
	}

	cartMetrics := metrics.NewCartSyncMetrics(prometheus.DefaultRegisterer)

	carts := cart.NewManager(cart.ManagerOptions{
		Backend:  backend,
		Debounce: cfg.Cart.SyncDebounce,
		IdleTTL:  cfg.Cart.IdleTTL,
		Logger:   logg,
		Metrics:  cartMetrics,
	})

	toasts := notify.NewRegistry(cfg.Notify.TTL, cfg.Notify.Cap)
	navStore := nav.NewStore(redisClient, cfg.Nav.SessionTTL, logg)

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Backend: backend,
		Nav:     navStore,
		Guard:   redisClient,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	prefsService, err := prefsvc.NewService(prefsvc.ServiceParams{
		Repo:   prefsvc.NewRepository(dbClient.DB()),
		Cache:  redisClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create preferences service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:    cfg,
		Logger:    logg,
		Validator: validator,
		Catalog:   backend,
		Orders:    backend,
		Profile:   backend,
		Carts:     carts,
		Toasts:    toasts,
		Nav:       navStore,
		Checkout:  checkoutService,
		Prefs:     prefsService,
		ReadyChecks: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront gateway")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "gateway stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	carts.Close()

	var closeErr error
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "error closing resources", closeErr)
		os.Exit(1)
	}
}
