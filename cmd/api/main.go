package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/multimart/multimart-backend/api/routes"
	"github.com/multimart/multimart-backend/internal/cart"
	"github.com/multimart/multimart-backend/internal/checkout"
	"github.com/multimart/multimart-backend/internal/janitor"
	"github.com/multimart/multimart-backend/internal/orders"
	"github.com/multimart/multimart-backend/internal/products"
	"github.com/multimart/multimart-backend/pkg/config"
	"github.com/multimart/multimart-backend/pkg/db"
	"github.com/multimart/multimart-backend/pkg/logger"
	"github.com/multimart/multimart-backend/pkg/metrics"
	"github.com/multimart/multimart-backend/pkg/migrate"
	"github.com/multimart/multimart-backend/pkg/payment"
	"github.com/multimart/multimart-backend/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	cartMetrics := metrics.NewCartMetrics(prometheus.DefaultRegisterer)

	cartManager := cart.NewManager(redisClient, cfg.Cart, cartMetrics, logg)
	defer cartManager.Close()

	var gateway payment.Gateway
	if cfg.Razorpay.KeyID != "" {
		gateway, err = payment.NewRazorpayClient(cfg.Razorpay)
		if err != nil {
			logg.Error(context.Background(), "failed to create payment gateway", err)
			os.Exit(1)
		}
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())

	checkoutService, err := checkout.NewService(ordersRepo, gateway, nil, cartMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	janitorLock, err := janitor.NewRedisLock(redisClient, "mm:lock:janitor", 10*time.Minute)
	if err != nil {
		logg.Error(context.Background(), "failed to create janitor lock", err)
		os.Exit(1)
	}
	expiryJob, err := janitor.NewCheckoutExpiryJob(checkoutService, cfg.Checkout.DraftTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout expiry job", err)
		os.Exit(1)
	}
	janitorService, err := janitor.NewService(janitor.ServiceParams{
		Logger:  logg,
		Lock:    janitorLock,
		Metrics: metrics.NewJanitorMetrics(prometheus.DefaultRegisterer),
		Jobs:    []janitor.Job{expiryJob},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create janitor", err)
		os.Exit(1)
	}
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go func() {
		if err := janitorService.Run(janitorCtx); err != nil && err != context.Canceled {
			logg.Error(janitorCtx, "janitor stopped unexpectedly", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, cartManager, checkoutService, productsRepo, ordersRepo),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
