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

	"github.com/mealora/mealora-backend/api/routes"
	"github.com/mealora/mealora-backend/internal/couriers"
	"github.com/mealora/mealora-backend/internal/dispatch"
	"github.com/mealora/mealora-backend/internal/estimator"
	"github.com/mealora/mealora-backend/internal/orders"
	"github.com/mealora/mealora-backend/internal/payments"
	"github.com/mealora/mealora-backend/internal/presence"
	"github.com/mealora/mealora-backend/pkg/config"
	"github.com/mealora/mealora-backend/pkg/db"
	"github.com/mealora/mealora-backend/pkg/logger"
	"github.com/mealora/mealora-backend/pkg/metrics"
	"github.com/mealora/mealora-backend/pkg/migrate"
	"github.com/mealora/mealora-backend/pkg/redis"
	"github.com/mealora/mealora-backend/pkg/routing"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	routingClient, err := routing.NewClient(cfg.Routing.BaseURL, routing.WithTimeout(cfg.Routing.Timeout))
	if err != nil {
		logg.Error(context.Background(), "failed to build routing client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	dispatchMetrics := metrics.NewDispatchMetrics(registry)

	ordersRepo := orders.NewRepository(dbClient.DB())
	courierRepo := couriers.NewRepository(dbClient.DB())
	dispatchRepo := dispatch.NewRepository(dbClient.DB())

	hub, err := presence.NewHub(ordersRepo, redisClient, logg, dispatchMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build presence hub", err)
		os.Exit(1)
	}

	estimatorSvc, err := estimator.NewService(routingClient, cfg.Fees, dispatchMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build estimator", err)
		os.Exit(1)
	}
	ordersSvc, err := orders.NewService(ordersRepo, dbClient, estimatorSvc, hub)
	if err != nil {
		logg.Error(context.Background(), "failed to build orders service", err)
		os.Exit(1)
	}
	dispatchSvc, err := dispatch.NewService(dispatchRepo, courierRepo, dbClient, hub, dispatchMetrics, cfg.Dispatch)
	if err != nil {
		logg.Error(context.Background(), "failed to build dispatch service", err)
		os.Exit(1)
	}
	paymentsSvc, err := payments.NewService(ordersRepo, hub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build payments service", err)
		os.Exit(1)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run(rootCtx)
	if err := hub.Rebuild(rootCtx); err != nil {
		logg.Error(rootCtx, "failed to rebuild assignment cache", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(rootCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Hub:       hub,
			Orders:    ordersSvc,
			Dispatch:  dispatchSvc,
			Estimator: estimatorSvc,
			Payments:  paymentsSvc,
			Registry:  registry,
		}),
	}

	go func() {
		<-rootCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
