package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/paygmeter-backend/api/routes"
	"github.com/angelmondragon/paygmeter-backend/internal/customers"
	"github.com/angelmondragon/paygmeter-backend/internal/fleets"
	"github.com/angelmondragon/paygmeter-backend/internal/items"
	"github.com/angelmondragon/paygmeter-backend/internal/payments"
	"github.com/angelmondragon/paygmeter-backend/internal/plans"
	"github.com/angelmondragon/paygmeter-backend/pkg/config"
	"github.com/angelmondragon/paygmeter-backend/pkg/db"
	"github.com/angelmondragon/paygmeter-backend/pkg/encoder"
	"github.com/angelmondragon/paygmeter-backend/pkg/logger"
	"github.com/angelmondragon/paygmeter-backend/pkg/metrics"
	"github.com/angelmondragon/paygmeter-backend/pkg/migrate"
	"github.com/angelmondragon/paygmeter-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	encoderClient, err := encoder.NewClient(cfg.Encoder, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create encoder client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	fleetsRepo := fleets.NewRepository(dbClient.DB())
	customersRepo := customers.NewRepository(dbClient.DB())
	itemsRepo := items.NewRepository(dbClient.DB())
	plansRepo := plans.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())

	paymentsService, err := payments.NewService(dbClient, paymentsRepo, encoderClient, paymentMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}
	itemsService, err := items.NewService(dbClient, itemsRepo, fleetsRepo, customersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create items service", err)
		os.Exit(1)
	}
	plansService, err := plans.NewService(plansRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create plans service", err)
		os.Exit(1)
	}
	fleetsService, err := fleets.NewService(fleetsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create fleets service", err)
		os.Exit(1)
	}
	customersService, err := customers.NewService(customersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			paymentsService,
			itemsService,
			plansService,
			fleetsService,
			customersService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
