package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/scraplink/dealer-backend/api/routes"
	"github.com/scraplink/dealer-backend/internal/assignments"
	"github.com/scraplink/dealer-backend/internal/availability"
	"github.com/scraplink/dealer-backend/internal/dashboard"
	"github.com/scraplink/dealer-backend/internal/dealers"
	"github.com/scraplink/dealer-backend/internal/transactions"
	"github.com/scraplink/dealer-backend/pkg/config"
	"github.com/scraplink/dealer-backend/pkg/db"
	"github.com/scraplink/dealer-backend/pkg/identity"
	"github.com/scraplink/dealer-backend/pkg/logger"
	"github.com/scraplink/dealer-backend/pkg/metrics"
	"github.com/scraplink/dealer-backend/pkg/redis"
	"github.com/scraplink/dealer-backend/pkg/requeststore"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "dealer-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "dealer-api",
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

	registry := prometheus.NewRegistry()
	measures := metrics.NewServiceMetrics(registry)

	verifier, err := identity.NewClient(cfg.Identity, identity.WithCache(redisClient))
	if err != nil {
		logg.Error(context.Background(), "failed to create identity client", err)
		os.Exit(1)
	}

	catalog, err := requeststore.NewClient(cfg.RequestStore)
	if err != nil {
		logg.Error(context.Background(), "failed to create request store client", err)
		os.Exit(1)
	}

	dealerSvc, err := dealers.NewService(dealers.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create dealers service", err)
		os.Exit(1)
	}

	txnSvc, err := transactions.NewService(transactions.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}

	assignmentRepo := assignments.NewRepository(dbClient.DB())
	assignmentSvc, err := assignments.NewService(dbClient, assignmentRepo, dealerSvc, txnSvc, catalog, logg, measures)
	if err != nil {
		logg.Error(context.Background(), "failed to create assignments service", err)
		os.Exit(1)
	}

	availabilitySvc, err := availability.NewService(catalog, assignmentRepo, logg, measures)
	if err != nil {
		logg.Error(context.Background(), "failed to create availability service", err)
		os.Exit(1)
	}

	dashboardSvc, err := dashboard.NewService(assignmentSvc, dealerSvc, txnSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
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
	logg.Info(ctx, "starting dealer api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Cache:        redisClient,
			Verifier:     verifier,
			Registry:     registry,
			Dealers:      dealerSvc,
			Assignments:  assignmentSvc,
			Availability: availabilitySvc,
			Dashboard:    dashboardSvc,
			Transactions: txnSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "dealer api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
