package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-tracker-go/internal/config"
	"portfolio-tracker-go/internal/database"
	"portfolio-tracker-go/internal/ledger"
	"portfolio-tracker-go/internal/logger"
	"portfolio-tracker-go/internal/marketdata"
	"portfolio-tracker-go/internal/portfolio"
	"portfolio-tracker-go/internal/scheduler"
	"portfolio-tracker-go/internal/server"

	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Wire the calculation pipeline
	mappingSvc := ledger.NewMappingService(db, log)
	ledgerSvc := ledger.NewService(cfg.Portfolio.LedgerPath, mappingSvc, log)
	restClient := marketdata.NewRestClient(&cfg.MarketData, log)
	marketSvc := marketdata.NewService(restClient, cfg.Portfolio.ReportingCurrency, log)
	repo := portfolio.NewRepository(db)
	materializer := portfolio.NewMaterializer(log, ledgerSvc, marketSvc, repo,
		cfg.Portfolio.ReportingCurrency, cfg.Portfolio.CorrectionWindow, cfg.MarketData.LookbackDays)
	runner := portfolio.NewRunner(materializer, repo, log)

	// Schedule the recurring calculation
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.Portfolio.CalcSchedule, runner); err != nil {
		log.Fatal("Failed to schedule portfolio calculation", zap.Error(err))
	}
	sched.Start()

	// Start the API server
	apiHandler := server.NewAPIHandler(log, repo, runner, ledgerSvc, mappingSvc)
	apiServer := server.New(cfg.Server.Port, apiHandler, log)
	apiServer.Start()

	// Wait for shutdown signal
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan
	log.Info("Shutdown signal received, gracefully shutting down...")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Stop(ctx); err != nil {
		log.Error("Failed to stop API server cleanly", zap.Error(err))
	}

	log.Info("Portfolio tracker has been shut down.")
}
