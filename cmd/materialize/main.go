// Command materialize runs a single full portfolio materialization and
// exits. Useful for cron-driven setups and for rebuilding after a wipe.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"portfolio-tracker-go/internal/config"
	"portfolio-tracker-go/internal/database"
	"portfolio-tracker-go/internal/ledger"
	"portfolio-tracker-go/internal/logger"
	"portfolio-tracker-go/internal/marketdata"
	"portfolio-tracker-go/internal/portfolio"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	mappingSvc := ledger.NewMappingService(db, log)
	ledgerSvc := ledger.NewService(cfg.Portfolio.LedgerPath, mappingSvc, log)
	restClient := marketdata.NewRestClient(&cfg.MarketData, log)
	marketSvc := marketdata.NewService(restClient, cfg.Portfolio.ReportingCurrency, log)
	repo := portfolio.NewRepository(db)
	materializer := portfolio.NewMaterializer(log, ledgerSvc, marketSvc, repo,
		cfg.Portfolio.ReportingCurrency, cfg.Portfolio.CorrectionWindow, cfg.MarketData.LookbackDays)

	// Allow Ctrl-C to cancel the in-flight price fetch.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		cancel()
	}()

	if err := materializer.Run(ctx); err != nil {
		log.Fatal("Materialization failed", zap.Error(err))
	}
	log.Info("Materialization finished.")
}
