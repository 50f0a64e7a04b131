// Package main is the entry point for the financefolio portfolio valuation service.
// It wires the transaction ledger, quote cache, and valuation services together
// and serves the HTTP API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pgatica/financefolio/internal/clients/yahoo"
	"github.com/pgatica/financefolio/internal/config"
	"github.com/pgatica/financefolio/internal/database"
	"github.com/pgatica/financefolio/internal/events"
	"github.com/pgatica/financefolio/internal/modules/ledger"
	"github.com/pgatica/financefolio/internal/modules/quotes"
	"github.com/pgatica/financefolio/internal/modules/valuation"
	"github.com/pgatica/financefolio/internal/scheduler"
	"github.com/pgatica/financefolio/internal/server"
	"github.com/pgatica/financefolio/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting financefolio")

	// Ledger database holds the persisted transaction collection. The ledger
	// profile trades write speed for durability.
	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	if err := ledgerDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate ledger database")
	}
	log.Info().Str("path", ledgerDB.Path()).Msg("Ledger database ready")

	// Event bus connects the ledger, quote cache, and websocket stream
	eventBus := events.NewBus(log)
	eventManager := events.NewManager(eventBus, log)

	ledgerStore := ledger.NewStore(ledgerDB.Conn(), cfg.LedgerKey, log)
	ledgerService, err := ledger.NewService(ledgerStore, eventManager, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ledger service")
	}

	quoteProvider := yahoo.NewClient(log)
	quoteCache := quotes.NewCache(quoteProvider, eventManager, log)
	quoteCache.ListenForTransactions(eventBus)

	valuationService := valuation.NewService(ledgerService, quoteCache, log)

	// Background quote refresh keeps cached prices from going stale
	sched := scheduler.New(log)
	refreshJob := scheduler.NewRefreshQuotesJob(valuationService, quoteCache, log)
	if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register quote refresh job")
	}

	// Warm the cache for currently held symbols before serving traffic
	if err := sched.RunNow(refreshJob); err != nil {
		log.Warn().Err(err).Msg("Initial quote refresh failed")
	}

	sched.Start()

	srv := server.New(server.Config{
		Log:              log,
		Config:           cfg,
		LedgerDB:         ledgerDB,
		LedgerService:    ledgerService,
		QuoteCache:       quoteCache,
		QuoteProvider:    quoteProvider,
		ValuationService: valuationService,
		EventBus:         eventBus,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
