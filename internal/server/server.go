// Package server provides the HTTP server and routing for financefolio.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/pgatica/financefolio/internal/config"
	"github.com/pgatica/financefolio/internal/database"
	"github.com/pgatica/financefolio/internal/events"
	"github.com/pgatica/financefolio/internal/modules/ledger"
	ledgerhandlers "github.com/pgatica/financefolio/internal/modules/ledger/handlers"
	markethandlers "github.com/pgatica/financefolio/internal/modules/market/handlers"
	"github.com/pgatica/financefolio/internal/modules/quotes"
	"github.com/pgatica/financefolio/internal/modules/valuation"
	valuationhandlers "github.com/pgatica/financefolio/internal/modules/valuation/handlers"
)

// Config holds server configuration
type Config struct {
	Log              zerolog.Logger
	Config           *config.Config
	LedgerDB         *database.DB
	LedgerService    *ledger.Service
	QuoteCache       *quotes.Cache
	QuoteProvider    quotes.Provider
	ValuationService *valuation.Service
	EventBus         *events.Bus
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	ledgerDB       *database.DB
	ledgerService  *ledger.Service
	quoteCache     *quotes.Cache
	quoteProvider  quotes.Provider
	valuation      *valuation.Service
	eventBus       *events.Bus
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		log:           cfg.Log.With().Str("component", "server").Logger(),
		cfg:           cfg.Config,
		ledgerDB:      cfg.LedgerDB,
		ledgerService: cfg.LedgerService,
		quoteCache:    cfg.QuoteCache,
		quoteProvider: cfg.QuoteProvider,
		valuation:     cfg.ValuationService,
		eventBus:      cfg.EventBus,
	}

	eventManager := events.NewManager(cfg.EventBus, cfg.Log)
	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.LedgerDB, cfg.LedgerService, cfg.QuoteCache, eventManager)

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router returns the chi router, used by tests to drive requests directly
func (s *Server) Router() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Live quote event stream (websocket) - registered before module routes
		quotesStream := NewQuotesStreamHandler(s.eventBus, s.log)
		r.Get("/quotes/stream", quotesStream.ServeHTTP)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
		})

		ledgerhandlers.NewHandler(s.ledgerService, s.log).RegisterRoutes(r)
		valuationhandlers.NewHandler(s.valuation, s.log).RegisterRoutes(r)
		markethandlers.NewHandler(s.quoteProvider, s.log).RegisterRoutes(r)
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.ledgerDB.QuickCheck(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("Health check failed")
		s.systemHandlers.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"service": "financefolio",
			"error":   "database unreachable",
		})
		return
	}

	s.systemHandlers.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "financefolio",
	})
}

// Start starts the HTTP server, blocking until it stops
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
