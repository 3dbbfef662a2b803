// Package server exposes the trigger and query surface of the portfolio
// tracker over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Server wraps the HTTP server for the API.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// New creates a new API Server listening on the given port.
func New(port int, handler *APIHandler, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/portfolio/calculate", handler.CalculateHandler)
	mux.HandleFunc("POST /api/portfolio/calculate/async", handler.CalculateAsyncHandler)
	mux.HandleFunc("GET /api/portfolio/status", handler.StatusHandler)
	mux.HandleFunc("DELETE /api/portfolio/data", handler.WipeHandler)
	mux.HandleFunc("GET /api/portfolio/daily", handler.DailyHandler)
	mux.HandleFunc("GET /api/portfolio/monthly", handler.MonthlyHandler)
	mux.HandleFunc("GET /api/prices", handler.PricesHandler)
	mux.HandleFunc("GET /api/transactions", handler.TransactionsHandler)
	mux.HandleFunc("GET /api/mappings", handler.MappingsHandler)
	mux.HandleFunc("PUT /api/mappings/{isin}", handler.MappingUpdateHandler)
	mux.HandleFunc("GET /health", handler.HealthHandler)

	return &Server{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		logger: logger,
	}
}

// Start runs the HTTP server in a new goroutine.
func (s *Server) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}
