package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"portfolio-tracker-go/internal/ledger"
	"portfolio-tracker-go/internal/models"
	"portfolio-tracker-go/internal/portfolio"

	"go.uber.org/zap"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log     *zap.Logger
	repo    *portfolio.Repository
	runner  *portfolio.Runner
	ledger  *ledger.Service
	mapping *ledger.MappingService
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, repo *portfolio.Repository, runner *portfolio.Runner, ledgerSvc *ledger.Service, mapping *ledger.MappingService) *APIHandler {
	return &APIHandler{
		log:     log,
		repo:    repo,
		runner:  runner,
		ledger:  ledgerSvc,
		mapping: mapping,
	}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to write response", zap.Error(err))
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CalculateHandler runs the full materialization synchronously.
func (h *APIHandler) CalculateHandler(w http.ResponseWriter, r *http.Request) {
	err := h.runner.TryRun(r.Context())
	if errors.Is(err, portfolio.ErrAlreadyRunning) {
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		h.log.Error("Portfolio calculation failed", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, messageResponse{Message: "portfolio calculation completed"})
}

// CalculateAsyncHandler starts the materialization in the background; the
// outcome is observable through the status endpoint.
func (h *APIHandler) CalculateAsyncHandler(w http.ResponseWriter, r *http.Request) {
	err := h.runner.TryRunAsync(r.Context())
	if errors.Is(err, portfolio.ErrAlreadyRunning) {
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusAccepted, messageResponse{Message: "portfolio calculation started"})
}

// StatusHandler reports the job state: idle, running or failed.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]portfolio.Status{"status": h.runner.Status()})
}

// WipeHandler deletes all persisted output, forcing a full recomputation on
// the next run.
func (h *APIHandler) WipeHandler(w http.ResponseWriter, r *http.Request) {
	err := h.runner.Wipe()
	if errors.Is(err, portfolio.ErrAlreadyRunning) {
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		h.log.Error("Failed to wipe persisted output", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, messageResponse{Message: "all persisted output removed"})
}

// DailyHandler returns performance records filtered by instrument subset and
// date range.
func (h *APIHandler) DailyHandler(w http.ResponseWriter, r *http.Request) {
	var tickers []string
	if raw := r.URL.Query().Get("tickers"); raw != "" {
		tickers = strings.Split(raw, ",")
	}
	records, err := h.repo.QueryDaily(tickers, r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		h.log.Error("Failed to query daily records", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load portfolio data"})
		return
	}
	if records == nil {
		records = []models.PerformanceRecord{}
	}
	h.writeJSON(w, http.StatusOK, records)
}

// MonthlyHandler returns the monthly projection of the daily table.
func (h *APIHandler) MonthlyHandler(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.QueryMonthly()
	if err != nil {
		h.log.Error("Failed to query monthly records", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load portfolio data"})
		return
	}
	if records == nil {
		records = []models.MonthlyPerformanceRecord{}
	}
	h.writeJSON(w, http.StatusOK, records)
}

// PricesHandler returns the stored price/FX series, optionally for a single
// instrument.
func (h *APIHandler) PricesHandler(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")

	var prices []models.InstrumentPrice
	var err error
	if ticker == "" {
		prices, err = h.repo.LoadPrices()
	} else {
		prices, err = h.repo.PricesFor(ticker)
	}
	if err != nil {
		h.log.Error("Failed to query prices", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load price data"})
		return
	}
	if prices == nil {
		prices = []models.InstrumentPrice{}
	}
	h.writeJSON(w, http.StatusOK, prices)
}

// TransactionsHandler returns the parsed and mapped transaction ledger.
func (h *APIHandler) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.ledger.Load()
	if err != nil {
		h.log.Error("Failed to load transactions", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load transactions"})
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, transactions)
}

// MappingsHandler returns all instrument mappings.
func (h *APIHandler) MappingsHandler(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.mapping.All()
	if err != nil {
		h.log.Error("Failed to load mappings", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load mappings"})
		return
	}
	h.writeJSON(w, http.StatusOK, mappings)
}

// MappingUpdateHandler applies an operator edit to one mapping row.
func (h *APIHandler) MappingUpdateHandler(w http.ResponseWriter, r *http.Request) {
	isin := r.PathValue("isin")

	var edit models.InstrumentMapping
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid mapping payload"})
		return
	}

	if err := h.mapping.Update(isin, edit); err != nil {
		h.log.Warn("Mapping update rejected", zap.String("isin", isin), zap.Error(err))
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, messageResponse{Message: "mapping updated"})
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}
