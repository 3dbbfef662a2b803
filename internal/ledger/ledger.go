// Package ledger loads the broker transaction export and resolves raw
// instrument identifiers to market tickers through the mapping table.
package ledger

import (
	"sort"

	"portfolio-tracker-go/internal/models"

	"go.uber.org/zap"
)

// Service produces the cleaned, chronologically ordered transaction history.
type Service struct {
	path    string
	mapping *MappingService
	log     *zap.Logger
}

// NewService creates a new ledger Service reading from the given export file.
func NewService(path string, mapping *MappingService, log *zap.Logger) *Service {
	return &Service{path: path, mapping: mapping, log: log}
}

// Load parses the export, syncs newly seen identifiers into the mapping
// table, applies the mapping and returns the transactions sorted by
// (date, time). Rows whose identifier has no ticker yet are excluded.
func (s *Service) Load() ([]models.Transaction, error) {
	rows, err := ParseCSV(s.path, s.log)
	if err != nil {
		return nil, err
	}

	if err := s.mapping.Sync(rows); err != nil {
		return nil, err
	}

	byISIN, err := s.mapping.Resolve()
	if err != nil {
		return nil, err
	}

	transactions := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		mapping, ok := byISIN[row.ISIN]
		if !ok || mapping.Ticker == "" {
			continue // unmapped instruments are excluded, not an error
		}

		action := models.ActionSell
		if row.Quantity > 0 {
			action = models.ActionBuy
		}

		transactions = append(transactions, models.Transaction{
			Date:            row.Date,
			Time:            row.Time,
			ISIN:            row.ISIN,
			Ticker:          mapping.Ticker,
			DisplayName:     mapping.DisplayName,
			Exchange:        row.Exchange,
			Action:          action,
			Quantity:        row.Quantity,
			UnitPrice:       row.UnitPrice,
			Currency:        row.Currency,
			GrossCost:       row.GrossCost,
			TransactionCost: row.TransactionCost,
		})
	}

	sort.SliceStable(transactions, func(i, j int) bool {
		if !transactions[i].Date.Equal(transactions[j].Date) {
			return transactions[i].Date.Before(transactions[j].Date)
		}
		return transactions[i].Time < transactions[j].Time
	})

	s.log.Info("Ledger loaded",
		zap.Int("rows", len(rows)),
		zap.Int("transactions", len(transactions)))

	return transactions, nil
}
