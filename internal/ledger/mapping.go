package ledger

import (
	"fmt"

	"portfolio-tracker-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MappingService maintains the instrument mapping table: raw broker
// identifiers to market tickers. Calculation code only reads the mapping;
// all mutation happens here or through operator edits.
type MappingService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewMappingService creates a new MappingService.
func NewMappingService(db *gorm.DB, log *zap.Logger) *MappingService {
	return &MappingService{db: db, log: log}
}

// Sync inserts a mapping row with a blank ticker for every identifier seen in
// the ledger for the first time. Existing rows, including operator edits, are
// never overwritten.
func (s *MappingService) Sync(rows []Row) error {
	seen := make(map[string]Row, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.ISIN]; !ok {
			seen[row.ISIN] = row
		}
	}

	for isin, row := range seen {
		mapping := models.InstrumentMapping{
			ISIN:        isin,
			Ticker:      "", // to be filled in by an operator
			BrokerName:  row.BrokerName,
			DisplayName: row.BrokerName,
			Exchange:    row.Exchange,
		}
		if err := s.db.FirstOrCreate(&mapping, models.InstrumentMapping{ISIN: isin}).Error; err != nil {
			return fmt.Errorf("failed to sync mapping for %s: %w", isin, err)
		}
		if mapping.Ticker == "" {
			s.log.Warn("Instrument has no ticker mapping and will be excluded",
				zap.String("isin", isin),
				zap.String("broker_name", row.BrokerName))
		}
	}

	return nil
}

// Resolve returns the full mapping keyed by identifier.
func (s *MappingService) Resolve() (map[string]models.InstrumentMapping, error) {
	var mappings []models.InstrumentMapping
	if err := s.db.Find(&mappings).Error; err != nil {
		return nil, fmt.Errorf("failed to load instrument mappings: %w", err)
	}

	byISIN := make(map[string]models.InstrumentMapping, len(mappings))
	for _, m := range mappings {
		byISIN[m.ISIN] = m
	}
	return byISIN, nil
}

// All returns every mapping row.
func (s *MappingService) All() ([]models.InstrumentMapping, error) {
	var mappings []models.InstrumentMapping
	if err := s.db.Order("isin").Find(&mappings).Error; err != nil {
		return nil, fmt.Errorf("failed to load instrument mappings: %w", err)
	}
	return mappings, nil
}

// Update applies an operator edit to one mapping row. The reserved
// full-portfolio row cannot be edited.
func (s *MappingService) Update(isin string, edit models.InstrumentMapping) error {
	if isin == models.FullPortfolioISIN {
		return fmt.Errorf("mapping %s is reserved", isin)
	}

	var mapping models.InstrumentMapping
	if err := s.db.Where("isin = ?", isin).First(&mapping).Error; err != nil {
		return fmt.Errorf("mapping %s not found: %w", isin, err)
	}

	mapping.Ticker = edit.Ticker
	mapping.DisplayName = edit.DisplayName
	mapping.Exchange = edit.Exchange
	mapping.ProductType = edit.ProductType

	if err := s.db.Save(&mapping).Error; err != nil {
		return fmt.Errorf("failed to update mapping %s: %w", isin, err)
	}

	s.log.Info("Instrument mapping updated",
		zap.String("isin", isin),
		zap.String("ticker", mapping.Ticker))
	return nil
}
