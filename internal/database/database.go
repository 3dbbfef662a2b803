package database

import (
	"fmt"

	"portfolio-tracker-go/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase creates a new database connection and performs auto-migration.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the sink tables and seeds the reserved
// full-portfolio mapping row.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.PerformanceRecord{},
		&models.MonthlyPerformanceRecord{},
		&models.InstrumentPrice{},
		&models.InstrumentMapping{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// The aggregate row has a reserved identifier that must always resolve.
	full := models.InstrumentMapping{
		ISIN:        models.FullPortfolioISIN,
		Ticker:      models.FullPortfolioTicker,
		BrokerName:  models.FullPortfolioName,
		DisplayName: models.FullPortfolioName,
	}
	if err := db.FirstOrCreate(&full, models.InstrumentMapping{ISIN: models.FullPortfolioISIN}).Error; err != nil {
		return fmt.Errorf("failed to seed full portfolio mapping: %w", err)
	}

	return nil
}
