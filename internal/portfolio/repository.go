package portfolio

import (
	"fmt"
	"sort"

	"portfolio-tracker-go/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the persistence sink for performance records and prices.
// The whole table is treated as a single versioned artifact: read once at job
// start, written once at job end, last writer wins.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LoadDaily returns the entire daily performance table.
func (r *Repository) LoadDaily() ([]models.PerformanceRecord, error) {
	var records []models.PerformanceRecord
	if err := r.db.Order("end_date, ticker").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load performance records: %w", err)
	}
	return records, nil
}

// SaveRun persists the result of one materializer run: evicted correction
// window dates are removed, newly computed records and their price rows
// upserted and the monthly projection rebuilt, all in a single transaction so
// a failure leaves the prior state untouched.
func (r *Repository) SaveRun(records []models.PerformanceRecord, evictedDates []string, prices []models.InstrumentPrice) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if len(evictedDates) > 0 {
			if err := tx.Where("end_date IN ?", evictedDates).Delete(&models.PerformanceRecord{}).Error; err != nil {
				return fmt.Errorf("failed to evict correction window: %w", err)
			}
		}

		if len(records) > 0 {
			err := tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(records, 200).Error
			if err != nil {
				return fmt.Errorf("failed to upsert performance records: %w", err)
			}
		}

		if len(prices) > 0 {
			err := tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(prices, 500).Error
			if err != nil {
				return fmt.Errorf("failed to upsert instrument prices: %w", err)
			}
		}

		return rebuildMonthly(tx)
	})
	if err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}
	return nil
}

// rebuildMonthly replaces the monthly projection with the first available
// daily record of each (ticker, calendar month).
func rebuildMonthly(tx *gorm.DB) error {
	var daily []models.PerformanceRecord
	if err := tx.Order("ticker, end_date").Find(&daily).Error; err != nil {
		return fmt.Errorf("failed to read daily records for monthly projection: %w", err)
	}

	type monthKey struct {
		Ticker string
		Month  string
	}
	firstOfMonth := make(map[monthKey]models.PerformanceRecord)
	var order []monthKey
	for _, rec := range daily {
		if len(rec.EndDate) < 7 {
			continue
		}
		key := monthKey{Ticker: rec.Ticker, Month: rec.EndDate[:7]}
		if existing, ok := firstOfMonth[key]; !ok || rec.EndDate < existing.EndDate {
			if !ok {
				order = append(order, key)
			}
			firstOfMonth[key] = rec
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].Ticker != order[j].Ticker {
			return order[i].Ticker < order[j].Ticker
		}
		return order[i].Month < order[j].Month
	})

	monthly := make([]models.MonthlyPerformanceRecord, 0, len(order))
	for _, key := range order {
		monthly = append(monthly, models.MonthlyPerformanceRecord{PerformanceRecord: firstOfMonth[key]})
	}

	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.MonthlyPerformanceRecord{}).Error; err != nil {
		return fmt.Errorf("failed to clear monthly projection: %w", err)
	}
	if len(monthly) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(monthly, 200).Error; err != nil {
		return fmt.Errorf("failed to write monthly projection: %w", err)
	}
	return nil
}

// LoadPrices returns the entire price table.
func (r *Repository) LoadPrices() ([]models.InstrumentPrice, error) {
	var prices []models.InstrumentPrice
	if err := r.db.Order("ticker, date").Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("failed to load instrument prices: %w", err)
	}
	return prices, nil
}

// QueryDaily returns daily records, optionally filtered by instrument subset
// and date range.
func (r *Repository) QueryDaily(tickers []string, from, to string) ([]models.PerformanceRecord, error) {
	query := r.db.Order("end_date, ticker")
	if len(tickers) > 0 {
		query = query.Where("ticker IN ?", tickers)
	}
	if from != "" {
		query = query.Where("end_date >= ?", from)
	}
	if to != "" {
		query = query.Where("end_date <= ?", to)
	}

	var records []models.PerformanceRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query performance records: %w", err)
	}
	return records, nil
}

// QueryMonthly returns the monthly projection.
func (r *Repository) QueryMonthly() ([]models.MonthlyPerformanceRecord, error) {
	var records []models.MonthlyPerformanceRecord
	if err := r.db.Order("end_date, ticker").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query monthly records: %w", err)
	}
	return records, nil
}

// PricesFor returns the stored price series for one instrument.
func (r *Repository) PricesFor(ticker string) ([]models.InstrumentPrice, error) {
	var prices []models.InstrumentPrice
	if err := r.db.Where("ticker = ?", ticker).Order("date").Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("failed to query prices for %s: %w", ticker, err)
	}
	return prices, nil
}

// Wipe deletes all persisted output. The next run recomputes everything from
// the first transaction date.
func (r *Repository) Wipe() error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		session := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := session.Delete(&models.PerformanceRecord{}).Error; err != nil {
			return err
		}
		if err := session.Delete(&models.MonthlyPerformanceRecord{}).Error; err != nil {
			return err
		}
		return session.Delete(&models.InstrumentPrice{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to wipe persisted output: %w", err)
	}
	return nil
}
