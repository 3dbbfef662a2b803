package portfolio

import (
	"context"
	"fmt"
	"sort"
	"time"

	"portfolio-tracker-go/internal/marketdata"
	"portfolio-tracker-go/internal/models"

	"go.uber.org/zap"
)

// LedgerLoader supplies the cleaned, chronologically ordered transaction
// history.
type LedgerLoader interface {
	Load() ([]models.Transaction, error)
}

// PriceFetcher performs the bulk price and FX acquisition for a run.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, tickerCurrencies map[string]string, start, end time.Time) (*marketdata.PriceData, error)
}

// Materializer produces the dense trading-day history of performance records
// for every instrument plus the full-portfolio aggregate, recomputing only
// the days that are missing or fall inside the correction window.
type Materializer struct {
	logger            *zap.Logger
	ledger            LedgerLoader
	fetcher           PriceFetcher
	repo              *Repository
	reportingCurrency string
	correctionWindow  int
	lookbackDays      int

	now  func() time.Time
	calc func(ticker, displayName string, history []models.Transaction, startDate, endDate time.Time, priceSeries map[string]float64) models.PerformanceRecord
}

// NewMaterializer creates a new Materializer. correctionWindow is the number
// of most recent cached end dates that are unconditionally recomputed on
// every run, because end-of-day prices for very recent days may still be
// provisional.
func NewMaterializer(logger *zap.Logger, ledger LedgerLoader, fetcher PriceFetcher, repo *Repository, reportingCurrency string, correctionWindow, lookbackDays int) *Materializer {
	return &Materializer{
		logger:            logger,
		ledger:            ledger,
		fetcher:           fetcher,
		repo:              repo,
		reportingCurrency: reportingCurrency,
		correctionWindow:  correctionWindow,
		lookbackDays:      lookbackDays,
		now:               time.Now,
		calc:              Calculate,
	}
}

// Run executes one full materialization. Price provider failures degrade to
// missing prices and per-date computation failures skip the date; only sink
// and ledger read/write failures abort the run.
func (m *Materializer) Run(ctx context.Context) error {
	started := m.now()

	transactions, err := m.ledger.Load()
	if err != nil {
		return fmt.Errorf("could not load transaction ledger: %w", err)
	}
	if len(transactions) == 0 {
		m.logger.Warn("No transactions found, skipping portfolio calculation")
		return nil
	}

	startDate := transactions[0].Date
	for _, tx := range transactions {
		if tx.Date.Before(startDate) {
			startDate = tx.Date
		}
	}
	today := dayOf(m.now())

	cached, err := m.repo.LoadDaily()
	if err != nil {
		return err
	}
	kept, evictedDates := splitCorrectionWindow(cached, m.correctionWindow)

	cachedDates := make(map[string]bool, len(kept))
	for _, rec := range kept {
		cachedDates[rec.EndDate] = true
	}

	tickerCurrencies := make(map[string]string)
	displayNames := make(map[string]string)
	for _, tx := range transactions {
		if _, ok := tickerCurrencies[tx.Ticker]; !ok {
			tickerCurrencies[tx.Ticker] = tx.Currency
		}
		displayNames[tx.Ticker] = tx.DisplayName
	}

	m.logger.Info("Starting portfolio materialization",
		zap.String("from", startDate.Format(models.DateFormat)),
		zap.String("to", today.Format(models.DateFormat)),
		zap.Int("instruments", len(tickerCurrencies)),
		zap.Strings("evicted_dates", evictedDates))

	prices, priceRows, err := m.acquirePrices(ctx, tickerCurrencies, startDate, today)
	if err != nil {
		return err
	}

	var newRecords []models.PerformanceRecord
	for d := startDate.AddDate(0, 0, 1); !d.After(today); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		endDate := d.Format(models.DateFormat)
		if cachedDates[endDate] {
			continue
		}

		records, err := m.computeDate(transactions, displayNames, prices, startDate, d)
		if err != nil {
			m.logger.Warn("Failed to compute records for date, skipping",
				zap.String("end_date", endDate),
				zap.Error(err))
			continue
		}
		if records == nil {
			continue // no instrument active yet on this date
		}
		newRecords = append(newRecords, records...)
	}

	if err := m.repo.SaveRun(newRecords, evictedDates, priceRows); err != nil {
		return err
	}

	m.logger.Info("Portfolio materialization complete",
		zap.Int("new_records", len(newRecords)),
		zap.Duration("elapsed", m.now().Sub(started)))
	return nil
}

// acquirePrices merges the persisted price table with a fresh bulk fetch.
// With an empty price table the full span is fetched, otherwise only the
// trailing lookback window; the correction window is always inside it.
func (m *Materializer) acquirePrices(ctx context.Context, tickerCurrencies map[string]string, startDate, today time.Time) (map[string]map[string]float64, []models.InstrumentPrice, error) {
	stored, err := m.repo.LoadPrices()
	if err != nil {
		return nil, nil, err
	}

	fetchStart := startDate
	if len(stored) > 0 {
		fetchStart = today.AddDate(0, 0, -m.lookbackDays)
		if fetchStart.Before(startDate) {
			fetchStart = startDate
		}
	}

	fresh, err := m.fetcher.FetchPrices(ctx, tickerCurrencies, fetchStart, today.AddDate(0, 0, 1))
	if err != nil {
		// Data acquisition never aborts the run; cached prices still allow
		// recomputing historical dates.
		m.logger.Warn("Bulk price fetch failed, continuing with stored prices only", zap.Error(err))
		fresh = &marketdata.PriceData{
			Prices:  map[string]map[string]float64{},
			FXRates: map[string]map[string]float64{},
		}
	}

	rowByKey := make(map[string]models.InstrumentPrice, len(stored))
	prices := make(map[string]map[string]float64)
	for _, row := range stored {
		rowByKey[row.Ticker+"|"+row.Date] = row
		if prices[row.Ticker] == nil {
			prices[row.Ticker] = make(map[string]float64)
		}
		prices[row.Ticker][row.Date] = row.Price
	}

	for ticker, series := range fresh.Prices {
		currency := tickerCurrencies[ticker]
		pair := marketdata.CurrencyPair(currency, m.reportingCurrency)
		if prices[ticker] == nil {
			prices[ticker] = make(map[string]float64)
		}
		for date, price := range series {
			prices[ticker][date] = price

			fxRate := 1.0
			if currency != m.reportingCurrency {
				if rate, ok := fresh.FXRates[currency][date]; ok {
					fxRate = rate
				}
			}
			rowByKey[ticker+"|"+date] = models.InstrumentPrice{
				Ticker:       ticker,
				Date:         date,
				Price:        price,
				FXRate:       fxRate,
				CurrencyPair: pair,
			}
		}
	}

	priceRows := make([]models.InstrumentPrice, 0, len(rowByKey))
	for _, row := range rowByKey {
		priceRows = append(priceRows, row)
	}
	sort.Slice(priceRows, func(i, j int) bool {
		if priceRows[i].Ticker != priceRows[j].Ticker {
			return priceRows[i].Ticker < priceRows[j].Ticker
		}
		return priceRows[i].Date < priceRows[j].Date
	})

	return prices, priceRows, nil
}

// computeDate runs the calculator for every instrument active as of endDate
// and appends the full-portfolio aggregate. It returns nil records when no
// instrument has a transaction on or before the date. A panic during the
// computation of one date is caught and reported as that date's error, so a
// single bad date cannot abort the whole run.
func (m *Materializer) computeDate(transactions []models.Transaction, displayNames map[string]string, prices map[string]map[string]float64, startDate, endDate time.Time) (records []models.PerformanceRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("computation panicked: %v", r)
		}
	}()

	histories := make(map[string][]models.Transaction)
	for _, tx := range transactions {
		if tx.Date.After(endDate) {
			continue
		}
		histories[tx.Ticker] = append(histories[tx.Ticker], tx)
	}
	if len(histories) == 0 {
		return nil, nil
	}

	byTicker := make(map[string]models.PerformanceRecord, len(histories))
	for ticker, history := range histories {
		byTicker[ticker] = m.calc(ticker, displayNames[ticker], history, startDate, endDate, prices[ticker])
	}

	start := startDate.Format(models.DateFormat)
	end := endDate.Format(models.DateFormat)
	full := Aggregate(byTicker, start, end)

	tickers := make([]string, 0, len(byTicker))
	for ticker := range byTicker {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	records = make([]models.PerformanceRecord, 0, len(byTicker)+1)
	for _, ticker := range tickers {
		records = append(records, byTicker[ticker])
	}
	records = append(records, full)
	return records, nil
}

// splitCorrectionWindow removes the most recent `window` distinct end dates
// from the cached records; those days are recomputed because their prices
// may not have been final when last calculated.
func splitCorrectionWindow(cached []models.PerformanceRecord, window int) ([]models.PerformanceRecord, []string) {
	if window <= 0 || len(cached) == 0 {
		return cached, nil
	}

	distinct := make(map[string]bool)
	for _, rec := range cached {
		distinct[rec.EndDate] = true
	}
	dates := make([]string, 0, len(distinct))
	for date := range distinct {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	if window > len(dates) {
		window = len(dates)
	}
	evicted := dates[len(dates)-window:]
	evictedSet := make(map[string]bool, len(evicted))
	for _, date := range evicted {
		evictedSet[date] = true
	}

	kept := make([]models.PerformanceRecord, 0, len(cached))
	for _, rec := range cached {
		if !evictedSet[rec.EndDate] {
			kept = append(kept, rec)
		}
	}
	return kept, evicted
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
