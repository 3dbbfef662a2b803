// Package marketdata fetches daily closing prices and FX rates and normalizes
// instrument prices into the reporting currency.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PriceData is the result of one bulk fetch: per-ticker daily price series
// normalized to the reporting currency, plus the raw FX series per foreign
// currency used for the normalization.
type PriceData struct {
	// Prices maps ticker -> date -> price in the reporting currency.
	Prices map[string]map[string]float64
	// FXRates maps currency -> date -> rate into the reporting currency.
	FXRates map[string]map[string]float64
}

// Service performs the bulk price and FX acquisition for a materializer run.
type Service struct {
	client            HistoryClient
	reportingCurrency string
	logger            *zap.Logger
}

// NewService creates a new market data Service.
func NewService(client HistoryClient, reportingCurrency string, logger *zap.Logger) *Service {
	return &Service{
		client:            client,
		reportingCurrency: reportingCurrency,
		logger:            logger,
	}
}

// FetchPrices fetches daily price history for every ticker and the FX series
// for every foreign currency over [start, end], and converts foreign prices
// into the reporting currency. A date with no FX rate keeps a rate of 1; that
// is a documented approximation, not a silent failure. A provider failure for
// one ticker degrades to an empty series so the run can continue.
func (s *Service) FetchPrices(ctx context.Context, tickerCurrencies map[string]string, start, end time.Time) (*PriceData, error) {
	data := &PriceData{
		Prices:  make(map[string]map[string]float64, len(tickerCurrencies)),
		FXRates: make(map[string]map[string]float64),
	}

	for ticker := range tickerCurrencies {
		prices, err := s.client.GetDailyHistory(ctx, ticker, start, end)
		if err != nil {
			s.logger.Warn("Price fetch failed, instrument will have no fresh prices",
				zap.String("ticker", ticker),
				zap.Error(err))
			data.Prices[ticker] = map[string]float64{}
			continue
		}
		data.Prices[ticker] = prices
	}

	// One FX series per foreign currency, not per instrument.
	for _, currency := range tickerCurrencies {
		if currency == s.reportingCurrency {
			continue
		}
		if _, done := data.FXRates[currency]; done {
			continue
		}

		rates, err := s.client.GetDailyHistory(ctx, FXSymbol(currency, s.reportingCurrency), start, end)
		if err != nil {
			s.logger.Warn("FX fetch failed, prices in this currency fall back to rate 1",
				zap.String("currency", currency),
				zap.Error(err))
			rates = map[string]float64{}
		}
		data.FXRates[currency] = rates
	}

	// Normalize foreign-currency prices to the reporting currency.
	for ticker, currency := range tickerCurrencies {
		if currency == s.reportingCurrency {
			continue
		}
		rates := data.FXRates[currency]
		for date, price := range data.Prices[ticker] {
			rate, ok := rates[date]
			if !ok {
				rate = 1
			}
			data.Prices[ticker][date] = price * rate
		}
	}

	return data, nil
}

// ReportingCurrency returns the currency all prices are normalized into.
func (s *Service) ReportingCurrency() string {
	return s.reportingCurrency
}

// FXSymbol builds the provider symbol for a currency pair, e.g. "USDEUR=X".
func FXSymbol(from, to string) string {
	return fmt.Sprintf("%s%s=X", from, to)
}

// CurrencyPair is the pair label recorded alongside stored prices,
// e.g. "USD-EUR", or "EUR-EUR" for instruments already in the reporting
// currency.
func CurrencyPair(currency, reporting string) string {
	if currency == "" {
		currency = reporting
	}
	return fmt.Sprintf("%s-%s", currency, reporting)
}
