package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockHistoryClient is a mock implementation of the HistoryClient interface.
type MockHistoryClient struct {
	mock.Mock
}

func (m *MockHistoryClient) GetDailyHistory(ctx context.Context, symbol string, start, end time.Time) (map[string]float64, error) {
	args := m.Called(symbol, start, end)
	return args.Get(0).(map[string]float64), args.Error(1)
}

var (
	spanStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	spanEnd   = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
)

func TestFetchPrices_NormalizesForeignCurrency(t *testing.T) {
	client := new(MockHistoryClient)
	client.On("GetDailyHistory", "AAPL", spanStart, spanEnd).
		Return(map[string]float64{"2024-01-02": 100, "2024-01-03": 110}, nil)
	client.On("GetDailyHistory", "USDEUR=X", spanStart, spanEnd).
		Return(map[string]float64{"2024-01-02": 0.9}, nil)

	svc := NewService(client, "EUR", zap.NewNop())

	data, err := svc.FetchPrices(context.Background(), map[string]string{"AAPL": "USD"}, spanStart, spanEnd)

	assert.NoError(t, err)
	assert.Equal(t, 90.0, data.Prices["AAPL"]["2024-01-02"])
	// A date with no FX rate keeps the raw price, equivalent to a rate of 1.
	assert.Equal(t, 110.0, data.Prices["AAPL"]["2024-01-03"])
	assert.Equal(t, 0.9, data.FXRates["USD"]["2024-01-02"])
	client.AssertExpectations(t)
}

func TestFetchPrices_ReportingCurrencyNeedsNoFX(t *testing.T) {
	client := new(MockHistoryClient)
	client.On("GetDailyHistory", "VWRL.AS", spanStart, spanEnd).
		Return(map[string]float64{"2024-01-02": 101.5}, nil)

	svc := NewService(client, "EUR", zap.NewNop())

	data, err := svc.FetchPrices(context.Background(), map[string]string{"VWRL.AS": "EUR"}, spanStart, spanEnd)

	assert.NoError(t, err)
	assert.Equal(t, 101.5, data.Prices["VWRL.AS"]["2024-01-02"])
	assert.Empty(t, data.FXRates)
	client.AssertNumberOfCalls(t, "GetDailyHistory", 1)
}

func TestFetchPrices_OneFXSeriesPerCurrency(t *testing.T) {
	client := new(MockHistoryClient)
	client.On("GetDailyHistory", "AAPL", spanStart, spanEnd).
		Return(map[string]float64{"2024-01-02": 100}, nil)
	client.On("GetDailyHistory", "MSFT", spanStart, spanEnd).
		Return(map[string]float64{"2024-01-02": 200}, nil)
	client.On("GetDailyHistory", "USDEUR=X", spanStart, spanEnd).
		Return(map[string]float64{"2024-01-02": 0.9}, nil).Once()

	svc := NewService(client, "EUR", zap.NewNop())

	data, err := svc.FetchPrices(context.Background(),
		map[string]string{"AAPL": "USD", "MSFT": "USD"}, spanStart, spanEnd)

	assert.NoError(t, err)
	assert.Equal(t, 90.0, data.Prices["AAPL"]["2024-01-02"])
	assert.Equal(t, 180.0, data.Prices["MSFT"]["2024-01-02"])
	client.AssertExpectations(t)
}

func TestFetchPrices_TickerFailureDegradesToEmptySeries(t *testing.T) {
	client := new(MockHistoryClient)
	client.On("GetDailyHistory", "BROKEN", spanStart, spanEnd).
		Return(map[string]float64(nil), errors.New("symbol not found"))
	client.On("GetDailyHistory", "VWRL.AS", spanStart, spanEnd).
		Return(map[string]float64{"2024-01-02": 101.5}, nil)

	svc := NewService(client, "EUR", zap.NewNop())

	data, err := svc.FetchPrices(context.Background(),
		map[string]string{"BROKEN": "EUR", "VWRL.AS": "EUR"}, spanStart, spanEnd)

	assert.NoError(t, err)
	assert.Empty(t, data.Prices["BROKEN"])
	assert.NotEmpty(t, data.Prices["VWRL.AS"])
}

func TestFetchPrices_FXFailureFallsBackToRateOne(t *testing.T) {
	client := new(MockHistoryClient)
	client.On("GetDailyHistory", "AAPL", spanStart, spanEnd).
		Return(map[string]float64{"2024-01-02": 100}, nil)
	client.On("GetDailyHistory", "USDEUR=X", spanStart, spanEnd).
		Return(map[string]float64(nil), errors.New("fx unavailable"))

	svc := NewService(client, "EUR", zap.NewNop())

	data, err := svc.FetchPrices(context.Background(), map[string]string{"AAPL": "USD"}, spanStart, spanEnd)

	assert.NoError(t, err)
	assert.Equal(t, 100.0, data.Prices["AAPL"]["2024-01-02"])
}

func TestFXSymbol(t *testing.T) {
	assert.Equal(t, "USDEUR=X", FXSymbol("USD", "EUR"))
	assert.Equal(t, "GBPEUR=X", FXSymbol("GBP", "EUR"))
}

func TestCurrencyPair(t *testing.T) {
	assert.Equal(t, "USD-EUR", CurrencyPair("USD", "EUR"))
	assert.Equal(t, "EUR-EUR", CurrencyPair("EUR", "EUR"))
	assert.Equal(t, "EUR-EUR", CurrencyPair("", "EUR"))
}
