package portfolio

import (
	"testing"

	"portfolio-tracker-go/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAggregate_SumsAdditiveFields(t *testing.T) {
	records := map[string]models.PerformanceRecord{
		"AAA": {
			Ticker: "AAA", Quantity: 10, TotalCost: 101, CostBasis: 101,
			TransactionCosts: 1, CurrentValue: 1200, UnrealizedReturn: 1099,
			RealizedReturn: -1, NetReturn: 1098,
		},
		"BBB": {
			Ticker: "BBB", Quantity: 5, TotalCost: 50, CostBasis: 50,
			TransactionCosts: 0.5, CurrentValue: 45, UnrealizedReturn: -5,
			RealizedReturn: 2, NetReturn: -3,
		},
	}

	full := Aggregate(records, "2024-01-01", "2024-01-05")

	assert.Equal(t, models.FullPortfolioTicker, full.Ticker)
	assert.Equal(t, models.FullPortfolioName, full.DisplayName)
	assert.Equal(t, 15, full.Quantity)
	assert.Equal(t, 151.0, full.TotalCost)
	assert.Equal(t, 151.0, full.CostBasis)
	assert.Equal(t, 1.5, full.TransactionCosts)
	assert.Equal(t, 1245.0, full.CurrentValue)
	assert.Equal(t, 1094.0, full.UnrealizedReturn)
	assert.Equal(t, 1.0, full.RealizedReturn)
	assert.Equal(t, 1095.0, full.NetReturn)
	assert.Equal(t, "2024-01-01", full.StartDate)
	assert.Equal(t, "2024-01-05", full.EndDate)
}

func TestAggregate_PercentagesRecomputedFromSums(t *testing.T) {
	records := map[string]models.PerformanceRecord{
		"AAA": {Quantity: 10, TotalCost: 100, CostBasis: 100, UnrealizedReturn: 50, NetReturn: 50, CurrentPerformancePct: 50},
		"BBB": {Quantity: 10, TotalCost: 100, CostBasis: 100, UnrealizedReturn: -50, NetReturn: -50, CurrentPerformancePct: -50},
	}

	full := Aggregate(records, "2024-01-01", "2024-01-05")

	// Summed unrealized is 0, so the ratio is 0 - not the average of ±50.
	assert.Equal(t, 0.0, full.CurrentPerformancePct)
	assert.Equal(t, 0.0, full.NetPerformancePct)
	assert.Equal(t, 10.0, full.AvgCost)
}

func TestAggregate_EmptyPortfolio(t *testing.T) {
	full := Aggregate(nil, "2024-01-01", "2024-01-05")

	assert.Equal(t, 0, full.Quantity)
	assert.Equal(t, 0.0, full.AvgCost)
	assert.Equal(t, 0.0, full.CurrentPerformancePct)
	assert.Equal(t, 0.0, full.NetPerformancePct)
}
