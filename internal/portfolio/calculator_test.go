package portfolio

import (
	"testing"
	"time"

	"portfolio-tracker-go/internal/models"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse(models.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func buy(date string, qty int, grossCost, fee float64) models.Transaction {
	return models.Transaction{
		Date:            day(date),
		Time:            "09:00",
		Ticker:          "AAA",
		Action:          models.ActionBuy,
		Quantity:        qty,
		GrossCost:       grossCost,
		TransactionCost: fee,
	}
}

func sell(date string, qty int, grossProceeds, fee float64) models.Transaction {
	return models.Transaction{
		Date:            day(date),
		Time:            "15:00",
		Ticker:          "AAA",
		Action:          models.ActionSell,
		Quantity:        -qty,
		GrossCost:       grossProceeds,
		TransactionCost: fee,
	}
}

func TestCalculate_SingleBuy(t *testing.T) {
	// 10 units for a gross cost of 101 (1 of which is the fee), priced at
	// 120 on the end date.
	history := []models.Transaction{buy("2024-01-01", 10, -101, -1)}
	prices := map[string]float64{"2024-01-05": 120}

	rec := Calculate("AAA", "Acme", history, day("2024-01-01"), day("2024-01-05"), prices)

	assert.Equal(t, 10, rec.Quantity)
	assert.Equal(t, 10.1, rec.AvgCost)
	assert.Equal(t, 101.0, rec.CostBasis)
	assert.Equal(t, 101.0, rec.TotalCost)
	assert.Equal(t, 1.0, rec.TransactionCosts)
	assert.Equal(t, 1099.0, rec.UnrealizedReturn)
	assert.Equal(t, 1200.0, rec.CurrentValue)
	assert.Equal(t, 1088.12, rec.CurrentPerformancePct)
	// The buy fee already reduced realized return.
	assert.Equal(t, -1.0, rec.RealizedReturn)
	assert.Equal(t, 1098.0, rec.NetReturn)
	assert.Equal(t, 1087.13, rec.NetPerformancePct)
}

func TestCalculate_BuyThenPartialSell(t *testing.T) {
	history := []models.Transaction{
		buy("2024-01-01", 10, -101, -1),
		sell("2024-01-08", 5, 650, -1), // 5 units at 130
	}
	prices := map[string]float64{"2024-01-08": 130}

	rec := Calculate("AAA", "Acme", history, day("2024-01-01"), day("2024-01-08"), prices)

	assert.Equal(t, 5, rec.Quantity)
	// Sell leg realizes 5*(130-10.1)-1 = 598.5 on top of the -1 buy fee.
	assert.Equal(t, 597.5, rec.RealizedReturn)
	assert.Equal(t, 2.0, rec.TransactionCosts)
	assert.Equal(t, 10.1, rec.AvgCost)
	assert.Equal(t, 50.5, rec.CostBasis)
	// Remaining 5 units marked at 130.
	assert.Equal(t, 599.5, rec.UnrealizedReturn)
}

func TestCalculate_FullyExitedPosition(t *testing.T) {
	history := []models.Transaction{
		buy("2024-01-01", 10, -101, -1),
		sell("2024-01-08", 10, 1300, -1),
	}
	prices := map[string]float64{"2024-01-08": 130}

	rec := Calculate("AAA", "Acme", history, day("2024-01-01"), day("2024-01-10"), prices)

	assert.Equal(t, 0, rec.Quantity)
	assert.Equal(t, 0.0, rec.UnrealizedReturn)
	assert.Equal(t, 0.0, rec.CostBasis)
	assert.Equal(t, 0.0, rec.CurrentValue)
	// Realized profit survives the exit: -1 + 10*(130-10.1) - 1.
	assert.Equal(t, 1197.0, rec.RealizedReturn)
	assert.Equal(t, 1197.0, rec.NetReturn)
	assert.Equal(t, 0.0, rec.CurrentPerformancePct)
}

func TestCalculate_PriceFallbackToEarlierTradingDay(t *testing.T) {
	history := []models.Transaction{buy("2024-01-01", 10, -101, -1)}
	// End date has no price; the latest earlier trading day must be used.
	prices := map[string]float64{
		"2024-01-03": 11,
		"2024-01-04": 12,
	}

	rec := Calculate("AAA", "Acme", history, day("2024-01-01"), day("2024-01-07"), prices)

	assert.Equal(t, round2(10*(12-10.1)), rec.UnrealizedReturn)
}

func TestCalculate_NoUsablePriceDegradesToZero(t *testing.T) {
	history := []models.Transaction{buy("2024-01-05", 10, -101, -1)}
	// The only price predates the reporting window.
	prices := map[string]float64{"2023-12-29": 50}

	rec := Calculate("AAA", "Acme", history, day("2024-01-01"), day("2024-01-08"), prices)

	// Price degrades to zero, so the position marks to -cost.
	assert.Equal(t, -101.0, rec.UnrealizedReturn)
	assert.Equal(t, 0.0, rec.CurrentValue)
}

func TestCalculate_EmptyHistoryHasNoRatios(t *testing.T) {
	rec := Calculate("AAA", "Acme", nil, day("2024-01-01"), day("2024-01-05"), nil)

	assert.Equal(t, 0, rec.Quantity)
	assert.Equal(t, 0.0, rec.AvgCost)
	assert.Equal(t, 0.0, rec.CurrentPerformancePct)
	assert.Equal(t, 0.0, rec.NetPerformancePct)
}

func TestCalculate_OnlyBuysFlatPriceMatchesNetAndCurrentPct(t *testing.T) {
	// Fee-free buys at 10 with a flat price of 12.
	history := []models.Transaction{
		buy("2024-01-01", 10, -100, 0),
		buy("2024-01-03", 10, -100, 0),
	}
	prices := map[string]float64{
		"2024-01-01": 12,
		"2024-01-03": 12,
		"2024-01-05": 12,
	}

	rec := Calculate("AAA", "Acme", history, day("2024-01-01"), day("2024-01-05"), prices)

	assert.Equal(t, rec.CurrentPerformancePct, rec.NetPerformancePct)
	assert.Equal(t, 20.0, rec.NetPerformancePct)
}

func TestCalculate_TotalCostIsMonotonic(t *testing.T) {
	history := []models.Transaction{
		buy("2024-01-01", 10, -101, -1),
		sell("2024-01-03", 5, 650, -1),
		buy("2024-01-05", 5, -60, 0),
	}
	prices := map[string]float64{
		"2024-01-02": 10, "2024-01-03": 10, "2024-01-04": 10,
		"2024-01-05": 10, "2024-01-08": 10,
	}

	prev := 0.0
	for _, end := range []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-08"} {
		var upTo []models.Transaction
		for _, tx := range history {
			if !tx.Date.After(day(end)) {
				upTo = append(upTo, tx)
			}
		}
		rec := Calculate("AAA", "Acme", upTo, day("2024-01-01"), day(end), prices)
		assert.GreaterOrEqual(t, rec.TotalCost, prev, "total cost must never decrease (end %s)", end)
		prev = rec.TotalCost
	}
}
