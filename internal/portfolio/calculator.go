// Package portfolio contains the performance calculation engine: the
// per-instrument calculator, the portfolio aggregator and the incremental
// materializer that drives them across trading days.
package portfolio

import (
	"math"
	"time"

	"portfolio-tracker-go/internal/models"
)

// round2 rounds a monetary value to two decimals. Rounding happens only at
// the record boundary, never during accumulation.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Calculate replays one instrument's transaction history and produces its
// performance record as of endDate. history must contain all of the
// instrument's transactions with date <= endDate; transactions before
// startDate establish the opening state. priceSeries maps "YYYY-MM-DD" to the
// closing price in the reporting currency; when endDate has no price the
// nearest earlier trading day within [startDate, endDate] is used, and with
// no price at all the unrealized return degrades to zero.
func Calculate(ticker, displayName string, history []models.Transaction, startDate, endDate time.Time, priceSeries map[string]float64) models.PerformanceRecord {
	// Average cost per unit, fees included, over every buy in the history.
	// Costs are recorded negative, so the sign flips to a positive unit cost.
	var buyCost float64
	var buyQty int
	for _, tx := range history {
		if tx.Action == models.ActionBuy {
			buyCost += tx.GrossCost
			buyQty += tx.Quantity
		}
	}
	avgCost := 0.0
	if buyQty > 0 {
		avgCost = -buyCost / float64(buyQty)
	}

	var (
		quantityHeld   int
		purchaseCost   float64
		realizedReturn float64
		feesTotal      float64
	)

	// Running totals of buys seen so far, for the average cost at sell time.
	var seenBuyCost float64
	var seenBuyQty int

	for _, tx := range history {
		if tx.Quantity == 0 {
			continue
		}
		txPrice := math.Abs(tx.GrossCost) / math.Abs(float64(tx.Quantity))

		switch tx.Action {
		case models.ActionBuy:
			purchaseCost += float64(tx.Quantity) * txPrice
			quantityHeld += tx.Quantity
			seenBuyCost += tx.GrossCost
			seenBuyQty += tx.Quantity
			// A fee reduces realized return the moment it is paid.
			realizedReturn += tx.TransactionCost
			feesTotal += -tx.TransactionCost

		case models.ActionSell:
			if quantityHeld <= 0 {
				continue
			}
			avgCostSoFar := 0.0
			if seenBuyQty > 0 {
				avgCostSoFar = -seenBuyCost / float64(seenBuyQty)
			}
			sold := int(math.Abs(float64(tx.Quantity)))
			quantityHeld -= sold
			realizedReturn += float64(sold)*(txPrice-avgCostSoFar) + tx.TransactionCost
			feesTotal += -tx.TransactionCost
		}
	}

	// Mark remaining holdings to the latest available trading day.
	unrealizedReturn := 0.0
	if quantityHeld > 0 {
		price := priceAt(priceSeries, startDate, endDate)
		unrealizedReturn = float64(quantityHeld)*price - float64(quantityHeld)*avgCost
	}

	costBasis := float64(quantityHeld) * avgCost
	netReturn := unrealizedReturn + realizedReturn
	currentValue := costBasis + unrealizedReturn

	// Undefined ratios degrade to 0 rather than dividing by zero.
	currentPct := 0.0
	if costBasis != 0 && unrealizedReturn != 0 {
		currentPct = unrealizedReturn / costBasis * 100
	}
	netPct := 0.0
	if purchaseCost != 0 {
		netPct = netReturn / purchaseCost * 100
	}

	return models.PerformanceRecord{
		Ticker:                ticker,
		DisplayName:           displayName,
		Quantity:              quantityHeld,
		StartDate:             startDate.Format(models.DateFormat),
		EndDate:               endDate.Format(models.DateFormat),
		AvgCost:               round2(avgCost),
		CostBasis:             round2(costBasis),
		TotalCost:             round2(purchaseCost),
		TransactionCosts:      round2(feesTotal),
		CurrentValue:          round2(currentValue),
		UnrealizedReturn:      round2(unrealizedReturn),
		RealizedReturn:        round2(realizedReturn),
		NetReturn:             round2(netReturn),
		CurrentPerformancePct: round2(currentPct),
		NetPerformancePct:     round2(netPct),
	}
}

// priceAt resolves the effective price for endDate: the price of the latest
// trading day within [startDate, endDate] present in the series, or 0 when
// the series has no usable day at all.
func priceAt(priceSeries map[string]float64, startDate, endDate time.Time) float64 {
	start := startDate.Format(models.DateFormat)
	end := endDate.Format(models.DateFormat)

	best := ""
	for date := range priceSeries {
		if date < start || date > end {
			continue
		}
		if date > best {
			best = date
		}
	}
	if best == "" {
		return 0
	}
	return priceSeries[best]
}
