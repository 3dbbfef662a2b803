package portfolio

import (
	"portfolio-tracker-go/internal/models"
)

// Aggregate reduces all per-instrument records for one end date into the
// synthetic full-portfolio record. Additive fields are summed; percentages
// are recomputed from the summed figures, never averaged. It must run only
// after every instrument record for the date exists.
func Aggregate(records map[string]models.PerformanceRecord, startDate, endDate string) models.PerformanceRecord {
	var (
		quantity         int
		totalCost        float64
		costBasis        float64
		transactionCosts float64
		currentValue     float64
		unrealizedReturn float64
		realizedReturn   float64
		netReturn        float64
	)

	for _, rec := range records {
		quantity += rec.Quantity
		totalCost += rec.TotalCost
		costBasis += rec.CostBasis
		transactionCosts += rec.TransactionCosts
		currentValue += rec.CurrentValue
		unrealizedReturn += rec.UnrealizedReturn
		realizedReturn += rec.RealizedReturn
		netReturn += rec.NetReturn
	}

	avgCost := 0.0
	if quantity > 0 {
		avgCost = totalCost / float64(quantity)
	}

	currentPct := 0.0
	if costBasis != 0 && unrealizedReturn != 0 {
		currentPct = unrealizedReturn / costBasis * 100
	}
	netPct := 0.0
	if totalCost != 0 {
		netPct = netReturn / totalCost * 100
	}

	return models.PerformanceRecord{
		Ticker:                models.FullPortfolioTicker,
		DisplayName:           models.FullPortfolioName,
		Quantity:              quantity,
		StartDate:             startDate,
		EndDate:               endDate,
		AvgCost:               round2(avgCost),
		CostBasis:             round2(costBasis),
		TotalCost:             round2(totalCost),
		TransactionCosts:      round2(transactionCosts),
		CurrentValue:          round2(currentValue),
		UnrealizedReturn:      round2(unrealizedReturn),
		RealizedReturn:        round2(realizedReturn),
		NetReturn:             round2(netReturn),
		CurrentPerformancePct: round2(currentPct),
		NetPerformancePct:     round2(netPct),
	}
}
