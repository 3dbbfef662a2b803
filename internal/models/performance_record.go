package models

const (
	// FullPortfolioTicker is the reserved synthetic instrument representing the
	// whole-portfolio aggregate row.
	FullPortfolioTicker = "FULL"
	// FullPortfolioISIN is the reserved identifier for the aggregate in the
	// instrument mapping table.
	FullPortfolioISIN = "FULL_PORTFOLIO"
	// FullPortfolioName is the display name of the aggregate row.
	FullPortfolioName = "Full portfolio"
)

// PerformanceRecord is one per-instrument performance snapshot as of EndDate.
// Records are keyed by (ticker, end_date); dates are stored as "YYYY-MM-DD".
type PerformanceRecord struct {
	Ticker                string  `gorm:"primaryKey" json:"ticker"`
	DisplayName           string  `gorm:"column:product" json:"product"`
	Quantity              int     `json:"quantity"`
	StartDate             string  `json:"start_date"`
	EndDate               string  `gorm:"primaryKey" json:"end_date"`
	AvgCost               float64 `json:"avg_cost"`
	CostBasis             float64 `json:"cost_basis"`
	TotalCost             float64 `json:"total_cost"`
	TransactionCosts      float64 `json:"transaction_costs"`
	CurrentValue          float64 `json:"current_value"`
	UnrealizedReturn      float64 `json:"unrealized_return"`
	RealizedReturn        float64 `json:"realized_return"`
	NetReturn             float64 `json:"net_return"`
	CurrentPerformancePct float64 `json:"current_performance_pct"`
	NetPerformancePct     float64 `json:"net_performance_pct"`
}

// TableName keeps the historical table name used by the dashboard.
func (PerformanceRecord) TableName() string {
	return "performance_records"
}

// MonthlyPerformanceRecord is the first available daily record of each
// (ticker, calendar month), a pure projection of the daily table.
type MonthlyPerformanceRecord struct {
	PerformanceRecord `gorm:"embedded"`
}

// TableName separates the monthly projection from the daily table.
func (MonthlyPerformanceRecord) TableName() string {
	return "performance_records_monthly"
}
