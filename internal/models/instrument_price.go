package models

// InstrumentPrice is one closing price for one instrument on one trading day,
// already normalized to the reporting currency. FXRate is the rate that was
// applied (1 for instruments quoted in the reporting currency) and
// CurrencyPair records the conversion, e.g. "USD-EUR".
type InstrumentPrice struct {
	Ticker       string  `gorm:"primaryKey" json:"ticker"`
	Date         string  `gorm:"primaryKey" json:"date"`
	Price        float64 `json:"price"`
	FXRate       float64 `gorm:"column:fx_rate" json:"fx_rate"`
	CurrencyPair string  `json:"currency_pair"`
}

// TableName keeps the historical table name used by the dashboard.
func (InstrumentPrice) TableName() string {
	return "instrument_prices"
}
