package models

import "gorm.io/gorm"

// InstrumentMapping maps a raw broker identifier (ISIN) to a market ticker.
// New identifiers are auto-populated with a blank ticker on first sight and
// filled in by an operator; rows with a blank ticker are excluded from the
// calculation.
type InstrumentMapping struct {
	gorm.Model
	ISIN        string `gorm:"uniqueIndex;column:isin" json:"isin"`
	Ticker      string `json:"ticker"`
	BrokerName  string `json:"broker_name"`
	DisplayName string `json:"display_name"`
	Exchange    string `json:"exchange"`
	ProductType string `json:"product_type"`
}
