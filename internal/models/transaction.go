package models

import "time"

const (
	// ActionBuy and ActionSell are derived from the sign of a transaction's quantity.
	ActionBuy  = "BUY"
	ActionSell = "SELL"

	// DateFormat is the representation used for dates in the sink tables.
	DateFormat = "2006-01-02"
)

// Transaction is a single immutable trade parsed from a broker export.
// Transactions for one instrument, ordered by (Date, Time), form that
// instrument's history.
type Transaction struct {
	Date            time.Time `json:"date"`
	Time            string    `json:"time"` // "HH:MM"
	ISIN            string    `json:"isin"`
	Ticker          string    `json:"ticker"`
	DisplayName     string    `json:"product"`
	Exchange        string    `json:"exchange"`
	Action          string    `json:"action"` // BUY iff Quantity > 0
	Quantity        int       `json:"quantity"`
	UnitPrice       float64   `json:"unit_price"`
	Currency        string    `json:"currency"`
	GrossCost       float64   `json:"gross_cost"`       // signed, negative = cash outflow
	TransactionCost float64   `json:"transaction_cost"` // fee, recorded negative
}

// DateString returns the transaction date in the sink's date representation.
func (t Transaction) DateString() string {
	return t.Date.Format(DateFormat)
}
