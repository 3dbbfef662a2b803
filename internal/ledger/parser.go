package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Broker export column indexes. The export carries more columns than we use;
// the interesting ones are addressed by position, as the header names are
// locale-dependent.
const (
	colDate     = 0
	colTime     = 1
	colProduct  = 2
	colISIN     = 3
	colExchange = 4
	colQuantity = 6
	colPrice    = 7
	colCurrency = 8
	colCost     = 11
	colFee      = 14

	minColumns = 15

	csvDateFormat = "02-01-2006"
)

// Row is one raw trade from the broker export, before the instrument mapping
// has been applied.
type Row struct {
	Date            time.Time
	Time            string
	BrokerName      string
	ISIN            string
	Exchange        string
	Quantity        int
	UnitPrice       float64
	Currency        string
	GrossCost       float64
	TransactionCost float64
}

// ParseCSV reads a broker transaction export from disk.
func ParseCSV(path string, log *zap.Logger) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	return Parse(f, log)
}

// Parse reads a broker transaction export. The first line is assumed to be a
// header. Malformed rows are skipped with a warning; they never abort the
// parse.
func Parse(r io.Reader, log *zap.Logger) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // exports vary in trailing columns

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger csv: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] { // skip header
		row, err := parseRecord(record)
		if err != nil {
			log.Warn("Skipping malformed ledger row",
				zap.Int("line", i+2),
				zap.Error(err))
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseRecord(record []string) (Row, error) {
	if len(record) < minColumns {
		return Row{}, fmt.Errorf("expected at least %d columns, got %d", minColumns, len(record))
	}

	date, err := time.Parse(csvDateFormat, strings.TrimSpace(record[colDate]))
	if err != nil {
		return Row{}, fmt.Errorf("invalid date %q: %w", record[colDate], err)
	}

	isin := strings.TrimSpace(record[colISIN])
	if !isISINLike(isin) {
		return Row{}, fmt.Errorf("identifier %q is not ISIN-like", isin)
	}

	qty, err := parseDecimal(record[colQuantity])
	if err != nil {
		return Row{}, fmt.Errorf("invalid quantity %q: %w", record[colQuantity], err)
	}

	price, err := parseDecimal(record[colPrice])
	if err != nil {
		return Row{}, fmt.Errorf("invalid unit price %q: %w", record[colPrice], err)
	}

	cost, err := parseDecimal(record[colCost])
	if err != nil {
		return Row{}, fmt.Errorf("invalid gross cost %q: %w", record[colCost], err)
	}

	// A missing fee is a zero fee, not an error.
	fee := 0.0
	if strings.TrimSpace(record[colFee]) != "" {
		fee, err = parseDecimal(record[colFee])
		if err != nil {
			return Row{}, fmt.Errorf("invalid transaction fee %q: %w", record[colFee], err)
		}
	}

	return Row{
		Date:            date,
		Time:            strings.TrimSpace(record[colTime]),
		BrokerName:      strings.TrimSpace(record[colProduct]),
		ISIN:            isin,
		Exchange:        strings.TrimSpace(record[colExchange]),
		Quantity:        int(qty),
		UnitPrice:       price,
		Currency:        strings.TrimSpace(record[colCurrency]),
		GrossCost:       cost,
		TransactionCost: fee,
	}, nil
}

// parseDecimal parses a number whose decimal separator may be a comma or a
// period, depending on the export locale.
func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}

	comma := strings.LastIndex(s, ",")
	period := strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && period >= 0:
		// Both present: the rightmost is the decimal separator, the other is
		// a thousands separator.
		if comma > period {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}

	return strconv.ParseFloat(s, 64)
}

// isISINLike reports whether the identifier has the shape of an ISIN: twelve
// characters starting with a two-letter country code.
func isISINLike(s string) bool {
	if len(s) != 12 {
		return false
	}
	for _, r := range s[:2] {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	for _, r := range s[2:] {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
