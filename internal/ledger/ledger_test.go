package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"portfolio-tracker-go/internal/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func writeLedgerFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "Transactions.csv")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestService_LoadExcludesUnmappedAndSorts(t *testing.T) {
	mapping := setupMappingService(t)
	content := csvHeader +
		csvRow("03-01-2024", "15:30", "APPLE INC", "US0378331005", "NSY", "-5", "180", "USD", "900.00", "-1.00") +
		csvRow("02-01-2024", "09:05", "VANGUARD FTSE AW", "IE00B3RBWM25", "EAM", "10", "101.50", "EUR", "-1016.00", "-1.00") +
		csvRow("02-01-2024", "08:00", "VANGUARD FTSE AW", "IE00B3RBWM25", "EAM", "2", "101.00", "EUR", "-202.00", "")
	svc := NewService(writeLedgerFile(t, content), mapping, zap.NewNop())

	// Before any identifier is mapped, every row is excluded.
	transactions, err := svc.Load()
	assert.NoError(t, err)
	assert.Empty(t, transactions)

	// Map one instrument; the other stays excluded.
	assert.NoError(t, mapping.Update("IE00B3RBWM25", models.InstrumentMapping{
		Ticker:      "VWRL.AS",
		DisplayName: "Vanguard FTSE All-World",
	}))

	transactions, err = svc.Load()
	assert.NoError(t, err)
	assert.Len(t, transactions, 2)

	// Same day rows are ordered by time of day.
	assert.Equal(t, "08:00", transactions[0].Time)
	assert.Equal(t, "09:05", transactions[1].Time)
	for _, tx := range transactions {
		assert.Equal(t, "VWRL.AS", tx.Ticker)
		assert.Equal(t, "Vanguard FTSE All-World", tx.DisplayName)
		assert.Equal(t, models.ActionBuy, tx.Action)
	}
}

func TestService_LoadDerivesActionFromSign(t *testing.T) {
	mapping := setupMappingService(t)
	content := csvHeader +
		csvRow("02-01-2024", "09:05", "APPLE INC", "US0378331005", "NSY", "5", "170", "USD", "-850.00", "-1.00") +
		csvRow("03-01-2024", "15:30", "APPLE INC", "US0378331005", "NSY", "-5", "180", "USD", "900.00", "-1.00")
	svc := NewService(writeLedgerFile(t, content), mapping, zap.NewNop())

	// First load syncs the identifier into the mapping table.
	_, err := svc.Load()
	assert.NoError(t, err)
	assert.NoError(t, mapping.Update("US0378331005", models.InstrumentMapping{Ticker: "AAPL"}))

	transactions, err := svc.Load()
	assert.NoError(t, err)
	assert.Len(t, transactions, 2)
	assert.Equal(t, models.ActionBuy, transactions[0].Action)
	assert.Equal(t, 5, transactions[0].Quantity)
	assert.Equal(t, models.ActionSell, transactions[1].Action)
	assert.Equal(t, -5, transactions[1].Quantity)
}

func TestService_LoadMissingFile(t *testing.T) {
	mapping := setupMappingService(t)
	svc := NewService(filepath.Join(t.TempDir(), "missing.csv"), mapping, zap.NewNop())

	_, err := svc.Load()
	assert.Error(t, err)
}
