package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellboyz13/bankstatement/internal/domain"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func TestKey(t *testing.T) {
	tx := domain.Transaction{
		Date:        day(15),
		Description: "  Taxi Ride  ",
		Amount:      -5.5,
	}
	assert.Equal(t, "2024-01-15|-5.50|taxi ride", Key(tx))

	// Cent rounding keeps float noise out of the identity.
	tx.Amount = -5.499999999
	assert.Equal(t, "2024-01-15|-5.50|taxi ride", Key(tx))
}

func TestKeyIgnoresBalance(t *testing.T) {
	a := domain.Transaction{Date: day(1), Description: "Taxi", Amount: -10, Balance: domain.Float64Ptr(90)}
	b := domain.Transaction{Date: day(1), Description: "Taxi", Amount: -10, Balance: domain.Float64Ptr(80)}
	assert.Equal(t, Key(a), Key(b))
}

func TestDeduplicate(t *testing.T) {
	txs := []domain.Transaction{
		{Date: day(10), Description: "Taxi", Amount: -15.00, Balance: domain.Float64Ptr(100)},
		{Date: day(10), Description: "taxi", Amount: -15.00, Balance: domain.Float64Ptr(85)},
		{Date: day(10), Description: "Taxi", Amount: -15.01},
		{Date: day(11), Description: "Taxi", Amount: -15.00},
	}

	out := Deduplicate(txs)
	require.Len(t, out, 3)

	// First occurrence wins, order preserved.
	require.NotNil(t, out[0].Balance)
	assert.Equal(t, 100.0, *out[0].Balance)
	assert.Equal(t, -15.01, out[1].Amount)
	assert.Equal(t, day(11), out[2].Date)

	// Idempotent.
	assert.Equal(t, out, Deduplicate(out))
}

func TestDeduplicateEmpty(t *testing.T) {
	assert.Empty(t, Deduplicate(nil))
}

func TestMergeStatements(t *testing.T) {
	base := &domain.ParsedStatement{
		Meta: domain.StatementMeta{BankName: domain.StringPtr("Test Bank"), AccountType: domain.AccountUnknown},
		Transactions: []domain.Transaction{
			{Date: day(10), Description: "Taxi", Amount: -15.00},
		},
	}
	other := &domain.ParsedStatement{
		Meta: domain.StatementMeta{
			BankName:    domain.StringPtr("Other Bank"),
			Currency:    domain.StringPtr("SGD"),
			AccountType: domain.AccountCurrent,
		},
		Transactions: []domain.Transaction{
			{Date: day(10), Description: "Taxi", Amount: -15.00}, // duplicate
			{Date: day(12), Description: "Coffee", Amount: -4.50},
		},
	}

	merged := MergeStatements(base, other, nil)

	require.Len(t, merged.Transactions, 2)
	assert.Equal(t, "Test Bank", *merged.Meta.BankName)
	assert.Equal(t, "SGD", *merged.Meta.Currency)
	assert.Equal(t, domain.AccountCurrent, merged.Meta.AccountType)

	require.NotNil(t, merged.StartDate)
	assert.Equal(t, day(10), *merged.StartDate)
	assert.Equal(t, day(12), *merged.EndDate)
}
