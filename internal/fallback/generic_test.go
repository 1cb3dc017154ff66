package fallback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellboyz13/bankstatement/internal/categorize"
	"github.com/hellboyz13/bankstatement/internal/domain"
)

func TestGenericParse(t *testing.T) {
	text := `ACME BANK STATEMENT
Account summary for January 2024

15/01/2024 Starbucks Coffee -5.50 120.00
16/01/2024 Salary Credit 3,000.00 3,120.00
2024-01-17 Online Purchase (45.99) 3,074.01
this line has no date at all
18/01/2024 x -1.00
19-01-2024 ATM Withdrawal -200.00`

	txs, _ := genericParser{}.Parse(text, Options{})
	require.Len(t, txs, 4)

	tx := txs[0]
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), tx.Date)
	assert.Equal(t, "Starbucks Coffee", tx.Description)
	assert.Equal(t, -5.50, tx.Amount)
	require.NotNil(t, tx.Balance)
	assert.Equal(t, 120.00, *tx.Balance)
	assert.Equal(t, domain.TypeDebit, tx.Type)

	assert.Equal(t, 3000.00, txs[1].Amount)
	assert.Equal(t, domain.TypeCredit, txs[1].Type)

	// Parenthesized amounts are negative.
	assert.Equal(t, -45.99, txs[2].Amount)

	// The single-character description row was rejected; the dash-date
	// row parsed.
	assert.Equal(t, time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC), txs[3].Date)
	assert.Nil(t, txs[3].Balance)
}

func TestGenericParseCategorizes(t *testing.T) {
	text := `15/01/2024 Starbucks Coffee -5.50 120.00`
	txs, _ := genericParser{}.Parse(text, Options{Categorizer: categorize.NewEngine(categorize.DefaultRules())})
	require.Len(t, txs, 1)
	assert.Equal(t, "Food & Dining", txs[0].Category)
}

func TestGenericParseBankName(t *testing.T) {
	_, meta := genericParser{}.Parse("HSBC statement\n15/01/2024 Coffee -5.50", Options{})
	require.NotNil(t, meta.BankName)
	assert.Equal(t, "HSBC", *meta.BankName)
}

func TestParseDayFirstDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"15/01/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		// Day-first is the default even when ambiguous.
		{"05/03/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		// Second component over 12 can only be a day.
		{"03/15/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"15-01-2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"31/02/2024", time.Time{}, false},
		{"00/01/2024", time.Time{}, false},
		{"2024-13-01", time.Time{}, false},
	}

	for _, tt := range tests {
		got, ok := parseDayFirstDate(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestParseAmountFormats(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"123.45", 123.45},
		{"-123.45", -123.45},
		{"$123.45", 123.45},
		{"-$123.45", -123.45},
		{"1,234.56", 1234.56},
		{"(45.99)", -45.99},
		{"( $45.99 )", -45.99},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseAmount(tt.in), tt.in)
	}
}
