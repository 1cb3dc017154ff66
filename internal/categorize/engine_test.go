package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	e := NewEngine(DefaultRules())

	tests := []struct {
		desc   string
		amount float64
		want   string
	}{
		{"STARBUCKS COFFEE #123", -5.50, "Food & Dining"},
		{"NTUC FAIRPRICE BEDOK", -45.60, "Food & Dining"},
		{"GRAB*TRIP 8839", -12.30, "Transport"},
		{"BUS/MRT 676443472 SINGAPORE", -4.08, "Transport"},
		{"LAZADA ORDER 4221", -89.00, "Shopping"},
		{"SINGTEL BILL PAYMENT", -60.00, "Bills & Utilities"},
		{"RAFFLES CLINIC CONSULT", -80.00, "Healthcare"},
		{"NETFLIX SUBSCRIPTION", -19.90, "Bills & Utilities"},
		{"SIA FLIGHT SQ321", -450.00, "Travel"},
		{"COURSERA PLUS", -59.00, "Education"},
		{"ATM WITHDRAWAL BEDOK", -200.00, "Transfers"},
		{"MONTHLY SALARY JULY", 5000.00, "Salary & Income"},
		{"completely unknown merchant", -10.00, "Miscellaneous"},
		{"completely unknown merchant", 10.00, "Unknown Incoming"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Categorize(tt.desc, tt.amount), tt.desc)
	}
}

func TestCategorizeIncomeOnlyRules(t *testing.T) {
	e := NewEngine(DefaultRules())

	// "salary" only matches the income rule when the amount is positive.
	assert.Equal(t, "Salary & Income", e.Categorize("SALARY ADJUSTMENT", 100))
	assert.Equal(t, "Miscellaneous", e.Categorize("SALARY ADJUSTMENT", -100))
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	e := NewEngine(DefaultRules())

	// "uber eats" sits in the dining rule, which precedes the transport
	// rule that would match the bare "uber".
	assert.Equal(t, "Food & Dining", e.Categorize("UBER EATS ORDER", -25.00))
	assert.Equal(t, "Transport", e.Categorize("UBER TRIP HELP.UBER.COM", -18.00))
}

func TestCategorizeDeterministic(t *testing.T) {
	e := NewEngine(DefaultRules())
	first := e.Categorize("GRAB*TRIP", -10)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, e.Categorize("GRAB*TRIP", -10))
	}
}

func TestCategorizeCacheKeyedBySign(t *testing.T) {
	e := NewEngine(DefaultRules())

	// Same description, opposite signs: the memo must not leak the
	// income-only answer to the debit.
	assert.Equal(t, "Salary & Income", e.Categorize("deposit", 100))
	assert.Equal(t, "Miscellaneous", e.Categorize("deposit", -100))
	assert.Equal(t, "Salary & Income", e.Categorize("deposit", 100))
}

func TestCategorizeCaseAndWhitespace(t *testing.T) {
	e := NewEngine(DefaultRules())
	assert.Equal(t, "Food & Dining", e.Categorize("  starbucks COFFEE  ", -5))
}

func TestLookupCacheEviction(t *testing.T) {
	c := newLookupCache(2)
	c.put("a", false, "A")
	c.put("b", false, "B")
	c.put("c", false, "C")

	_, ok := c.get("a", false)
	assert.False(t, ok, "oldest entry should have been evicted")

	got, ok := c.get("c", false)
	require.True(t, ok)
	assert.Equal(t, "C", got)
}

func TestCategories(t *testing.T) {
	cats := Categories()
	assert.Contains(t, cats, "Food & Dining")
	assert.Contains(t, cats, DefaultIncoming)
	assert.Contains(t, cats, DefaultOutgoing)
}
