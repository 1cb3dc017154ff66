package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveDateRange(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	s := &ParsedStatement{Transactions: []Transaction{
		{Date: day(12)},
		{Date: day(3)},
		{Date: day(27)},
	}}
	s.DeriveDateRange()

	require.NotNil(t, s.StartDate)
	require.NotNil(t, s.EndDate)
	assert.Equal(t, day(3), *s.StartDate)
	assert.Equal(t, day(27), *s.EndDate)

	// Recomputing after the transactions change resets the range.
	s.Transactions = nil
	s.DeriveDateRange()
	assert.Nil(t, s.StartDate)
	assert.Nil(t, s.EndDate)
}

func TestTypeFromAmount(t *testing.T) {
	assert.Equal(t, TypeCredit, TypeFromAmount(10))
	assert.Equal(t, TypeDebit, TypeFromAmount(-10))
	assert.Equal(t, TypeDebit, TypeFromAmount(0))
}
