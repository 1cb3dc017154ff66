package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellboyz13/bankstatement/internal/domain"
	"github.com/hellboyz13/bankstatement/internal/pipeline"
)

func TestParseStatementGeneric(t *testing.T) {
	pages := []string{
		"DBS Bank statement\n15/01/2024 Starbucks Coffee -5.50 120.00",
		"16/01/2024 Grab ride -12.30 107.70",
	}

	stmt, err := ParseStatement(pages, Options{})
	require.NoError(t, err)

	require.Len(t, stmt.Transactions, 2)
	require.NotNil(t, stmt.Meta.BankName)
	assert.Equal(t, "DBS", *stmt.Meta.BankName)
	require.NotNil(t, stmt.Meta.Currency)
	assert.Equal(t, "SGD", *stmt.Meta.Currency)

	require.NotNil(t, stmt.StartDate)
	assert.Equal(t, "2024-01-15", stmt.StartDate.Format("2006-01-02"))
	assert.Equal(t, "2024-01-16", stmt.EndDate.Format("2006-01-02"))
}

func TestParseStatementPicksCardLayout(t *testing.T) {
	pages := []string{`United Overseas Bank
Credit Limit : 5,000.00
Statement Date : 15 AUG 2024
28 JUL 23 JUL BUS/MRT 676443472 SINGAPORE
Ref No. : 74541835207288086824184
4.08`}

	stmt, err := ParseStatement(pages, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.AccountCreditCard, stmt.Meta.AccountType)
	require.Len(t, stmt.Transactions, 1)
	assert.Equal(t, -4.08, stmt.Transactions[0].Amount)
}

func TestParseStatementDeduplicates(t *testing.T) {
	page := "15/01/2024 Taxi Ride -15.00 100.00"
	stmt, err := ParseStatement([]string{page, page}, Options{})
	require.NoError(t, err)
	assert.Len(t, stmt.Transactions, 1)
}

func TestParseStatementCurrencyOverride(t *testing.T) {
	stmt, err := ParseStatement([]string{"15/01/2024 Coffee Shop -5.00"}, Options{DefaultCurrency: "USD"})
	require.NoError(t, err)
	require.NotNil(t, stmt.Meta.Currency)
	assert.Equal(t, "USD", *stmt.Meta.Currency)
	require.Len(t, stmt.Transactions, 1)
	require.NotNil(t, stmt.Transactions[0].Currency)
	assert.Equal(t, "USD", *stmt.Transactions[0].Currency)
}

func TestParseStatementNoTransactions(t *testing.T) {
	_, err := ParseStatement([]string{"just some text without rows"}, Options{})
	require.Error(t, err)
	assert.Equal(t, pipeline.KindNoTransactionsFound, pipeline.KindOf(err))

	_, err = ParseStatement(nil, Options{})
	require.Error(t, err)
	assert.Equal(t, pipeline.KindNoTransactionsFound, pipeline.KindOf(err))
}
