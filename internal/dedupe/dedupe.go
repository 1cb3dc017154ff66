// Package dedupe removes duplicate transactions that show up when a row
// straddles two overlapping extraction chunks or when the same statement
// is ingested twice.
package dedupe

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hellboyz13/bankstatement/internal/domain"
)

// Key returns the identity of a transaction for duplicate detection:
// calendar date, amount rounded to cents, and the case-folded description.
// Balance is deliberately excluded, two sightings of the same row can
// carry different running balances.
func Key(tx domain.Transaction) string {
	amount := decimal.NewFromFloat(tx.Amount).Round(2).StringFixed(2)
	desc := strings.ToLower(strings.TrimSpace(tx.Description))
	return tx.Date.Format("2006-01-02") + "|" + amount + "|" + desc
}

// Deduplicate keeps the first occurrence of each key and preserves input
// order. The input slice is not modified; running it twice yields the
// same result.
func Deduplicate(txs []domain.Transaction) []domain.Transaction {
	seen := make(map[string]struct{}, len(txs))
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		k := Key(tx)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, tx)
	}
	return out
}

// MergeStatements folds additional statements into base, deduplicating the
// combined transaction list and refreshing the date range. Metadata keeps
// base's values where present.
func MergeStatements(base *domain.ParsedStatement, others ...*domain.ParsedStatement) *domain.ParsedStatement {
	merged := &domain.ParsedStatement{Meta: base.Meta}
	merged.Transactions = append(merged.Transactions, base.Transactions...)
	for _, other := range others {
		if other == nil {
			continue
		}
		if merged.Meta.BankName == nil {
			merged.Meta.BankName = other.Meta.BankName
		}
		if merged.Meta.Country == nil {
			merged.Meta.Country = other.Meta.Country
		}
		if merged.Meta.Currency == nil {
			merged.Meta.Currency = other.Meta.Currency
		}
		if merged.Meta.AccountType == domain.AccountUnknown {
			merged.Meta.AccountType = other.Meta.AccountType
		}
		merged.Transactions = append(merged.Transactions, other.Transactions...)
	}
	merged.Transactions = Deduplicate(merged.Transactions)
	merged.DeriveDateRange()
	return merged
}
