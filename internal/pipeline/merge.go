package pipeline

import (
	"sort"

	"github.com/hellboyz13/bankstatement/internal/domain"
)

// MergeMeta folds per-chunk metadata into one record. For each field the
// first non-nil value wins (first non-unknown for the account type); later
// chunks never override an earlier value.
func MergeMeta(metas []domain.StatementMeta) domain.StatementMeta {
	merged := domain.NewStatementMeta()
	for _, m := range metas {
		if merged.BankName == nil && m.BankName != nil {
			merged.BankName = m.BankName
		}
		if merged.Country == nil && m.Country != nil {
			merged.Country = m.Country
		}
		if merged.Currency == nil && m.Currency != nil {
			merged.Currency = m.Currency
		}
		if merged.AccountType == domain.AccountUnknown && m.AccountType != domain.AccountUnknown {
			merged.AccountType = m.AccountType
		}
	}
	return merged
}

// mergeResults concatenates per-chunk statements into one. Chunks settle in
// completion order, so the combined rows are sorted chronologically before
// the result is handed back.
func mergeResults(results []*domain.ParsedStatement) *domain.ParsedStatement {
	merged := &domain.ParsedStatement{Meta: domain.NewStatementMeta()}

	metas := make([]domain.StatementMeta, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		metas = append(metas, r.Meta)
		merged.Transactions = append(merged.Transactions, r.Transactions...)
	}
	merged.Meta = MergeMeta(metas)

	sort.SliceStable(merged.Transactions, func(i, j int) bool {
		return merged.Transactions[i].Date.Before(merged.Transactions[j].Date)
	})
	merged.DeriveDateRange()

	return merged
}
