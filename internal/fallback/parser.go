// Package fallback is the deterministic statement parser used when no
// extraction backend is configured or the backend is unavailable. It
// recognizes known statement layouts by inspecting the raw text and falls
// back to a generic line parser otherwise.
package fallback

import (
	"strings"

	"github.com/hellboyz13/bankstatement/internal/dedupe"
	"github.com/hellboyz13/bankstatement/internal/domain"
	"github.com/hellboyz13/bankstatement/internal/pipeline"
)

const defaultCurrency = "SGD"

// Options tunes a fallback parse.
type Options struct {
	// DefaultCurrency is stamped on every transaction; SGD when empty.
	DefaultCurrency string
	// Categorizer labels parsed transactions. Rows stay uncategorized
	// when nil.
	Categorizer pipeline.Categorizer
}

func (o Options) currency() string {
	if o.DefaultCurrency != "" {
		return o.DefaultCurrency
	}
	return defaultCurrency
}

// Parser recognizes and parses one statement layout.
type Parser interface {
	Name() string
	// Detect reports whether the statement text looks like this layout.
	Detect(text string) bool
	// Parse extracts transactions and whatever metadata the layout
	// exposes. An empty result is not an error at this level.
	Parse(text string, opts Options) ([]domain.Transaction, domain.StatementMeta)
}

// parsers is checked in order, most specific layout first. The generic
// parser stays last as the catch-all.
var parsers = []Parser{
	&uobCardParser{},
	bankParser{name: "DBS", keywords: []string{"dbs", "posb"}},
	bankParser{name: "OCBC", keywords: []string{"ocbc"}},
	bankParser{name: "UOB", keywords: []string{"uob", "united overseas bank"}},
	bankParser{name: "Standard Chartered", keywords: []string{"standard chartered"}},
	bankParser{name: "Citibank", keywords: []string{"citibank"}},
	genericParser{},
}

// ParseStatement parses the extracted page text of a document. Pages are
// joined with newlines before layout detection so multi-page transactions
// stay adjacent.
func ParseStatement(pages []string, opts Options) (*domain.ParsedStatement, error) {
	text := strings.Join(pages, "\n")
	if strings.TrimSpace(text) == "" {
		return nil, pipeline.NewError(pipeline.KindNoTransactionsFound, "statement contains no page text")
	}

	var (
		txs  []domain.Transaction
		meta domain.StatementMeta
	)
	for _, p := range parsers {
		if !p.Detect(text) {
			continue
		}
		txs, meta = p.Parse(text, opts)
		break
	}

	if len(txs) == 0 {
		return nil, pipeline.NewError(pipeline.KindNoTransactionsFound, "no transactions found in statement").
			WithSuggestion("the statement layout may not be supported by the deterministic parser; try the extraction backend")
	}

	stmt := &domain.ParsedStatement{
		Meta:         meta,
		Transactions: dedupe.Deduplicate(txs),
	}
	if stmt.Meta.Currency == nil {
		stmt.Meta.Currency = domain.StringPtr(opts.currency())
	}
	stmt.DeriveDateRange()
	return stmt, nil
}

// bankParser handles account statements from a named bank whose rows the
// generic line parser already covers. Detection is what makes the bank
// name available for the metadata.
type bankParser struct {
	name     string
	keywords []string
}

func (b bankParser) Name() string { return b.name }

func (b bankParser) Detect(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range b.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (b bankParser) Parse(text string, opts Options) ([]domain.Transaction, domain.StatementMeta) {
	txs, meta := genericParser{}.Parse(text, opts)
	meta.BankName = domain.StringPtr(b.name)
	return txs, meta
}
