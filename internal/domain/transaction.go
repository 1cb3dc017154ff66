package domain

import (
	"time"
)

// AccountType classifies the account a statement belongs to.
type AccountType string

const (
	AccountCurrent    AccountType = "current"
	AccountSavings    AccountType = "savings"
	AccountCreditCard AccountType = "credit_card"
	AccountUnknown    AccountType = "unknown"
)

// TransactionType labels the nature of a single movement.
type TransactionType string

const (
	TypeDebit    TransactionType = "debit"
	TypeCredit   TransactionType = "credit"
	TypePayment  TransactionType = "payment"
	TypeFee      TransactionType = "fee"
	TypeInterest TransactionType = "interest"
	TypeRefund   TransactionType = "refund"
	TypeUnknown  TransactionType = "unknown"
)

// TypeFromAmount infers a movement type from the amount sign alone.
func TypeFromAmount(amount float64) TransactionType {
	if amount > 0 {
		return TypeCredit
	}
	return TypeDebit
}

// Transaction represents one normalized financial movement.
// Date, Description and Amount are mandatory; rows missing any of them are
// rejected before they reach the ledger. Amount is signed: negative for
// debits/outflows, positive for credits/inflows.
type Transaction struct {
	Date        time.Time  `json:"date"`
	PostingDate *time.Time `json:"posting_date,omitempty"`

	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	Currency    *string  `json:"currency,omitempty"`
	Balance     *float64 `json:"balance,omitempty"`

	Type TransactionType `json:"type"`

	Category           string   `json:"category"`
	CategoryConfidence *float64 `json:"category_confidence,omitempty"`

	// Fraud annotations come from the extraction backend's own reasoning.
	// Advisory only; never computed by this pipeline.
	FraudLikelihood *float64 `json:"fraud_likelihood,omitempty"`
	FraudReason     *string  `json:"fraud_reason,omitempty"`
}

// StatementMeta holds statement-level metadata recovered during parsing.
// During a merge the first non-nil value (or first non-unknown for
// AccountType) wins and is never overwritten by later chunks.
type StatementMeta struct {
	BankName    *string     `json:"bank_name"`
	Country     *string     `json:"country"`
	AccountType AccountType `json:"account_type"`
	Currency    *string     `json:"currency"`
}

// NewStatementMeta returns an empty meta record with AccountType unknown.
func NewStatementMeta() StatementMeta {
	return StatementMeta{AccountType: AccountUnknown}
}

// ParsedStatement is the unit returned per extraction chunk and the unit
// merged across chunks: statement metadata plus validated transactions.
type ParsedStatement struct {
	Meta         StatementMeta `json:"meta"`
	Transactions []Transaction `json:"transactions"`

	// StartDate/EndDate are derived from the earliest and latest
	// transaction dates after merging. Nil when there are no transactions.
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// DeriveDateRange fills StartDate/EndDate from the transaction dates.
func (s *ParsedStatement) DeriveDateRange() {
	s.StartDate, s.EndDate = nil, nil
	for i := range s.Transactions {
		d := s.Transactions[i].Date
		if s.StartDate == nil || d.Before(*s.StartDate) {
			t := d
			s.StartDate = &t
		}
		if s.EndDate == nil || d.After(*s.EndDate) {
			t := d
			s.EndDate = &t
		}
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 { return &f }
