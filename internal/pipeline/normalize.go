package pipeline

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hellboyz13/bankstatement/internal/domain"
)

// The backend may answer with strict JSON or with pipe-delimited lines.
// The shape is resolved structurally, never by a claimed content type.

var (
	isoDatePattern      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	nonNumericPattern   = regexp.MustCompile(`[^0-9.\-]`)
	bankLinePattern     = regexp.MustCompile(`(?i)bank[:\s]+([^\n,|]+)`)
	currencyLinePattern = regexp.MustCompile(`(?i)currency[:\s]+([A-Za-z]{3})`)
	accountLinePattern  = regexp.MustCompile(`(?i)account\s+type[:\s]+(current|savings|credit[ _]?card|credit|debit)`)
)

// jsonStatement mirrors the strict JSON response shape.
type jsonStatement struct {
	Meta         jsonMeta          `json:"meta"`
	Transactions []jsonTransaction `json:"transactions"`
}

type jsonMeta struct {
	BankName    *string `json:"bank_name"`
	Country     *string `json:"country"`
	AccountType string  `json:"account_type"`
	Currency    *string `json:"currency"`
}

type jsonTransaction struct {
	Date               string   `json:"date"`
	PostingDate        *string  `json:"posting_date"`
	Description        string   `json:"description"`
	Amount             *float64 `json:"amount"`
	Currency           *string  `json:"currency"`
	Type               string   `json:"type"`
	Balance            *float64 `json:"balance"`
	Category           string   `json:"category"`
	CategoryConfidence *float64 `json:"category_confidence"`
	FraudLikelihood    *float64 `json:"fraud_likelihood"`
	FraudReason        *string  `json:"fraud_reason"`
}

// NormalizeResponse converts one chunk's raw backend output into a
// validated statement. Malformed rows are dropped and counted, never
// raised; only output matching neither format is an error.
func NormalizeResponse(raw string, log zerolog.Logger) (*domain.ParsedStatement, error) {
	clean := CleanModelText(raw)

	if strings.HasPrefix(clean, "{") || strings.HasPrefix(clean, "[") {
		if stmt, ok := parseJSONResponse(clean, log); ok {
			return stmt, nil
		}
	}

	if strings.Contains(raw, "|") {
		return parseDelimitedResponse(raw, log), nil
	}

	return nil, NewError(KindMalformedResponse, "response is neither statement JSON nor delimited lines")
}

// CleanModelText strips Markdown code fences and surrounding prose that
// models sometimes wrap around their output despite instructions.
func CleanModelText(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// If there is still junk around a JSON body, keep only the outermost
	// object or array, whichever opens first. A bare array of transaction
	// objects must not be narrowed to its first element.
	start := strings.Index(s, "{")
	closer := "}"
	if arr := strings.Index(s, "["); arr != -1 && (start == -1 || arr < start) {
		start = arr
		closer = "]"
	}
	if start != -1 && start < 3 {
		if end := strings.LastIndex(s, closer); end > start {
			return strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

// parseJSONResponse attempts the strict JSON shape. A bare array is treated
// as a transaction list with empty metadata.
func parseJSONResponse(clean string, log zerolog.Logger) (*domain.ParsedStatement, bool) {
	var js jsonStatement
	if strings.HasPrefix(clean, "[") {
		if err := json.Unmarshal([]byte(clean), &js.Transactions); err != nil {
			return nil, false
		}
	} else if err := json.Unmarshal([]byte(clean), &js); err != nil {
		return nil, false
	}

	stmt := &domain.ParsedStatement{Meta: domain.NewStatementMeta()}
	stmt.Meta.BankName = trimPtr(js.Meta.BankName)
	stmt.Meta.Country = trimPtr(js.Meta.Country)
	stmt.Meta.Currency = trimPtr(js.Meta.Currency)
	stmt.Meta.AccountType = normalizeAccountType(js.Meta.AccountType)

	dropped := 0
	for _, jt := range js.Transactions {
		tx, ok := jsonTransactionToDomain(jt, stmt.Meta.Currency)
		if !ok {
			dropped++
			continue
		}
		stmt.Transactions = append(stmt.Transactions, tx)
	}
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Int("kept", len(stmt.Transactions)).
			Msg("Dropped malformed transactions from JSON response")
	}
	return stmt, true
}

func jsonTransactionToDomain(jt jsonTransaction, fallbackCurrency *string) (domain.Transaction, bool) {
	var tx domain.Transaction

	date, err := time.Parse("2006-01-02", strings.TrimSpace(jt.Date))
	if err != nil {
		return tx, false
	}
	desc := strings.TrimSpace(jt.Description)
	if desc == "" || jt.Amount == nil {
		return tx, false
	}

	tx.Date = date
	tx.Description = desc
	tx.Amount = *jt.Amount
	tx.Balance = jt.Balance
	tx.Category = strings.TrimSpace(jt.Category)
	tx.CategoryConfidence = clamp01Ptr(jt.CategoryConfidence)
	tx.FraudLikelihood = clamp01Ptr(jt.FraudLikelihood)
	tx.FraudReason = trimPtr(jt.FraudReason)
	tx.Type = normalizeTransactionType(jt.Type, tx.Amount)

	if jt.PostingDate != nil {
		if pd, err := time.Parse("2006-01-02", strings.TrimSpace(*jt.PostingDate)); err == nil {
			tx.PostingDate = &pd
		}
	}
	if c := trimPtr(jt.Currency); c != nil {
		tx.Currency = c
	} else {
		tx.Currency = fallbackCurrency
	}

	return tx, true
}

// parseDelimitedResponse parses pipe-delimited lines of the form
// date | description | amount | balance | category [| fraud_score | fraud_reason]
// and recovers statement metadata from free-text patterns in the same
// response. Lines that do not match are silently skipped; partial
// extraction is expected.
func parseDelimitedResponse(raw string, log zerolog.Logger) *domain.ParsedStatement {
	stmt := &domain.ParsedStatement{Meta: recoverMetaFromText(raw)}

	dropped := 0
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "|") {
			continue
		}

		parts := strings.Split(line, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) < 3 {
			continue
		}

		if !isoDatePattern.MatchString(parts[0]) {
			continue
		}
		date, err := time.Parse("2006-01-02", parts[0])
		if err != nil {
			continue
		}

		amount, err := parseLooseAmount(parts[2])
		if err != nil {
			dropped++
			continue
		}
		desc := parts[1]
		if desc == "" {
			dropped++
			continue
		}

		tx := domain.Transaction{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Currency:    stmt.Meta.Currency,
			Type:        normalizeTransactionType("", amount),
		}
		if len(parts) > 3 && parts[3] != "" {
			if b, err := parseLooseAmount(parts[3]); err == nil {
				tx.Balance = &b
			}
		}
		if len(parts) > 4 {
			tx.Category = parts[4]
		}
		if len(parts) > 5 && parts[5] != "" {
			if f, err := strconv.ParseFloat(parts[5], 64); err == nil {
				tx.FraudLikelihood = clamp01Ptr(&f)
			}
		}
		if len(parts) > 6 && parts[6] != "" {
			tx.FraudReason = domain.StringPtr(parts[6])
		}

		stmt.Transactions = append(stmt.Transactions, tx)
	}

	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Int("kept", len(stmt.Transactions)).
			Msg("Dropped malformed transaction lines from delimited response")
	}
	return stmt
}

// recoverMetaFromText pulls bank name, currency and account type out of
// free text. Best-effort; fields stay nil/unknown when nothing matches.
func recoverMetaFromText(text string) domain.StatementMeta {
	meta := domain.NewStatementMeta()

	if m := bankLinePattern.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(m[1])
		if name != "" && !strings.EqualFold(name, "null") {
			meta.BankName = &name
		}
	}
	if m := currencyLinePattern.FindStringSubmatch(text); m != nil {
		cur := strings.ToUpper(m[1])
		meta.Currency = &cur
	}
	if m := accountLinePattern.FindStringSubmatch(text); m != nil {
		meta.AccountType = normalizeAccountType(m[1])
	}
	return meta
}

// parseLooseAmount strips everything that is not a digit, dot or sign and
// parses what remains. Only a leading sign counts; "123.45 DR" parses as
// 123.45, "-$1,234.56" as -1234.56.
func parseLooseAmount(s string) (float64, error) {
	cleaned := nonNumericPattern.ReplaceAllString(s, "")
	neg := strings.HasPrefix(cleaned, "-")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		v = -v
	}
	return v, nil
}

func normalizeAccountType(s string) domain.AccountType {
	switch strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"), "-", "_") {
	case "current", "checking", "debit":
		return domain.AccountCurrent
	case "savings":
		return domain.AccountSavings
	case "credit_card", "creditcard", "credit":
		return domain.AccountCreditCard
	default:
		return domain.AccountUnknown
	}
}

func normalizeTransactionType(s string, amount float64) domain.TransactionType {
	switch domain.TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case domain.TypeDebit, domain.TypeCredit, domain.TypePayment,
		domain.TypeFee, domain.TypeInterest, domain.TypeRefund:
		return domain.TransactionType(strings.ToLower(strings.TrimSpace(s)))
	}
	if amount < 0 {
		return domain.TypeDebit
	}
	return domain.TypeCredit
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func clamp01Ptr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return &v
}
