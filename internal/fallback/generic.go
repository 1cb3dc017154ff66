package fallback

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hellboyz13/bankstatement/internal/domain"
)

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`),
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
		regexp.MustCompile(`\d{2}-\d{2}-\d{4}`),
	}
	// Amounts with optional sign or accounting-style parentheses.
	amountPattern = regexp.MustCompile(`[-]?\$?\s*[\d,]+\.\d{2}|\(\s*\$?\s*[\d,]+\.\d{2}\s*\)`)
)

var knownBanks = []string{
	"Chase",
	"Bank of America",
	"Wells Fargo",
	"Citibank",
	"Capital One",
	"HSBC",
	"Barclays",
	"American Express",
}

// genericParser handles the common "Date Description Amount [Balance]"
// row shape most account statements reduce to once text is extracted.
type genericParser struct{}

func (genericParser) Name() string { return "generic" }

// Detect always matches; the generic parser is the registry's catch-all.
func (genericParser) Detect(string) bool { return true }

func (genericParser) Parse(text string, opts Options) ([]domain.Transaction, domain.StatementMeta) {
	var txs []domain.Transaction
	currency := opts.currency()

	for _, line := range strings.Split(text, "\n") {
		dateStr := findDate(line)
		if dateStr == "" {
			continue
		}
		date, ok := parseDayFirstDate(dateStr)
		if !ok {
			continue
		}

		amounts := amountPattern.FindAllString(line, -1)
		if len(amounts) == 0 {
			continue
		}

		// Description is the text between the date and the first amount.
		dateIdx := strings.Index(line, dateStr)
		amountIdx := strings.Index(line, amounts[0])
		if amountIdx <= dateIdx {
			continue
		}
		description := strings.TrimSpace(line[dateIdx+len(dateStr) : amountIdx])
		if len(description) < 2 {
			continue
		}

		amount := parseAmount(amounts[0])
		tx := domain.Transaction{
			Date:        date,
			Description: description,
			Amount:      amount,
			Currency:    domain.StringPtr(currency),
			Type:        domain.TypeFromAmount(amount),
		}
		if len(amounts) > 1 {
			tx.Balance = domain.Float64Ptr(parseAmount(amounts[1]))
		}
		if opts.Categorizer != nil {
			tx.Category = opts.Categorizer.Categorize(description, amount)
		}
		txs = append(txs, tx)
	}

	meta := domain.NewStatementMeta()
	if bank := detectBankName(text); bank != "" {
		meta.BankName = domain.StringPtr(bank)
	}
	return txs, meta
}

func findDate(line string) string {
	for _, p := range datePatterns {
		if m := p.FindString(line); m != "" {
			return m
		}
	}
	return ""
}

// parseDayFirstDate reads slash and dash dates as day-first, which is what
// the target statements use. A first component over 12 confirms day-first;
// a second component over 12 forces month-first since it cannot be a month.
func parseDayFirstDate(s string) (time.Time, bool) {
	var day, month, year int
	switch {
	case strings.Contains(s, "/"):
		parts := strings.Split(s, "/")
		if len(parts) != 3 {
			return time.Time{}, false
		}
		first, _ := strconv.Atoi(parts[0])
		second, _ := strconv.Atoi(parts[1])
		year, _ = strconv.Atoi(parts[2])
		if second > 12 && first <= 12 {
			day, month = second, first
		} else {
			day, month = first, second
		}
	case len(s) == 10 && s[4] == '-':
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case len(s) == 10 && s[2] == '-':
		parts := strings.Split(s, "-")
		day, _ = strconv.Atoi(parts[0])
		month, _ = strconv.Atoi(parts[1])
		year, _ = strconv.Atoi(parts[2])
	default:
		return time.Time{}, false
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		// Day overflowed the month, e.g. 31/02.
		return time.Time{}, false
	}
	return t, true
}

// parseAmount reads "-$123.45", "$123.45", "1,234.56" and accounting-style
// "(123.45)" into a signed float.
func parseAmount(s string) float64 {
	cleaned := strings.NewReplacer("$", "", " ", "", "\t", "").Replace(s)
	neg := strings.Contains(cleaned, "(") || strings.HasPrefix(cleaned, "-")
	cleaned = strings.NewReplacer("(", "", ")", "", ",", "", "-", "").Replace(cleaned)
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	if neg {
		return -n
	}
	return n
}

func detectBankName(text string) string {
	lower := strings.ToLower(text)
	for _, bank := range knownBanks {
		if strings.Contains(lower, strings.ToLower(bank)) {
			return bank
		}
	}
	return ""
}
