package fallback

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hellboyz13/bankstatement/internal/domain"
)

var (
	// "28 JUL 23 JUL BUS/MRT 676443472 SINGAPORE": posting date first,
	// then the transaction date, then the description.
	uobRowPattern = regexp.MustCompile(`(?i)^(\d{1,2})\s+(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)\s+(\d{1,2})\s+(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)\s+(.+)`)
	// Trailing amount with an optional CR marker for credits.
	uobTrailingAmount = regexp.MustCompile(`([\d,]+\.\d{2})(CR)?$`)
	uobAmountOnly     = regexp.MustCompile(`^([\d,]+\.\d{2})(CR)?$`)
	uobForeignAmount  = regexp.MustCompile(`MYR\s*[\d,.]+$`)
	uobYearPattern    = regexp.MustCompile(`20\d{2}`)
)

var uobMonths = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// uobCardParser handles UOB credit card statements, whose rows carry a
// posting date and a transaction date but no year, and whose amount often
// lands on its own line after a reference number.
type uobCardParser struct{}

func (*uobCardParser) Name() string { return "UOB Credit Card" }

func (*uobCardParser) Detect(text string) bool {
	lower := strings.ToLower(text)
	isUOB := strings.Contains(lower, "uob") || strings.Contains(lower, "united overseas bank")
	isCard := strings.Contains(lower, "credit card") ||
		strings.Contains(lower, "credit limit") ||
		strings.Contains(lower, "card.centre@uobgroup.com")
	return isUOB && isCard
}

func (*uobCardParser) Parse(text string, opts Options) ([]domain.Transaction, domain.StatementMeta) {
	lines := strings.Split(text, "\n")
	year := statementYear(lines)
	currency := opts.currency()

	var txs []domain.Transaction
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if skipUOBLine(line) {
			continue
		}
		m := uobRowPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		postDay, _ := strconv.Atoi(m[1])
		postMonth := uobMonths[strings.ToUpper(m[2])]
		transDay, _ := strconv.Atoi(m[3])
		transMonth := uobMonths[strings.ToUpper(m[4])]
		rest := m[5]

		var amount float64
		var description string
		if am := uobTrailingAmount.FindStringSubmatch(rest); am != nil {
			amount = uobAmount(am[1], am[2] == "CR")
			description = strings.TrimSpace(uobForeignAmount.ReplaceAllString(
				uobTrailingAmount.ReplaceAllString(rest, ""), ""))
		} else {
			// Amount is on a following line, after the reference number
			// and any foreign currency echo.
			description = strings.TrimSpace(rest)
			amount = lookaheadAmount(lines, i)
			if amount == 0 {
				continue
			}
		}

		if len(description) < 2 {
			continue
		}

		tx := domain.Transaction{
			Date:        time.Date(year, transMonth, transDay, 0, 0, 0, 0, time.UTC),
			Description: description,
			Amount:      amount,
			Currency:    domain.StringPtr(currency),
			Type:        domain.TypeFromAmount(amount),
		}
		posting := time.Date(year, postMonth, postDay, 0, 0, 0, 0, time.UTC)
		tx.PostingDate = &posting
		if opts.Categorizer != nil {
			tx.Category = opts.Categorizer.Categorize(description, amount)
		}
		txs = append(txs, tx)
	}

	meta := domain.NewStatementMeta()
	meta.BankName = domain.StringPtr("UOB")
	meta.AccountType = domain.AccountCreditCard
	return txs, meta
}

// statementYear reads the year off the "Statement Date" line; card rows
// only carry day and month. Falls back to the current year.
func statementYear(lines []string) int {
	for _, line := range lines {
		if !strings.Contains(line, "Statement Date") {
			continue
		}
		if m := uobYearPattern.FindString(line); m != "" {
			y, _ := strconv.Atoi(m)
			return y
		}
	}
	return time.Now().Year()
}

func skipUOBLine(line string) bool {
	if len(line) < 10 {
		return true
	}
	for _, marker := range []string{
		"Post", "Trans", "Description",
		"PREVIOUS BALANCE", "SUB TOTAL", "TOTAL BALANCE",
		"continued",
	} {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return strings.Contains(line, "Page ") && strings.Contains(line, " of ")
}

// lookaheadAmount scans up to three lines past a row header for a line
// holding nothing but the amount, skipping reference numbers and foreign
// currency echoes.
func lookaheadAmount(lines []string, i int) float64 {
	for j := i + 1; j < len(lines) && j <= i+3; j++ {
		next := strings.TrimSpace(lines[j])
		if strings.Contains(next, "Ref No.") || strings.Contains(next, "MYR") {
			continue
		}
		if m := uobAmountOnly.FindStringSubmatch(next); m != nil {
			return uobAmount(m[1], m[2] == "CR")
		}
	}
	return 0
}

// Card statements print unsigned amounts; charges are debits and CR marks
// a credit (payment or refund).
func uobAmount(s string, credit bool) float64 {
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	if credit {
		return n
	}
	return -n
}
