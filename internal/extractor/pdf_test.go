package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReadableText(t *testing.T) {
	statement := `ACME BANK
Account Statement for January 2024
Opening balance 1,000.00
15/01/2024 Coffee -5.50 994.50
Closing balance 994.50`

	tests := []struct {
		name  string
		pages []string
		want  bool
	}{
		{"real statement text", []string{statement}, true},
		{"empty", nil, false},
		{"too short", []string{"bank"}, false},
		{
			"binary garbage",
			[]string{strings.Repeat("\x01\x02\xfe\xff", 100)},
			false,
		},
		{
			// Identity-encoded fonts decode into accented noise that is
			// long enough but fails the ASCII ratio.
			"font garbage",
			[]string{strings.Repeat("þàçéíóúñþàçéíóúñ", 20)},
			false,
		},
		{
			// Readable ASCII but nothing a statement would say.
			"unrelated text",
			[]string{strings.Repeat("lorem ipsum dolor sit amet ", 10)},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReadableText(tt.pages))
		})
	}
}

func TestExtractFileMissing(t *testing.T) {
	_, err := ExtractFile("/nonexistent/statement.pdf")
	assert.Error(t, err)
}
