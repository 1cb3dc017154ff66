// Package extractor pulls per-page text out of PDF statements. It tries a
// few extraction strategies in order and refuses to return text that fails
// a readability gate, so scanned or garbage-encoded documents surface as
// errors instead of junk transactions downstream.
package extractor

import (
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	pkgerrors "github.com/pkg/errors"
)

// ExtractFile reads a PDF from disk and returns the text of each page.
func ExtractFile(path string) (pages []string, err error) {
	defer recoverExtract(&err)

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open pdf")
	}
	defer f.Close()

	return extract(r)
}

// ExtractReader extracts page text from an in-memory or uploaded PDF.
func ExtractReader(ra io.ReaderAt, size int64) (pages []string, err error) {
	defer recoverExtract(&err)

	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "read pdf")
	}
	return extract(r)
}

// The pdf library panics on some malformed documents.
func recoverExtract(err *error) {
	if r := recover(); r != nil {
		*err = pkgerrors.Errorf("pdf library crashed: %v", r)
	}
}

func extract(r *pdf.Reader) ([]string, error) {
	numPages := r.NumPage()
	if numPages == 0 {
		return nil, pkgerrors.New("pdf has no pages")
	}

	// Row-based extraction preserves layout best; per-page plain text and
	// whole-document plain text follow different decoding paths and catch
	// documents the first method garbles.
	pages := extractByRow(r, numPages)
	if IsReadableText(pages) {
		return pages, nil
	}

	pages = extractByPagePlainText(r, numPages)
	if IsReadableText(pages) {
		return pages, nil
	}

	if text := extractByReaderPlainText(r); IsReadableText([]string{text}) {
		return []string{text}, nil
	}

	return nil, pkgerrors.New("no readable text could be extracted; the document may be scanned or use undecodable font encodings")
}

func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func extractByPagePlainText(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Words that show up in virtually every bank statement. Extracted text
// containing none of them is almost certainly decode garbage.
var statementWords = []string{
	"bank", "account", "balance", "date", "payment", "statement",
	"total", "amount", "credit", "debit", "transaction",
	"transfer", "opening", "closing", "page", "period",
}

// IsReadableText reports whether extracted pages look like real statement
// text: more than 50 characters, over 60% plain ASCII, and at least one
// word a statement would contain. Identity-encoded fonts produce accented
// noise that passes unicode.IsLetter, hence the strict ASCII test.
func IsReadableText(pages []string) bool {
	total, readable, textLen := 0, 0, 0
	for _, page := range pages {
		textLen += len(strings.TrimSpace(page))
		for _, r := range page {
			total++
			if isPlainChar(r) {
				readable++
			}
		}
	}
	if textLen <= 50 || total == 0 {
		return false
	}
	if float64(readable)/float64(total) <= 0.6 {
		return false
	}
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

func isPlainChar(r rune) bool {
	if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
		return true
	}
	if unicode.IsSpace(r) {
		return true
	}
	return strings.ContainsRune(`.,-/:;()'"$%&@#!?+=*£€`, r)
}
