package extract

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain"
)

var invoiceNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)invoice\s*(?:no\.?|number)\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)invoice\s*#\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)\binv\s*#?\s*:?\s*([A-Z0-9][A-Z0-9-]*\d[A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)invoice\s*:\s*([A-Z0-9][A-Z0-9-]*)`),
}

// Keyword-anchored amounts, most specific first. The last/bare "total" is the
// weakest anchor and only consulted when nothing better matched.
var invoiceAmountPatterns = []*regexp.Regexp{
	amountPattern(`total\s*amount`),
	amountPattern(`amount\s*due`),
	amountPattern(`total\s*due`),
	amountPattern(`grand\s*total`),
	amountPattern(`balance\s*(?:due)?`),
	amountPattern(`total`),
}

// Company heuristic: a capitalized run of words ending in a legal-entity suffix.
var companyPattern = regexp.MustCompile(
	`([A-Z][A-Za-z&' ]+ (?:Inc|LLC|Ltd|Corporation|Corp|Company|Co))\b\.?`,
)

// Invoice extracts invoice_number, date, company and total_amount.
type Invoice struct{}

// Extract implements Extractor.
func (Invoice) Extract(text string) domain.Fields {
	fields := domain.Fields{}

	if num, ok := firstSubmatch(invoiceNumberPatterns, text); ok {
		fields["invoice_number"] = strings.ToUpper(num)
	}
	if date, ok := findDate(text); ok {
		fields["date"] = date
	}
	if m := companyPattern.FindStringSubmatch(text); m != nil {
		fields["company"] = strings.TrimSpace(m[1])
	}
	if amount, ok := findAmount(invoiceAmountPatterns, text); ok {
		fields["total_amount"] = amount
	}
	return fields
}
