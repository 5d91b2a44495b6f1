package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain"
)

var accountNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)account\s*(?:no\.?|number|#)\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
}

var usagePattern = regexp.MustCompile(`(?i)([\d,]+\.?\d*)\s*kwh`)

var utilityAmountPatterns = []*regexp.Regexp{
	amountPattern(`amount\s*due`),
	amountPattern(`total\s*due`),
	amountPattern(`current\s*charges`),
	amountPattern(`total`),
}

// UtilityBill extracts account_number, date, usage_kwh and amount_due.
type UtilityBill struct{}

// Extract implements Extractor.
func (UtilityBill) Extract(text string) domain.Fields {
	fields := domain.Fields{}

	if acct, ok := firstSubmatch(accountNumberPatterns, text); ok {
		fields["account_number"] = strings.ToUpper(acct)
	}
	if date, ok := findDate(text); ok {
		fields["date"] = date
	}
	if m := usagePattern.FindStringSubmatch(text); m != nil {
		if kwh, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			fields["usage_kwh"] = kwh
		}
	}
	if amount, ok := findAmount(utilityAmountPatterns, text); ok {
		fields["amount_due"] = amount
	}
	return fields
}
