package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date patterns, tried in order; the first match wins.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`\d{2}/\d{2}/\d{4}`),
	regexp.MustCompile(`\d{2}-\d{2}-\d{4}`),
	regexp.MustCompile(`(?i)(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4}`),
}

// Layouts accepted by normalizeDate. US month-first is assumed for slash
// dates, day-first for dashed numeric dates.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
}

// findDate returns the first recognizable date in the text, normalized to
// ISO 8601 (YYYY-MM-DD).
func findDate(text string) (string, bool) {
	for _, p := range datePatterns {
		if m := p.FindString(text); m != "" {
			if iso, ok := normalizeDate(m); ok {
				return iso, true
			}
		}
	}
	return "", false
}

func normalizeDate(s string) (string, bool) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// findAmount returns the first currency value captured by the given keyword
// patterns, tried in order. Thousands separators are tolerated.
func findAmount(patterns []*regexp.Regexp, text string) (float64, bool) {
	for _, p := range patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

// firstSubmatch returns the first capture group of the first matching pattern.
func firstSubmatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// amountPattern builds a keyword-anchored currency capture.
func amountPattern(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + keyword + `\s*:?\s*\$?\s*([\d,]+\.?\d*)`)
}
