package classify

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// matchWeight is the contribution of one keyword or pattern hit to a category's
// rule score. Three hits reach the default override threshold of 0.6.
const matchWeight = 0.2

// rule holds the deterministic lexical evidence for one category.
// Keywords match case-insensitively as substrings; patterns are compiled once.
type rule struct {
	keywords []string
	patterns []*regexp.Regexp
}

var ruleTable = map[domain.Category]rule{
	domain.CategoryInvoice: {
		keywords: []string{
			"invoice", "bill to", "amount due", "total amount", "payment terms",
			"subtotal", "due date", "vat",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)inv(?:oice)?\s*(?:#|no\.?|number)?\s*:?\s*[A-Z]*\d[A-Z0-9-]*`),
		},
	},
	domain.CategoryResume: {
		keywords: []string{
			"resume", "curriculum vitae", "experience", "education", "skills",
			"objective", "professional summary", "work history", "employment",
			"qualifications",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		},
	},
	domain.CategoryUtilityBill: {
		keywords: []string{
			"utility", "electricity", "kwh", "kilowatt", "meter", "usage",
			"service address", "account number", "billing period", "current charges",
		},
	},
}

// RuleScores computes the normalized keyword-evidence score per category.
// Each hit contributes matchWeight; scores are capped at 1. Categories without
// lexical rules (Other) score 0.
func RuleScores(text string) map[domain.Category]float64 {
	lower := strings.ToLower(text)

	scores := make(map[domain.Category]float64, len(domain.ScoringLabels()))
	for _, c := range domain.ScoringLabels() {
		scores[c] = 0
	}

	for category, r := range ruleTable {
		hits := 0
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		for _, p := range r.patterns {
			if p.MatchString(text) {
				hits++
			}
		}
		score := float64(hits) * matchWeight
		if score > 1 {
			score = 1
		}
		scores[category] = score
	}
	return scores
}

// topRuleCategory returns the category with the highest rule score and that
// score. Ties resolve in the fixed label order so output stays deterministic.
func topRuleCategory(scores map[domain.Category]float64) (domain.Category, float64) {
	best := domain.CategoryOther
	bestScore := 0.0
	for _, c := range domain.ScoringLabels() {
		if scores[c] > bestScore {
			best = c
			bestScore = scores[c]
		}
	}
	return best, bestScore
}
