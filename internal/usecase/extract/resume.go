package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/docdex/internal/domain"
)

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(\d{3}\)\s*\d{3}-\d{4}`),
	regexp.MustCompile(`\d{3}-\d{3}-\d{4}`),
	regexp.MustCompile(`\+?\d{1,3}[-. ]?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}`),
}

// Explicitly stated experience ("8 years of experience") takes precedence over
// anything inferred from date ranges.
var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*\+?\s*(?:years?|yrs?)\s*(?:of\s*)?experience`),
	regexp.MustCompile(`(?i)experience\s*:?\s*(\d+)\s*\+?\s*(?:years?|yrs?)`),
}

// nameScanLines is how far into the document the name heuristic looks.
const nameScanLines = 5

// Resume extracts name, email, phone and experience_years.
type Resume struct{}

// Extract implements Extractor.
func (Resume) Extract(text string) domain.Fields {
	fields := domain.Fields{}

	if name, ok := findName(text); ok {
		fields["name"] = name
	}
	if email := emailPattern.FindString(text); email != "" {
		fields["email"] = email
	}
	if phone, ok := findPhone(text); ok {
		fields["phone"] = phone
	}
	if years, ok := findExperienceYears(text); ok {
		fields["experience_years"] = years
	}
	return fields
}

// findName looks for the first top-of-text line with 2-4 title-case words that
// is not a section header, an e-mail, or a phone number.
func findName(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	if len(lines) > nameScanLines {
		lines = lines[:nameScanLines]
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.ContainsAny(line, "@0123456789") {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "resume") || strings.Contains(lower, "curriculum") ||
			strings.Contains(lower, "vitae") || lower == "cv" {
			continue
		}

		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		if allTitleCase(words) {
			return line, true
		}
	}
	return "", false
}

func allTitleCase(words []string) bool {
	for _, w := range words {
		r := []rune(w)[0]
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func findPhone(text string) (string, bool) {
	for _, p := range phonePatterns {
		if m := p.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}

func findExperienceYears(text string) (int, bool) {
	for _, p := range experiencePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		years, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return years, true
	}
	return 0, false
}
