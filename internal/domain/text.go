package domain

import (
	"regexp"
	"strings"
)

var (
	intraSpace = regexp.MustCompile(`[ \t\f\v]+`)
	junkChars  = regexp.MustCompile(`[^\p{L}\p{N}_\s@#.$,;:()\-/'&%]`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes raw extracted text: whitespace is collapsed within lines
// and stray symbols are dropped, but line breaks survive because the field
// extractors rely on top-of-text line structure.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = junkChars.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(intraSpace.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
