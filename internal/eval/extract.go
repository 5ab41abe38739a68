package eval

import (
	"regexp"
	"strconv"
	"strings"
)

// percentagePatterns capture a final percentage answer in model replies,
// most specific first.
var percentagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)answer:\s*(-?\d+\.?\d*)\s*%`),
	regexp.MustCompile(`(?i)result:\s*(-?\d+\.?\d*)\s*%`),
	regexp.MustCompile(`(?i)is\s+(-?\d+\.?\d*)\s*%`),
	regexp.MustCompile(`(-?\d+\.?\d*)\s*%\s*change`),
	regexp.MustCompile(`(-?\d+\.?\d*)\s*%`),
	regexp.MustCompile(`(?i)(-?\d+\.?\d*)\s*percent`),
}

// ExtractPercentage pulls the percentage answer out of a reply, returning
// e.g. "14.1%", or "" when no percentage is present.
func ExtractPercentage(response string) string {
	for _, p := range percentagePatterns {
		if m := p.FindStringSubmatch(response); m != nil {
			return m[1] + "%"
		}
	}
	return ""
}

// ValidatePercentage compares an extracted percentage with the expected one
// within tolerance (in percentage points). Malformed values never match.
func ValidatePercentage(extracted, expected string, tolerance float64) bool {
	if extracted == "" || expected == "" {
		return false
	}
	ev, err1 := parsePercent(extracted)
	xv, err2 := parsePercent(expected)
	if err1 != nil || err2 != nil {
		return false
	}
	diff := ev - xv
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

func parsePercent(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	return strconv.ParseFloat(s, 64)
}
