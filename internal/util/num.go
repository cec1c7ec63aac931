package util

import (
	"regexp"
	"strconv"
	"strings"
)

var rePlainNumber = regexp.MustCompile(`^\d+\.?\d*$`)

// ParseNumber parses a numeric token after stripping thousands separators
// ("1,50,500.50" style included). Returns false for anything that is not a
// plain positive decimal.
func ParseNumber(token string) (float64, bool) {
	compact := strings.TrimSpace(token)
	compact = strings.ReplaceAll(compact, ",", "")
	compact = strings.ReplaceAll(compact, " ", "")
	if compact == "" || !rePlainNumber.MatchString(compact) {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(compact, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// ParseNumberInRange parses like ParseNumber and additionally rejects values
// outside [min, max].
func ParseNumberInRange(token string, min, max float64) (float64, bool) {
	val, ok := ParseNumber(token)
	if !ok || val < min || val > max {
		return 0, false
	}
	return val, true
}

// IsNumericLine reports whether a line holds nothing but digits, whitespace
// and numeric punctuation (including currency clutter seen in rate columns).
func IsNumericLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == ',' || r == ' ' || r == '%' || r == '`' || r == '₹':
		default:
			return false
		}
	}
	return true
}

func FloatPtr(v float64) *float64 { return &v }

func IntPtr(v int) *int { return &v }
