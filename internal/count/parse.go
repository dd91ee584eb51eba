// Package count turns follower-count text scraped from a page into integers
// and decides whether a parsed value is a believable follower count.
package count

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrParse is returned for text that does not hold a count. Callers skip
// the candidate.
var ErrParse = errors.New("count: unparseable")

var multipliers = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
}

// Parse converts text such as "1,234", "12.5K" or "3M" into a count.
// Suffixed values are truncated toward zero, so "1.2345K" is 1234.
func Parse(text string) (int64, error) {
	s := normalize(text)
	if s == "" || !strings.ContainsFunc(s, unicode.IsDigit) {
		return 0, fmt.Errorf("%w: %q", ErrParse, text)
	}

	if mult, ok := multipliers[s[len(s)-1]]; ok {
		num := s[:len(s)-1]
		if !isDecimal(num) {
			return 0, fmt.Errorf("%w: %q", ErrParse, text)
		}
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrParse, text)
		}
		// 1.005*1e3 is 1004.9999999999999 in binary floating point.
		v := math.Floor(f*mult + 1e-6)
		if math.IsInf(v, 0) || math.IsNaN(v) || v >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %q out of range", ErrParse, text)
		}
		return int64(v), nil
	}

	if !isDecimal(s) || strings.Contains(s, ".") {
		return 0, fmt.Errorf("%w: %q", ErrParse, text)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrParse, text)
	}
	return n, nil
}

// isDecimal reports whether s is digits with at most one inner decimal point.
func isDecimal(s string) bool {
	digits, dot := 0, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot && digits > 0 && i < len(s)-1:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}

func normalize(text string) string {
	return strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, text)
}
