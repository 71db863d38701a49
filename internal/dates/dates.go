// Package dates normalizes the date-ish values contributors put in CSV files
// into canonical ISO yyyy-MM-dd strings.
package dates

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// ISOLayout is the canonical output layout.
const ISOLayout = "2006-01-02"

// layouts are tried in fixed priority order. The UK day-first form wins over
// the US month-first form, so "01/02/2023" normalizes to 2023-02-01.
var layouts = []string{
	"02/01/2006",
	"01/02/2006",
	ISOLayout,
}

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// Year-only fallback bounds, inclusive.
const (
	minYear = 1900
	maxYear = 2100
)

// Normalize converts a raw date-like value into an ISO date string. It
// accepts time.Time values, strings in the supported layouts, and bare
// four-digit years in [1900,2100] (normalized to YYYY-01-01). The second
// return is false on total failure; callers treat that as a validation
// finding, never a crash. Normalize is idempotent for ISO input.
func Normalize(value any) (string, bool) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.Format(ISOLayout), true
	case string:
		return normalizeString(v)
	case float64:
		if v != math.Trunc(v) {
			return "", false
		}
		return normalizeYear(int(v))
	case int:
		return normalizeYear(v)
	default:
		return "", false
	}
}

func normalizeString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ISOLayout), true
		}
	}
	if yearPattern.MatchString(s) {
		t, err := time.Parse("2006", s)
		if err != nil {
			return "", false
		}
		return normalizeYear(t.Year())
	}
	return "", false
}

func normalizeYear(year int) (string, bool) {
	if year < minYear || year > maxYear {
		return "", false
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).Format(ISOLayout), true
}
