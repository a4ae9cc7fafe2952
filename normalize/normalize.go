// Package normalize coerces raw scraped strings into typed values. Every
// function is pure and total: malformed input degrades to absent or a zero
// default, never to an error, because upstream markup is unstable and a
// partial record beats a failed one.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultCurrency is used whenever a price is found without a recognizable
// currency glyph.
const DefaultCurrency = "$"

var (
	decimalRegex  = regexp.MustCompile(`\d+(?:\.\d+)?`)
	integerRegex  = regexp.MustCompile(`\d+`)
	jointRegex    = regexp.MustCompile(`([$€£])\s*([\d,]+(?:\.\d+)?)`)
	joinDateRegex = regexp.MustCompile(`([A-Z][a-z]+)\s+(\d{4})`)
)

// Text trims whitespace. Empty or whitespace-only input yields nil, never an
// empty string.
func Text(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	return &s
}

// Price strips thousands separators and extracts the first run of digits
// with an optional decimal point. Nil when no digits are found.
func Price(raw string) *float64 {
	cleaned := strings.ReplaceAll(raw, ",", "")
	m := decimalRegex.FindString(cleaned)
	if m == "" {
		return nil
	}
	val, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &val
}

// PriceWithCurrency parses a combined "<symbol><digits>" token like "$1,234"
// or "€56 / night". When no symbol is recognized the currency defaults to
// DefaultCurrency and the price falls back to Price alone.
func PriceWithCurrency(raw string) (*float64, string) {
	if m := jointRegex.FindStringSubmatch(raw); m != nil {
		val, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if err == nil {
			return &val, m[1]
		}
	}
	return Price(raw), DefaultCurrency
}

// Count extracts the first integer run. Zero when absent.
func Count(raw string) int {
	m := integerRegex.FindString(raw)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// Rating extracts a 0–5 rating. Out-of-range or missing values yield nil.
func Rating(raw string) *float64 {
	m := decimalRegex.FindString(raw)
	if m == "" {
		return nil
	}
	val, err := strconv.ParseFloat(m, 64)
	if err != nil || val < 0 || val > 5 {
		return nil
	}
	return &val
}

// JoinDate parses a "Month YYYY" phrase (e.g. "Joined in March 2019") into
// the first day of that month. Any parse failure yields nil.
func JoinDate(raw string) *time.Time {
	m := joinDateRegex.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	t, err := time.Parse("January 2006", m[1]+" "+m[2])
	if err != nil {
		return nil
	}
	return &t
}

// AmenityKey is the comparison key for amenity names: lower-cased and
// whitespace-trimmed, so "WiFi" and " wifi " collapse to one entry.
func AmenityKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
