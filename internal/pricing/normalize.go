package pricing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Normalize parses localized price text into a numeric value. French
// retailers write prices like "1 299,99 €"; the comma is the decimal
// separator and grouping characters vary. Returns false for empty,
// non-numeric or multiply-punctuated input, never an error.
func Normalize(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, ",", ".")

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}

	// "1.299.99" style input keeps both separators and fails here
	value, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Round2 rounds a monetary or percentage value to 2 decimals exactly
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
