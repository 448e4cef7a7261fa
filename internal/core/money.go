package core

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidNumber is returned by ParseMeasure for anything that is not a
// finite, non-negative decimal number.
var ErrInvalidNumber = errors.New("invalid number")

// ParseMeasure parses a kWh or currency amount typed by a user.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted and
// surrounding whitespace is ignored. Negative values and values too large
// for a float64 are rejected.
func ParseMeasure(s string) (float64, error) {
	v, err := parseNumber(s)
	if err != nil || v < 0 {
		return 0, ErrInvalidNumber
	}
	return v, nil
}

// ParseMeasureOrZero is the lenient variant used for imported files:
// anything ParseMeasure rejects becomes 0.
func ParseMeasureOrZero(s string) float64 {
	v, err := ParseMeasure(s)
	if err != nil {
		return 0
	}
	return v
}

// ParseNumberOrZero is ParseMeasureOrZero for signed values such as a
// savings percentage.
func ParseNumberOrZero(s string) float64 {
	v, err := parseNumber(s)
	if err != nil {
		return 0
	}
	return v
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, ErrInvalidNumber
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrInvalidNumber
	}
	return v, nil
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
