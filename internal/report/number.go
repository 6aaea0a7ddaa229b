// internal/report/number.go
// Package: report
package report

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// NumberStyle selects how rounded values are printed in delimited exports.
type NumberStyle string

const (
	// StyleCompat prints zero as "0" and every other value in its shortest
	// form after rounding, so 2.0 becomes "2".
	StyleCompat NumberStyle = "compat"
	// StyleFixed always prints exactly the requested number of decimals.
	StyleFixed NumberStyle = "fixed"
)

// ParseNumberStyle accepts "compat" (or empty) and "fixed".
func ParseNumberStyle(s string) (NumberStyle, error) {
	switch NumberStyle(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleCompat:
		return StyleCompat, nil
	case StyleFixed:
		return StyleFixed, nil
	default:
		return "", fmt.Errorf("unknown number style %q (want compat or fixed)", s)
	}
}

// ToFixed formats v with exactly digits decimals. Ties are resolved away
// from zero on the exact binary value, so 1.005 (stored as 1.00499...)
// gives "1.00" while 0.125 gives "0.13".
func ToFixed(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if digits < 0 {
		digits = 0
	}
	neg := v < 0
	r := new(big.Rat).SetFloat64(math.Abs(v))

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	r.Add(r, big.NewRat(1, 2))
	n := new(big.Int).Quo(r.Num(), r.Denom())

	s := n.String()
	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}
	if neg && strings.Trim(s, "0.") != "" {
		s = "-" + s
	}
	return s
}

// FormatValue rounds v to digits decimals and prints it in the given style.
func FormatValue(v float64, digits int, style NumberStyle) string {
	if style == StyleFixed {
		return ToFixed(v, digits)
	}
	if v == 0 {
		return "0"
	}
	rounded, err := strconv.ParseFloat(ToFixed(v, digits), 64)
	if err != nil {
		return ToFixed(v, digits)
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// FormatScore prints a score without rounding.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
