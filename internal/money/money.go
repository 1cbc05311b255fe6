// Package money parses and formats Brazilian currency strings. The input is
// locale-ambiguous free text, so parsing is a heuristic: it favors the
// pt-BR convention where the dot separates thousands and the comma marks
// decimals.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts a currency-ish string to a float.
//
//	"60.000,00" -> 60000
//	"60.000"    -> 60000  (three digits after the last dot: thousands)
//	"60.50"     -> 60.5   (two digits after the dot: decimal)
//	"60,5"      -> 60.5
//
// Empty or unparseable input yields 0. The three-digit rule is lossy for
// genuine 3-decimal values ("1.234" is read as 1234); that ambiguity is
// inherent to the source data and deliberately kept.
func ParseAmount(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	clean := strings.Trim(b.String(), ".,")
	if clean == "" {
		return 0
	}

	hasComma := strings.Contains(clean, ",")
	hasDot := strings.Contains(clean, ".")

	switch {
	case hasComma && hasDot:
		// pt-BR "1.000,00": dots are thousands, comma is the decimal point.
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case hasDot:
		// "60.000", "1.000.000": exactly three digits after the last dot
		// means thousands separators. Anything else ("60.50") is a decimal.
		if i := strings.LastIndex(clean, "."); len(clean)-i-1 == 3 {
			clean = strings.ReplaceAll(clean, ".", "")
		}
	case hasComma:
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatBR renders a float in the pt-BR display form: 60000 -> "60.000,00".
// Zero renders as "0,00".
func FormatBR(v float64) string {
	if v == 0 {
		return "0,00"
	}
	neg := v < 0
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	intPart, decPart, _ := strings.Cut(s, ".")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := fmt.Sprintf("%s,%s", strings.Join(groups, "."), decPart)
	if neg {
		out = "-" + out
	}
	return out
}
