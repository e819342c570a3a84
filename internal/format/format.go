package format

import (
	"math/big"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale is used when callers do not pass a language tag.
var DefaultLocale = language.AmericanEnglish

// Number formats v with the grouping and decimal separators of tag, keeping at
// most maxFraction fraction digits.
// Example: Number(language.English, 1234567.5, 3) => "1,234,567.5"
func Number(tag language.Tag, v float64, maxFraction int) string {
	if tag == language.Und {
		tag = DefaultLocale
	}
	if maxFraction < 0 {
		maxFraction = 0
	}
	p := message.NewPrinter(tag)
	return p.Sprint(number.Decimal(v, number.MaxFractionDigits(maxFraction)))
}

// Fixed renders x with exactly digits fraction digits. Halves round away from
// zero, so Fixed(1.25, 1) is "1.3".
func Fixed(x float64, digits int) string {
	if digits < 0 {
		digits = 0
	}
	r := new(big.Rat)
	if r.SetFloat64(x) == nil {
		// NaN or Inf
		return strconv.FormatFloat(x, 'f', digits, 64)
	}
	return r.FloatString(digits)
}
