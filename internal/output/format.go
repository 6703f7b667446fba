package output

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Missing is shown for values that are not available.
const Missing = "-"

// Price renders a price with two decimals, or Missing.
func Price(d decimal.NullDecimal) string {
	if !d.Valid {
		return Missing
	}
	return d.Decimal.StringFixed(2)
}

// Money renders an amount as $1,234.56, or Missing.
func Money(d decimal.NullDecimal) string {
	if !d.Valid {
		return Missing
	}
	s := d.Decimal.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	sign := ""
	if d.Decimal.IsNegative() {
		sign = "-"
	}
	return sign + "$" + groupThousands(whole) + "." + frac
}

// GainLoss renders a signed amount as +$1.50 or -$1.50. Zero and missing
// values render as $0.00.
func GainLoss(d decimal.NullDecimal) string {
	if !d.Valid || d.Decimal.IsZero() {
		return "$0.00"
	}
	s := Money(d)
	if d.Decimal.IsPositive() {
		return "+" + s
	}
	return s
}

// Volume renders a size with thousand separators. Zero renders as Missing.
func Volume(v int64) string {
	if v == 0 {
		return Missing
	}
	s := strconv.FormatInt(v, 10)
	if v < 0 {
		return "-" + groupThousands(s[1:])
	}
	return groupThousands(s)
}

// Timestamp renders t in UTC, or Missing for the zero time.
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return Missing
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// Date renders the calendar date of t, or Missing.
func Date(t time.Time) string {
	if t.IsZero() {
		return Missing
	}
	return t.Format("2006-01-02")
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
