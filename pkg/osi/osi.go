// Package osi encodes and decodes Option Symbol Identifiers.
//
// An OSI symbol is the ticker followed by the expiration as YYMMDD, a C or P
// for call or put, and the strike multiplied by 1000 as eight zero-padded
// digits. AAPL expiring 2025-06-20 with a 150.00 call strike is
// AAPL250620C00150000. A stock is represented by its bare ticker.
package osi

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the expiration layout inside a symbol.
	DateLayout = "060102"

	// StrikeDigits is the fixed width of the encoded strike.
	StrikeDigits = 8

	// StrikeScale is the number of implied decimal places in the encoded strike.
	StrikeScale = 3
)

var maxStrike = decimal.New(1, StrikeDigits-StrikeScale) // 100000.000

// A two-digit year always means 20YY.
const (
	minYear = 2000
	maxYear = 2099
)

// isTickerRune reports whether r may appear in a ticker. Tickers carry a
// share-class dot (BRK.B) but never digits, since the first digit starts the
// expiration.
func isTickerRune(r rune) bool {
	return (r >= 'A' && r <= 'Z') || r == '.'
}

// normalizeTicker trims and upper-cases a ticker.
func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// OptionType distinguishes calls from puts. Empty marks a stock.
type OptionType int

const (
	Empty OptionType = iota
	Call
	Put
)

// String returns CALL, PUT or an empty string.
func (t OptionType) String() string {
	switch t {
	case Call:
		return "CALL"
	case Put:
		return "PUT"
	default:
		return ""
	}
}

// Letter returns the single letter used inside a symbol.
func (t OptionType) Letter() string {
	switch t {
	case Call:
		return "C"
	case Put:
		return "P"
	default:
		return ""
	}
}

// ParseOptionType accepts C, P, CALL or PUT in any case.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "C", "CALL":
		return Call, nil
	case "P", "PUT":
		return Put, nil
	default:
		return Empty, fmt.Errorf("invalid option type %q: must be CALL or PUT", s)
	}
}

// Contract identifies a stock or a single option contract.
type Contract struct {
	Ticker     string
	Expiration time.Time
	Type       OptionType
	Strike     decimal.NullDecimal
}

// Stock returns the identity of a stock.
func Stock(ticker string) Contract {
	return Contract{Ticker: normalizeTicker(ticker)}
}

// Option returns the identity of an option contract.
func Option(ticker string, expiration time.Time, optionType OptionType, strike decimal.Decimal) Contract {
	y, m, d := expiration.Date()
	return Contract{
		Ticker:     normalizeTicker(ticker),
		Expiration: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Type:       optionType,
		Strike:     decimal.NewNullDecimal(strike),
	}
}

// IsOption reports whether c is an option contract.
func (c Contract) IsOption() bool {
	return c.Type != Empty
}

// Validate checks the ticker alphabet, that option type, strike and
// expiration are either all present or all absent, and that an expiration
// fits the two-digit year.
func (c Contract) Validate() error {
	ticker := normalizeTicker(c.Ticker)
	if ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	if strings.IndexFunc(ticker, func(r rune) bool { return !isTickerRune(r) }) != -1 {
		return fmt.Errorf("ticker %q may only contain letters and '.'", c.Ticker)
	}
	hasType := c.Type != Empty
	hasStrike := c.Strike.Valid
	hasExpiration := !c.Expiration.IsZero()
	if hasType != hasStrike || hasStrike != hasExpiration {
		return fmt.Errorf("%s: option type, strike and expiration must be set together", c.Ticker)
	}
	if hasExpiration {
		if y := c.Expiration.Year(); y < minYear || y > maxYear {
			return fmt.Errorf("expiration %s is outside %d-%d", c.Expiration.Format(time.DateOnly), minYear, maxYear)
		}
	}
	return nil
}

// Equal reports whether both identities name the same instrument.
func (c Contract) Equal(o Contract) bool {
	if normalizeTicker(c.Ticker) != normalizeTicker(o.Ticker) || c.Type != o.Type {
		return false
	}
	if c.Strike.Valid != o.Strike.Valid {
		return false
	}
	if c.Strike.Valid && !c.Strike.Decimal.Equal(o.Strike.Decimal) {
		return false
	}
	y1, m1, d1 := c.Expiration.Date()
	y2, m2, d2 := o.Expiration.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// String returns the symbol, or a readable fallback when c cannot be encoded.
func (c Contract) String() string {
	s, err := Encode(c)
	if err != nil {
		return c.Ticker
	}
	return s
}
