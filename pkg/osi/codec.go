package osi

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// EncodingError is returned when a contract cannot be rendered as a symbol.
type EncodingError struct {
	Contract Contract
	Reason   string
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	if e.Contract.Ticker == "" {
		return fmt.Sprintf("cannot encode symbol: %s", e.Reason)
	}
	return fmt.Sprintf("cannot encode symbol for %s: %s", e.Contract.Ticker, e.Reason)
}

// DecodingError is returned when a token is not a valid symbol.
type DecodingError struct {
	Token  string
	Reason string
}

// Error implements the error interface.
func (e *DecodingError) Error() string {
	return fmt.Sprintf("invalid symbol %q: %s", e.Token, e.Reason)
}

// Encode renders c as an OSI symbol, or as its bare ticker for a stock.
func Encode(c Contract) (string, error) {
	ticker := normalizeTicker(c.Ticker)
	if ticker == "" {
		return "", &EncodingError{Contract: c, Reason: "ticker is empty"}
	}
	if err := c.Validate(); err != nil {
		return "", &EncodingError{Contract: c, Reason: err.Error()}
	}
	if !c.IsOption() {
		return ticker, nil
	}

	strike := c.Strike.Decimal
	if !strike.IsPositive() {
		return "", &EncodingError{Contract: c, Reason: fmt.Sprintf("strike %s must be positive", strike)}
	}
	scaled := strike.Shift(StrikeScale)
	if !scaled.Equal(scaled.Truncate(0)) {
		return "", &EncodingError{Contract: c, Reason: fmt.Sprintf("strike %s has more than %d decimal places", strike, StrikeScale)}
	}
	if strike.GreaterThanOrEqual(maxStrike) {
		return "", &EncodingError{Contract: c, Reason: fmt.Sprintf("strike %s does not fit in %d digits", strike, StrikeDigits)}
	}

	var b strings.Builder
	b.WriteString(ticker)
	b.WriteString(c.Expiration.Format(DateLayout))
	b.WriteString(c.Type.Letter())
	b.WriteString(fmt.Sprintf("%0*d", StrikeDigits, scaled.IntPart()))
	return b.String(), nil
}

// Decode parses a symbol. A token with a digit after its leading letters is
// decoded as an option; a token of letters only is a stock.
func Decode(token string) (Contract, error) {
	s := normalizeTicker(token)
	if s == "" {
		return Contract{}, &DecodingError{Token: token, Reason: "empty symbol"}
	}

	end := strings.IndexFunc(s, func(r rune) bool { return !isTickerRune(r) })
	if end == -1 {
		return Stock(s), nil
	}
	if end == 0 {
		return Contract{}, &DecodingError{Token: token, Reason: "missing ticker"}
	}

	ticker, rest := s[:end], s[end:]
	if !strings.ContainsFunc(rest, unicode.IsDigit) {
		return Contract{}, &DecodingError{Token: token, Reason: "unexpected characters after ticker"}
	}

	// rest is YYMMDD + type letter + 8 strike digits
	want := len(DateLayout) + 1 + StrikeDigits
	if len(rest) != want {
		return Contract{}, &DecodingError{Token: token, Reason: fmt.Sprintf("expected %d characters after ticker, got %d", want, len(rest))}
	}

	datePart := rest[:len(DateLayout)]
	typePart := rest[len(DateLayout) : len(DateLayout)+1]
	strikePart := rest[len(DateLayout)+1:]

	if !allDigits(datePart) {
		return Contract{}, &DecodingError{Token: token, Reason: fmt.Sprintf("invalid expiration %q", datePart)}
	}
	// time.Parse pivots two-digit years at 69, so the century is fixed here.
	expiration, err := time.Parse("2006"+DateLayout[2:], "20"+datePart)
	if err != nil {
		return Contract{}, &DecodingError{Token: token, Reason: fmt.Sprintf("invalid expiration %q", datePart)}
	}

	var optionType OptionType
	switch typePart {
	case "C":
		optionType = Call
	case "P":
		optionType = Put
	default:
		return Contract{}, &DecodingError{Token: token, Reason: fmt.Sprintf("invalid option type %q", typePart)}
	}

	if !allDigits(strikePart) {
		return Contract{}, &DecodingError{Token: token, Reason: fmt.Sprintf("invalid strike %q", strikePart)}
	}
	scaled, err := decimal.NewFromString(strikePart)
	if err != nil {
		return Contract{}, &DecodingError{Token: token, Reason: fmt.Sprintf("invalid strike %q", strikePart)}
	}
	strike := scaled.Shift(-StrikeScale)
	if !strike.IsPositive() {
		return Contract{}, &DecodingError{Token: token, Reason: "strike must be positive"}
	}

	return Option(ticker, expiration, optionType, strike), nil
}

// MustEncode is like Encode but panics on error. It is meant for constants
// and tests.
func MustEncode(c Contract) string {
	s, err := Encode(c)
	if err != nil {
		panic(err)
	}
	return s
}

// MustDecode is like Decode but panics on error.
func MustDecode(token string) Contract {
	c, err := Decode(token)
	if err != nil {
		panic(err)
	}
	return c
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
