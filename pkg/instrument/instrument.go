// Package instrument models the stock and option legs of a trading strategy.
package instrument

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonandersen/apca/pkg/osi"
)

const (
	// StockRatio is the default ratio of a stock leg: one option covers 100 shares.
	StockRatio = 100

	// OptionRatio is the default ratio of an option leg.
	OptionRatio = 1
)

// Position is the direction of a leg.
type Position int

const (
	Long Position = iota + 1
	Short
)

// String returns LONG or SHORT.
func (p Position) String() string {
	switch p {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// Valid reports whether p is Long or Short.
func (p Position) Valid() bool {
	return p == Long || p == Short
}

// ParsePosition accepts LONG/SHORT as well as BUY/SELL.
func ParsePosition(s string) (Position, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return Long, nil
	case "SHORT", "SELL":
		return Short, nil
	default:
		return 0, fmt.Errorf("invalid position %q: must be BUY or SELL", s)
	}
}

// Symbol identifies a stock by ticker.
type Symbol struct {
	Ticker string
}

// String returns the ticker.
func (s Symbol) String() string {
	return s.Ticker
}

// Settlement groups all option contracts sharing a ticker and expiration.
type Settlement struct {
	Ticker     string
	Expiration time.Time
}

// String returns TICKER|YYYY-MM-DD.
func (s Settlement) String() string {
	return s.Ticker + "|" + s.Expiration.Format(time.DateOnly)
}

// NewSettlement normalizes the ticker and truncates expiration to a date.
func NewSettlement(ticker string, expiration time.Time) Settlement {
	y, m, d := expiration.Date()
	return Settlement{
		Ticker:     strings.ToUpper(ticker),
		Expiration: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}
}

// SymbolOf returns the stock key of c.
func SymbolOf(c osi.Contract) Symbol {
	return Symbol{Ticker: c.Ticker}
}

// SettlementOf returns the settlement key of c. Stocks have a zero expiration.
func SettlementOf(c osi.Contract) Settlement {
	if !c.IsOption() {
		return Settlement{Ticker: c.Ticker}
	}
	return NewSettlement(c.Ticker, c.Expiration)
}

// Leg is one buy or sell component of a multi-leg order.
type Leg struct {
	Contract osi.Contract
	Position Position
	Ratio    int
}

// String renders the leg as e.g. "LONG 1x AAPL250620C00150000".
func (l Leg) String() string {
	return fmt.Sprintf("%s %dx %s", l.Position, l.Ratio, l.Contract)
}

// Equal reports whether both legs trade the same contract the same way.
func (l Leg) Equal(o Leg) bool {
	return l.Position == o.Position && l.Ratio == o.Ratio && l.Contract.Equal(o.Contract)
}

// Validate checks position, ratio and contract identity.
func (l Leg) Validate() error {
	if !l.Position.Valid() {
		return fmt.Errorf("%s: invalid position %s", l.Contract.Ticker, l.Position)
	}
	if l.Ratio < 1 {
		return fmt.Errorf("%s: ratio must be at least 1, got %d", l.Contract.Ticker, l.Ratio)
	}
	return l.Contract.Validate()
}

// StockLeg returns a 100-share leg of ticker.
func StockLeg(ticker string, position Position) (Leg, error) {
	if strings.TrimSpace(ticker) == "" {
		return Leg{}, fmt.Errorf("ticker is required")
	}
	if !position.Valid() {
		return Leg{}, fmt.Errorf("%s: invalid position %s", ticker, position)
	}
	return Leg{
		Contract: osi.Stock(strings.TrimSpace(ticker)),
		Position: position,
		Ratio:    StockRatio,
	}, nil
}

// OptionLeg returns a one-contract leg in the given settlement.
func OptionLeg(settlement Settlement, optionType osi.OptionType, strike decimal.Decimal, position Position) (Leg, error) {
	if settlement.Ticker == "" || settlement.Expiration.IsZero() {
		return Leg{}, fmt.Errorf("settlement requires a ticker and an expiration")
	}
	if optionType != osi.Call && optionType != osi.Put {
		return Leg{}, fmt.Errorf("%s: option type must be CALL or PUT", settlement)
	}
	if !strike.IsPositive() {
		return Leg{}, fmt.Errorf("%s: strike must be positive, got %s", settlement, strike)
	}
	if !position.Valid() {
		return Leg{}, fmt.Errorf("%s: invalid position %s", settlement, position)
	}
	return Leg{
		Contract: osi.Option(settlement.Ticker, settlement.Expiration, optionType, strike),
		Position: position,
		Ratio:    OptionRatio,
	}, nil
}

// Legs is an ordered set of legs.
type Legs []Leg

// Tickers returns the distinct underlying tickers in first-seen order.
func (ls Legs) Tickers() []Symbol {
	seen := make(map[string]bool)
	var out []Symbol
	for _, l := range ls {
		if seen[l.Contract.Ticker] {
			continue
		}
		seen[l.Contract.Ticker] = true
		out = append(out, SymbolOf(l.Contract))
	}
	return out
}

// Settlements returns the distinct settlements of the option legs in
// first-seen order.
func (ls Legs) Settlements() []Settlement {
	seen := make(map[Settlement]bool)
	var out []Settlement
	for _, l := range ls {
		if !l.Contract.IsOption() {
			continue
		}
		s := SettlementOf(l.Contract)
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Contracts returns the contract of every leg.
func (ls Legs) Contracts() []osi.Contract {
	out := make([]osi.Contract, len(ls))
	for i, l := range ls {
		out[i] = l.Contract
	}
	return out
}
