// Package marketdata merges independently fetched trade and quote feeds into
// a single snapshot row per instrument.
package marketdata

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonandersen/apca/pkg/osi"
)

// Trade is the latest trade of an instrument.
type Trade struct {
	Contract  osi.Contract
	Last      decimal.NullDecimal
	Size      int64
	Timestamp time.Time
}

// Quote is the latest top-of-book quote of an instrument.
type Quote struct {
	Contract  osi.Contract
	Bid       decimal.NullDecimal
	Ask       decimal.NullDecimal
	BidSize   int64
	AskSize   int64
	Timestamp time.Time
}

// Row is the reconciled snapshot of one instrument. Fields of a feed that
// did not report the instrument are left unset and HasTrade or HasQuote is
// false.
type Row struct {
	Contract  osi.Contract
	Last      decimal.NullDecimal
	Bid       decimal.NullDecimal
	Ask       decimal.NullDecimal
	BidSize   int64
	AskSize   int64
	Size      int64
	Timestamp time.Time
	HasTrade  bool
	HasQuote  bool
}

// Incomplete reports whether no last price could be determined.
func (r Row) Incomplete() bool {
	return !r.Last.Valid
}

// Price converts a float feed value, treating NaN and infinities as absent.
func Price(f float64) decimal.NullDecimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(f))
}

// Mid returns round((bid+ask)/2, 2), or an invalid value when either side is
// missing.
func Mid(bid, ask decimal.NullDecimal) decimal.NullDecimal {
	if !bid.Valid || !ask.Valid {
		return decimal.NullDecimal{}
	}
	mid := bid.Decimal.Add(ask.Decimal).Div(decimal.NewFromInt(2)).Round(2)
	return decimal.NewNullDecimal(mid)
}
