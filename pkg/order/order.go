// Package order models multi-leg orders and maps them to and from the
// broker's order-entry wire format.
package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jonandersen/apca/pkg/instrument"
)

// Type is the order type.
type Type int

const (
	Market Type = iota + 1
	Limit
	Stop
	StopLimit
)

var typeNames = map[Type]string{
	Market:    "MARKET",
	Limit:     "LIMIT",
	Stop:      "STOP",
	StopLimit: "STOP_LIMIT",
}

// String returns MARKET, LIMIT, STOP or STOP_LIMIT.
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// HasLimit reports whether orders of this type carry a limit price.
func (t Type) HasLimit() bool {
	return t == Limit || t == StopLimit
}

// HasStop reports whether orders of this type carry a stop price.
func (t Type) HasStop() bool {
	return t == Stop || t == StopLimit
}

// ParseType accepts the names returned by String as well as the lowercase
// wire names.
func ParseType(s string) (Type, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("invalid order type %q", s)
}

// TimeInForce is how long an order stays working.
type TimeInForce int

const (
	Day TimeInForce = iota + 1
	FillOrKill
)

// String returns DAY or FILL_OR_KILL.
func (tif TimeInForce) String() string {
	switch tif {
	case Day:
		return "DAY"
	case FillOrKill:
		return "FILL_OR_KILL"
	default:
		return fmt.Sprintf("TimeInForce(%d)", int(tif))
	}
}

// ParseTimeInForce accepts DAY, FOK or FILL_OR_KILL in any case.
func ParseTimeInForce(s string) (TimeInForce, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DAY":
		return Day, nil
	case "FOK", "FILL_OR_KILL":
		return FillOrKill, nil
	default:
		return 0, fmt.Errorf("invalid time in force %q (use DAY or FOK)", s)
	}
}

// Order is a validated multi-leg order. It cannot be changed after New
// returns it; decoding an acknowledgement yields a new Order.
type Order struct {
	legs        instrument.Legs
	typ         Type
	timeInForce TimeInForce
	limitPrice  decimal.NullDecimal
	stopPrice   decimal.NullDecimal
	quantity    int
}

// New validates its arguments and returns an Order. A quantity of 0 means 1.
func New(legs instrument.Legs, typ Type, tif TimeInForce, limitPrice, stopPrice decimal.NullDecimal, quantity int) (Order, error) {
	if len(legs) == 0 {
		return Order{}, errors.New("order requires at least one leg")
	}
	for i, leg := range legs {
		if err := leg.Validate(); err != nil {
			return Order{}, fmt.Errorf("leg %d: %w", i+1, err)
		}
	}
	if _, ok := typeNames[typ]; !ok {
		return Order{}, fmt.Errorf("invalid order type %s", typ)
	}
	if tif != Day && tif != FillOrKill {
		return Order{}, fmt.Errorf("invalid time in force %s", tif)
	}
	if typ.HasLimit() != limitPrice.Valid {
		if limitPrice.Valid {
			return Order{}, fmt.Errorf("%s order cannot have a limit price", typ)
		}
		return Order{}, fmt.Errorf("%s order requires a limit price", typ)
	}
	if typ.HasStop() != stopPrice.Valid {
		if stopPrice.Valid {
			return Order{}, fmt.Errorf("%s order cannot have a stop price", typ)
		}
		return Order{}, fmt.Errorf("%s order requires a stop price", typ)
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return Order{}, fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}

	return Order{
		legs:        append(instrument.Legs(nil), legs...),
		typ:         typ,
		timeInForce: tif,
		limitPrice:  limitPrice,
		stopPrice:   stopPrice,
		quantity:    quantity,
	}, nil
}

// Legs returns a copy of the order's legs.
func (o Order) Legs() instrument.Legs {
	return append(instrument.Legs(nil), o.legs...)
}

func (o Order) Type() Type                      { return o.typ }
func (o Order) TimeInForce() TimeInForce        { return o.timeInForce }
func (o Order) LimitPrice() decimal.NullDecimal { return o.limitPrice }
func (o Order) StopPrice() decimal.NullDecimal  { return o.stopPrice }
func (o Order) Quantity() int                   { return o.quantity }

// Equal compares legs, type, time in force and quantity exactly, and
// prices to the cent.
func (o Order) Equal(other Order) bool {
	if len(o.legs) != len(other.legs) {
		return false
	}
	for i := range o.legs {
		if !o.legs[i].Equal(other.legs[i]) {
			return false
		}
	}
	return o.typ == other.typ &&
		o.timeInForce == other.timeInForce &&
		o.quantity == other.quantity &&
		priceEqual(o.limitPrice, other.limitPrice) &&
		priceEqual(o.stopPrice, other.stopPrice)
}

func priceEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Round(2).Equal(b.Decimal.Round(2))
}
