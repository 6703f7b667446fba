package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonandersen/apca/pkg/instrument"
	"github.com/jonandersen/apca/pkg/osi"
)

// OrderClass is the order class sent for every order.
const OrderClass = "mleg"

// Payload is an order-entry request or acknowledgement body.
type Payload map[string]any

// UnsupportedOrderTypeError is returned when an order of a modeled but
// unsubmittable type is built into a payload.
type UnsupportedOrderTypeError struct {
	Type Type
}

// Error implements the error interface.
func (e *UnsupportedOrderTypeError) Error() string {
	return fmt.Sprintf("unsupported order type %s: only MARKET and LIMIT orders can be submitted", e.Type)
}

// MalformedAcknowledgementError names the acknowledgement field that could
// not be decoded.
type MalformedAcknowledgementError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *MalformedAcknowledgementError) Error() string {
	return fmt.Sprintf("malformed acknowledgement: %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *MalformedAcknowledgementError) Unwrap() error {
	return e.Err
}

var errMissing = errors.New("field is missing")

// maxWholeNumber bounds quantities and ratios so they fit an int everywhere.
var maxWholeNumber = decimal.NewFromInt(math.MaxInt32)

var (
	wireTypes = map[Type]string{
		Market:    "market",
		Limit:     "limit",
		Stop:      "stop",
		StopLimit: "stop_limit",
	}
	wireTimeInForce = map[TimeInForce]string{
		Day:        "day",
		FillOrKill: "fok",
	}
	wireSides = map[instrument.Position]string{
		instrument.Long:  "buy",
		instrument.Short: "sell",
	}
)

// BuildPayload maps o to an order-entry request. Numbers are rendered as
// strings. Only MARKET and LIMIT orders are accepted.
func BuildPayload(o Order) (Payload, error) {
	if o.typ != Market && o.typ != Limit {
		return nil, &UnsupportedOrderTypeError{Type: o.typ}
	}

	legs := make([]map[string]any, 0, len(o.legs))
	for i, leg := range o.legs {
		symbol, err := osi.Encode(leg.Contract)
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i+1, err)
		}
		legs = append(legs, map[string]any{
			"symbol":    symbol,
			"side":      wireSides[leg.Position],
			"ratio_qty": strconv.Itoa(leg.Ratio),
		})
	}

	p := Payload{
		"qty":           strconv.Itoa(o.quantity),
		"order_class":   OrderClass,
		"type":          wireTypes[o.typ],
		"time_in_force": wireTimeInForce[o.timeInForce],
		"legs":          legs,
	}
	if o.limitPrice.Valid {
		p["limit_price"] = o.limitPrice.Decimal.StringFixed(2)
	}
	if o.stopPrice.Valid {
		p["stop_price"] = o.stopPrice.Decimal.StringFixed(2)
	}
	return p, nil
}

// ParseAcknowledgement decodes an acknowledgement into a new Order. It
// accepts both the shapes produced by BuildPayload and the shapes produced
// by encoding/json, where numbers may arrive as strings or float64 and legs
// as []any.
func ParseAcknowledgement(p Payload) (Order, error) {
	typ, err := parseEnum(p, "type", wireTypes)
	if err != nil {
		return Order{}, err
	}
	tif, err := parseEnum(p, "time_in_force", wireTimeInForce)
	if err != nil {
		return Order{}, err
	}

	var limitPrice, stopPrice decimal.NullDecimal
	if typ.HasLimit() {
		d, err := requiredDecimal(p, "limit_price")
		if err != nil {
			return Order{}, err
		}
		limitPrice = decimal.NewNullDecimal(d)
	}
	if typ.HasStop() {
		d, err := requiredDecimal(p, "stop_price")
		if err != nil {
			return Order{}, err
		}
		stopPrice = decimal.NewNullDecimal(d)
	}

	quantity := 1
	if _, ok := p["qty"]; ok {
		quantity, err = intField(p, "qty")
		if err != nil {
			return Order{}, err
		}
	}

	legs, err := parseLegs(p)
	if err != nil {
		return Order{}, err
	}

	o, err := New(legs, typ, tif, limitPrice, stopPrice, quantity)
	if err != nil {
		return Order{}, &MalformedAcknowledgementError{Field: "order", Err: err}
	}
	return o, nil
}

// Acknowledgement is a decoded order together with the broker's bookkeeping
// fields.
type Acknowledgement struct {
	ID            string
	ClientOrderID string
	Status        string
	SubmittedAt   time.Time
	Order         Order
}

// ParseAcknowledgementMeta decodes the order and the broker's id, client
// order id, status and submission time. Only the id is required.
func ParseAcknowledgementMeta(p Payload) (Acknowledgement, error) {
	id, err := stringField(p, "id")
	if err != nil {
		return Acknowledgement{}, err
	}
	o, err := ParseAcknowledgement(p)
	if err != nil {
		return Acknowledgement{}, err
	}

	ack := Acknowledgement{ID: id, Order: o}
	ack.ClientOrderID, _ = p["client_order_id"].(string)
	ack.Status, _ = p["status"].(string)
	if s, ok := p["submitted_at"].(string); ok && s != "" {
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Acknowledgement{}, &MalformedAcknowledgementError{Field: "submitted_at", Err: err}
		}
		ack.SubmittedAt = ts
	}
	return ack, nil
}

func parseLegs(p Payload) (instrument.Legs, error) {
	raw, ok := p["legs"]
	if !ok || raw == nil {
		return nil, &MalformedAcknowledgementError{Field: "legs", Err: errMissing}
	}

	var entries []map[string]any
	switch v := raw.(type) {
	case []map[string]any:
		entries = v
	case []Payload:
		for _, e := range v {
			entries = append(entries, e)
		}
	case []any:
		for i, e := range v {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, &MalformedAcknowledgementError{Field: fmt.Sprintf("legs[%d]", i), Err: fmt.Errorf("expected an object, got %T", e)}
			}
			entries = append(entries, m)
		}
	default:
		return nil, &MalformedAcknowledgementError{Field: "legs", Err: fmt.Errorf("expected a list, got %T", raw)}
	}
	if len(entries) == 0 {
		return nil, &MalformedAcknowledgementError{Field: "legs", Err: errors.New("no legs")}
	}

	legs := make(instrument.Legs, 0, len(entries))
	for i, e := range entries {
		leg, err := parseLeg(Payload(e))
		if err != nil {
			var malformed *MalformedAcknowledgementError
			if errors.As(err, &malformed) {
				malformed.Field = fmt.Sprintf("legs[%d].%s", i, malformed.Field)
			}
			return nil, err
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

func parseLeg(p Payload) (instrument.Leg, error) {
	symbol, err := stringField(p, "symbol")
	if err != nil {
		return instrument.Leg{}, err
	}
	contract, err := osi.Decode(symbol)
	if err != nil {
		return instrument.Leg{}, &MalformedAcknowledgementError{Field: "symbol", Err: err}
	}
	position, err := parseEnum(p, "side", wireSides)
	if err != nil {
		return instrument.Leg{}, err
	}
	ratio, err := intField(p, "ratio_qty")
	if err != nil {
		return instrument.Leg{}, err
	}
	return instrument.Leg{Contract: contract, Position: position, Ratio: ratio}, nil
}

func parseEnum[E comparable](p Payload, field string, names map[E]string) (E, error) {
	var zero E
	s, err := stringField(p, field)
	if err != nil {
		return zero, err
	}
	for v, name := range names {
		if strings.EqualFold(name, s) {
			return v, nil
		}
	}
	return zero, &MalformedAcknowledgementError{Field: field, Err: fmt.Errorf("unknown value %q", s)}
}

func stringField(p Payload, field string) (string, error) {
	raw, ok := p[field]
	if !ok || raw == nil {
		return "", &MalformedAcknowledgementError{Field: field, Err: errMissing}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &MalformedAcknowledgementError{Field: field, Err: fmt.Errorf("expected a string, got %T", raw)}
	}
	if strings.TrimSpace(s) == "" {
		return "", &MalformedAcknowledgementError{Field: field, Err: errMissing}
	}
	return s, nil
}

func requiredDecimal(p Payload, field string) (decimal.Decimal, error) {
	raw, ok := p[field]
	if !ok || raw == nil {
		return decimal.Zero, &MalformedAcknowledgementError{Field: field, Err: errMissing}
	}
	d, err := toDecimal(raw)
	if err != nil {
		return decimal.Zero, &MalformedAcknowledgementError{Field: field, Err: err}
	}
	return d, nil
}

func intField(p Payload, field string) (int, error) {
	d, err := requiredDecimal(p, field)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, &MalformedAcknowledgementError{Field: field, Err: fmt.Errorf("expected a whole number, got %s", d)}
	}
	if d.Abs().GreaterThan(maxWholeNumber) {
		return 0, &MalformedAcknowledgementError{Field: field, Err: fmt.Errorf("%s is out of range", d)}
	}
	return int(d.IntPart()), nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case string:
		return decimal.NewFromString(strings.TrimSpace(n))
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case decimal.Decimal:
		return n, nil
	default:
		return decimal.Zero, fmt.Errorf("expected a number, got %T", v)
	}
}
