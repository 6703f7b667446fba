package order

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/apca/pkg/instrument"
	"github.com/jonandersen/apca/pkg/osi"
)

var june20 = instrument.NewSettlement("AAPL", time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC))

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func verticalSpread(t *testing.T) instrument.Legs {
	t.Helper()
	long, err := instrument.OptionLeg(june20, osi.Call, decimal.NewFromInt(100), instrument.Long)
	require.NoError(t, err)
	short, err := instrument.OptionLeg(june20, osi.Call, decimal.NewFromInt(105), instrument.Short)
	require.NoError(t, err)
	return instrument.Legs{long, short}
}

func TestNew_DefaultsQuantity(t *testing.T) {
	o, err := New(verticalSpread(t), Limit, Day, price("1.25"), decimal.NullDecimal{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, o.Quantity())
	assert.Equal(t, Limit, o.Type())
	assert.Equal(t, Day, o.TimeInForce())
	assert.Len(t, o.Legs(), 2)
}

func TestNew_Invariants(t *testing.T) {
	legs := verticalSpread(t)
	none := decimal.NullDecimal{}

	tests := []struct {
		name     string
		legs     instrument.Legs
		typ      Type
		limit    decimal.NullDecimal
		stop     decimal.NullDecimal
		quantity int
		wantErr  string
	}{
		{"no legs", nil, Market, none, none, 1, "at least one leg"},
		{"limit without price", legs, Limit, none, none, 1, "requires a limit price"},
		{"market with limit", legs, Market, price("1.00"), none, 1, "cannot have a limit price"},
		{"stop without price", legs, Stop, none, none, 1, "requires a stop price"},
		{"limit with stop", legs, Limit, price("1.00"), price("0.90"), 1, "cannot have a stop price"},
		{"stop limit missing stop", legs, StopLimit, price("1.00"), none, 1, "requires a stop price"},
		{"negative quantity", legs, Market, none, none, -2, "quantity must be at least 1"},
		{"bad ratio", instrument.Legs{{Contract: legs[0].Contract, Position: instrument.Long, Ratio: 0}}, Market, none, none, 1, "ratio must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.legs, tt.typ, Day, tt.limit, tt.stop, tt.quantity)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_CopiesLegs(t *testing.T) {
	legs := verticalSpread(t)
	o, err := New(legs, Market, Day, decimal.NullDecimal{}, decimal.NullDecimal{}, 1)
	require.NoError(t, err)

	legs[0].Position = instrument.Short
	got := o.Legs()
	assert.Equal(t, instrument.Long, got[0].Position)

	got[1].Ratio = 9
	assert.Equal(t, 1, o.Legs()[1].Ratio)
}

func TestBuildPayload_VerticalSpread(t *testing.T) {
	o, err := New(verticalSpread(t), Limit, Day, price("1.25"), decimal.NullDecimal{}, 0)
	require.NoError(t, err)

	p, err := BuildPayload(o)
	require.NoError(t, err)

	assert.Equal(t, "1", p["qty"])
	assert.Equal(t, "mleg", p["order_class"])
	assert.Equal(t, "limit", p["type"])
	assert.Equal(t, "day", p["time_in_force"])
	assert.Equal(t, "1.25", p["limit_price"])
	assert.NotContains(t, p, "stop_price")
	assert.Equal(t, []map[string]any{
		{"symbol": "AAPL250620C00100000", "side": "buy", "ratio_qty": "1"},
		{"symbol": "AAPL250620C00105000", "side": "sell", "ratio_qty": "1"},
	}, p["legs"])
}

func TestBuildPayload_MarketFillOrKill(t *testing.T) {
	stock, err := instrument.StockLeg("AAPL", instrument.Long)
	require.NoError(t, err)
	call, err := instrument.OptionLeg(june20, osi.Call, decimal.NewFromInt(160), instrument.Short)
	require.NoError(t, err)

	o, err := New(instrument.Legs{stock, call}, Market, FillOrKill, decimal.NullDecimal{}, decimal.NullDecimal{}, 3)
	require.NoError(t, err)

	p, err := BuildPayload(o)
	require.NoError(t, err)
	assert.Equal(t, "3", p["qty"])
	assert.Equal(t, "market", p["type"])
	assert.Equal(t, "fok", p["time_in_force"])
	assert.NotContains(t, p, "limit_price")

	legs := p["legs"].([]map[string]any)
	assert.Equal(t, "AAPL", legs[0]["symbol"])
	assert.Equal(t, "100", legs[0]["ratio_qty"])
}

func TestBuildPayload_RejectsStopOrders(t *testing.T) {
	legs := verticalSpread(t)

	stop, err := New(legs, Stop, Day, decimal.NullDecimal{}, price("2.00"), 1)
	require.NoError(t, err)
	_, err = BuildPayload(stop)

	var unsupported *UnsupportedOrderTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, Stop, unsupported.Type)

	stopLimit, err := New(legs, StopLimit, Day, price("2.10"), price("2.00"), 1)
	require.NoError(t, err)
	_, err = BuildPayload(stopLimit)
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, StopLimit, unsupported.Type)
}

func TestRoundTrip_NativeShapes(t *testing.T) {
	o, err := New(verticalSpread(t), Limit, Day, price("1.25"), decimal.NullDecimal{}, 0)
	require.NoError(t, err)

	p, err := BuildPayload(o)
	require.NoError(t, err)

	decoded, err := ParseAcknowledgement(p)
	require.NoError(t, err)
	assert.True(t, o.Equal(decoded))
	assert.Equal(t, "1.25", decoded.LimitPrice().Decimal.StringFixed(2))
}

func TestRoundTrip_JSONShapes(t *testing.T) {
	o, err := New(verticalSpread(t), Limit, FillOrKill, price("0.4"), decimal.NullDecimal{}, 2)
	require.NoError(t, err)

	p, err := BuildPayload(o)
	require.NoError(t, err)

	body, err := json.Marshal(p)
	require.NoError(t, err)
	var decodedPayload Payload
	require.NoError(t, json.Unmarshal(body, &decodedPayload))

	decoded, err := ParseAcknowledgement(decodedPayload)
	require.NoError(t, err)
	assert.True(t, o.Equal(decoded))
}

func TestParseAcknowledgement_BrokerShape(t *testing.T) {
	body := `{
		"id": "61e69015-8549-4bfd-b9c3-01e75843f47d",
		"client_order_id": "eb9e2aaa-f71a-4f51-b5b4-52a6c565dad4",
		"status": "accepted",
		"submitted_at": "2025-06-02T14:30:05.123456Z",
		"qty": "1",
		"order_class": "mleg",
		"type": "limit",
		"time_in_force": "day",
		"limit_price": 1.25,
		"stop_price": null,
		"legs": [
			{"symbol": "AAPL250620C00100000", "side": "buy", "ratio_qty": "1", "status": "accepted"},
			{"symbol": "AAPL250620C00105000", "side": "sell", "ratio_qty": 1}
		]
	}`
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(body), &p))

	ack, err := ParseAcknowledgementMeta(p)
	require.NoError(t, err)

	assert.Equal(t, "61e69015-8549-4bfd-b9c3-01e75843f47d", ack.ID)
	assert.Equal(t, "eb9e2aaa-f71a-4f51-b5b4-52a6c565dad4", ack.ClientOrderID)
	assert.Equal(t, "accepted", ack.Status)
	assert.Equal(t, 2025, ack.SubmittedAt.Year())

	want, err := New(verticalSpread(t), Limit, Day, price("1.25"), decimal.NullDecimal{}, 1)
	require.NoError(t, err)
	assert.True(t, want.Equal(ack.Order))
}

func TestParseAcknowledgement_Malformed(t *testing.T) {
	valid := func() Payload {
		return Payload{
			"type":          "limit",
			"time_in_force": "day",
			"limit_price":   "1.25",
			"legs": []any{
				map[string]any{"symbol": "AAPL250620C00100000", "side": "buy", "ratio_qty": "1"},
			},
		}
	}

	tests := []struct {
		name      string
		mutate    func(Payload)
		wantField string
	}{
		{"missing type", func(p Payload) { delete(p, "type") }, "type"},
		{"unknown type", func(p Payload) { p["type"] = "trailing_stop" }, "type"},
		{"missing time in force", func(p Payload) { delete(p, "time_in_force") }, "time_in_force"},
		{"missing limit price", func(p Payload) { p["limit_price"] = nil }, "limit_price"},
		{"bad limit price", func(p Payload) { p["limit_price"] = "abc" }, "limit_price"},
		{"missing legs", func(p Payload) { delete(p, "legs") }, "legs"},
		{"empty legs", func(p Payload) { p["legs"] = []any{} }, "legs"},
		{"legs not a list", func(p Payload) { p["legs"] = "AAPL" }, "legs"},
		{"leg not an object", func(p Payload) { p["legs"] = []any{"AAPL"} }, "legs[0]"},
		{"bad symbol", func(p Payload) {
			p["legs"] = []any{map[string]any{"symbol": "AAPL25062", "side": "buy", "ratio_qty": "1"}}
		}, "legs[0].symbol"},
		{"missing side", func(p Payload) {
			p["legs"] = []any{map[string]any{"symbol": "AAPL250620C00100000", "ratio_qty": "1"}}
		}, "legs[0].side"},
		{"missing ratio", func(p Payload) {
			p["legs"] = []any{map[string]any{"symbol": "AAPL250620C00100000", "side": "sell"}}
		}, "legs[0].ratio_qty"},
		{"fractional qty", func(p Payload) { p["qty"] = "1.5" }, "qty"},
		{"qty beyond int64", func(p Payload) { p["qty"] = "18446744073709551617" }, "qty"},
		{"ratio beyond int64", func(p Payload) {
			p["legs"] = []any{map[string]any{"symbol": "AAPL250620C00100000", "side": "buy", "ratio_qty": "18446744073709551617"}}
		}, "legs[0].ratio_qty"},
		{"huge float ratio", func(p Payload) {
			p["legs"] = []any{map[string]any{"symbol": "AAPL250620C00100000", "side": "buy", "ratio_qty": 1e12}}
		}, "legs[0].ratio_qty"},
		{"zero ratio", func(p Payload) {
			p["legs"] = []any{map[string]any{"symbol": "AAPL250620C00100000", "side": "sell", "ratio_qty": 0.0}}
		}, "order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)

			_, err := ParseAcknowledgement(p)
			require.Error(t, err)

			var malformed *MalformedAcknowledgementError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Equal(t, tt.wantField, malformed.Field)
		})
	}
}

func TestParseAcknowledgement_BadSymbolWrapsDecodingError(t *testing.T) {
	p := Payload{
		"type":          "market",
		"time_in_force": "day",
		"legs":          []map[string]any{{"symbol": "AAPL250620X00100000", "side": "buy", "ratio_qty": "1"}},
	}

	_, err := ParseAcknowledgement(p)
	var decoding *osi.DecodingError
	assert.True(t, errors.As(err, &decoding))
}

func TestParseAcknowledgement_StopOrdersDecode(t *testing.T) {
	p := Payload{
		"type":          "stop_limit",
		"time_in_force": "day",
		"limit_price":   "2.10",
		"stop_price":    "2.00",
		"legs":          []map[string]any{{"symbol": "AAPL250620P00145000", "side": "sell", "ratio_qty": "1"}},
	}

	o, err := ParseAcknowledgement(p)
	require.NoError(t, err)
	assert.Equal(t, StopLimit, o.Type())
	assert.Equal(t, "2.00", o.StopPrice().Decimal.StringFixed(2))
	assert.Equal(t, 1, o.Quantity())
}

func TestParseAcknowledgementMeta_RequiresID(t *testing.T) {
	_, err := ParseAcknowledgementMeta(Payload{"type": "market"})

	var malformed *MalformedAcknowledgementError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "id", malformed.Field)
}

func TestParseTypeAndTimeInForce(t *testing.T) {
	typ, err := ParseType("stop_limit")
	require.NoError(t, err)
	assert.Equal(t, StopLimit, typ)

	_, err = ParseType("bracket")
	assert.Error(t, err)

	tif, err := ParseTimeInForce("fok")
	require.NoError(t, err)
	assert.Equal(t, FillOrKill, tif)

	_, err = ParseTimeInForce("gtc")
	assert.Error(t, err)
}
