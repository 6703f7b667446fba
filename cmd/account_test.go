package cmd

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountBody = `{
	"id": "904837e3-3b76-47ec-b432-046db621571b",
	"account_number": "PA3ABCDEFG",
	"status": "ACTIVE",
	"currency": "USD",
	"cash": "12345.67",
	"equity": "25000",
	"buying_power": "50000.5",
	"options_buying_power": "12345.67",
	"options_trading_level": 3,
	"pattern_day_trader": false
}`

func TestAccountCmd_Success(t *testing.T) {
	opts := newTestOptions(t, routes(t, map[string]string{"/v2/account": accountBody}))

	out, err := execute(newAccountCmd(opts))
	require.NoError(t, err)

	assert.Contains(t, out, "PA3ABCDEFG")
	assert.Contains(t, out, "ACTIVE")
	assert.Contains(t, out, "$12,345.67")
	assert.Contains(t, out, "$50,000.50")
	assert.Contains(t, out, "Options Level")
}

func TestAccountCmd_JSON(t *testing.T) {
	opts := newTestOptions(t, routes(t, map[string]string{"/v2/account": accountBody}))
	opts.jsonMode = true

	out, err := execute(newAccountCmd(opts))
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "PA3ABCDEFG", result["accountNumber"])
	assert.Equal(t, "25000.00", result["equity"])
	assert.Equal(t, float64(3), result["optionsTradingLevel"])
}

func TestAccountCmd_Unauthorized(t *testing.T) {
	opts := newTestOptions(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "request is not authorized"}`))
	})

	_, err := execute(newAccountCmd(opts))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch account")
	assert.Contains(t, err.Error(), "401")
}

func TestPositionsCmd_Success(t *testing.T) {
	opts := newTestOptions(t, routes(t, map[string]string{"/v2/positions": `[
		{"symbol": "AAPL", "side": "long", "qty": "100", "avg_entry_price": "180.5",
		 "current_price": "190.12", "market_value": "19012", "unrealized_pl": "962"},
		{"symbol": "AAPL250620C00200000", "side": "short", "qty": "-1", "avg_entry_price": "3.2",
		 "current_price": "4.5", "market_value": "-450", "unrealized_pl": "-130"}
	]`}))

	out, err := execute(newPositionsCmd(opts))
	require.NoError(t, err)

	assert.Contains(t, out, "AAPL250620C00200000")
	assert.Contains(t, out, "SHORT")
	assert.Contains(t, out, "+$962.00")
	assert.Contains(t, out, "-$130.00")
	assert.Contains(t, out, "-$450.00")
	// Totals: 19012 - 450 and 962 - 130.
	assert.Contains(t, out, "$18,562.00")
	assert.Contains(t, out, "+$832.00")
}

func TestPositionsCmd_Empty(t *testing.T) {
	opts := newTestOptions(t, routes(t, map[string]string{"/v2/positions": `[]`}))

	out, err := execute(newPositionsCmd(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "No open positions")
}

func TestPositionsCmd_BadSymbol(t *testing.T) {
	opts := newTestOptions(t, routes(t, map[string]string{"/v2/positions": `[{"symbol": "AAPL2506", "qty": "1"}]`}))

	_, err := execute(newPositionsCmd(opts))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "position 0")
}
