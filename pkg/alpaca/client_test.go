package alpaca

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{KeyID: "key-id", SecretKey: "secret"}

func TestNewClient(t *testing.T) {
	client := NewClient("https://trading.example.com/", "https://data.example.com/", testCreds)

	assert.Equal(t, "https://trading.example.com", client.TradingURL)
	assert.Equal(t, "https://data.example.com", client.DataURL)
	assert.Equal(t, testCreds, client.Credentials)
	assert.Equal(t, 30*time.Second, client.HTTPClient.Timeout)
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient("", "", testCreds)

	assert.Equal(t, DefaultTradingURL, client.TradingURL)
	assert.Equal(t, DefaultDataURL, client.DataURL)
}

func TestRequest_URLPath(t *testing.T) {
	r := Request{Path: []string{"v1beta1", "options", "snapshots", "BRK.B"}}
	assert.Equal(t, "/v1beta1/options/snapshots/BRK.B", r.URLPath())

	r = Request{Path: []string{"v2", "a b"}}
	assert.Equal(t, "/v2/a%20b", r.URLPath())
}

func TestClient_Fetch_RoutesByHost(t *testing.T) {
	trading := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/account", r.URL.Path)
		_, _ = w.Write([]byte(`{"host":"trading"}`))
	}))
	defer trading.Close()

	data := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/stocks/trades/latest", r.URL.Path)
		_, _ = w.Write([]byte(`{"host":"data"}`))
	}))
	defer data.Close()

	client := NewClient(trading.URL, data.URL, testCreds)

	got, err := client.Fetch(context.Background(), Account())
	require.NoError(t, err)
	assert.Equal(t, "trading", got["host"])

	got, err = client.Fetch(context.Background(), StockTrades([]string{"MSFT"}, DefaultStockFeed))
	require.NoError(t, err)
	assert.Equal(t, "data", got["host"])
}

func TestClient_Fetch_InjectsHeadersAndParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "key-id", r.Header.Get("APCA-API-KEY-ID"))
		assert.Equal(t, "secret", r.Header.Get("APCA-API-SECRET-KEY"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		assert.Equal(t, "AAPL,MSFT", r.URL.Query().Get("symbols"))
		assert.Equal(t, "delayed_sip", r.URL.Query().Get("feed"))
		_, _ = w.Write([]byte(`{"quotes":{}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL, testCreds)
	got, err := client.Fetch(context.Background(), StockQuotes([]string{"aapl", " msft"}, DefaultStockFeed))
	require.NoError(t, err)
	assert.Contains(t, got, "quotes")
}

func TestClient_Fetch_PostsJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "mleg", payload["order_class"])

		_, _ = w.Write([]byte(`{"id":"order-1","status":"accepted"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL, testCreds)
	got, err := client.Fetch(context.Background(), SubmitOrder(map[string]any{"order_class": "mleg"}))
	require.NoError(t, err)
	assert.Equal(t, "order-1", got["id"])
}

func TestClient_FetchList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/positions", r.URL.Path)
		_, _ = w.Write([]byte(`[{"symbol":"AAPL","qty":"10"},{"symbol":"MSFT","qty":"5"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL, testCreds)
	got, err := client.FetchList(context.Background(), Positions())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "MSFT", got[1]["symbol"])
}

func TestClient_Fetch_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":40310000,"message":"request is not authorized"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL, testCreds)
	_, err := client.Fetch(context.Background(), Account())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsForbidden())
	assert.Equal(t, "40310000", apiErr.Code)
	assert.Equal(t, "/v2/account", apiErr.Path)
	assert.Contains(t, err.Error(), "on /v2/account")
}

func TestClient_Fetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, server.URL, testCreds)
	_, err := client.Fetch(ctx, Account())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptionSnapshots_Params(t *testing.T) {
	bounds := ChainBounds{
		ExpirationFrom: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ExpirationTo:   time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
		StrikeMin:      decimal.NewNullDecimal(decimal.NewFromInt(100)),
		StrikeMax:      decimal.NewNullDecimal(decimal.RequireFromString("150.5")),
		Type:           "CALL",
	}

	r := OptionSnapshots("aapl", bounds, DefaultOptionFeed, DefaultChainPageLimit, "tok")

	assert.Equal(t, Data, r.Host)
	assert.Equal(t, "/v1beta1/options/snapshots/AAPL", r.URLPath())
	assert.Equal(t, map[string]string{
		"feed":                "indicative",
		"limit":               "1000",
		"expiration_date_gte": "2025-06-01",
		"expiration_date_lte": "2025-07-31",
		"strike_price_gte":    "100.00",
		"strike_price_lte":    "150.50",
		"type":                "call",
		"page_token":          "tok",
	}, r.Params)
}

func TestOptionSnapshots_FirstPageHasNoToken(t *testing.T) {
	r := OptionSnapshots("AAPL", ChainBounds{}, DefaultOptionFeed, 0, "")

	assert.Equal(t, map[string]string{"feed": "indicative"}, r.Params)
}

func TestStockBars_Params(t *testing.T) {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	r := StockBars("spy", start, end, "", "sip", "")

	assert.Equal(t, "/v2/stocks/bars", r.URLPath())
	assert.Equal(t, "SPY", r.Params["symbols"])
	assert.Equal(t, "1Day", r.Params["timeframe"])
	assert.Equal(t, "2025-01-02", r.Params["start"])
	assert.Equal(t, "2025-03-31", r.Params["end"])
	assert.Equal(t, "10000", r.Params["limit"])
	assert.NotContains(t, r.Params, "page_token")
}

func TestOptionQuotes_Path(t *testing.T) {
	r := OptionQuotes([]string{"AAPL250620C00150000"}, DefaultOptionFeed)

	assert.Equal(t, "/v1beta1/options/quotes/latest", r.URLPath())
	assert.Equal(t, "AAPL250620C00150000", r.Params["symbols"])
	assert.Equal(t, "indicative", r.Params["feed"])
}
