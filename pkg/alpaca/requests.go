package alpaca

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultStockFeed is the stock data feed available without a subscription.
	DefaultStockFeed = "delayed_sip"

	// DefaultOptionFeed is the option data feed available without a subscription.
	DefaultOptionFeed = "indicative"

	// DefaultChainPageLimit is the largest page the snapshot endpoint serves.
	DefaultChainPageLimit = 1000

	// DefaultBarsPageLimit is the largest page the bars endpoint serves.
	DefaultBarsPageLimit = 10000
)

func joinUpper(symbols []string) string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	return strings.Join(out, ",")
}

func latest(prefix []string, dataset string, symbols []string, feed string) Request {
	path := append(append([]string{}, prefix...), dataset, "latest")
	return Request{
		Host:   Data,
		Method: http.MethodGet,
		Path:   path,
		Params: map[string]string{
			"symbols": joinUpper(symbols),
			"feed":    feed,
		},
	}
}

// StockTrades requests the latest trade of each ticker.
func StockTrades(tickers []string, feed string) Request {
	return latest([]string{"v2", "stocks"}, "trades", tickers, feed)
}

// StockQuotes requests the latest quote of each ticker.
func StockQuotes(tickers []string, feed string) Request {
	return latest([]string{"v2", "stocks"}, "quotes", tickers, feed)
}

// OptionTrades requests the latest trade of each OSI symbol.
func OptionTrades(symbols []string, feed string) Request {
	return latest([]string{"v1beta1", "options"}, "trades", symbols, feed)
}

// OptionQuotes requests the latest quote of each OSI symbol.
func OptionQuotes(symbols []string, feed string) Request {
	return latest([]string{"v1beta1", "options"}, "quotes", symbols, feed)
}

// ChainBounds narrows an option chain listing. Zero fields are not sent.
type ChainBounds struct {
	ExpirationFrom time.Time
	ExpirationTo   time.Time
	StrikeMin      decimal.NullDecimal
	StrikeMax      decimal.NullDecimal
	Type           string // "call" or "put"
}

// OptionSnapshots requests one page of the option chain of ticker.
func OptionSnapshots(ticker string, bounds ChainBounds, feed string, limit int, pageToken string) Request {
	params := map[string]string{
		"feed": feed,
	}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	if !bounds.ExpirationFrom.IsZero() {
		params["expiration_date_gte"] = bounds.ExpirationFrom.Format(time.DateOnly)
	}
	if !bounds.ExpirationTo.IsZero() {
		params["expiration_date_lte"] = bounds.ExpirationTo.Format(time.DateOnly)
	}
	if bounds.StrikeMin.Valid {
		params["strike_price_gte"] = bounds.StrikeMin.Decimal.StringFixed(2)
	}
	if bounds.StrikeMax.Valid {
		params["strike_price_lte"] = bounds.StrikeMax.Decimal.StringFixed(2)
	}
	if bounds.Type != "" {
		params["type"] = strings.ToLower(bounds.Type)
	}
	if pageToken != "" {
		params["page_token"] = pageToken
	}
	return Request{
		Host:   Data,
		Method: http.MethodGet,
		Path:   []string{"v1beta1", "options", "snapshots", strings.ToUpper(ticker)},
		Params: params,
	}
}

// StockBars requests one page of bars of ticker between start and end.
// An empty timeframe means daily bars.
func StockBars(ticker string, start, end time.Time, timeframe, feed string, pageToken string) Request {
	if timeframe == "" {
		timeframe = "1Day"
	}
	params := map[string]string{
		"symbols":   strings.ToUpper(ticker),
		"timeframe": timeframe,
		"feed":      feed,
		"limit":     strconv.Itoa(DefaultBarsPageLimit),
	}
	if !start.IsZero() {
		params["start"] = start.Format(time.DateOnly)
	}
	if !end.IsZero() {
		params["end"] = end.Format(time.DateOnly)
	}
	if pageToken != "" {
		params["page_token"] = pageToken
	}
	return Request{
		Host:   Data,
		Method: http.MethodGet,
		Path:   []string{"v2", "stocks", "bars"},
		Params: params,
	}
}

// SubmitOrder posts an order payload.
func SubmitOrder(payload any) Request {
	return Request{
		Host:   Trading,
		Method: http.MethodPost,
		Path:   []string{"v2", "orders"},
		Body:   payload,
	}
}

// Account requests the trading account.
func Account() Request {
	return Request{Host: Trading, Method: http.MethodGet, Path: []string{"v2", "account"}}
}

// Positions requests all open positions.
func Positions() Request {
	return Request{Host: Trading, Method: http.MethodGet, Path: []string{"v2", "positions"}}
}
