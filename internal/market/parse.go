// Package market downloads trades, quotes, option chains, bars and account
// state from Alpaca and maps the raw responses to domain values.
package market

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/jonandersen/apca/pkg/chain"
	"github.com/jonandersen/apca/pkg/marketdata"
	"github.com/jonandersen/apca/pkg/osi"
)

// Bar is one OHLCV bar.
type Bar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
	Trades int64
	VWAP   decimal.NullDecimal
}

// ParseTrades maps a latest-trades response keyed by symbol. Rows are
// returned in symbol order.
func ParseTrades(raw map[string]any) ([]marketdata.Trade, error) {
	entries, err := keyed(raw, "trades")
	if err != nil {
		return nil, err
	}

	trades := make([]marketdata.Trade, 0, len(entries))
	for _, symbol := range sortedKeys(entries) {
		contract, fields, err := entry(symbol, entries[symbol])
		if err != nil {
			return nil, err
		}
		ts, err := timeField(fields, "t")
		if err != nil {
			return nil, fmt.Errorf("trade %s: %w", symbol, err)
		}
		trades = append(trades, marketdata.Trade{
			Contract:  contract,
			Last:      priceField(fields, "p"),
			Size:      intField(fields, "s"),
			Timestamp: ts,
		})
	}
	return trades, nil
}

// ParseQuotes maps a latest-quotes response keyed by symbol. Rows are
// returned in symbol order.
func ParseQuotes(raw map[string]any) ([]marketdata.Quote, error) {
	entries, err := keyed(raw, "quotes")
	if err != nil {
		return nil, err
	}

	quotes := make([]marketdata.Quote, 0, len(entries))
	for _, symbol := range sortedKeys(entries) {
		contract, fields, err := entry(symbol, entries[symbol])
		if err != nil {
			return nil, err
		}
		ts, err := timeField(fields, "t")
		if err != nil {
			return nil, fmt.Errorf("quote %s: %w", symbol, err)
		}
		quotes = append(quotes, marketdata.Quote{
			Contract:  contract,
			Bid:       priceField(fields, "bp"),
			Ask:       priceField(fields, "ap"),
			BidSize:   intField(fields, "bs"),
			AskSize:   intField(fields, "as"),
			Timestamp: ts,
		})
	}
	return quotes, nil
}

// ParseSnapshotPage maps one page of option snapshots to the contracts it
// lists. Only the snapshot keys are used. Keys that are not valid symbols,
// such as adjusted roots after a corporate action, are logged and skipped.
func ParseSnapshotPage(raw map[string]any) (chain.Page[osi.Contract], error) {
	entries, err := keyed(raw, "snapshots")
	if err != nil {
		return chain.Page[osi.Contract]{}, err
	}

	contracts := make([]osi.Contract, 0, len(entries))
	for _, symbol := range sortedKeys(entries) {
		c, err := osi.Decode(symbol)
		if err != nil {
			log.WithField("symbol", symbol).WithError(err).Warn("Skipping snapshot")
			continue
		}
		contracts = append(contracts, c)
	}
	return chain.Page[osi.Contract]{Items: contracts, Cursor: cursor(raw)}, nil
}

// ParseBars maps one page of a bars response for ticker.
func ParseBars(raw map[string]any, ticker string) (chain.Page[Bar], error) {
	byTicker, err := keyed(raw, "bars")
	if err != nil {
		return chain.Page[Bar]{}, err
	}

	page := chain.Page[Bar]{Cursor: cursor(raw)}
	list, ok := byTicker[ticker]
	if !ok || list == nil {
		return page, nil
	}
	items, ok := list.([]any)
	if !ok {
		return chain.Page[Bar]{}, fmt.Errorf("bars %s: expected a list, got %T", ticker, list)
	}

	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return chain.Page[Bar]{}, fmt.Errorf("bars %s[%d]: expected an object, got %T", ticker, i, item)
		}
		ts, err := timeField(fields, "t")
		if err != nil {
			return chain.Page[Bar]{}, fmt.Errorf("bars %s[%d]: %w", ticker, i, err)
		}
		page.Items = append(page.Items, Bar{
			Time:   ts,
			Open:   priceField(fields, "o").Decimal,
			High:   priceField(fields, "h").Decimal,
			Low:    priceField(fields, "l").Decimal,
			Close:  priceField(fields, "c").Decimal,
			Volume: intField(fields, "v"),
			Trades: intField(fields, "n"),
			VWAP:   priceField(fields, "vw"),
		})
	}
	return page, nil
}

// keyed returns the object under key. A missing or null key is an empty
// result, not an error.
func keyed(raw map[string]any, key string) (map[string]any, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected an object, got %T", key, v)
	}
	return m, nil
}

func entry(symbol string, v any) (osi.Contract, map[string]any, error) {
	contract, err := osi.Decode(symbol)
	if err != nil {
		return osi.Contract{}, nil, err
	}
	fields, ok := v.(map[string]any)
	if !ok {
		return osi.Contract{}, nil, fmt.Errorf("%s: expected an object, got %T", symbol, v)
	}
	return contract, fields, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cursor(raw map[string]any) string {
	s, _ := raw["next_page_token"].(string)
	return s
}

// priceField reads a JSON number or numeric string. Anything else is absent.
func priceField(fields map[string]any, key string) decimal.NullDecimal {
	switch v := fields[key].(type) {
	case float64:
		return marketdata.Price(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(d)
	default:
		return decimal.NullDecimal{}
	}
}

func intField(fields map[string]any, key string) int64 {
	switch v := fields[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func timeField(fields map[string]any, key string) (time.Time, error) {
	s, ok := fields[key].(string)
	if !ok || s == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return ts, nil
}
