package market

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jonandersen/apca/pkg/alpaca"
	"github.com/jonandersen/apca/pkg/instrument"
	"github.com/jonandersen/apca/pkg/osi"
)

// Account is the trading account summary.
type Account struct {
	ID                  string
	Number              string
	Status              string
	Currency            string
	Cash                decimal.NullDecimal
	Equity              decimal.NullDecimal
	BuyingPower         decimal.NullDecimal
	OptionsBuyingPower  decimal.NullDecimal
	OptionsTradingLevel int64
	PatternDayTrader    bool
}

// Position is an open position.
type Position struct {
	Contract      osi.Contract
	Side          instrument.Position
	Quantity      decimal.Decimal
	AvgEntryPrice decimal.NullDecimal
	CurrentPrice  decimal.NullDecimal
	MarketValue   decimal.NullDecimal
	UnrealizedPL  decimal.NullDecimal
}

// AccountDownloader fetches the account summary.
type AccountDownloader struct {
	Transport Transport
}

// Download returns the account.
func (d *AccountDownloader) Download(ctx context.Context) (Account, error) {
	raw, err := d.Transport.Fetch(ctx, alpaca.Account())
	if err != nil {
		return Account{}, fmt.Errorf("failed to fetch account: %w", err)
	}
	return ParseAccount(raw), nil
}

// ParseAccount maps an account response. Missing fields are left empty.
func ParseAccount(raw map[string]any) Account {
	acct := Account{
		Cash:                priceField(raw, "cash"),
		Equity:              priceField(raw, "equity"),
		BuyingPower:         priceField(raw, "buying_power"),
		OptionsBuyingPower:  priceField(raw, "options_buying_power"),
		OptionsTradingLevel: intField(raw, "options_trading_level"),
	}
	acct.ID, _ = raw["id"].(string)
	acct.Number, _ = raw["account_number"].(string)
	acct.Status, _ = raw["status"].(string)
	acct.Currency, _ = raw["currency"].(string)
	acct.PatternDayTrader, _ = raw["pattern_day_trader"].(bool)
	return acct
}

// PositionsDownloader fetches open positions.
type PositionsDownloader struct {
	Transport Transport
}

// Download returns every open position in broker order.
func (d *PositionsDownloader) Download(ctx context.Context) ([]Position, error) {
	raw, err := d.Transport.FetchList(ctx, alpaca.Positions())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}

	positions := make([]Position, 0, len(raw))
	for i, entry := range raw {
		p, err := ParsePosition(entry)
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		positions = append(positions, p)
	}
	logDownloaded("positions", "account", len(positions))
	return positions, nil
}

// ParsePosition maps one position entry. Option symbols are decoded to
// their contract.
func ParsePosition(raw map[string]any) (Position, error) {
	symbol, _ := raw["symbol"].(string)
	if symbol == "" {
		return Position{}, fmt.Errorf("position has no symbol")
	}
	contract, err := osi.Decode(symbol)
	if err != nil {
		return Position{}, err
	}

	side := instrument.Long
	if s, _ := raw["side"].(string); strings.EqualFold(s, "short") {
		side = instrument.Short
	}

	qty := priceField(raw, "qty")
	if !qty.Valid {
		return Position{}, fmt.Errorf("%s: missing qty", symbol)
	}

	return Position{
		Contract:      contract,
		Side:          side,
		Quantity:      qty.Decimal.Abs(),
		AvgEntryPrice: priceField(raw, "avg_entry_price"),
		CurrentPrice:  priceField(raw, "current_price"),
		MarketValue:   priceField(raw, "market_value"),
		UnrealizedPL:  priceField(raw, "unrealized_pl"),
	}, nil
}
