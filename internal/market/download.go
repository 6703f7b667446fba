package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jonandersen/apca/pkg/alpaca"
	"github.com/jonandersen/apca/pkg/chain"
	"github.com/jonandersen/apca/pkg/instrument"
	"github.com/jonandersen/apca/pkg/marketdata"
	"github.com/jonandersen/apca/pkg/osi"
)

// Transport performs API requests. *alpaca.Client satisfies it.
type Transport interface {
	Fetch(ctx context.Context, r alpaca.Request) (map[string]any, error)
	FetchList(ctx context.Context, r alpaca.Request) ([]map[string]any, error)
}

// Batch is the reconciled rows of one partition.
type Batch[K any] struct {
	Key  K
	Rows []marketdata.Row
}

func logDownloaded(dataset, partition string, size int) {
	log.WithFields(log.Fields{
		"dataset":   dataset,
		"partition": partition,
		"size":      size,
	}).Info("Downloaded")
}

// fetchLatest requests trades and quotes concurrently.
func fetchLatest(ctx context.Context, t Transport, tradeReq, quoteReq alpaca.Request) ([]marketdata.Trade, []marketdata.Quote, error) {
	var (
		trades []marketdata.Trade
		quotes []marketdata.Quote
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := t.Fetch(gctx, tradeReq)
		if err != nil {
			return fmt.Errorf("failed to fetch trades: %w", err)
		}
		trades, err = ParseTrades(raw)
		return err
	})
	g.Go(func() error {
		raw, err := t.Fetch(gctx, quoteReq)
		if err != nil {
			return fmt.Errorf("failed to fetch quotes: %w", err)
		}
		quotes, err = ParseQuotes(raw)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return trades, quotes, nil
}

// StockDownloader downloads reconciled stock snapshots.
type StockDownloader struct {
	Transport Transport
	Feed      string
}

// Download returns one batch per symbol that the feeds reported, in
// first-seen order.
func (d *StockDownloader) Download(ctx context.Context, symbols []instrument.Symbol) ([]Batch[instrument.Symbol], error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	tickers := make([]string, len(symbols))
	for i, s := range symbols {
		tickers[i] = s.Ticker
	}

	trades, quotes, err := fetchLatest(ctx, d.Transport,
		alpaca.StockTrades(tickers, d.Feed),
		alpaca.StockQuotes(tickers, d.Feed))
	if err != nil {
		return nil, err
	}

	rows := marketdata.Reconcile(trades, quotes, marketdata.BySymbol)
	keys, groups := marketdata.Partition(rows, marketdata.BySymbol)

	batches := make([]Batch[instrument.Symbol], 0, len(keys))
	for _, key := range keys {
		symbol := instrument.Symbol{Ticker: key}
		logDownloaded("stock", key, len(groups[key]))
		batches = append(batches, Batch[instrument.Symbol]{Key: symbol, Rows: groups[key]})
	}
	return batches, nil
}

// OptionDownloader downloads reconciled option snapshots.
type OptionDownloader struct {
	Transport Transport
	Feed      string
}

// Download returns one batch per settlement, in first-seen order.
func (d *OptionDownloader) Download(ctx context.Context, contracts []osi.Contract) ([]Batch[instrument.Settlement], error) {
	if len(contracts) == 0 {
		return nil, nil
	}
	symbols := make([]string, len(contracts))
	for i, c := range contracts {
		s, err := osi.Encode(c)
		if err != nil {
			return nil, err
		}
		symbols[i] = s
	}

	trades, quotes, err := fetchLatest(ctx, d.Transport,
		alpaca.OptionTrades(symbols, d.Feed),
		alpaca.OptionQuotes(symbols, d.Feed))
	if err != nil {
		return nil, err
	}

	rows := marketdata.Reconcile(trades, quotes, marketdata.ByContract)
	bySettlement := func(c osi.Contract) string { return instrument.SettlementOf(c).String() }
	keys, groups := marketdata.Partition(rows, bySettlement)

	batches := make([]Batch[instrument.Settlement], 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		settlement := instrument.SettlementOf(group[0].Contract)
		logDownloaded("option", settlement.String(), len(group))
		batches = append(batches, Batch[instrument.Settlement]{Key: settlement, Rows: group})
	}
	return batches, nil
}

// ContractBatch is the option chain of one underlying.
type ContractBatch struct {
	Symbol    instrument.Symbol
	Contracts []osi.Contract
}

// ChainParams selects the chain of one underlying.
type ChainParams struct {
	Ticker string
	Bounds alpaca.ChainBounds
}

// ContractDownloader lists option chains page by page.
type ContractDownloader struct {
	Transport Transport
	Feed      string
	PageLimit int
	MaxPages  int
}

// Download lists the chain of every symbol within bounds. Symbols without
// contracts are skipped.
func (d *ContractDownloader) Download(ctx context.Context, symbols []instrument.Symbol, bounds alpaca.ChainBounds) ([]ContractBatch, error) {
	var batches []ContractBatch
	for _, symbol := range symbols {
		fetch := chain.Limit(d.page, d.MaxPages)
		contracts, err := chain.FetchAll(ctx, ChainParams{Ticker: symbol.Ticker, Bounds: bounds}, fetch)
		if err != nil {
			return nil, fmt.Errorf("failed to list contracts for %s: %w", symbol, err)
		}
		logDownloaded("contract", symbol.Ticker, len(contracts))
		if len(contracts) == 0 {
			continue
		}
		batches = append(batches, ContractBatch{Symbol: symbol, Contracts: contracts})
	}
	return batches, nil
}

func (d *ContractDownloader) page(ctx context.Context, p ChainParams, cursor string) (chain.Page[osi.Contract], error) {
	raw, err := d.Transport.Fetch(ctx, alpaca.OptionSnapshots(p.Ticker, p.Bounds, d.Feed, d.PageLimit, cursor))
	if err != nil {
		return chain.Page[osi.Contract]{}, err
	}
	return ParseSnapshotPage(raw)
}

// BarsParams selects a range of bars of one ticker.
type BarsParams struct {
	Ticker string
	Start  time.Time
	End    time.Time
}

// BarsDownloader downloads historical bars page by page.
type BarsDownloader struct {
	Transport Transport
	Feed      string
	Timeframe string
	MaxPages  int
}

// Download returns the bars of ticker between start and end in time order.
func (d *BarsDownloader) Download(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error) {
	params := BarsParams{Ticker: strings.ToUpper(ticker), Start: start, End: end}
	bars, err := chain.Collect(ctx, params, chain.Limit(d.page, d.MaxPages))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bars for %s: %w", params.Ticker, err)
	}
	logDownloaded("bars", params.Ticker, len(bars))
	return bars, nil
}

func (d *BarsDownloader) page(ctx context.Context, p BarsParams, cursor string) (chain.Page[Bar], error) {
	raw, err := d.Transport.Fetch(ctx, alpaca.StockBars(p.Ticker, p.Start, p.End, d.Timeframe, d.Feed, cursor))
	if err != nil {
		return chain.Page[Bar]{}, err
	}
	return ParseBars(raw, p.Ticker)
}
