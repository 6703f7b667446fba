package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonandersen/apca/internal/market"
	"github.com/jonandersen/apca/internal/output"
	"github.com/jonandersen/apca/pkg/instrument"
	"github.com/jonandersen/apca/pkg/marketdata"
	"github.com/jonandersen/apca/pkg/osi"
)

var quoteHeaders = []string{"Symbol", "Last", "Bid", "Ask", "Bid Size", "Ask Size", "Time"}

func newQuoteCmd(opts *apiOptions) *cobra.Command {
	var option bool

	cmd := &cobra.Command{
		Use:   "quote SYMBOL...",
		Short: "Get the latest price of stocks or options",
		Long: `Get the latest trade and quote of one or more symbols.

The last price is the latest trade, or the bid/ask midpoint when there is no
usable trade. Option quotes are grouped by underlying and expiration.

Examples:
  apca quote AAPL MSFT
  apca quote --option AAPL250620C00150000 AAPL250620P00150000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if option {
				return runOptionQuote(cmd, opts, args)
			}
			return runStockQuote(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&option, "option", false, "Treat arguments as OSI option symbols")
	cmd.SilenceUsage = true

	return cmd
}

func runStockQuote(cmd *cobra.Command, opts *apiOptions, args []string) error {
	symbols := make([]instrument.Symbol, 0, len(args))
	for _, arg := range args {
		c, err := osi.Decode(arg)
		if err != nil {
			return err
		}
		if c.IsOption() {
			return fmt.Errorf("%s is an option symbol (use --option)", strings.ToUpper(arg))
		}
		symbols = append(symbols, instrument.SymbolOf(c))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d := &market.StockDownloader{Transport: opts.transport(), Feed: opts.settings().StockFeed}
	batches, err := d.Download(ctx, symbols)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No quotes found")
		return nil
	}

	var rows [][]string
	for _, b := range batches {
		rows = append(rows, quoteRows(b.Rows)...)
	}
	return output.New(cmd.OutOrStdout(), opts.jsonMode).Table(quoteHeaders, rows)
}

func runOptionQuote(cmd *cobra.Command, opts *apiOptions, args []string) error {
	contracts := make([]osi.Contract, 0, len(args))
	for _, arg := range args {
		c, err := osi.Decode(arg)
		if err != nil {
			return err
		}
		if !c.IsOption() {
			return fmt.Errorf("%s is not an option symbol", strings.ToUpper(arg))
		}
		contracts = append(contracts, c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d := &market.OptionDownloader{Transport: opts.transport(), Feed: opts.settings().OptionFeed}
	batches, err := d.Download(ctx, contracts)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No quotes found")
		return nil
	}

	sections := make([]output.Section, 0, len(batches))
	for _, b := range batches {
		sections = append(sections, output.Section{
			Title:   b.Key.String(),
			Headers: quoteHeaders,
			Rows:    quoteRows(b.Rows),
		})
	}
	return output.New(cmd.OutOrStdout(), opts.jsonMode).Sections(sections)
}

func quoteRows(rows []marketdata.Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Contract.String(),
			output.Price(r.Last),
			output.Price(r.Bid),
			output.Price(r.Ask),
			output.Volume(r.BidSize),
			output.Volume(r.AskSize),
			output.Timestamp(r.Timestamp),
		})
	}
	return out
}

func init() {
	opts := &apiOptions{}
	withAPI(opts, newQuoteCmd(opts))
}
