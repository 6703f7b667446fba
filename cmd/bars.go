package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonandersen/apca/internal/market"
	"github.com/jonandersen/apca/internal/output"
)

func newBarsCmd(opts *apiOptions) *cobra.Command {
	var start, end, timeframe string

	cmd := &cobra.Command{
		Use:   "bars TICKER",
		Short: "View historical price bars",
		Long: `View historical OHLC bars of a stock. Defaults to daily bars over the
last 30 days.

Examples:
  apca bars AAPL
  apca bars AAPL --start 2024-01-01 --end 2024-03-31
  apca bars SPY --timeframe 1Hour --start 2024-03-15 --end 2024-03-15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBars(cmd, opts, args[0], start, end, timeframe)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day (YYYY-MM-DD, default 30 days ago)")
	cmd.Flags().StringVar(&end, "end", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&timeframe, "timeframe", "1Day", "Bar size (1Min, 1Hour, 1Day, ...)")
	cmd.SilenceUsage = true

	return cmd
}

func runBars(cmd *cobra.Command, opts *apiOptions, ticker, start, end, timeframe string) error {
	from, err := parseOptionalDate("start", start)
	if err != nil {
		return err
	}
	to, err := parseOptionalDate("end", end)
	if err != nil {
		return err
	}
	if from.IsZero() {
		from = time.Now().UTC().AddDate(0, 0, -30)
	}
	if !to.IsZero() && to.Before(from) {
		return fmt.Errorf("--end %s is before --start %s", output.Date(to), output.Date(from))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := opts.settings()
	d := &market.BarsDownloader{
		Transport: opts.transport(),
		Feed:      cfg.StockFeed,
		Timeframe: timeframe,
		MaxPages:  cfg.MaxPages,
	}
	bars, err := d.Download(ctx, ticker, from, to)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No bars found")
		return nil
	}

	headers := []string{"Time", "Open", "High", "Low", "Close", "Volume", "Trades", "VWAP"}
	rows := make([][]string, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, []string{
			output.Timestamp(b.Time),
			b.Open.StringFixed(2),
			b.High.StringFixed(2),
			b.Low.StringFixed(2),
			b.Close.StringFixed(2),
			output.Volume(b.Volume),
			strconv.FormatInt(b.Trades, 10),
			output.Price(b.VWAP),
		})
	}
	return output.New(cmd.OutOrStdout(), opts.jsonMode).Table(headers, rows)
}

func init() {
	opts := &apiOptions{}
	withAPI(opts, newBarsCmd(opts))
}
