package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jonandersen/apca/internal/market"
	"github.com/jonandersen/apca/internal/output"
)

// newAccountCmd creates the account command with the given options.
func newAccountCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "View account balances",
		Long: `View the trading account's status, balances and options level.

Examples:
  apca account
  apca account --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccount(cmd, opts)
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runAccount(cmd *cobra.Command, opts *apiOptions) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	acct, err := (&market.AccountDownloader{Transport: opts.transport()}).Download(ctx)
	if err != nil {
		return err
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return formatter.Print(map[string]any{
			"id":                  acct.ID,
			"accountNumber":       acct.Number,
			"status":              acct.Status,
			"currency":            acct.Currency,
			"cash":                output.Price(acct.Cash),
			"equity":              output.Price(acct.Equity),
			"buyingPower":         output.Price(acct.BuyingPower),
			"optionsBuyingPower":  output.Price(acct.OptionsBuyingPower),
			"optionsTradingLevel": acct.OptionsTradingLevel,
			"patternDayTrader":    acct.PatternDayTrader,
		})
	}

	rows := [][]string{
		{"Account", acct.Number},
		{"Status", acct.Status},
		{"Currency", acct.Currency},
		{"Cash", output.Money(acct.Cash)},
		{"Equity", output.Money(acct.Equity)},
		{"Buying Power", output.Money(acct.BuyingPower)},
		{"Options Buying Power", output.Money(acct.OptionsBuyingPower)},
		{"Options Level", strconv.FormatInt(acct.OptionsTradingLevel, 10)},
		{"Pattern Day Trader", strconv.FormatBool(acct.PatternDayTrader)},
	}
	return formatter.Table([]string{"Field", "Value"}, rows)
}

func newPositionsCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "View open positions",
		Long: `View open stock and option positions with unrealized gain/loss.

Example:
  apca positions`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPositions(cmd, opts)
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runPositions(cmd *cobra.Command, opts *apiOptions) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	positions, err := (&market.PositionsDownloader{Transport: opts.transport()}).Download(ctx)
	if err != nil {
		return err
	}

	if len(positions) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No open positions")
		return nil
	}

	headers := []string{"Symbol", "Side", "Qty", "Avg Price", "Price", "Market Value", "Unrealized P/L"}
	rows := make([][]string, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, []string{
			p.Contract.String(),
			p.Side.String(),
			p.Quantity.String(),
			output.Price(p.AvgEntryPrice),
			output.Price(p.CurrentPrice),
			output.Money(p.MarketValue),
			output.GainLoss(p.UnrealizedPL),
		})
	}
	rows = append(rows, []string{"Total", "", "", "", "", output.Money(sum(positions, marketValue)), output.GainLoss(sum(positions, unrealizedPL))})

	return output.New(cmd.OutOrStdout(), opts.jsonMode).Table(headers, rows)
}

func marketValue(p market.Position) decimal.NullDecimal { return p.MarketValue }
func unrealizedPL(p market.Position) decimal.NullDecimal { return p.UnrealizedPL }

// sum adds the valid values of field. It is unset if none are valid.
func sum(positions []market.Position, field func(market.Position) decimal.NullDecimal) decimal.NullDecimal {
	var total decimal.NullDecimal
	for _, p := range positions {
		v := field(p)
		if !v.Valid {
			continue
		}
		total = decimal.NewNullDecimal(total.Decimal.Add(v.Decimal))
	}
	return total
}

func init() {
	opts := &apiOptions{}
	withAPI(opts, newAccountCmd(opts))
	withAPI(opts, newPositionsCmd(opts))
}
