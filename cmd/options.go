package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jonandersen/apca/internal/market"
	"github.com/jonandersen/apca/internal/output"
	"github.com/jonandersen/apca/pkg/alpaca"
	"github.com/jonandersen/apca/pkg/instrument"
	"github.com/jonandersen/apca/pkg/osi"
)

func newOptionsCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options",
		Short: "Option chains and symbols",
		Long: `List option chains and work with OSI option symbols.

Examples:
  apca options chain AAPL --from 2025-06-01 --to 2025-06-30
  apca options decode AAPL250620C00150000
  apca options encode AAPL 2025-06-20 C 150
  apca options strategies`,
	}

	chainCmd := newOptionsChainCmd(opts)
	chainCmd.PreRunE = opts.load

	cmd.AddCommand(chainCmd)
	cmd.AddCommand(newOptionsDecodeCmd(opts))
	cmd.AddCommand(newOptionsEncodeCmd())
	cmd.AddCommand(newOptionsStrategiesCmd(opts))

	return cmd
}

// chainFlags are the raw bounds given on the command line.
type chainFlags struct {
	from      string
	to        string
	minStrike string
	maxStrike string
	optType   string
}

func (f chainFlags) bounds() (alpaca.ChainBounds, error) {
	var b alpaca.ChainBounds
	var err error

	if b.ExpirationFrom, err = parseOptionalDate("from", f.from); err != nil {
		return b, err
	}
	if b.ExpirationTo, err = parseOptionalDate("to", f.to); err != nil {
		return b, err
	}
	if b.StrikeMin, err = parseOptionalPrice("min-strike", f.minStrike); err != nil {
		return b, err
	}
	if b.StrikeMax, err = parseOptionalPrice("max-strike", f.maxStrike); err != nil {
		return b, err
	}
	if f.optType != "" {
		t, err := osi.ParseOptionType(f.optType)
		if err != nil {
			return b, err
		}
		b.Type = strings.ToLower(t.String())
	}
	if !b.ExpirationFrom.IsZero() && !b.ExpirationTo.IsZero() && b.ExpirationTo.Before(b.ExpirationFrom) {
		return b, fmt.Errorf("--to %s is before --from %s", f.to, f.from)
	}
	return b, nil
}

func newOptionsChainCmd(opts *apiOptions) *cobra.Command {
	var flags chainFlags

	cmd := &cobra.Command{
		Use:   "chain TICKER...",
		Short: "List option contracts",
		Long: `List the option contracts of one or more underlyings, sorted by
expiration, strike and type. Results are fetched page by page.

Examples:
  apca options chain AAPL
  apca options chain AAPL --from 2025-06-01 --to 2025-06-30 --type call
  apca options chain SPY --min-strike 500 --max-strike 520`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptionsChain(cmd, opts, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.from, "from", "", "Earliest expiration (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.to, "to", "", "Latest expiration (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.minStrike, "min-strike", "", "Lowest strike")
	cmd.Flags().StringVar(&flags.maxStrike, "max-strike", "", "Highest strike")
	cmd.Flags().StringVar(&flags.optType, "type", "", "Option type (call or put)")
	cmd.SilenceUsage = true

	return cmd
}

func runOptionsChain(cmd *cobra.Command, opts *apiOptions, args []string, flags chainFlags) error {
	bounds, err := flags.bounds()
	if err != nil {
		return err
	}

	symbols := make([]instrument.Symbol, len(args))
	for i, a := range args {
		symbols[i] = instrument.Symbol{Ticker: strings.ToUpper(a)}
	}

	// A long chain can span many pages.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg := opts.settings()
	d := &market.ContractDownloader{
		Transport: opts.transport(),
		Feed:      cfg.OptionFeed,
		PageLimit: cfg.ChainPageLimit,
		MaxPages:  cfg.MaxPages,
	}
	batches, err := d.Download(ctx, symbols, bounds)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No contracts found")
		return nil
	}

	sections := make([]output.Section, 0, len(batches))
	for _, b := range batches {
		sections = append(sections, output.Section{
			Title:   b.Symbol.String(),
			Headers: contractHeaders,
			Rows:    contractRows(b.Contracts),
		})
	}
	return output.New(cmd.OutOrStdout(), opts.jsonMode).Sections(sections)
}

var contractHeaders = []string{"Symbol", "Underlying", "Expiration", "Type", "Strike"}

func contractRows(contracts []osi.Contract) [][]string {
	rows := make([][]string, 0, len(contracts))
	for _, c := range contracts {
		strike := output.Missing
		if c.Strike.Valid {
			strike = c.Strike.Decimal.StringFixed(2)
		}
		typ := output.Missing
		if c.IsOption() {
			typ = c.Type.String()
		}
		rows = append(rows, []string{
			c.String(),
			c.Ticker,
			output.Date(c.Expiration),
			typ,
			strike,
		})
	}
	return rows
}

func newOptionsDecodeCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode SYMBOL...",
		Short: "Decode OSI symbols",
		Long: `Decode OSI option symbols into underlying, expiration, type and strike.
A symbol without an expiration is a stock.

Example:
  apca options decode AAPL250620C00150000 SPY`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contracts := make([]osi.Contract, 0, len(args))
			for _, a := range args {
				c, err := osi.Decode(a)
				if err != nil {
					return err
				}
				contracts = append(contracts, c)
			}
			return output.New(cmd.OutOrStdout(), GetJSONMode() || opts.jsonMode).Table(contractHeaders, contractRows(contracts))
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func newOptionsEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode TICKER EXPIRATION C|P STRIKE",
		Short: "Build an OSI symbol",
		Long: `Build the OSI symbol of an option contract.

Example:
  apca options encode AAPL 2025-06-20 C 150`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			expiration, err := parseDate("expiration", args[1])
			if err != nil {
				return err
			}
			typ, err := osi.ParseOptionType(args[2])
			if err != nil {
				return err
			}
			strike, err := decimal.NewFromString(args[3])
			if err != nil {
				return fmt.Errorf("invalid strike %q", args[3])
			}

			symbol, err := osi.Encode(osi.Option(args[0], expiration, typ, strike))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), symbol)
			return nil
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func newOptionsStrategiesCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "List the strategy templates",
		Long: `List the strategies accepted by 'apca order strategy' and the slots
whose strikes must be given with --strike.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			headers := []string{"Strategy", "Legs", "Strike Slots"}
			var rows [][]string
			for _, tag := range instrument.StrategyNames() {
				s := instrument.Strategies[tag]
				legs := make([]string, 0, len(s.Slots))
				for _, slot := range s.Slots {
					legs = append(legs, fmt.Sprintf("%s %dx %s", slot.Position, slot.Ratio, slot.Kind))
				}
				rows = append(rows, []string{tag, strings.Join(legs, ", "), strings.Join(s.OptionSlots(), ",")})
			}
			return output.New(cmd.OutOrStdout(), GetJSONMode() || opts.jsonMode).Table(headers, rows)
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func parseDate(name, s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q (use YYYY-MM-DD)", name, s)
	}
	return t, nil
}

func parseOptionalDate(name, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return parseDate(name, s)
}

func parseOptionalPrice(name, s string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid %s %q", name, s)
	}
	if !d.IsPositive() {
		return decimal.NullDecimal{}, fmt.Errorf("%s must be positive, got %s", name, s)
	}
	return decimal.NewNullDecimal(d), nil
}

func init() {
	rootCmd.AddCommand(newOptionsCmd(&apiOptions{}))
}
