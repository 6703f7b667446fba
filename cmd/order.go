package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jonandersen/apca/internal/config"
	"github.com/jonandersen/apca/internal/market"
	"github.com/jonandersen/apca/internal/output"
	"github.com/jonandersen/apca/pkg/instrument"
	"github.com/jonandersen/apca/pkg/order"
	"github.com/jonandersen/apca/pkg/osi"
)

// orderFlags are the pricing flags shared by the order subcommands.
type orderFlags struct {
	limit       string
	timeInForce string
	quantity    int
	skipConfirm bool
}

func (f *orderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.limit, "limit", "", "Net limit price, negative for a credit (market order if omitted)")
	cmd.Flags().StringVar(&f.timeInForce, "tif", "day", "Time in force (day or fok)")
	cmd.Flags().IntVarP(&f.quantity, "quantity", "q", 1, "Number of strategy units")
	cmd.Flags().BoolVarP(&f.skipConfirm, "yes", "y", false, "Skip confirmation prompt")
}

// build validates legs and flags into an order.
func (f orderFlags) build(legs instrument.Legs) (order.Order, error) {
	limit, err := parseNetPrice(f.limit)
	if err != nil {
		return order.Order{}, err
	}
	typ := order.Market
	if limit.Valid {
		typ = order.Limit
	}
	tif, err := order.ParseTimeInForce(f.timeInForce)
	if err != nil {
		return order.Order{}, err
	}
	return order.New(legs, typ, tif, limit, decimal.NullDecimal{}, f.quantity)
}

// parseNetPrice parses a multi-leg limit. The price is the net of the legs:
// positive pays a debit, negative receives a credit, zero trades even.
func parseNetPrice(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid limit price %q", s)
	}
	return decimal.NewNullDecimal(d), nil
}

// netSide names the cash direction of a net limit price.
func netSide(d decimal.Decimal) string {
	switch d.Sign() {
	case 1:
		return "debit"
	case -1:
		return "credit"
	default:
		return "even"
	}
}

func newOrderCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Place multi-leg orders",
		Long: `Place multi-leg option orders.

Orders are only sent when trading_enabled is true in the config file and
--yes is given. Without --yes the order is previewed and nothing is sent.

--limit is the net price of one strategy unit: positive to pay a debit,
negative to receive a credit.

Examples:
  apca order multileg --leg "BUY AAPL250620C00150000" --leg "SELL AAPL250620C00155000" --limit 2.10 --yes
  apca order strategy vertical-call AAPL 2025-06-20 --strike long-call=150 --strike short-call=155 --limit 2.10 --yes`,
	}

	cmd.AddCommand(newOrderMultilegCmd(opts))
	cmd.AddCommand(newOrderStrategyCmd(opts))

	return cmd
}

func newOrderMultilegCmd(opts *apiOptions) *cobra.Command {
	var (
		flags   orderFlags
		legArgs []string
	)

	cmd := &cobra.Command{
		Use:   "multileg",
		Short: "Place an order from explicit legs",
		Long: `Place an order from explicit legs. Each --leg is "SIDE SYMBOL [RATIO]"
where SIDE is BUY or SELL and SYMBOL is an OSI option symbol or a stock
ticker. The ratio defaults to 1 for options and 100 for stock.

Example:
  apca order multileg --leg "BUY AAPL250620C00150000" --leg "SELL AAPL250620C00155000" --limit 2.10 --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.settings().TradingEnabled {
				return config.ErrTradingDisabled
			}
			if len(legArgs) == 0 {
				return fmt.Errorf("at least one --leg is required")
			}
			legs := make(instrument.Legs, 0, len(legArgs))
			for _, s := range legArgs {
				leg, err := parseLeg(s)
				if err != nil {
					return err
				}
				legs = append(legs, leg)
			}
			o, err := flags.build(legs)
			if err != nil {
				return err
			}
			return runSubmitOrder(cmd, opts, o, flags.skipConfirm)
		},
	}

	cmd.Flags().StringArrayVar(&legArgs, "leg", nil, `Order leg as "BUY|SELL SYMBOL [RATIO]" (repeatable)`)
	flags.register(cmd)
	cmd.SilenceUsage = true

	return cmd
}

func newOrderStrategyCmd(opts *apiOptions) *cobra.Command {
	var (
		flags   orderFlags
		strikes map[string]string
	)

	cmd := &cobra.Command{
		Use:   "strategy TAG TICKER EXPIRATION",
		Short: "Place an order from a strategy template",
		Long: `Place an order from a strategy template. Each option slot of the
strategy needs a strike, given as --strike SLOT=PRICE. Run
'apca options strategies' to list the templates and their slots.

Example:
  apca order strategy iron-condor SPY 2025-06-20 \
    --strike long-put=480 --strike short-put=490 \
    --strike short-call=520 --strike long-call=530 --limit=-1.50 --yes`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.settings().TradingEnabled {
				return config.ErrTradingDisabled
			}
			legs, err := strategyLegs(args[0], args[1], args[2], strikes)
			if err != nil {
				return err
			}
			o, err := flags.build(legs)
			if err != nil {
				return err
			}
			return runSubmitOrder(cmd, opts, o, flags.skipConfirm)
		},
	}

	cmd.Flags().StringToStringVar(&strikes, "strike", nil, "Strike of a strategy slot as SLOT=PRICE (repeatable)")
	flags.register(cmd)
	cmd.SilenceUsage = true

	return cmd
}

// parseLeg parses "SIDE SYMBOL [RATIO]".
func parseLeg(s string) (instrument.Leg, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 || len(fields) > 3 {
		return instrument.Leg{}, fmt.Errorf("invalid leg %q (use \"BUY|SELL SYMBOL [RATIO]\")", s)
	}

	position, err := instrument.ParsePosition(fields[0])
	if err != nil {
		return instrument.Leg{}, err
	}
	contract, err := osi.Decode(fields[1])
	if err != nil {
		return instrument.Leg{}, err
	}

	ratio := instrument.OptionRatio
	if !contract.IsOption() {
		ratio = instrument.StockRatio
	}
	if len(fields) == 3 {
		ratio, err = strconv.Atoi(fields[2])
		if err != nil || ratio < 1 {
			return instrument.Leg{}, fmt.Errorf("invalid ratio %q in leg %q", fields[2], s)
		}
	}

	return instrument.Leg{Contract: contract, Position: position, Ratio: ratio}, nil
}

func strategyLegs(tag, ticker, expiration string, strikes map[string]string) (instrument.Legs, error) {
	strategy, err := instrument.LookupStrategy(tag)
	if err != nil {
		return nil, err
	}
	exp, err := parseDate("expiration", expiration)
	if err != nil {
		return nil, err
	}

	bySlot := make(map[string]decimal.Decimal, len(strikes))
	for slot, price := range strikes {
		d, err := decimal.NewFromString(strings.TrimSpace(price))
		if err != nil {
			return nil, fmt.Errorf("invalid strike %q for slot %s", price, slot)
		}
		bySlot[strings.TrimSpace(slot)] = d
	}

	return instrument.StrategyLegs(strategy, instrument.NewSettlement(ticker, exp), bySlot)
}

func runSubmitOrder(cmd *cobra.Command, opts *apiOptions, o order.Order, skipConfirm bool) error {
	clientOrderID := uuid.New().String()

	// Show order preview (not in JSON mode)
	if !opts.jsonMode {
		w := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(w, "\nOrder Preview:\n")
		_, _ = fmt.Fprintf(w, "  Type:     %s\n", o.Type())
		_, _ = fmt.Fprintf(w, "  Quantity: %d\n", o.Quantity())
		if o.LimitPrice().Valid {
			_, _ = fmt.Fprintf(w, "  Limit:    %s (%s)\n", output.Price(o.LimitPrice()), netSide(o.LimitPrice().Decimal))
		}
		_, _ = fmt.Fprintf(w, "  Expires:  %s\n", o.TimeInForce())
		for i, leg := range o.Legs() {
			_, _ = fmt.Fprintf(w, "  Leg %d:    %s\n", i+1, leg)
		}
		_, _ = fmt.Fprintf(w, "  Order ID: %s\n\n", clientOrderID)
	}

	// Require confirmation unless --yes flag is set
	if !skipConfirm {
		return fmt.Errorf("order requires confirmation (use --yes to confirm)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s := &market.Submitter{Transport: opts.transport()}
	ack, err := s.Submit(ctx, o, clientOrderID)
	if err != nil {
		return err
	}

	if opts.jsonMode {
		legs := make([]map[string]any, 0, len(ack.Order.Legs()))
		for _, leg := range ack.Order.Legs() {
			legs = append(legs, map[string]any{
				"symbol":   leg.Contract.String(),
				"position": leg.Position.String(),
				"ratio":    leg.Ratio,
			})
		}
		result := map[string]any{
			"id":            ack.ID,
			"clientOrderId": ack.ClientOrderID,
			"status":        ack.Status,
			"type":          ack.Order.Type().String(),
			"timeInForce":   ack.Order.TimeInForce().String(),
			"quantity":      ack.Order.Quantity(),
			"legs":          legs,
		}
		if ack.Order.LimitPrice().Valid {
			result["limitPrice"] = output.Price(ack.Order.LimitPrice())
		}
		return output.New(cmd.OutOrStdout(), true).Print(result)
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Order placed successfully!\n")
	_, _ = fmt.Fprintf(w, "  Order ID: %s\n", ack.ID)
	if ack.Status != "" {
		_, _ = fmt.Fprintf(w, "  Status:   %s\n", ack.Status)
	}
	_, _ = fmt.Fprintf(w, "  %d x %d-leg %s order\n", ack.Order.Quantity(), len(ack.Order.Legs()), ack.Order.Type())
	return nil
}

func init() {
	opts := &apiOptions{}
	withAPI(opts, newOrderCmd(opts))
}
