package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/etnz/financials"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type validateCmd struct {
	file     string
	mappings mappingsFlag
	apply    bool
	stop     string
}

func (*validateCmd) Name() string     { return "validate" }
func (*validateCmd) Synopsis() string { return "check a list of orders against the trading policy" }
func (*validateCmd) Usage() string {
	return `fin validate -f <orders.csv> [-m Header=column]... [-apply] [-stop <percent>]

  Reads orders from a CSV file (- for stdin) whose header names symbol,
  quantity, price and mode, and optionally time and tag. -m renames a header
  of the file to one of those columns. Other columns are kept as extra fields.

  Orders are checked in file order against the cash balance, the holdings and
  the workspace policy: each admitted order changes what the next one sees.
  -apply records the admitted orders. -stop prints the stop-loss orders of the
  admitted ones.

Usage Examples:
$ fin validate -f orders.csv -m Ticker=symbol -m Side=mode
$ fin validate -f orders.csv -apply -stop 5
`
}

func (c *validateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "-", "CSV file of orders, - for stdin.")
	f.Var(&c.mappings, "m", "Header=column renaming, can be repeated.")
	f.BoolVar(&c.apply, "apply", false, "Record the admitted orders.")
	f.StringVar(&c.stop, "stop", "", "Print stop-loss orders at this percentage from the admitted ones.")
}

func (c *validateCmd) readOrders() ([]financials.Order, error) {
	var r io.Reader = os.Stdin
	if c.file != "-" {
		f, err := os.Open(c.file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return financials.ImportOrders(r, c.mappings)
}

func (c *validateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	orders, err := c.readOrders()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading orders: %v\n", err)
		return subcommands.ExitFailure
	}
	var percent decimal.NullDecimal
	if c.stop != "" {
		v, err := financials.ParseAmount(c.stop)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		percent = decimal.NewNullDecimal(v)
	}

	return withWorkspace(func(w *workspace) error {
		var result financials.Result
		if c.apply {
			var trades []financials.Trade
			var err error
			result, trades, err = w.portfolio.Apply(orders)
			if err != nil {
				return err
			}
			w.log.Info("orders applied", zap.Int("trades", len(trades)), zap.Int("rejected", len(result.Failed)))
		} else {
			result = w.portfolio.Validate(orders)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "# Order Validation\n\n")
		fmt.Fprintf(&b, "%d admitted, %d rejected, cash left %s\n\n", len(result.Passed), len(result.Failed), w.amount(result.Capital))
		if len(result.Passed) > 0 {
			fmt.Fprintf(&b, "## Admitted\n\n")
			orderTable(&b, w, result.Passed)
		}
		if len(result.Failed) > 0 {
			fmt.Fprintf(&b, "## Rejected\n\n")
			var rows [][]string
			for _, r := range result.Failed {
				rows = append(rows, []string{strconv.Itoa(r.Index + 1), r.Order.Symbol, string(r.Order.Mode), r.Order.Quantity.String(), w.amount(r.Order.Price), string(r.Reason)})
			}
			table(&b, []string{">Line", "Symbol", "Mode", ">Quantity", ">Price", "Reason"}, rows)
		}
		if percent.Valid {
			fmt.Fprintf(&b, "## Stop-Loss Orders at %s%%\n\n", percent.Decimal)
			orderTable(&b, w, financials.StopLoss(result.Passed, percent.Decimal))
		}
		if c.apply {
			fmt.Fprintf(&b, "Recorded %d trades, balance %s\n", len(result.Passed), w.amount(w.portfolio.CashBalance()))
		}
		printMarkdown(b.String())
		return nil
	})
}

func orderTable(b *strings.Builder, w *workspace, orders []financials.Order) {
	var rows [][]string
	for _, o := range orders {
		rows = append(rows, []string{o.Symbol, string(o.Mode), o.Quantity.String(), w.amount(o.Price), w.amount(o.Value())})
	}
	table(b, []string{"Symbol", "Mode", ">Quantity", ">Price", ">Value"}, rows)
}
