package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/financials"
	"github.com/google/subcommands"
)

// tradeCmd records a buy or a sell.
type tradeCmd struct {
	mode     financials.Mode
	symbol   string
	quantity string
	price    string
	date     string
	tag      string
	extra    extraFlag
}

func (c *tradeCmd) Name() string { return strings.ToLower(string(c.mode)) }
func (c *tradeCmd) Synopsis() string {
	return fmt.Sprintf("record a %s trade and its cash effect", strings.ToLower(string(c.mode)))
}
func (c *tradeCmd) Usage() string {
	return fmt.Sprintf(`fin %s -s <symbol> -q <quantity> -p <price> [-d <date>] [-t <tag>] [-x key=value]...

  Appends the trade to the blotter and its cash effect to the ledger, with
  the same time and tag. Sells beyond the held quantity are refused unless
  the workspace policy allows short selling.
`, c.Name())
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Symbol traded.")
	f.StringVar(&c.quantity, "q", "", "Quantity traded.")
	f.StringVar(&c.price, "p", "", "Unit price.")
	f.StringVar(&c.date, "d", "", "Date or date-time of the trade, defaults to now.")
	f.StringVar(&c.tag, "t", "", "Tag of the trade, defaults to "+financials.DefaultTradeTag+".")
	f.Var(&c.extra, "x", "Extra key=value field, can be repeated.")
}

func (c *tradeCmd) order() (o financials.Order, err error) {
	o = financials.Order{Symbol: c.symbol, Mode: c.mode, Tag: c.tag, Extra: c.extra.Extra()}
	if o.Quantity, err = financials.ParseQuantity(c.quantity); err != nil {
		return o, err
	}
	if o.Price, err = financials.ParsePrice(c.price); err != nil {
		return o, err
	}
	o.Time, err = financials.ParseTimestamp(c.date)
	return o, err
}

func (c *tradeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	o, err := c.order()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withWorkspace(func(w *workspace) error {
		t, err := w.portfolio.AddTrade(o)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s %s at %s (%s), position %s, balance %s\n",
			t.Mode, t.Quantity, t.Symbol, w.amount(t.Price), t.ID,
			w.portfolio.Position(t.Symbol), w.amount(w.portfolio.CashBalance()))
		return nil
	})
}
