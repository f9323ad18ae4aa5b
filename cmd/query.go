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

type queryCmd struct{}

func (*queryCmd) Name() string     { return "query" }
func (*queryCmd) Synopsis() string { return "select trades with a JSONPath filter" }
func (*queryCmd) Usage() string {
	return `fin query [<jsonpath>]

  Lists the trades of the blotter matching a JSONPath filter evaluated over
  their JSON records (id, time, symbol, mode, quantity, price, tag, extra).
  Without filter every trade is listed.

$ fin query '$[?(@.symbol == "AAPL" && @.mode == "SELL")]'
`
}

func (*queryCmd) SetFlags(f *flag.FlagSet) {}

func (*queryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "Error: expected a single JSONPath expression\n")
		return subcommands.ExitUsageError
	}
	return withWorkspace(func(w *workspace) error {
		trades := w.portfolio.Trades()
		if expr := f.Arg(0); expr != "" {
			var err error
			if trades, err = w.portfolio.Query(expr); err != nil {
				return err
			}
		}
		var b strings.Builder
		fmt.Fprintf(&b, "# Trades\n\n")
		tradeTable(&b, w, trades)
		printMarkdown(b.String())
		return nil
	})
}

func tradeTable(b *strings.Builder, w *workspace, trades []financials.Trade) {
	var rows [][]string
	for _, t := range trades {
		rows = append(rows, []string{
			t.Time.Format("2006-01-02 15:04"), t.Symbol, string(t.Mode), t.Quantity.String(),
			w.amount(t.Price), t.Tag, extraString(t.Extra),
		})
	}
	table(b, []string{"Time", "Symbol", "Mode", ">Quantity", ">Price", "Tag", "Extra"}, rows)
}

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the trades as CSV" }
func (*exportCmd) Usage() string {
	return `fin export [-o <file.csv>]

  Writes the blotter as CSV, one column per extra field. The file can be
  read back by 'fin validate'.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "-", "Output file, - for stdout.")
}

func (c *exportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withWorkspace(func(w *workspace) error {
		if c.output == "-" {
			return financials.ExportTrades(out, w.portfolio.Trades())
		}
		file, err := os.Create(c.output)
		if err != nil {
			return err
		}
		if err := financials.ExportTrades(file, w.portfolio.Trades()); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	})
}
