package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/financials"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type positionsCmd struct {
	all bool
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "display the net quantity held per symbol" }
func (*positionsCmd) Usage() string {
	return `fin positions [-all]

  Lists the net quantity of every symbol held. -all includes flat positions.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "Include symbols with no position left.")
}

func (c *positionsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withWorkspace(func(w *workspace) error {
		var b strings.Builder
		fmt.Fprintf(&b, "# Positions\n\n")
		var rows [][]string
		for _, p := range w.portfolio.Positions() {
			if p.Quantity.IsZero() && !c.all {
				continue
			}
			rows = append(rows, []string{p.Symbol, p.Quantity.String()})
		}
		table(&b, []string{"Symbol", ">Quantity"}, rows)
		fmt.Fprintf(&b, "Cash: %s\n", w.amount(w.portfolio.CashBalance()))
		printMarkdown(b.String())
		return nil
	})
}

type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the net amount invested per symbol" }
func (*summaryCmd) Usage() string {
	return `fin summary

  Displays, for every traded symbol, the net quantity, the net amount
  invested (buys minus sells) and its weight among the open positions.
`
}

func (*summaryCmd) SetFlags(f *flag.FlagSet) {}

func (*summaryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withWorkspace(func(w *workspace) error {
		weights := make(map[string]decimal.Decimal)
		for _, x := range w.portfolio.Weights() {
			weights[x.Symbol] = x.Weight
		}
		var b strings.Builder
		fmt.Fprintf(&b, "# Summary\n\n")
		var rows [][]string
		for _, r := range w.portfolio.Summary() {
			weight := ""
			if x, ok := weights[r.Symbol]; ok {
				weight = percent(x)
			}
			rows = append(rows, []string{r.Symbol, r.Quantity.String(), w.amount(r.Value), weight})
		}
		table(&b, []string{"Symbol", ">Quantity", ">Net Invested", ">Weight"}, rows)
		fmt.Fprintf(&b, "Net invested: %s, cash: %s, capital: %s\n",
			w.amount(w.portfolio.NetInvested()), w.amount(w.portfolio.CashBalance()), w.amount(w.portfolio.Capital()))
		printMarkdown(b.String())
		return nil
	})
}

func percent(x decimal.Decimal) string {
	return x.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// methodFlag reads the cost basis method, the configured one by default.
func methodFlag(w *workspace, s string) (financials.CostBasisMethod, error) {
	if s == "" {
		return w.cfg.CostBasis(), nil
	}
	return financials.ParseCostBasisMethod(s)
}

type priceCmd struct {
	method string
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "display the average trade prices per symbol" }
func (*priceCmd) Usage() string {
	return `fin price [-method average|fifo]

  Displays the average buy and sell prices of every traded symbol and the
  cost per share still held, according to the cost basis method.
`
}

func (c *priceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.method, "method", "", "Cost basis method (average, fifo), defaults to the configured one.")
}

func (c *priceCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withWorkspace(func(w *workspace) error {
		method, err := methodFlag(w, c.method)
		if err != nil {
			return err
		}
		cell := func(v decimal.NullDecimal) string {
			if !v.Valid {
				return "-"
			}
			return w.amount(v.Decimal)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "# Average Prices (%s)\n\n", method)
		var rows [][]string
		for _, a := range w.portfolio.AveragePrices(method) {
			rows = append(rows, []string{a.Symbol, cell(a.Buy), cell(a.Sell), cell(a.Net)})
		}
		table(&b, []string{"Symbol", ">Buy", ">Sell", ">Cost Basis"}, rows)
		printMarkdown(b.String())
		return nil
	})
}

type valuationCmd struct {
	prices pricesFlag
}

func (*valuationCmd) Name() string     { return "valuation" }
func (*valuationCmd) Synopsis() string { return "value the open positions at given prices" }
func (*valuationCmd) Usage() string {
	return `fin valuation -p SYMBOL=PRICE...

  Values every open position at the given prices. Every held symbol needs a price.

$ fin valuation -p AAPL=190.5 -p MSFT=410
`
}

func (c *valuationCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.prices, "p", "SYMBOL=PRICE, can be repeated.")
}

func (c *valuationCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withWorkspace(func(w *workspace) error {
		valuations, err := w.portfolio.Valuation(c.prices)
		if err != nil {
			return err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "# Valuation\n\n")
		var rows [][]string
		total := decimal.Zero
		for _, v := range valuations {
			rows = append(rows, []string{v.Symbol, v.Quantity.String(), w.amount(v.Price), w.amount(v.Value)})
			total = total.Add(v.Value)
		}
		table(&b, []string{"Symbol", ">Quantity", ">Price", ">Value"}, rows)
		cash := w.portfolio.CashBalance()
		fmt.Fprintf(&b, "Positions: %s, cash: %s, total: %s\n", w.amount(total), w.amount(cash), w.amount(total.Add(cash)))
		printMarkdown(b.String())
		return nil
	})
}

type metricsCmd struct {
	prices pricesFlag
	method string
}

func (*metricsCmd) Name() string     { return "metrics" }
func (*metricsCmd) Synopsis() string { return "display the profit and return of the portfolio" }
func (*metricsCmd) Usage() string {
	return `fin metrics -p SYMBOL=PRICE... [-method average|fifo]

  Displays the mark-to-market gain of the blotter at the given prices, split
  into realized and unrealized gains, the expenses, the profit and the return
  on the capital contributed.
`
}

func (c *metricsCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.prices, "p", "SYMBOL=PRICE, can be repeated.")
	f.StringVar(&c.method, "method", "", "Cost basis method (average, fifo), defaults to the configured one.")
}

func (c *metricsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withWorkspace(func(w *workspace) error {
		method, err := methodFlag(w, c.method)
		if err != nil {
			return err
		}
		p := w.portfolio
		value, err := p.MarketValue(c.prices)
		if err != nil {
			return err
		}
		mtm, err := p.MarkToMarket(c.prices)
		if err != nil {
			return err
		}
		unrealized, err := p.UnrealizedProfit(c.prices, method)
		if err != nil {
			return err
		}
		profit, err := p.Profit(c.prices)
		if err != nil {
			return err
		}
		roc := "-"
		if r, err := p.ReturnOnCapital(c.prices); err == nil {
			roc = percent(r)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "# Metrics (%s)\n\n", method)
		table(&b, []string{"Metric", ">Value"}, [][]string{
			{"Market Value", w.amount(value)},
			{"Net Invested", w.amount(p.NetInvested())},
			{"Mark to Market", w.amount(mtm)},
			{"Realized", w.amount(p.RealizedProfit(method))},
			{"Unrealized", w.amount(unrealized)},
			{"Expenses", w.amount(p.Expenses())},
			{"Profit", w.amount(profit)},
			{"Capital", w.amount(p.Capital())},
			{"Return on Capital", roc},
		})
		printMarkdown(b.String())
		return nil
	})
}

type auditCmd struct {
	limit string
}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "list short positions and cash below the limit" }
func (*auditCmd) Usage() string {
	return `fin audit [-limit <amount>]

  Lists the trades that leave their symbol with a negative position, and the
  ledger entries after which the cash balance is below the limit. The limit
  defaults to the one of the workspace policy.
`
}

func (c *auditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.limit, "limit", "", "Cash limit, defaults to the policy limit.")
}

func (c *auditCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var limit decimal.NullDecimal
	if c.limit != "" {
		v, err := financials.ParseAmount(c.limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		limit = decimal.NewNullDecimal(v)
	}
	return withWorkspace(func(w *workspace) error {
		var overdrafts []financials.Row
		if limit.Valid {
			overdrafts = w.portfolio.Ledger().Below(limit.Decimal)
		} else {
			overdrafts = w.portfolio.Overdrafts()
		}

		short := w.portfolio.NegativePositions()

		var b strings.Builder
		fmt.Fprintf(&b, "# Short Positions\n\n")
		var rows [][]string
		for _, t := range short {
			rows = append(rows, []string{t.Time.Format("2006-01-02 15:04"), t.Symbol, string(t.Mode), t.Quantity.String(), t.ID})
		}
		table(&b, []string{"Time", "Symbol", "Mode", ">Quantity", "ID"}, rows)

		fmt.Fprintf(&b, "# Below Limit\n\n")
		rows = nil
		for _, r := range overdrafts {
			rows = append(rows, []string{r.Time.Format("2006-01-02 15:04"), r.Tag, w.amount(r.Amount), w.amount(r.Balance)})
		}
		table(&b, []string{"Time", "Tag", ">Amount", ">Balance"}, rows)
		fmt.Fprintf(&b, "%d short trades, %d entries below the limit\n", len(short), len(overdrafts))
		printMarkdown(b.String())
		return nil
	})
}
