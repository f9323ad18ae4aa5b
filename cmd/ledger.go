package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/financials"
	"github.com/etnz/financials/date"
	"github.com/google/subcommands"
)

type ledgerCmd struct {
	start  string
	end    string
	flow   string
	by     string
	filter string
}

func (*ledgerCmd) Name() string     { return "ledger" }
func (*ledgerCmd) Synopsis() string { return "display the cash ledger with its running balance" }
func (*ledgerCmd) Usage() string {
	return `fin ledger [-s <start_date>] [-e <end_date>] [-flow all|in|out] [-by <frequency>] [-filter <jsonpath>]

  Lists the cash entries sorted by time with the running balance. Bounds are
  inclusive days; the balance carried from before -s is shown first.

  -by aggregates the entries per day, week, month, quarter, year or weekday.
  -filter selects entries with a JSONPath filter, within the range and flow,
  for instance:

$ fin ledger -filter '$[?(@.tag == "Salary" && @.amount > 1000)]'
`
}

func (c *ledgerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "First day of the range.")
	f.StringVar(&c.end, "e", "", "Last day of the range.")
	f.StringVar(&c.flow, "flow", "all", "Entries to list: all, in or out.")
	f.StringVar(&c.by, "by", "", "Aggregation frequency (daily, weekly, monthly, quarterly, yearly, weekday).")
	f.StringVar(&c.filter, "filter", "", "JSONPath filter over the entries.")
}

func (c *ledgerCmd) query() (q financials.Query, err error) {
	if c.start != "" {
		if q.From, err = date.Parse(c.start); err != nil {
			return q, fmt.Errorf("invalid start date: %w", err)
		}
	}
	if c.end != "" {
		if q.To, err = date.Parse(c.end); err != nil {
			return q, fmt.Errorf("invalid end date: %w", err)
		}
	}
	q.Flow, err = financials.ParseFlow(c.flow)
	return q, err
}

func (c *ledgerCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	q, err := c.query()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	return withWorkspace(func(w *workspace) error {
		var b strings.Builder
		switch {
		case c.filter != "":
			entries, err := w.portfolio.Ledger().Filter(c.filter)
			if err != nil {
				return err
			}
			entries = slices.DeleteFunc(entries, func(e financials.CashEntry) bool { return !q.Match(e) })
			c.renderEntries(&b, w, q, entries)
		case c.by != "":
			freq, err := financials.ParseFrequency(c.by)
			if err != nil {
				return err
			}
			buckets, err := w.portfolio.CashAggregate(q, freq)
			if err != nil {
				return err
			}
			c.renderBuckets(&b, w, buckets)
		default:
			c.renderRows(&b, w, q, w.portfolio.CashLedger(q))
		}
		printMarkdown(b.String())
		return nil
	})
}

func (c *ledgerCmd) renderRows(b *strings.Builder, w *workspace, q financials.Query, rows []financials.Row) {
	fmt.Fprintf(b, "# Cash Ledger\n\n")
	if r := q.Range(); !r.IsOpen() {
		fmt.Fprintf(b, "Range: %s\n\n", r)
	}
	if !q.From.IsZero() {
		fmt.Fprintf(b, "Carried from before %s: %s\n\n", q.From, w.amount(w.portfolio.Ledger().Carried(q)))
	}
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{r.Time.Format("2006-01-02 15:04"), r.Tag, w.amount(r.Amount), w.amount(r.Balance), extraString(r.Extra)})
	}
	table(b, []string{"Time", "Tag", ">Amount", ">Balance", "Extra"}, data)
	fmt.Fprintf(b, "Balance: %s\n", w.amount(w.portfolio.CashBalance()))
}

func (c *ledgerCmd) renderBuckets(b *strings.Builder, w *workspace, buckets []financials.Bucket) {
	fmt.Fprintf(b, "# Cash Ledger by %s\n\n", c.by)
	data := make([][]string, 0, len(buckets))
	for _, k := range buckets {
		data = append(data, []string{k.Key, strconv.Itoa(k.Count), w.amount(k.Amount), w.amount(k.Balance)})
	}
	table(b, []string{"Period", ">Entries", ">Amount", ">Balance"}, data)
}

func (c *ledgerCmd) renderEntries(b *strings.Builder, w *workspace, q financials.Query, entries []financials.CashEntry) {
	fmt.Fprintf(b, "# Cash Entries\n\n")
	if r := q.Range(); !r.IsOpen() {
		fmt.Fprintf(b, "Range: %s\n\n", r)
	}
	data := make([][]string, 0, len(entries))
	for _, e := range entries {
		data = append(data, []string{e.ID, e.Time.Format("2006-01-02 15:04"), e.Tag, w.amount(e.Amount), extraString(e.Extra)})
	}
	table(b, []string{"ID", "Time", "Tag", ">Amount", "Extra"}, data)
}

func extraString(x financials.Extra) string {
	e := extraFlag(x)
	return e.String()
}
