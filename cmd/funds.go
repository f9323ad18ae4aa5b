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

type scheduleCmd struct {
	amount string
	due    string
	tag    string
	extra  extraFlag
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "register a future cash movement" }
func (*scheduleCmd) Usage() string {
	return `fin schedule -a <amount> [-d <due_date>] [-t <tag>] [-x key=value]...

  Registers a pending movement: a positive amount is an expected deposit, a
  negative one an expected withdrawal. It does not change the balance until
  it is realized with 'fin realize <id>'.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "a", "", "Signed amount of the movement.")
	f.StringVar(&c.due, "d", "", "Due date, defaults to now.")
	f.StringVar(&c.tag, "t", "", "Tag of the movement.")
	f.Var(&c.extra, "x", "Extra key=value field, can be repeated.")
}

func (c *scheduleCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := movement(c.amount, c.due, c.tag, c.extra)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withWorkspace(func(w *workspace) error {
		fund, err := w.portfolio.Ledger().Schedule(m)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Scheduled %s due %s: %s\n", w.amount(fund.Amount), fund.Due.Format("2006-01-02"), fund.ID)
		return nil
	})
}

type pendingCmd struct{}

func (*pendingCmd) Name() string     { return "pending" }
func (*pendingCmd) Synopsis() string { return "list the pending cash movements" }
func (*pendingCmd) Usage() string {
	return `fin pending

  Lists the movements registered with 'fin schedule' and not yet realized or cancelled.
`
}

func (*pendingCmd) SetFlags(f *flag.FlagSet) {}

func (*pendingCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withWorkspace(func(w *workspace) error {
		l := w.portfolio.Ledger()
		var b strings.Builder
		fmt.Fprintf(&b, "# Pending Movements\n\n")
		var rows [][]string
		for _, p := range l.Pending() {
			rows = append(rows, []string{p.ID, p.Due.Format("2006-01-02"), p.Tag, w.amount(p.Amount)})
		}
		table(&b, []string{"ID", "Due", "Tag", ">Amount"}, rows)
		fmt.Fprintf(&b, "Total: %s, balance once realized: %s\n", w.amount(l.PendingTotal()), w.amount(l.Balance().Add(l.PendingTotal())))
		printMarkdown(b.String())
		return nil
	})
}

// fundCmd realizes or cancels pending movements given by id.
type fundCmd struct {
	name, synopsis string
	run            func(l *financials.Ledger, id string) (string, error)
}

func (c *fundCmd) Name() string     { return c.name }
func (c *fundCmd) Synopsis() string { return c.synopsis }
func (c *fundCmd) Usage() string {
	return fmt.Sprintf("fin %s <id>...\n\n  %s.\n", c.name, c.synopsis)
}
func (*fundCmd) SetFlags(f *flag.FlagSet) {}

func (c *fundCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one pending movement id is required\n")
		return subcommands.ExitUsageError
	}
	return withWorkspace(func(w *workspace) error {
		for _, id := range f.Args() {
			msg, err := c.run(w.portfolio.Ledger(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, msg)
		}
		return nil
	})
}

func newRealizeCmd() *fundCmd {
	return &fundCmd{
		name:     "realize",
		synopsis: "turn pending movements into ledger entries",
		run: func(l *financials.Ledger, id string) (string, error) {
			e, err := l.Realize(id)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Realized %s %s (%s)", id, financials.M(e.Amount, l.Currency()), e.ID), nil
		},
	}
}

func newCancelCmd() *fundCmd {
	return &fundCmd{
		name:     "cancel",
		synopsis: "drop pending movements",
		run: func(l *financials.Ledger, id string) (string, error) {
			if err := l.Cancel(id); err != nil {
				return "", err
			}
			return "Cancelled " + id, nil
		},
	}
}
