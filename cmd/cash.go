package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/financials"
	"github.com/google/subcommands"
)

type cashKind int

const (
	deposit cashKind = iota
	withdraw
	expense
)

// cashCmd records a deposit, a withdrawal or an expense.
type cashCmd struct {
	kind   cashKind
	amount string
	date   string
	tag    string
	extra  extraFlag
}

func (c *cashCmd) Name() string {
	switch c.kind {
	case withdraw:
		return "withdraw"
	case expense:
		return "expense"
	default:
		return "deposit"
	}
}

func (c *cashCmd) Synopsis() string {
	switch c.kind {
	case withdraw:
		return "record a cash withdrawal"
	case expense:
		return "record an expense"
	default:
		return "record a cash deposit"
	}
}

func (c *cashCmd) Usage() string {
	return fmt.Sprintf(`fin %s -a <amount> [-d <date>] [-t <tag>] [-x key=value]...

  %s. The sign of the amount is ignored: the command gives the direction.
`, c.Name(), c.Synopsis())
}

func (c *cashCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "a", "", "Amount of the movement.")
	f.StringVar(&c.date, "d", "", "Date or date-time of the movement, defaults to now.")
	f.StringVar(&c.tag, "t", "", "Tag of the movement.")
	f.Var(&c.extra, "x", "Extra key=value field, can be repeated.")
}

// movement parses the common movement flags.
func movement(amount, date, tag string, extra extraFlag) (financials.Movement, error) {
	if amount == "" {
		return financials.Movement{}, fmt.Errorf("an amount is required (-a)")
	}
	v, err := financials.ParseAmount(amount)
	if err != nil {
		return financials.Movement{}, err
	}
	on, err := financials.ParseTimestamp(date)
	if err != nil {
		return financials.Movement{}, err
	}
	return financials.Movement{Amount: v, Time: on, Tag: tag, Extra: extra.Extra()}, nil
}

func (c *cashCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := movement(c.amount, c.date, c.tag, c.extra)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	return withWorkspace(func(w *workspace) error {
		var e financials.CashEntry
		var err error
		switch c.kind {
		case withdraw:
			e, err = w.portfolio.WithdrawFunds(m)
		case expense:
			e, err = w.portfolio.Expense(m)
		default:
			e, err = w.portfolio.AddFunds(m)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s on %s (%s), balance %s\n",
			e.Tag, w.amount(e.Amount), e.Time.Format("2006-01-02"), e.ID, w.amount(w.portfolio.CashBalance()))
		return nil
	})
}
