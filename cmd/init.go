package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/etnz/financials"
	"github.com/etnz/financials/config"
	"github.com/etnz/financials/store"
	"github.com/google/subcommands"
)

type initCmd struct {
	cfg   config.Config
	force bool
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create a workspace with its opening balance" }
func (*initCmd) Usage() string {
	return `fin init [-currency <code>] [-capital <amount>] [-opened <date>] [-store jsonl|sqlite] [-path <file>]

  Writes the configuration file (see -config) and creates the record store
  with the opening balance entry.

Usage Examples:
$ fin init -currency EUR -capital 10000 -opened 2025-01-01
$ fin -config fin.yaml init -store sqlite -path fin.db -allow-short

`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	def := config.Default()
	f.StringVar(&c.cfg.Account.Currency, "currency", def.Account.Currency, "Currency of the cash account.")
	f.StringVar(&c.cfg.Account.Capital, "capital", def.Account.Capital, "Opening balance.")
	f.StringVar(&c.cfg.Account.Opened, "opened", "", "Date of the opening balance, defaults to now.")
	f.StringVar(&c.cfg.Account.CostBasis, "method", "average", "Cost basis method (average, fifo).")
	f.StringVar(&c.cfg.Store.Type, "store", def.Store.Type, "Record store type (jsonl, sqlite).")
	f.StringVar(&c.cfg.Store.Path, "path", "", "Record store path, relative to the configuration file.")
	f.StringVar(&c.cfg.Policy.Limit, "limit", "", "Minimum cash to keep after any buy.")
	f.BoolVar(&c.cfg.Policy.AllowShort, "allow-short", false, "Allow sells beyond the held quantity.")
	f.StringVar(&c.cfg.Policy.MaxHolding, "max-holding", "", "Maximum fraction of the capital held in one symbol.")
	f.StringVar(&c.cfg.Policy.MinHolding, "min-holding", "", "Minimum fraction of the capital held in a symbol after a sell.")
	f.StringVar(&c.cfg.Log.Level, "log-level", def.Log.Level, "Log level (debug, info, warn, error).")
	f.BoolVar(&c.force, "force", false, "Overwrite an existing workspace.")
}

func (c *initCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if _, err := os.Stat(*configFile); err == nil && !c.force {
		fmt.Fprintf(os.Stderr, "Error: %q already exists, use -force to overwrite it\n", *configFile)
		return subcommands.ExitFailure
	}
	cfg := c.cfg
	cfg.Log.Format = "console"
	if cfg.Store.Path == "" {
		cfg.Store.Path = "records.jsonl"
		if cfg.Store.Type == config.StoreSQLite {
			cfg.Store.Path = "fin.db"
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err := cfg.SaveToFile(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	// reload to resolve the store path.
	loaded, err := config.LoadFromFile(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	opening, err := createStore(loaded, c.force)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(out, "Created workspace %s with an opening balance of %s in %s\n",
		*configFile, financials.M(opening.Amount, loaded.Account.Currency), loaded.Store.Path)
	return subcommands.ExitSuccess
}

// createStore creates an empty store holding the opening entry.
func createStore(cfg *config.Config, force bool) (financials.CashEntry, error) {
	movement, err := cfg.Opening()
	if err != nil {
		return financials.CashEntry{}, err
	}
	opening, _ := financials.NewLedger(movement, financials.WithLedgerCurrency(cfg.Account.Currency)).OpeningEntry()

	if force {
		if err := os.Remove(cfg.Store.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return opening, err
		}
	}

	var j journal
	switch cfg.Store.Type {
	case config.StoreSQLite:
		if _, err := os.Stat(cfg.Store.Path); err == nil {
			return opening, fmt.Errorf("%q already exists", cfg.Store.Path)
		}
		s, err := store.Open(cfg.Store.Path)
		if err != nil {
			return opening, err
		}
		j = s
	default:
		f, err := os.OpenFile(cfg.Store.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err != nil {
			return opening, err
		}
		j = financials.NewJSONLJournal(f)
	}
	if err := j.RecordCash(opening); err != nil {
		j.Close()
		return opening, err
	}
	return opening, j.Close()
}
