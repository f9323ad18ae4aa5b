// Package cmd implements the fin command line application: a cash ledger and
// a trade blotter kept in a JSONL file or a SQLite database.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/etnz/financials"
	"github.com/etnz/financials/config"
	"github.com/etnz/financials/store"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&initCmd{}, "workspace")

	c.Register(&cashCmd{kind: deposit}, "cash")
	c.Register(&cashCmd{kind: withdraw}, "cash")
	c.Register(&cashCmd{kind: expense}, "cash")
	c.Register(&ledgerCmd{}, "cash")
	c.Register(&scheduleCmd{}, "cash")
	c.Register(&pendingCmd{}, "cash")
	c.Register(newRealizeCmd(), "cash")
	c.Register(newCancelCmd(), "cash")

	c.Register(&tradeCmd{mode: financials.Buy}, "trades")
	c.Register(&tradeCmd{mode: financials.Sell}, "trades")
	c.Register(&validateCmd{}, "trades")
	c.Register(&queryCmd{}, "trades")
	c.Register(&exportCmd{}, "trades")

	c.Register(&positionsCmd{}, "reports")
	c.Register(&summaryCmd{}, "reports")
	c.Register(&priceCmd{}, "reports")
	c.Register(&valuationCmd{}, "reports")
	c.Register(&metricsCmd{}, "reports")
	c.Register(&auditCmd{}, "reports")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "fin.yaml", "Path to the workspace configuration file (YAML or JSON)")
var Verbose = flag.Bool("v", false, "Log at debug level")

// out is where commands print their reports.
var out io.Writer = os.Stdout

// workspace is an open portfolio with its configuration and its store.
type workspace struct {
	cfg       *config.Config
	log       *zap.Logger
	portfolio *financials.Portfolio
	store     io.Closer
}

// journal is a record store the portfolio writes through.
type journal interface {
	financials.Journal
	financials.FundJournal
	io.Closer
}

// openWorkspace loads the configuration and replays the records of the store.
func openWorkspace() (*workspace, error) {
	cfg, err := config.LoadFromFile(*configFile)
	if err != nil {
		return nil, fmt.Errorf("could not load configuration (run 'fin init' first?): %w", err)
	}
	if *Verbose {
		cfg.Log.Level = "debug"
	}
	log, err := cfg.Log.Logger()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options(log)
	if err != nil {
		return nil, err
	}

	recs, j, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	log.Debug("records loaded",
		zap.String("store", cfg.Store.Path),
		zap.Int("cash", len(recs.Cash)),
		zap.Int("trades", len(recs.Trades)),
		zap.Int("funds", len(recs.Funds)),
	)

	return &workspace{
		cfg:       cfg,
		log:       log,
		portfolio: recs.Portfolio(append(opts, financials.WithJournal(j))...),
		store:     j,
	}, nil
}

func openStore(cfg *config.Config) (financials.Records, journal, error) {
	path := cfg.Store.Path
	switch cfg.Store.Type {
	case config.StoreSQLite:
		s, err := store.Open(path)
		if err != nil {
			return financials.Records{}, nil, err
		}
		recs, err := s.Load()
		if err != nil {
			s.Close()
			return recs, nil, err
		}
		return recs, s, nil
	default:
		f, err := os.OpenFile(path, os.O_APPEND|os.O_RDWR, 0644)
		if errors.Is(err, fs.ErrNotExist) {
			return financials.Records{}, nil, fmt.Errorf("no records at %q, run 'fin init' first", path)
		}
		if err != nil {
			return financials.Records{}, nil, err
		}
		recs, err := financials.DecodeRecords(f)
		if err != nil {
			f.Close()
			return recs, nil, fmt.Errorf("could not decode %q: %w", path, err)
		}
		return recs, financials.NewJSONLJournal(f), nil
	}
}

// Close closes the store and flushes the logs.
func (w *workspace) Close() error {
	_ = w.log.Sync()
	return w.store.Close()
}

// amount formats v in the workspace currency.
func (w *workspace) amount(v decimal.Decimal) string {
	return financials.M(v, w.cfg.Account.Currency).String()
}

// withWorkspace opens the workspace, runs fn and closes the workspace.
func withWorkspace(fn func(w *workspace) error) subcommands.ExitStatus {
	w, err := openWorkspace()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	err = fn(w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
