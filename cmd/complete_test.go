package cmd

import (
	"flag"
	"slices"
	"testing"

	"github.com/google/subcommands"
)

func TestCompletion(t *testing.T) {
	top := flag.NewFlagSet("fin", flag.ContinueOnError)
	top.String("config", "fin.yaml", "")
	top.Bool("v", false, "")
	commander := subcommands.NewCommander(top, "fin")
	Register(commander)

	c := Completion(commander)
	for _, name := range []string{"init", "deposit", "buy", "sell", "validate", "ledger", "metrics", "realize"} {
		if _, ok := c.Sub[name]; !ok {
			t.Errorf("missing completion for %q", name)
		}
	}
	if _, ok := c.Flags["config"]; !ok {
		t.Errorf("missing completion for -config")
	}
	if got := c.Flags["v"].Predict(""); len(got) != 0 {
		t.Errorf("boolean flags take no value, got %v", got)
	}

	buy := c.Sub["buy"]
	for _, name := range []string{"s", "q", "p", "d", "t", "x"} {
		if _, ok := buy.Flags[name]; !ok {
			t.Errorf("missing completion for buy -%s", name)
		}
	}
	methods := c.Sub["price"].Flags["method"].Predict("")
	if !slices.Equal(methods, []string{"average", "fifo"}) {
		t.Errorf("got %v", methods)
	}
}
