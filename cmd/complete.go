package cmd

import (
	"flag"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flag values offered by completion, by flag name.
var flagValues = map[string]complete.Predictor{
	"config": predict.Files("*.yaml"),
	"style":  predict.Set{"auto", "dark", "light", "notty", "raw"},
	"store":  predict.Set{"jsonl", "sqlite"},
	"method": predict.Set{"average", "fifo"},
	"flow":   predict.Set{"all", "in", "out"},
	"by":     predict.Set{"daily", "weekly", "monthly", "quarterly", "yearly", "weekday"},
	"f":      predict.Files("*.csv"),
	"o":      predict.Files("*.csv"),
	"path":   predict.Files("*"),
}

func predictor(f *flag.Flag) complete.Predictor {
	if p, ok := flagValues[f.Name]; ok {
		return p
	}
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	return predict.Something
}

// Completion describes the command line of c for shell completion.
func Completion(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: make(map[string]complete.Predictor),
	}
	c.VisitAll(func(f *flag.Flag) {
		root.Flags[f.Name] = predictor(f)
	})
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		sub := &complete.Command{Flags: make(map[string]complete.Predictor)}
		fs.VisitAll(func(f *flag.Flag) {
			sub.Flags[f.Name] = predictor(f)
		})
		root.Sub[cmd.Name()] = sub
	})
	return root
}
