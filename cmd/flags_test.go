package cmd

import (
	"flag"
	"testing"

	"github.com/etnz/financials"
)

func TestExtraFlag(t *testing.T) {
	var x extraFlag
	f := flag.NewFlagSet("test", flag.ContinueOnError)
	f.Var(&x, "x", "")
	if err := f.Parse([]string{"-x", "b=2", "-x", " a = 1 "}); err != nil {
		t.Fatal(err)
	}
	if got, want := x.String(), "a=1,b=2"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := x.Extra(); got["a"] != "1" {
		t.Errorf("got %v", got)
	}
	if err := x.Set("novalue"); err == nil {
		t.Errorf("expected an error for a missing '='")
	}

	var empty extraFlag
	if empty.Extra() != nil {
		t.Errorf("an empty flag has no extra fields")
	}
}

func TestPricesFlag(t *testing.T) {
	var p pricesFlag
	if err := p.Set("AAPL=190.5"); err != nil {
		t.Fatal(err)
	}
	if !p["AAPL"].Equal(financials.D(190.5)) {
		t.Errorf("got %v", p["AAPL"])
	}
	if err := p.Set("AAPL=cheap"); err == nil {
		t.Errorf("expected an error for an invalid price")
	}
}

func TestMappingsFlag(t *testing.T) {
	var m mappingsFlag
	for _, s := range []string{"Ticker=symbol", "Side=mode"} {
		if err := m.Set(s); err != nil {
			t.Fatal(err)
		}
	}
	if got, want := m.String(), "Side=mode,Ticker=symbol"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
