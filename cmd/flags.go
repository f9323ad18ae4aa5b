package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/etnz/financials"
	"github.com/shopspring/decimal"
)

// keyValue splits "key=value".
func keyValue(s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", fmt.Errorf("want key=value, got %q", s)
	}
	return k, strings.TrimSpace(v), nil
}

// extraFlag collects repeated -x key=value flags.
type extraFlag financials.Extra

func (x *extraFlag) String() string {
	if x == nil || len(*x) == 0 {
		return ""
	}
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(*x)) {
		parts = append(parts, k+"="+(*x)[k])
	}
	return strings.Join(parts, ",")
}

func (x *extraFlag) Set(s string) error {
	k, v, err := keyValue(s)
	if err != nil {
		return err
	}
	if *x == nil {
		*x = make(extraFlag)
	}
	(*x)[k] = v
	return nil
}

// Extra returns the collected fields, nil if there are none.
func (x extraFlag) Extra() financials.Extra {
	if len(x) == 0 {
		return nil
	}
	return financials.Extra(x)
}

// pricesFlag collects repeated -p SYMBOL=PRICE flags.
type pricesFlag map[string]decimal.Decimal

func (p *pricesFlag) String() string {
	if p == nil || len(*p) == 0 {
		return ""
	}
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(*p)) {
		parts = append(parts, k+"="+(*p)[k].String())
	}
	return strings.Join(parts, ",")
}

func (p *pricesFlag) Set(s string) error {
	sym, v, err := keyValue(s)
	if err != nil {
		return err
	}
	price, err := financials.ParsePrice(v)
	if err != nil {
		return err
	}
	if *p == nil {
		*p = make(pricesFlag)
	}
	(*p)[sym] = price
	return nil
}

// mappingsFlag collects repeated -m Header=column flags.
type mappingsFlag map[string]string

func (m *mappingsFlag) String() string {
	if m == nil || len(*m) == 0 {
		return ""
	}
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(*m)) {
		parts = append(parts, k+"="+(*m)[k])
	}
	return strings.Join(parts, ",")
}

func (m *mappingsFlag) Set(s string) error {
	k, v, err := keyValue(s)
	if err != nil {
		return err
	}
	if *m == nil {
		*m = make(mappingsFlag)
	}
	(*m)[k] = v
	return nil
}
