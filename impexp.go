package financials

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"
)

// this file contains the CSV exchange format of orders and trades.

// Columns read by ImportOrders. Other columns go to Order.Extra.
var orderColumns = []string{"symbol", "quantity", "price", "mode", "time", "tag"}

// ImportOrders reads orders from a CSV file with a header line.
//
// Header names are matched case-insensitively against symbol, quantity,
// price, mode, time and tag, after being renamed through mappings (file
// header to column name). symbol, quantity, price and mode are required.
// A negative quantity is read as its absolute value: the mode gives the
// direction. A mode other than BUY or SELL is kept verbatim, so that the
// order is rejected by validation instead of failing the whole file. Any
// other column is kept in Extra under its header name.
func ImportOrders(r io.Reader, mappings map[string]string) ([]Order, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read CSV header: %w", err)
	}

	index := make(map[string]int)
	extra := make(map[int]string)
	for i, name := range header {
		name = strings.TrimSpace(name)
		if mapped, ok := mappings[name]; ok {
			name = mapped
		}
		col := strings.ToLower(name)
		if slices.Contains(orderColumns, col) {
			index[col] = i
		} else {
			extra[i] = name
		}
	}
	for _, col := range orderColumns[:4] {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing CSV column %q in header %v", col, header)
		}
	}

	var orders []Order
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read CSV line %d: %w", line, err)
		}
		o, err := parseOrder(record, index, extra)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func parseOrder(record []string, index map[string]int, extra map[int]string) (o Order, err error) {
	field := func(col string) string {
		if i, ok := index[col]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}
	o.Symbol = field("symbol")
	if o.Quantity, err = ParseQuantity(field("quantity")); err != nil {
		return o, err
	}
	o.Quantity = o.Quantity.Abs()
	if o.Price, err = ParsePrice(field("price")); err != nil {
		return o, err
	}
	// an unknown mode is kept as is, for the validator to reject.
	if o.Mode, err = ParseMode(field("mode")); err != nil && !errors.Is(err, ErrInvalidMode) {
		return o, err
	}
	if o.Time, err = ParseTimestamp(field("time")); err != nil {
		return o, err
	}
	o.Tag = field("tag")
	for i, name := range extra {
		if i < len(record) && record[i] != "" {
			if o.Extra == nil {
				o.Extra = Extra{}
			}
			o.Extra[name] = record[i]
		}
	}
	return o, nil
}

// ExportTrades writes trades as CSV: id, time, symbol, mode, quantity, price
// and tag, then one column per extra field name found in trades.
func ExportTrades(w io.Writer, trades []Trade) error {
	keys := make(map[string]bool)
	for _, t := range trades {
		for k := range t.Extra {
			keys[k] = true
		}
	}
	extra := slices.Sorted(maps.Keys(keys))

	cw := csv.NewWriter(w)
	header := append([]string{"id", "time", "symbol", "mode", "quantity", "price", "tag"}, extra...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}
	for _, t := range trades {
		record := []string{
			t.ID,
			t.Time.Format(time.RFC3339),
			t.Symbol,
			string(t.Mode),
			t.Quantity.String(),
			t.Price.String(),
			t.Tag,
		}
		for _, k := range extra {
			record = append(record, t.Extra[k])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("cannot write trade %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
