package financials

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/financials/date"
	"github.com/shopspring/decimal"
)

// Flow restricts a ledger view to one direction of cash.
type Flow int

const (
	AllFlows Flow = iota
	Inflow
	Outflow
)

func (f Flow) String() string {
	switch f {
	case Inflow:
		return "inflow"
	case Outflow:
		return "outflow"
	default:
		return "all"
	}
}

// ParseFlow reads a flow name: all, in or inflow, out or outflow.
func ParseFlow(s string) (Flow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return AllFlows, nil
	case "in", "inflow", "inflows":
		return Inflow, nil
	case "out", "outflow", "outflows":
		return Outflow, nil
	default:
		return AllFlows, fmt.Errorf("unknown flow %q, want all, in or out", s)
	}
}

func (f Flow) match(amount decimal.Decimal) bool {
	switch f {
	case Inflow:
		return amount.IsPositive()
	case Outflow:
		return amount.IsNegative()
	default:
		return true
	}
}

// Query selects ledger entries. Bounds are inclusive days, a zero bound is open.
type Query struct {
	From, To date.Date
	Flow     Flow
}

// Range returns the days covered by q.
func (q Query) Range() date.Range { return date.NewRange(q.From, q.To) }

// Match reports whether e is in q's range and flow.
func (q Query) Match(e CashEntry) bool {
	return q.Flow.match(e.Amount) && q.Range().Contains(date.Of(e.Time))
}

// Row is a ledger entry with the running balance of the view it belongs to.
type Row struct {
	CashEntry
	Balance decimal.Decimal
}

// Bucket sums the entries of one period.
type Bucket struct {
	Key     string    // period key, see date.Date.Key
	Start   date.Date // first day of the period, or first day seen for weekday buckets
	Amount  decimal.Decimal
	Count   int
	Balance decimal.Decimal // running total over the buckets
}

// sorted returns the entries sorted by time. Entries with the same time keep insertion order.
func (l *Ledger) sorted() []CashEntry {
	entries := l.Entries()
	slices.SortStableFunc(entries, func(a, b CashEntry) int { return a.Time.Compare(b.Time) })
	return entries
}

// View returns the entries selected by q, sorted by time.
//
// The running balance starts at zero at the beginning of the window: use
// Carried to get what the history before the window adds up to.
func (l *Ledger) View(q Query) []Row {
	var rows []Row
	balance := decimal.Zero
	for _, e := range l.sorted() {
		if !q.Match(e) {
			continue
		}
		balance = balance.Add(e.Amount)
		rows = append(rows, Row{CashEntry: e, Balance: balance})
	}
	return rows
}

// Below returns the rows of the whole history, sorted by time, whose running
// balance is below limit.
func (l *Ledger) Below(limit decimal.Decimal) []Row {
	var rows []Row
	for _, r := range l.View(Query{}) {
		if r.Balance.LessThan(limit) {
			rows = append(rows, r)
		}
	}
	return rows
}

// Carried returns the sum of the entries of q's flow dated before q.From.
func (l *Ledger) Carried(q Query) decimal.Decimal {
	total := decimal.Zero
	if q.Range().From.IsZero() {
		return total
	}
	from := q.Range().From
	for _, e := range l.entries {
		if q.Flow.match(e.Amount) && date.Of(e.Time).Before(from) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// Inflows is View restricted to positive entries.
func (l *Ledger) Inflows(q Query) []Row {
	q.Flow = Inflow
	return l.View(q)
}

// Outflows is View restricted to negative entries.
func (l *Ledger) Outflows(q Query) []Row {
	q.Flow = Outflow
	return l.View(q)
}

// Aggregate sums the entries selected by q per period of frequency f.
//
// Buckets are in calendar order. Weekday buckets are ordered Monday first.
func (l *Ledger) Aggregate(q Query, f date.Frequency) ([]Bucket, error) {
	switch f {
	case date.Daily, date.Weekly, date.Monthly, date.Quarterly, date.Yearly, date.ByWeekday:
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFrequency, f)
	}

	var buckets []Bucket
	index := make(map[string]int)
	for _, e := range l.sorted() {
		if !q.Match(e) {
			continue
		}
		day := date.Of(e.Time)
		key := day.Key(f)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key, Start: day.StartOf(f), Amount: decimal.Zero})
		}
		buckets[i].Amount = buckets[i].Amount.Add(e.Amount)
		buckets[i].Count++
	}
	if f == date.ByWeekday {
		slices.SortFunc(buckets, func(a, b Bucket) int { return strings.Compare(a.Key, b.Key) })
	}

	balance := decimal.Zero
	for i := range buckets {
		balance = balance.Add(buckets[i].Amount)
		buckets[i].Balance = balance
	}
	return buckets, nil
}

// Select returns the entries, sorted by time, for which keep returns true.
func (l *Ledger) Select(keep func(CashEntry) bool) []CashEntry {
	var selected []CashEntry
	for _, e := range l.sorted() {
		if keep(e) {
			selected = append(selected, e)
		}
	}
	return selected
}

// Filter returns the entries selected by a JSONPath expression evaluated over
// the JSON array of entries, for instance
//
//	$[?(@.tag == "Salary" && @.amount > 1000)]
//
// Entries are encoded with the fields id, time, amount, tag and extra.
func (l *Ledger) Filter(expr string) ([]CashEntry, error) {
	entries := l.sorted()
	byID := make(map[string]CashEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	ids, err := selectIDs(expr, entries)
	if err != nil {
		return nil, err
	}
	selected := make([]CashEntry, 0, len(ids))
	for _, id := range ids {
		selected = append(selected, byID[id])
	}
	return selected, nil
}

// selectIDs evaluates expr over the JSON encoding of records and returns the
// "id" of every record in the result.
func selectIDs[T any](expr string, records []T) ([]string, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	var jobj any
	if err := json.Unmarshal(data, &jobj); err != nil {
		return nil, err
	}
	jval, err := jsonpath.Get(expr, jobj)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
	}
	// jsonpath returns a single value for a non wildcard path.
	jlist, ok := jval.([]any)
	if !ok {
		jlist = []any{jval}
	}
	ids := make([]string, 0, len(jlist))
	for _, item := range jlist {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("filter %q must select whole records, got %v", expr, item)
		}
		id, _ := obj["id"].(string)
		ids = append(ids, id)
	}
	return ids, nil
}
