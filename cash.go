package financials

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/etnz/financials/id"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OpeningTag is the default tag of the entry a ledger is seeded with.
const OpeningTag = "Opening Balance"

// Extra holds free-form fields attached to a cash entry or a trade.
type Extra map[string]string

// Movement is the input of a ledger operation.
type Movement struct {
	Amount decimal.Decimal
	Time   time.Time // zero means now
	Tag    string
	Extra  Extra
}

// CashEntry is one signed cash movement: positive is an inflow, negative an outflow.
// Entries are never modified once in a ledger.
type CashEntry struct {
	ID     string
	Amount decimal.Decimal
	Time   time.Time
	Tag    string
	Extra  Extra
}

// IsInflow reports whether e brings cash in.
func (e CashEntry) IsInflow() bool { return e.Amount.IsPositive() }

// IsOutflow reports whether e takes cash out.
func (e CashEntry) IsOutflow() bool { return e.Amount.IsNegative() }

func (e CashEntry) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", e.ID)
	w.Append("time", e.Time)
	w.Append("amount", e.Amount)
	w.Optional("tag", e.Tag)
	w.Optional("extra", e.Extra)
	return w.MarshalJSON()
}

func (e *CashEntry) UnmarshalJSON(data []byte) error {
	var v struct {
		ID     string          `json:"id"`
		Time   time.Time       `json:"time"`
		Amount decimal.Decimal `json:"amount"`
		Tag    string          `json:"tag"`
		Extra  Extra           `json:"extra"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*e = CashEntry{ID: v.ID, Amount: v.Amount, Time: v.Time, Tag: v.Tag, Extra: v.Extra}
	return nil
}

// Journal persists ledger and blotter records as they are created.
// An error refuses the record: nothing is appended in memory.
type Journal interface {
	RecordCash(CashEntry) error
	// RecordTrade persists a trade with its cash effect, both or none.
	RecordTrade(Trade, CashEntry) error
}

// Ledger is an append-only record of cash movements.
//
// The balance is always the sum of every entry. Views are sorted by time and
// carry a running balance computed on read.
//
// A Ledger is not safe for concurrent use.
type Ledger struct {
	cur     string
	entries []CashEntry // insertion order
	pending []PendingFund
	journal Journal
	log     *zap.Logger
	now     func() time.Time
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithLedgerCurrency sets the currency used to present amounts.
func WithLedgerCurrency(cur string) LedgerOption { return func(l *Ledger) { l.cur = cur } }

// WithLedgerJournal persists every new entry through j.
func WithLedgerJournal(j Journal) LedgerOption { return func(l *Ledger) { l.journal = j } }

// WithLedgerLogger sets the logger.
func WithLedgerLogger(log *zap.Logger) LedgerOption { return func(l *Ledger) { l.log = log } }

// withClock replaces time.Now, for tests.
func withClock(now func() time.Time) LedgerOption { return func(l *Ledger) { l.now = now } }

func newLedger(opts []LedgerOption) *Ledger {
	l := &Ledger{
		cur: "USD",
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewLedger returns a ledger seeded with an opening entry.
//
// The opening amount is kept with its sign. The opening entry is not sent to
// the journal: use OpeningEntry to persist it.
func NewLedger(opening Movement, opts ...LedgerOption) *Ledger {
	l := newLedger(opts)
	l.seed(opening)
	return l
}

// RestoreLedger rebuilds a ledger from persisted entries, the opening one
// included, and from the pending funds that are still open.
func RestoreLedger(entries []CashEntry, funds []PendingFund, opts ...LedgerOption) *Ledger {
	l := newLedger(opts)
	l.entries = append([]CashEntry(nil), entries...)
	l.restorePending(funds)
	return l
}

func (l *Ledger) seed(opening Movement) {
	if opening.Tag == "" {
		opening.Tag = OpeningTag
	}
	l.entries = append(l.entries, l.entry(opening, opening.Amount))
}

// entry creates a new CashEntry from m with amount.
func (l *Ledger) entry(m Movement, amount decimal.Decimal) CashEntry {
	on := m.Time
	if on.IsZero() {
		on = l.now()
	}
	var extra Extra
	if len(m.Extra) > 0 {
		extra = maps.Clone(m.Extra)
	}
	return CashEntry{
		ID:     id.New(),
		Amount: amount,
		Time:   on,
		Tag:    m.Tag,
		Extra:  extra,
	}
}

// Add records a deposit of |m.Amount|. The sign of the input is ignored.
func (l *Ledger) Add(m Movement) (CashEntry, error) {
	return l.append(l.entry(m, m.Amount.Abs()))
}

// Withdraw records a withdrawal of |m.Amount|. The sign of the input is ignored.
func (l *Ledger) Withdraw(m Movement) (CashEntry, error) {
	return l.append(l.entry(m, m.Amount.Abs().Neg()))
}

func (l *Ledger) append(e CashEntry) (CashEntry, error) {
	if l.journal != nil {
		if err := l.journal.RecordCash(e); err != nil {
			return CashEntry{}, fmt.Errorf("cannot record cash entry: %w", err)
		}
	}
	l.commit(e)
	return e, nil
}

// commit appends an entry that has already been persisted.
func (l *Ledger) commit(e CashEntry) {
	l.entries = append(l.entries, e)
	l.log.Debug("cash entry",
		zap.String("id", e.ID),
		zap.Stringer("amount", e.Amount),
		zap.Time("time", e.Time),
		zap.String("tag", e.Tag))
}

// Balance returns the sum of every entry.
func (l *Ledger) Balance() decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.entries {
		total = total.Add(e.Amount)
	}
	return total
}

// BalanceMoney returns the balance in the ledger currency.
func (l *Ledger) BalanceMoney() Money { return M(l.Balance(), l.cur) }

// Currency returns the currency of the ledger.
func (l *Ledger) Currency() string { return l.cur }

// Len returns the number of entries.
func (l *Ledger) Len() int { return len(l.entries) }

// Entries returns a copy of the entries in insertion order.
func (l *Ledger) Entries() []CashEntry { return append([]CashEntry(nil), l.entries...) }

// OpeningEntry returns the first entry of the ledger, if any.
func (l *Ledger) OpeningEntry() (CashEntry, bool) {
	if len(l.entries) == 0 {
		return CashEntry{}, false
	}
	return l.entries[0], true
}

// Clear discards every entry and pending fund. It does not re-seed the opening entry.
func (l *Ledger) Clear() {
	l.entries = nil
	l.pending = nil
}

// Reset clears the ledger and seeds it with a new opening entry.
func (l *Ledger) Reset(opening Movement) {
	l.Clear()
	l.seed(opening)
}
