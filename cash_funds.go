package financials

import (
	"fmt"
	"maps"
	"time"

	"github.com/etnz/financials/id"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PendingFund is a cash movement announced for later. It does not count in the
// balance until it is realized.
type PendingFund struct {
	ID     string
	Amount decimal.Decimal // signed: negative for an expected withdrawal
	Due    time.Time
	Tag    string
	Extra  Extra
}

// FundKey is the extra field linking a realized entry to its pending fund.
const FundKey = "fund"

// FundJournal is implemented by journals that also persist pending funds.
type FundJournal interface {
	RecordFund(PendingFund) error
	CancelFund(fundID string) error
}

// Schedule registers a future fund. The sign of m.Amount is kept.
func (l *Ledger) Schedule(m Movement) (PendingFund, error) {
	due := m.Time
	if due.IsZero() {
		due = l.now()
	}
	var extra Extra
	if len(m.Extra) > 0 {
		extra = maps.Clone(m.Extra)
	}
	f := PendingFund{ID: id.New(), Amount: m.Amount, Due: due, Tag: m.Tag, Extra: extra}
	if fj, ok := l.journal.(FundJournal); ok {
		if err := fj.RecordFund(f); err != nil {
			return PendingFund{}, fmt.Errorf("cannot record pending fund: %w", err)
		}
	}
	l.pending = append(l.pending, f)
	l.log.Debug("fund scheduled", zap.String("id", f.ID), zap.Stringer("amount", f.Amount), zap.Time("due", due))
	return f, nil
}

// Pending returns the pending funds in scheduling order.
func (l *Ledger) Pending() []PendingFund { return append([]PendingFund(nil), l.pending...) }

// PendingTotal returns the sum of the pending funds.
func (l *Ledger) PendingTotal() decimal.Decimal {
	total := decimal.Zero
	for _, f := range l.pending {
		total = total.Add(f.Amount)
	}
	return total
}

func (l *Ledger) findPending(fundID string) (int, error) {
	for i, f := range l.pending {
		if f.ID == fundID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownFund, fundID)
}

// Realize turns a pending fund into a ledger entry dated on its due time: a
// deposit for a positive amount, a withdrawal otherwise. The entry carries the
// fund id in its FundKey extra field.
// The pending fund is removed only once the entry is recorded.
func (l *Ledger) Realize(fundID string) (CashEntry, error) {
	i, err := l.findPending(fundID)
	if err != nil {
		return CashEntry{}, err
	}
	f := l.pending[i]
	extra := maps.Clone(f.Extra)
	if extra == nil {
		extra = Extra{}
	}
	extra[FundKey] = f.ID
	m := Movement{Amount: f.Amount, Time: f.Due, Tag: f.Tag, Extra: extra}
	var e CashEntry
	if f.Amount.IsNegative() {
		e, err = l.Withdraw(m)
	} else {
		e, err = l.Add(m)
	}
	if err != nil {
		return CashEntry{}, err
	}
	l.pending = append(l.pending[:i], l.pending[i+1:]...)
	return e, nil
}

// Cancel drops a pending fund. Realized entries are never removed.
func (l *Ledger) Cancel(fundID string) error {
	i, err := l.findPending(fundID)
	if err != nil {
		return err
	}
	if fj, ok := l.journal.(FundJournal); ok {
		if err := fj.CancelFund(fundID); err != nil {
			return fmt.Errorf("cannot cancel pending fund: %w", err)
		}
	}
	l.pending = append(l.pending[:i], l.pending[i+1:]...)
	l.log.Debug("fund cancelled", zap.String("id", fundID))
	return nil
}

// restorePending keeps the funds that no entry has realized yet.
func (l *Ledger) restorePending(funds []PendingFund) {
	realized := make(map[string]bool)
	for _, e := range l.entries {
		if fundID, ok := e.Extra[FundKey]; ok {
			realized[fundID] = true
		}
	}
	for _, f := range funds {
		if !realized[f.ID] {
			l.pending = append(l.pending, f)
		}
	}
}
