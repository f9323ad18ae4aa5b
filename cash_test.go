package financials

import (
	"testing"
	"time"

	"github.com/etnz/financials/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func TestLedger_BalanceInvariant(t *testing.T) {
	l := NewLedger(Movement{Amount: D(100)})
	moves := []struct {
		deposit bool
		amount  int
	}{
		{true, 50}, {false, 30}, {true, -5}, {false, -5}, {false, 200}, {true, 75},
	}
	for _, m := range moves {
		var err error
		if m.deposit {
			_, err = l.Add(Movement{Amount: D(m.amount)})
		} else {
			_, err = l.Withdraw(Movement{Amount: D(m.amount)})
		}
		require.NoError(t, err)

		total := decimal.Zero
		for _, e := range l.Entries() {
			total = total.Add(e.Amount)
		}
		assert.True(t, total.Equal(l.Balance()))
	}
	assertDec(t, "-5", l.Balance())
	assert.Equal(t, 7, l.Len())
	assert.Equal(t, "-$5.00", l.BalanceMoney().String())
}

func TestLedger_SignNormalization(t *testing.T) {
	l := NewLedger(Movement{})
	plus, err := l.Add(Movement{Amount: D(5)})
	require.NoError(t, err)
	minus, err := l.Add(Movement{Amount: D(-5)})
	require.NoError(t, err)
	assertDec(t, "5", plus.Amount)
	assertDec(t, "5", minus.Amount)

	plus, err = l.Withdraw(Movement{Amount: D(5)})
	require.NoError(t, err)
	minus, err = l.Withdraw(Movement{Amount: D(-5)})
	require.NoError(t, err)
	assertDec(t, "-5", plus.Amount)
	assertDec(t, "-5", minus.Amount)
}

func TestNewLedger_Opening(t *testing.T) {
	now := at("2020-03-04 10:00")
	l := NewLedger(Movement{Amount: D(1000)}, withClock(func() time.Time { return now }))
	opening, ok := l.OpeningEntry()
	require.True(t, ok)
	assert.Equal(t, OpeningTag, opening.Tag)
	assert.Equal(t, now, opening.Time)
	assertDec(t, "1000", opening.Amount)
	assert.NotEmpty(t, opening.ID)

	// a negative opening is kept as is.
	l = NewLedger(Movement{Amount: D(-10), Tag: "Overdraft"})
	opening, _ = l.OpeningEntry()
	assert.Equal(t, "Overdraft", opening.Tag)
	assertDec(t, "-10", l.Balance())
}

// periodLedger has entries on 2014-01-01, 2014-02-06 and 2014-02-10, added out of order.
func periodLedger(t *testing.T) *Ledger {
	t.Helper()
	l := NewLedger(Movement{Amount: D(100), Time: at("2014-01-01")})
	_, err := l.Withdraw(Movement{Amount: D(20), Time: at("2014-02-10"), Tag: "Rent"})
	require.NoError(t, err)
	_, err = l.Add(Movement{Amount: D(50), Time: at("2014-02-06"), Tag: "Salary"})
	require.NoError(t, err)
	return l
}

func TestLedger_View(t *testing.T) {
	l := periodLedger(t)

	rows := l.View(Query{})
	require.Len(t, rows, 3)
	assert.Equal(t, OpeningTag, rows[0].Tag)
	assert.Equal(t, "Salary", rows[1].Tag)
	assert.Equal(t, "Rent", rows[2].Tag)
	assertDec(t, "100", rows[0].Balance)
	assertDec(t, "150", rows[1].Balance)
	assertDec(t, "130", rows[2].Balance)
}

func TestLedger_ViewPeriodFilter(t *testing.T) {
	l := periodLedger(t)

	q := Query{From: date.New(2014, time.February, 1)}
	rows := l.View(q)
	require.Len(t, rows, 2)
	assert.Equal(t, at("2014-02-06"), rows[0].Time)
	assert.Equal(t, at("2014-02-10"), rows[1].Time)
	// the running balance starts over at the window.
	assertDec(t, "50", rows[0].Balance)
	assertDec(t, "30", rows[1].Balance)
	// what the history before the window adds up to.
	assertDec(t, "100", l.Carried(q))

	rows = l.View(Query{To: date.New(2014, time.February, 6)})
	require.Len(t, rows, 2)
	assertDec(t, "150", rows[1].Balance)

	rows = l.View(Query{From: date.New(2014, time.February, 7), To: date.New(2014, time.February, 9)})
	assert.Empty(t, rows)
}

func TestLedger_Below(t *testing.T) {
	l := periodLedger(t)
	_, err := l.Withdraw(Movement{Amount: D(140), Time: at("2014-02-08"), Tag: "Car"})
	require.NoError(t, err)

	rows := l.Below(decimal.Zero)
	require.Len(t, rows, 1)
	assert.Equal(t, "Rent", rows[0].Tag)
	assertDec(t, "-10", rows[0].Balance)

	rows = l.Below(D(20))
	require.Len(t, rows, 2)
	assert.Equal(t, "Car", rows[0].Tag)
	assertDec(t, "10", rows[0].Balance)

	assert.Empty(t, l.Below(D(-100)))
}

func TestQuery_Match(t *testing.T) {
	rent := CashEntry{Time: at("2014-02-10 23:30"), Amount: D(-20)}
	feb := Query{From: date.New(2014, time.February, 1), To: date.New(2014, time.February, 10)}
	assert.True(t, feb.Match(rent))
	feb.Flow = Inflow
	assert.False(t, feb.Match(rent))
	assert.False(t, Query{To: date.New(2014, time.February, 9)}.Match(rent))
}

func TestLedger_Flows(t *testing.T) {
	l := periodLedger(t)

	in := l.Inflows(Query{})
	require.Len(t, in, 2)
	assertDec(t, "150", in[1].Balance)

	out := l.Outflows(Query{})
	require.Len(t, out, 1)
	assert.Equal(t, "Rent", out[0].Tag)

	out = l.Outflows(Query{To: date.New(2014, time.January, 31)})
	assert.Empty(t, out)
}

func TestLedger_Aggregate(t *testing.T) {
	l := periodLedger(t)

	buckets, err := l.Aggregate(Query{}, date.Monthly)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "2014-01", buckets[0].Key)
	assert.Equal(t, date.New(2014, time.January, 1), buckets[0].Start)
	assertDec(t, "100", buckets[0].Amount)
	assert.Equal(t, 1, buckets[0].Count)
	assert.Equal(t, "2014-02", buckets[1].Key)
	assertDec(t, "30", buckets[1].Amount)
	assert.Equal(t, 2, buckets[1].Count)
	assertDec(t, "130", buckets[1].Balance)

	// 2014-01-01 is a Wednesday, 2014-02-06 a Thursday and 2014-02-10 a Monday.
	buckets, err = l.Aggregate(Query{}, date.ByWeekday)
	require.NoError(t, err)
	keys := make([]string, len(buckets))
	for i, b := range buckets {
		keys[i] = b.Key
	}
	assert.Equal(t, []string{"1-Monday", "3-Wednesday", "4-Thursday"}, keys)

	buckets, err = l.Aggregate(Query{Flow: Inflow}, date.Yearly)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assertDec(t, "150", buckets[0].Amount)

	_, err = l.Aggregate(Query{}, date.Frequency(42))
	assert.ErrorIs(t, err, ErrUnknownFrequency)
}

func TestLedger_SelectAndFilter(t *testing.T) {
	l := periodLedger(t)
	_, err := l.Add(Movement{Amount: D(2000), Time: at("2014-03-06"), Tag: "Salary", Extra: Extra{"employer": "ACME"}})
	require.NoError(t, err)

	big := l.Select(func(e CashEntry) bool { return e.Amount.GreaterThan(D(60)) })
	require.Len(t, big, 2)
	assertDec(t, "100", big[0].Amount)

	salaries, err := l.Filter(`$[?(@.tag == "Salary")]`)
	require.NoError(t, err)
	require.Len(t, salaries, 2)
	assertDec(t, "50", salaries[0].Amount)

	large, err := l.Filter(`$[?(@.tag == "Salary" && @.amount > 1000)]`)
	require.NoError(t, err)
	require.Len(t, large, 1)
	assert.Equal(t, "ACME", large[0].Extra["employer"])

	none, err := l.Filter(`$[?(@.tag == "Dividend")]`)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = l.Filter(`$[?(@.tag ==`)
	assert.Error(t, err)
}

func TestLedger_JournalRefusal(t *testing.T) {
	j := &memJournal{}
	l := NewLedger(Movement{Amount: D(10)}, WithLedgerJournal(j))
	_, err := l.Add(Movement{Amount: D(5)})
	require.NoError(t, err)
	require.Len(t, j.cash, 1)

	j.fail = true
	_, err = l.Withdraw(Movement{Amount: D(5)})
	assert.ErrorIs(t, err, errRefused)
	assert.Equal(t, 2, l.Len())
	assertDec(t, "15", l.Balance())
}

func TestLedger_ClearAndReset(t *testing.T) {
	l := periodLedger(t)
	_, err := l.Schedule(Movement{Amount: D(10)})
	require.NoError(t, err)

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Pending())
	assert.True(t, l.Balance().IsZero())
	_, ok := l.OpeningEntry()
	assert.False(t, ok)

	l.Reset(Movement{Amount: D(42)})
	assert.Equal(t, 1, l.Len())
	assertDec(t, "42", l.Balance())
}

func TestLedger_PendingFunds(t *testing.T) {
	j := &memJournal{}
	l := NewLedger(Movement{Amount: D(100)}, WithLedgerJournal(j))

	bonus, err := l.Schedule(Movement{Amount: D(300), Time: at("2024-12-20"), Tag: "Bonus"})
	require.NoError(t, err)
	tax, err := l.Schedule(Movement{Amount: D(-80), Time: at("2025-04-15"), Tag: "Tax"})
	require.NoError(t, err)
	assert.Len(t, j.funds, 2)

	// pending funds are not in the balance.
	assertDec(t, "100", l.Balance())
	assertDec(t, "220", l.PendingTotal())

	e, err := l.Realize(bonus.ID)
	require.NoError(t, err)
	assertDec(t, "300", e.Amount)
	assert.Equal(t, at("2024-12-20"), e.Time)
	assert.Equal(t, bonus.ID, e.Extra[FundKey])
	assertDec(t, "400", l.Balance())

	e, err = l.Realize(tax.ID)
	require.NoError(t, err)
	assertDec(t, "-80", e.Amount)
	assert.Empty(t, l.Pending())

	_, err = l.Realize(tax.ID)
	assert.ErrorIs(t, err, ErrUnknownFund)
	assert.ErrorIs(t, l.Cancel("nope"), ErrUnknownFund)
}

func TestLedger_CancelFund(t *testing.T) {
	j := &memJournal{}
	l := NewLedger(Movement{Amount: D(100)}, WithLedgerJournal(j))
	f, err := l.Schedule(Movement{Amount: D(30)})
	require.NoError(t, err)

	require.NoError(t, l.Cancel(f.ID))
	assert.Empty(t, l.Pending())
	assert.Equal(t, []string{f.ID}, j.cancelled)
	assert.Equal(t, 1, l.Len())

	// a refused realization keeps the fund pending.
	f, err = l.Schedule(Movement{Amount: D(30)})
	require.NoError(t, err)
	j.fail = true
	_, err = l.Realize(f.ID)
	assert.ErrorIs(t, err, errRefused)
	assert.Len(t, l.Pending(), 1)
}

func TestRestoreLedger(t *testing.T) {
	l := NewLedger(Movement{Amount: D(100)})
	done, err := l.Schedule(Movement{Amount: D(10)})
	require.NoError(t, err)
	open, err := l.Schedule(Movement{Amount: D(20)})
	require.NoError(t, err)
	_, err = l.Realize(done.ID)
	require.NoError(t, err)

	back := RestoreLedger(l.Entries(), []PendingFund{done, open})
	assertDec(t, "110", back.Balance())
	require.Len(t, back.Pending(), 1)
	assert.Equal(t, open.ID, back.Pending()[0].ID)
}

func TestParseFlow(t *testing.T) {
	for s, want := range map[string]Flow{"": AllFlows, "all": AllFlows, "IN": Inflow, "outflow": Outflow} {
		got, err := ParseFlow(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
	_, err := ParseFlow("sideways")
	assert.Error(t, err)
}
