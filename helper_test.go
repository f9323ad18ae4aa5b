package financials

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// at parses a test timestamp, in UTC.
func at(s string) time.Time {
	t, err := ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// dec parses a test decimal.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func buy(symbol string, quantity, price int) Order {
	return Order{Symbol: symbol, Quantity: D(quantity), Price: D(price), Mode: Buy}
}

func sell(symbol string, quantity, price int) Order {
	return Order{Symbol: symbol, Quantity: D(quantity), Price: D(price), Mode: Sell}
}

// memJournal keeps records in memory and can be told to refuse them.
type memJournal struct {
	cash      []CashEntry
	trades    []Trade
	funds     []PendingFund
	cancelled []string
	fail      bool
}

var errRefused = errors.New("journal refused the record")

func (j *memJournal) RecordCash(e CashEntry) error {
	if j.fail {
		return errRefused
	}
	j.cash = append(j.cash, e)
	return nil
}

func (j *memJournal) RecordTrade(t Trade, e CashEntry) error {
	if j.fail {
		return errRefused
	}
	j.trades = append(j.trades, t)
	j.cash = append(j.cash, e)
	return nil
}

func (j *memJournal) RecordFund(f PendingFund) error {
	if j.fail {
		return errRefused
	}
	j.funds = append(j.funds, f)
	return nil
}

func (j *memJournal) CancelFund(fundID string) error {
	if j.fail {
		return errRefused
	}
	j.cancelled = append(j.cancelled, fundID)
	return nil
}
