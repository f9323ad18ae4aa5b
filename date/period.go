package date

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is a calendar bucket used to aggregate dated values.
type Frequency int

const (
	Daily Frequency = iota
	Weekly
	Monthly
	Quarterly
	Yearly
	// ByWeekday groups every Monday together, every Tuesday together, and so on.
	ByWeekday
)

func (f Frequency) String() string {
	switch f {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Yearly:
		return "yearly"
	case ByWeekday:
		return "weekday"
	default:
		return fmt.Sprintf("frequency(%d)", int(f))
	}
}

// ParseFrequency reads a frequency name, singular or adverbial ("month" or "monthly").
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "d":
		return Daily, nil
	case "weekly", "week", "w":
		return Weekly, nil
	case "monthly", "month", "m":
		return Monthly, nil
	case "quarterly", "quarter", "q":
		return Quarterly, nil
	case "yearly", "year", "y":
		return Yearly, nil
	case "weekday", "weekdays", "dow":
		return ByWeekday, nil
	default:
		return Daily, fmt.Errorf("unknown frequency %q", s)
	}
}

// StartOf returns the date of begining of a given period.
// ByWeekday has no span: the date itself is returned.
func (d Date) StartOf(f Frequency) Date {
	switch f {
	case Weekly:
		offset := int(d.Weekday() - time.Monday)
		for offset < 0 {
			offset += 7
		}
		return d.Add(-offset)
	case Monthly:
		return New(d.Year(), d.Month(), 1)
	case Quarterly:
		quarter := (d.Month() - 1) / 3
		return New(d.Year(), time.Month(quarter*3+1), 1)
	case Yearly:
		return New(d.Year(), time.January, 1)
	default:
		return d
	}
}

// EndOf returns the date of end of a given period.
func (d Date) EndOf(f Frequency) Date {
	switch f {
	case Weekly:
		return d.StartOf(Weekly).Add(6)
	case Monthly:
		return New(d.Year(), d.Month()+1, 0)
	case Quarterly:
		quarter := (d.Month() - 1) / 3        // in [0..3]
		endMonth := time.Month(quarter*3 + 3) // in [1..12] hence the +3
		return New(d.Year(), endMonth+1, 0)   // last is next month on the day 0
	case Yearly:
		return New(d.Year()+1, time.January, 0)
	default:
		return d
	}
}

// Key identifies the bucket of d for frequency f.
// Keys of the same frequency sort in calendar order, weekday keys sort Monday first.
func (d Date) Key(f Frequency) string {
	switch f {
	case Weekly:
		year, week := d.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Monthly:
		return d.Format("2006-01")
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", d.Year(), (d.Month()-1)/3+1)
	case Yearly:
		return d.Format("2006")
	case ByWeekday:
		return fmt.Sprintf("%d-%s", isoWeekday(d.Weekday()), d.Weekday())
	default:
		return d.String()
	}
}

// isoWeekday numbers Monday 1 through Sunday 7.
func isoWeekday(w time.Weekday) int {
	if w == time.Sunday {
		return 7
	}
	return int(w)
}
