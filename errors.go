package financials

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/etnz/financials/date"
	"github.com/shopspring/decimal"
)

// Sentinel errors. Callers match them with errors.Is.
var (
	// ErrInvalidMode is returned for a trade mode other than BUY or SELL.
	ErrInvalidMode = errors.New("invalid trade mode")
	// ErrMissingPrice is returned when a held symbol has no current price.
	ErrMissingPrice = errors.New("missing price")
	// ErrShortSale is returned when a sell would make a position negative.
	ErrShortSale = errors.New("short sale not allowed")
	// ErrUnknownFund is returned for a pending fund id that is not registered.
	ErrUnknownFund = errors.New("unknown pending fund")
	// ErrUnknownFrequency is returned for an aggregation frequency that is not supported.
	ErrUnknownFrequency = errors.New("unknown frequency")
	// ErrNoCapital is returned by ReturnOnCapital when no capital was contributed.
	ErrNoCapital = errors.New("no capital contributed")
)

// ParseError reports a malformed field in a ledger or portfolio input.
type ParseError struct {
	Field string // "timestamp", "amount", "quantity", "price"...
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseTimestamp reads a date or a date-time in the local time zone.
// An empty string is the zero time, which ledger operations read as "now".
func ParseTimestamp(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := date.ParseTime(s, time.Local)
	if err != nil {
		return time.Time{}, &ParseError{Field: "timestamp", Input: s, Err: err}
	}
	return t, nil
}

// ParseAmount reads a signed decimal amount.
func ParseAmount(s string) (decimal.Decimal, error) { return parseDecimal("amount", s) }

// ParseQuantity reads a quantity.
func ParseQuantity(s string) (decimal.Decimal, error) { return parseDecimal("quantity", s) }

// ParsePrice reads a unit price.
func ParsePrice(s string) (decimal.Decimal, error) { return parseDecimal("price", s) }

func parseDecimal(field, s string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	v, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, &ParseError{Field: field, Input: s, Err: err}
	}
	return v, nil
}

// ParseFrequency reads an aggregation frequency name.
func ParseFrequency(s string) (date.Frequency, error) {
	f, err := date.ParseFrequency(s)
	if err != nil {
		return f, fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
	}
	return f, nil
}
