package financials

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Mode is the side of a trade.
type Mode string

const (
	Buy  Mode = "BUY"
	Sell Mode = "SELL"
)

// Valid reports whether m is Buy or Sell.
func (m Mode) Valid() bool { return m == Buy || m == Sell }

// Opposite returns the other side of a valid mode.
func (m Mode) Opposite() Mode {
	switch m {
	case Buy:
		return Sell
	case Sell:
		return Buy
	default:
		return m
	}
}

// ParseMode reads a trade mode: "BUY", "B", "SELL" or "S", in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "B":
		return Buy, nil
	case "SELL", "S":
		return Sell, nil
	default:
		return Mode(s), fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// DefaultTradeTag is the tag of a trade, and of its cash effect, when none is given.
const DefaultTradeTag = "Trade"

// Order is a proposed trade. Quantity is positive, the direction is given by Mode.
type Order struct {
	Symbol   string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Mode     Mode
	Time     time.Time // zero means now
	Tag      string
	Extra    Extra
}

// Value returns price*quantity.
func (o Order) Value() decimal.Decimal { return o.Price.Mul(o.Quantity) }

// Signed returns the quantity with the sign of its effect on the position.
func (o Order) Signed() decimal.Decimal { return signed(o.Mode, o.Quantity) }

// Trade is an order accepted into a blotter. It is never modified.
type Trade struct {
	ID string
	Order
}

func signed(m Mode, q decimal.Decimal) decimal.Decimal {
	if m == Sell {
		return q.Neg()
	}
	return q
}

// cashAmount returns the signed cash effect of the order: a buy spends its value, a sell earns it.
func (o Order) cashAmount() decimal.Decimal {
	if o.Mode == Sell {
		return o.Value()
	}
	return o.Value().Neg()
}

func (t Trade) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", t.ID)
	w.Append("time", t.Time)
	w.Append("symbol", t.Symbol)
	w.Append("mode", t.Mode)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price)
	w.Optional("tag", t.Tag)
	w.Optional("extra", t.Extra)
	return w.MarshalJSON()
}

func (t *Trade) UnmarshalJSON(data []byte) error {
	var v struct {
		ID       string          `json:"id"`
		Time     time.Time       `json:"time"`
		Symbol   string          `json:"symbol"`
		Mode     Mode            `json:"mode"`
		Quantity decimal.Decimal `json:"quantity"`
		Price    decimal.Decimal `json:"price"`
		Tag      string          `json:"tag"`
		Extra    Extra           `json:"extra"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = Trade{ID: v.ID, Order: Order{
		Symbol:   v.Symbol,
		Quantity: v.Quantity,
		Price:    v.Price,
		Mode:     v.Mode,
		Time:     v.Time,
		Tag:      v.Tag,
		Extra:    v.Extra,
	}}
	return nil
}
