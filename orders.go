package financials

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StopLoss returns, for each order, the opposite order protecting it:
// a sell at price*(1-p) for a buy and a buy at price*(1+p) for a sell, where
// p is percent/100. Other fields are copied. Orders with an invalid mode are
// copied unchanged.
func StopLoss(orders []Order, percent decimal.Decimal) []Order {
	stops := make([]Order, len(orders))
	for i, o := range orders {
		stops[i] = stopLoss(o, percent)
	}
	return stops
}

// StopLossEach is StopLoss with one percentage per order.
func StopLossEach(orders []Order, percents []decimal.Decimal) ([]Order, error) {
	if len(orders) != len(percents) {
		return nil, fmt.Errorf("got %d percentages for %d orders", len(percents), len(orders))
	}
	stops := make([]Order, len(orders))
	for i, o := range orders {
		stops[i] = stopLoss(o, percents[i])
	}
	return stops, nil
}

var hundred = decimal.NewFromInt(100)

func stopLoss(o Order, percent decimal.Decimal) Order {
	p := percent.Div(hundred)
	switch o.Mode {
	case Buy:
		o.Price = o.Price.Mul(decimal.NewFromInt(1).Sub(p))
	case Sell:
		o.Price = o.Price.Mul(decimal.NewFromInt(1).Add(p))
	default:
		return o
	}
	o.Mode = o.Mode.Opposite()
	return o
}
