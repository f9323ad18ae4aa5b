package financials

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CostBasisMethod defines the method for calculating cost basis.
type CostBasisMethod int

const (
	// AverageCost values every share held at the average buy price.
	AverageCost CostBasisMethod = iota
	// FIFO (First-In, First-Out) assumes the first shares purchased are the first ones sold.
	FIFO
)

func (m CostBasisMethod) String() string {
	switch m {
	case AverageCost:
		return "average"
	case FIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// ParseCostBasisMethod parses a string into a CostBasisMethod.
func ParseCostBasisMethod(s string) (CostBasisMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "average", "avg", "":
		return AverageCost, nil
	case "fifo":
		return FIFO, nil
	default:
		return 0, fmt.Errorf("unknown cost basis method: %q", s)
	}
}

// lot is a single purchase of a symbol, used for FIFO cost basis.
type lot struct {
	Time     time.Time
	Quantity decimal.Decimal
	Cost     decimal.Decimal // Total cost of the lot (quantity * price)
}

type lots []lot

// costOfSelling returns the cost of the first quantityToSell shares.
func (l lots) costOfSelling(quantityToSell decimal.Decimal) decimal.Decimal {
	cost := decimal.Zero
	for _, currentLot := range l {
		if currentLot.Quantity.GreaterThan(quantityToSell) {
			// Partial sale from this lot
			return cost.Add(currentLot.Cost.Mul(quantityToSell).Div(currentLot.Quantity))
		}
		// Full sale of this lot
		cost = cost.Add(currentLot.Cost)
		quantityToSell = quantityToSell.Sub(currentLot.Quantity)
	}
	return cost
}

// sell removes quantityToSell shares from the oldest lots.
func (l lots) sell(quantityToSell decimal.Decimal) lots {
	var remainingLots lots

	for _, currentLot := range l {
		if quantityToSell.IsZero() {
			remainingLots = append(remainingLots, currentLot)
			continue
		}

		if currentLot.Quantity.GreaterThan(quantityToSell) {
			// Partial sale from this lot
			costOfSoldPortion := currentLot.Cost.Mul(quantityToSell).Div(currentLot.Quantity)
			remainingLots = append(remainingLots, lot{
				Time:     currentLot.Time,
				Quantity: currentLot.Quantity.Sub(quantityToSell),
				Cost:     currentLot.Cost.Sub(costOfSoldPortion),
			})
			quantityToSell = decimal.Zero
		} else {
			// Full sale of this lot
			quantityToSell = quantityToSell.Sub(currentLot.Quantity)
		}
	}
	return remainingLots
}

func (l lots) quantity() decimal.Decimal {
	q := decimal.Zero
	for _, x := range l {
		q = q.Add(x.Quantity)
	}
	return q
}

func (l lots) cost() decimal.Decimal {
	c := decimal.Zero
	for _, x := range l {
		c = c.Add(x.Cost)
	}
	return c
}

// book walks the trades of one symbol and keeps the cost of what is held.
//
// Sells beyond the held quantity open a short position that carries no cost.
type book struct {
	method   CostBasisMethod
	lots     lots            // FIFO
	held     decimal.Decimal // AverageCost
	cost     decimal.Decimal // AverageCost
	realized decimal.Decimal
}

func newBook(method CostBasisMethod) *book {
	return &book{method: method}
}

func (b *book) add(t Trade) {
	q := t.Quantity.Abs()
	v := t.Price.Mul(q)
	switch t.Mode {
	case Buy:
		if b.method == FIFO {
			b.lots = append(b.lots, lot{Time: t.Time, Quantity: q, Cost: v})
		} else {
			b.held = b.held.Add(q)
			b.cost = b.cost.Add(v)
		}
	case Sell:
		covered := decimal.Min(q, b.heldQuantity())
		if !covered.IsPositive() {
			return
		}
		var soldCost decimal.Decimal
		if b.method == FIFO {
			soldCost = b.lots.costOfSelling(covered)
			b.lots = b.lots.sell(covered)
		} else {
			soldCost = b.cost.Mul(covered).Div(b.held)
			b.held = b.held.Sub(covered)
			b.cost = b.cost.Sub(soldCost)
		}
		b.realized = b.realized.Add(t.Price.Mul(covered).Sub(soldCost))
	}
}

func (b *book) heldQuantity() decimal.Decimal {
	if b.method == FIFO {
		return b.lots.quantity()
	}
	return b.held
}

func (b *book) heldCost() decimal.Decimal {
	if b.method == FIFO {
		return b.lots.cost()
	}
	return b.cost
}

// averageCost returns the cost per share held.
func (b *book) averageCost() decimal.NullDecimal {
	q := b.heldQuantity()
	if !q.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(b.heldCost().Div(q))
}
