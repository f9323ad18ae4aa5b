package financials

import "github.com/shopspring/decimal"

// MarketValue returns the value of the open positions at prices.
func (p *Portfolio) MarketValue(prices map[string]decimal.Decimal) (decimal.Decimal, error) {
	valuations, err := p.Valuation(prices)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, v := range valuations {
		total = total.Add(v.Value)
	}
	return total, nil
}

// NetInvested returns the sum of price*signed quantity over the blotter:
// what buys cost minus what sells earned.
func (p *Portfolio) NetInvested() decimal.Decimal {
	total := decimal.Zero
	for _, r := range p.Summary() {
		total = total.Add(r.Value)
	}
	return total
}

// MarkToMarket returns the gain of the blotter if every open position was
// closed at prices: the market value minus the net amount invested.
func (p *Portfolio) MarkToMarket(prices map[string]decimal.Decimal) (decimal.Decimal, error) {
	value, err := p.MarketValue(prices)
	if err != nil {
		return decimal.Zero, err
	}
	return value.Sub(p.NetInvested()), nil
}

// RealizedProfit returns the gain of the shares already sold.
//
// With AverageCost it is (average sell price - average buy price) * quantity
// sold out of held shares, per symbol. With FIFO each sell is matched against the oldest lots.
// Sells beyond the held quantity realize nothing.
func (p *Portfolio) RealizedProfit(method CostBasisMethod) decimal.Decimal {
	total := decimal.Zero
	if method == FIFO {
		books := make(map[string]*book)
		for _, t := range p.trades {
			b, ok := books[t.Symbol]
			if !ok {
				b = newBook(FIFO)
				books[t.Symbol] = b
			}
			b.add(t)
		}
		for _, b := range books {
			total = total.Add(b.realized)
		}
		return total
	}

	// sold counts only the shares that were held when sold, as the books do.
	held := make(map[string]decimal.Decimal)
	sold := make(map[string]decimal.Decimal)
	for _, t := range p.trades {
		switch t.Mode {
		case Buy:
			held[t.Symbol] = held[t.Symbol].Add(t.Quantity)
		case Sell:
			covered := decimal.Min(t.Quantity, held[t.Symbol])
			held[t.Symbol] = held[t.Symbol].Sub(covered)
			sold[t.Symbol] = sold[t.Symbol].Add(covered)
		}
	}
	for _, a := range p.AveragePrices(AverageCost) {
		if !a.Buy.Valid || !a.Sell.Valid {
			continue
		}
		total = total.Add(a.Sell.Decimal.Sub(a.Buy.Decimal).Mul(sold[a.Symbol]))
	}
	return total
}

// UnrealizedProfit returns the part of MarkToMarket not yet realized.
func (p *Portfolio) UnrealizedProfit(prices map[string]decimal.Decimal, method CostBasisMethod) (decimal.Decimal, error) {
	mtm, err := p.MarkToMarket(prices)
	if err != nil {
		return decimal.Zero, err
	}
	return mtm.Sub(p.RealizedProfit(method)), nil
}

// Expenses returns the (negative) sum of the entries tagged "Expense".
func (p *Portfolio) Expenses() decimal.Decimal {
	return p.taggedSum(ExpenseTag)
}

// Capital returns the sum of the entries tagged "Capital" or "Opening Balance".
func (p *Portfolio) Capital() decimal.Decimal {
	return p.taggedSum(CapitalTag, OpeningTag)
}

func (p *Portfolio) taggedSum(tags ...string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range p.cash.entries {
		for _, tag := range tags {
			if e.Tag == tag {
				total = total.Add(e.Amount)
				break
			}
		}
	}
	return total
}

// Profit returns MarkToMarket net of expenses.
func (p *Portfolio) Profit(prices map[string]decimal.Decimal) (decimal.Decimal, error) {
	mtm, err := p.MarkToMarket(prices)
	if err != nil {
		return decimal.Zero, err
	}
	return mtm.Add(p.Expenses()), nil
}

// ReturnOnCapital returns Profit divided by Capital.
func (p *Portfolio) ReturnOnCapital(prices map[string]decimal.Decimal) (decimal.Decimal, error) {
	capital := p.Capital()
	if !capital.IsPositive() {
		return decimal.Zero, ErrNoCapital
	}
	profit, err := p.Profit(prices)
	if err != nil {
		return decimal.Zero, err
	}
	return profit.Div(capital), nil
}
