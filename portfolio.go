package financials

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/etnz/financials/date"
	"github.com/etnz/financials/id"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Default tags of the portfolio cash operations.
const (
	CapitalTag    = "Capital"
	WithdrawalTag = "Withdrawal"
	ExpenseTag    = "Expense"
)

// TradeKey is the extra field linking the cash effect of a trade to the trade.
const TradeKey = "trade"

// Portfolio pairs a cash Ledger with a blotter of accepted trades.
//
// Every trade in the blotter has its cash effect in the ledger: a buy
// withdraws price*quantity, a sell deposits it, with the same time and tag.
// Quantities are stored positive, the mode gives the direction.
//
// A Portfolio is not safe for concurrent use.
type Portfolio struct {
	cash    *Ledger
	trades  []Trade
	policy  Policy
	journal Journal
	log     *zap.Logger
	now     func() time.Time
}

type options struct {
	cur     string
	policy  Policy
	journal Journal
	log     *zap.Logger
	now     func() time.Time
}

// Option configures a Portfolio.
type Option func(*options)

// WithCurrency sets the currency of the portfolio cash.
func WithCurrency(cur string) Option { return func(o *options) { o.cur = cur } }

// WithAllowShort lets sells go beyond the held quantity.
func WithAllowShort(allow bool) Option { return func(o *options) { o.policy.AllowShort = allow } }

// WithPolicy sets the policy used by Validate and Apply. It carries the short selling flag.
func WithPolicy(p Policy) Option { return func(o *options) { o.policy = p } }

// WithJournal persists cash entries and trades as they are created.
func WithJournal(j Journal) Option { return func(o *options) { o.journal = j } }

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option { return func(o *options) { o.log = log } }

func buildOptions(opts []Option) options {
	o := options{cur: "USD", log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return o
}

func (o options) ledgerOptions() []LedgerOption {
	return []LedgerOption{
		WithLedgerCurrency(o.cur),
		WithLedgerJournal(o.journal),
		WithLedgerLogger(o.log),
		withClock(o.now),
	}
}

func newPortfolio(cash *Ledger, o options) *Portfolio {
	return &Portfolio{
		cash:    cash,
		policy:  o.policy,
		journal: o.journal,
		log:     o.log,
		now:     o.now,
	}
}

// NewPortfolio returns a portfolio whose ledger opens with capital.
func NewPortfolio(capital Movement, opts ...Option) *Portfolio {
	o := buildOptions(opts)
	return newPortfolio(NewLedger(capital, o.ledgerOptions()...), o)
}

// RestorePortfolio rebuilds a portfolio from persisted records without
// creating any cash effect.
func RestorePortfolio(entries []CashEntry, funds []PendingFund, trades []Trade, opts ...Option) *Portfolio {
	o := buildOptions(opts)
	p := newPortfolio(RestoreLedger(entries, funds, o.ledgerOptions()...), o)
	p.trades = append([]Trade(nil), trades...)
	return p
}

func withDefaultTag(m Movement, tag string) Movement {
	if m.Tag == "" {
		m.Tag = tag
	}
	return m
}

// AddFunds deposits cash, tagged "Capital" by default.
func (p *Portfolio) AddFunds(m Movement) (CashEntry, error) {
	return p.cash.Add(withDefaultTag(m, CapitalTag))
}

// WithdrawFunds withdraws cash, tagged "Withdrawal" by default.
func (p *Portfolio) WithdrawFunds(m Movement) (CashEntry, error) {
	return p.cash.Withdraw(withDefaultTag(m, WithdrawalTag))
}

// Expense withdraws cash, tagged "Expense" by default.
func (p *Portfolio) Expense(m Movement) (CashEntry, error) {
	return p.cash.Withdraw(withDefaultTag(m, ExpenseTag))
}

// AddTrade appends o to the blotter and records its cash effect.
//
// It fails with ErrInvalidMode for a mode other than Buy or Sell, with a
// *ParseError for an empty symbol, a price that is not positive or a negative
// quantity, and with ErrShortSale when a sell exceeds the position and short
// selling is not allowed. On any error neither the blotter nor the ledger change.
func (p *Portfolio) AddTrade(o Order) (Trade, error) {
	if !o.Mode.Valid() {
		return Trade{}, fmt.Errorf("%w: %q", ErrInvalidMode, o.Mode)
	}
	if o.Symbol == "" {
		return Trade{}, &ParseError{Field: "symbol", Input: o.Symbol, Err: errors.New("symbol is required")}
	}
	if !o.Price.IsPositive() {
		return Trade{}, &ParseError{Field: "price", Input: o.Price.String(), Err: errors.New("price must be positive")}
	}
	if o.Quantity.IsNegative() {
		return Trade{}, &ParseError{Field: "quantity", Input: o.Quantity.String(), Err: errors.New("quantity must not be negative")}
	}
	if o.Mode == Sell && !p.policy.AllowShort {
		if held := p.Position(o.Symbol); held.LessThan(o.Quantity) {
			return Trade{}, fmt.Errorf("%w: selling %v %s, holding %v", ErrShortSale, o.Quantity, o.Symbol, held)
		}
	}
	if o.Tag == "" {
		o.Tag = DefaultTradeTag
	}
	if o.Time.IsZero() {
		o.Time = p.now()
	}
	if len(o.Extra) > 0 {
		o.Extra = maps.Clone(o.Extra)
	}

	trade := Trade{ID: id.New(), Order: o}
	entry := p.cash.entry(Movement{Time: o.Time, Tag: o.Tag, Extra: Extra{TradeKey: trade.ID}}, o.cashAmount())

	p.trades = append(p.trades, trade)
	if p.journal != nil {
		if err := p.journal.RecordTrade(trade, entry); err != nil {
			p.trades = p.trades[:len(p.trades)-1]
			p.log.Warn("trade rolled back", zap.String("symbol", o.Symbol), zap.Error(err))
			return Trade{}, fmt.Errorf("cannot record trade: %w", err)
		}
	}
	p.cash.commit(entry)

	p.log.Info("trade",
		zap.String("id", trade.ID),
		zap.String("symbol", o.Symbol),
		zap.String("mode", string(o.Mode)),
		zap.Stringer("quantity", o.Quantity),
		zap.Stringer("price", o.Price))
	return trade, nil
}

// Trades returns a copy of the blotter in insertion order.
func (p *Portfolio) Trades() []Trade { return append([]Trade(nil), p.trades...) }

// ClearTrades empties the blotter. The ledger is left untouched: the cash
// effects of the cleared trades stay.
func (p *Portfolio) ClearTrades() { p.trades = nil }

// Query returns the trades selected by a JSONPath expression evaluated over
// the JSON array of trades, for instance
//
//	$[?(@.symbol == "X" && @.mode == "SELL")]
func (p *Portfolio) Query(expr string) ([]Trade, error) {
	byID := make(map[string]Trade, len(p.trades))
	for _, t := range p.trades {
		byID[t.ID] = t
	}
	ids, err := selectIDs(expr, p.trades)
	if err != nil {
		return nil, err
	}
	selected := make([]Trade, 0, len(ids))
	for _, tradeID := range ids {
		selected = append(selected, byID[tradeID])
	}
	return selected, nil
}

// NegativePositions returns the trades, in blotter order, that leave their
// symbol with a negative running position.
func (p *Portfolio) NegativePositions() []Trade {
	running := make(map[string]decimal.Decimal)
	var short []Trade
	for _, t := range p.trades {
		running[t.Symbol] = running[t.Symbol].Add(t.Signed())
		if running[t.Symbol].IsNegative() {
			short = append(short, t)
		}
	}
	return short
}

// Overdrafts returns the ledger rows whose running balance is below the
// policy limit.
func (p *Portfolio) Overdrafts() []Row { return p.cash.Below(p.policy.Limit) }

// Position is the net quantity held for a symbol.
type Position struct {
	Symbol   string
	Quantity decimal.Decimal
}

// SummaryRow is the net quantity and the net amount invested for a symbol.
type SummaryRow struct {
	Symbol   string
	Quantity decimal.Decimal
	Value    decimal.Decimal // sum of price*signed quantity
}

// Summary returns one row per traded symbol, sorted by symbol.
func (p *Portfolio) Summary() []SummaryRow {
	index := make(map[string]int)
	var rows []SummaryRow
	for _, t := range p.trades {
		i, ok := index[t.Symbol]
		if !ok {
			i = len(rows)
			index[t.Symbol] = i
			rows = append(rows, SummaryRow{Symbol: t.Symbol})
		}
		q := t.Signed()
		rows[i].Quantity = rows[i].Quantity.Add(q)
		rows[i].Value = rows[i].Value.Add(t.Price.Mul(q))
	}
	slices.SortFunc(rows, func(a, b SummaryRow) int { return cmp.Compare(a.Symbol, b.Symbol) })
	return rows
}

// Positions returns the net quantity of every traded symbol, flat ones included.
func (p *Portfolio) Positions() []Position {
	summary := p.Summary()
	positions := make([]Position, len(summary))
	for i, r := range summary {
		positions[i] = Position{Symbol: r.Symbol, Quantity: r.Quantity}
	}
	return positions
}

// Position returns the net quantity held for symbol.
func (p *Portfolio) Position(symbol string) decimal.Decimal {
	q := decimal.Zero
	for _, t := range p.trades {
		if t.Symbol == symbol {
			q = q.Add(t.Signed())
		}
	}
	return q
}

// holdings returns the net quantity and net value per symbol.
func (p *Portfolio) holdings() (quantity, value map[string]decimal.Decimal) {
	quantity = make(map[string]decimal.Decimal)
	value = make(map[string]decimal.Decimal)
	for _, r := range p.Summary() {
		quantity[r.Symbol] = r.Quantity
		value[r.Symbol] = r.Value
	}
	return
}

// AveragePrice is the average trade price of a symbol.
// A side without trades is not Valid.
type AveragePrice struct {
	Symbol string
	Buy    decimal.NullDecimal // sum(price*quantity)/sum(quantity) over buys
	Sell   decimal.NullDecimal // same over sells
	Net    decimal.NullDecimal // cost per share still held, by the cost basis method
}

// AveragePrices returns the average prices of every traded symbol, sorted by symbol.
func (p *Portfolio) AveragePrices(method CostBasisMethod) []AveragePrice {
	type side struct{ q, v decimal.Decimal }
	type acc struct {
		buy, sell side
		book      *book
	}
	accs := make(map[string]*acc)
	for _, t := range p.trades {
		a, ok := accs[t.Symbol]
		if !ok {
			a = &acc{book: newBook(method)}
			accs[t.Symbol] = a
		}
		s := &a.buy
		if t.Mode == Sell {
			s = &a.sell
		}
		s.q = s.q.Add(t.Quantity)
		s.v = s.v.Add(t.Value())
		a.book.add(t)
	}

	average := func(s side) decimal.NullDecimal {
		if s.q.IsZero() {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(s.v.Div(s.q))
	}
	prices := make([]AveragePrice, 0, len(accs))
	for _, symbol := range slices.Sorted(maps.Keys(accs)) {
		a := accs[symbol]
		prices = append(prices, AveragePrice{
			Symbol: symbol,
			Buy:    average(a.buy),
			Sell:   average(a.sell),
			Net:    a.book.averageCost(),
		})
	}
	return prices
}

// Valuation is the market value of a position.
type Valuation struct {
	Symbol   string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Value    decimal.Decimal
}

// Valuation values every non flat position at prices.
// It fails with ErrMissingPrice if a held symbol has no price.
func (p *Portfolio) Valuation(prices map[string]decimal.Decimal) ([]Valuation, error) {
	var valuations []Valuation
	for _, pos := range p.Positions() {
		if pos.Quantity.IsZero() {
			continue
		}
		price, ok := prices[pos.Symbol]
		if !ok {
			return nil, fmt.Errorf("%w for %q", ErrMissingPrice, pos.Symbol)
		}
		valuations = append(valuations, Valuation{
			Symbol:   pos.Symbol,
			Quantity: pos.Quantity,
			Price:    price,
			Value:    pos.Quantity.Mul(price),
		})
	}
	return valuations, nil
}

// Weight is the share of a symbol in the net amount invested.
type Weight struct {
	Symbol string
	Weight decimal.Decimal
}

// Weights returns the share of every non flat symbol in the total net amount
// invested. It returns nil when that total is zero.
func (p *Portfolio) Weights() []Weight {
	var rows []SummaryRow
	total := decimal.Zero
	for _, r := range p.Summary() {
		if r.Quantity.IsZero() {
			continue
		}
		rows = append(rows, r)
		total = total.Add(r.Value)
	}
	if total.IsZero() {
		return nil
	}
	weights := make([]Weight, len(rows))
	for i, r := range rows {
		weights[i] = Weight{Symbol: r.Symbol, Weight: r.Value.Div(total)}
	}
	return weights
}

// Ledger returns the cash ledger of the portfolio.
func (p *Portfolio) Ledger() *Ledger { return p.cash }

// CashBalance returns the cash balance.
func (p *Portfolio) CashBalance() decimal.Decimal { return p.cash.Balance() }

// CashLedger returns the cash view selected by q.
func (p *Portfolio) CashLedger(q Query) []Row { return p.cash.View(q) }

// CashAggregate returns the cash view selected by q, summed per period of f.
func (p *Portfolio) CashAggregate(q Query, f date.Frequency) ([]Bucket, error) {
	return p.cash.Aggregate(q, f)
}

// Policy returns the policy used by Validate.
func (p *Portfolio) Policy() Policy { return p.policy }

// Validate runs orders against the current cash balance and holdings. The
// portfolio is not modified.
func (p *Portfolio) Validate(orders []Order) Result {
	quantity, value := p.holdings()
	v := NewValidator(p.policy, WithValidatorLogger(p.log))
	return v.run(orders, newValidationState(p.CashBalance(), quantity, value))
}

// Apply validates orders and adds the admitted ones to the blotter in order.
// It stops at the first order AddTrade refuses; the trades added before it stay.
func (p *Portfolio) Apply(orders []Order) (Result, []Trade, error) {
	r := p.Validate(orders)
	trades := make([]Trade, 0, len(r.Passed))
	for _, o := range r.Passed {
		t, err := p.AddTrade(o)
		if err != nil {
			return r, trades, err
		}
		trades = append(trades, t)
	}
	return r, trades, nil
}
