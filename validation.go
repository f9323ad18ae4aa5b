package financials

import (
	"maps"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reason explains why an order was not admitted.
type Reason string

const (
	ReasonInsufficientCapital Reason = "insufficient capital"
	ReasonNotHeld             Reason = "stock not held"
	ReasonMaxHolding          Reason = "max holding exceeded"
	ReasonMinHolding          Reason = "min holding violated"
	ReasonUnknownMode         Reason = "unrecognized mode"
	ReasonInvalidPrice        Reason = "invalid price"
	ReasonInvalidQuantity     Reason = "invalid quantity"
	ReasonNoSymbol            Reason = "missing symbol"
)

// Policy holds the admission rules of a validation run.
type Policy struct {
	// Limit is the capital that a buy must leave untouched.
	Limit decimal.Decimal
	// AllowShort admits sells beyond the held quantity.
	AllowShort bool
	// MaxHolding caps the value of one symbol as a fraction of the initial capital.
	MaxHolding decimal.NullDecimal
	// MinHolding floors the value of one symbol left after a sell, as a fraction of the initial capital.
	MinHolding decimal.NullDecimal
}

// Rejection is an order that was not admitted.
type Rejection struct {
	Order  Order
	Index  int // position in the input
	Reason Reason
}

// Result is the outcome of a validation run.
type Result struct {
	Passed []Order
	Failed []Rejection
	// Capital and Holdings are the running state after the last admitted order.
	Capital  decimal.Decimal
	Holdings map[string]decimal.Decimal
}

// validationState is the accumulator of one validation run.
type validationState struct {
	initial  decimal.Decimal
	capital  decimal.Decimal
	quantity map[string]decimal.Decimal
	value    map[string]decimal.Decimal
}

func newValidationState(capital decimal.Decimal, quantity, value map[string]decimal.Decimal) *validationState {
	s := &validationState{
		initial:  capital,
		capital:  capital,
		quantity: make(map[string]decimal.Decimal),
		value:    make(map[string]decimal.Decimal),
	}
	maps.Copy(s.quantity, quantity)
	maps.Copy(s.value, value)
	return s
}

// fraction returns v as a share of the initial capital. ok is false when there is no capital to divide by.
func (s *validationState) fraction(v decimal.Decimal) (f decimal.Decimal, ok bool) {
	if !s.initial.IsPositive() {
		return decimal.Zero, false
	}
	return v.Div(s.initial), true
}

func (s *validationState) apply(o Order, v decimal.Decimal) {
	q := o.Quantity
	switch o.Mode {
	case Buy:
		s.capital = s.capital.Sub(v)
		s.quantity[o.Symbol] = s.quantity[o.Symbol].Add(q)
		s.value[o.Symbol] = s.value[o.Symbol].Add(v)
	case Sell:
		s.capital = s.capital.Add(v)
		s.quantity[o.Symbol] = s.quantity[o.Symbol].Sub(q)
		s.value[o.Symbol] = s.value[o.Symbol].Sub(v)
	}
}

// Validator decides which orders of a batch are admissible.
//
// Orders are evaluated in input order, each against the capital and holdings
// left by the orders admitted before it. A Validator holds no state between
// runs and can be reused.
type Validator struct {
	policy Policy
	log    *zap.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorLogger sets the logger.
func WithValidatorLogger(log *zap.Logger) ValidatorOption {
	return func(v *Validator) { v.log = log }
}

// NewValidator returns a validator applying p.
func NewValidator(p Policy, opts ...ValidatorOption) *Validator {
	v := &Validator{policy: p, log: zap.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Policy returns the policy applied by v.
func (v *Validator) Policy() Policy { return v.policy }

// Validate runs orders against a starting capital and no holdings.
func (v *Validator) Validate(orders []Order, capital decimal.Decimal) Result {
	return v.run(orders, newValidationState(capital, nil, nil))
}

// Passed is Validate without the rejections.
func (v *Validator) Passed(orders []Order, capital decimal.Decimal) []Order {
	return v.Validate(orders, capital).Passed
}

func (v *Validator) run(orders []Order, s *validationState) Result {
	r := Result{}
	for i, o := range orders {
		reason, ok := v.check(s, o)
		if !ok {
			r.Failed = append(r.Failed, Rejection{Order: o, Index: i, Reason: reason})
			v.log.Debug("order rejected",
				zap.Int("index", i),
				zap.String("symbol", o.Symbol),
				zap.String("mode", string(o.Mode)),
				zap.String("reason", string(reason)))
			continue
		}
		s.apply(o, o.Value())
		r.Passed = append(r.Passed, o)
	}
	r.Capital = s.capital
	r.Holdings = s.quantity
	return r
}

// check tells whether o is admissible in state s. An order AddTrade would
// refuse is never admissible: the direction comes from the mode, the quantity
// is not negative and the price is positive.
func (v *Validator) check(s *validationState, o Order) (Reason, bool) {
	switch {
	case !o.Mode.Valid():
		return ReasonUnknownMode, false
	case o.Symbol == "":
		return ReasonNoSymbol, false
	case !o.Price.IsPositive():
		return ReasonInvalidPrice, false
	case o.Quantity.IsNegative():
		return ReasonInvalidQuantity, false
	}
	q := o.Quantity
	if q.IsZero() {
		return "", true
	}
	value := o.Price.Mul(q)

	switch o.Mode {
	case Buy:
		if s.capital.Sub(value).LessThan(v.policy.Limit) {
			return ReasonInsufficientCapital, false
		}
		if v.policy.MaxHolding.Valid {
			f, ok := s.fraction(s.value[o.Symbol].Add(value))
			if !ok || f.GreaterThan(v.policy.MaxHolding.Decimal) {
				return ReasonMaxHolding, false
			}
		}
	case Sell:
		if !v.policy.AllowShort && s.quantity[o.Symbol].LessThan(q) {
			return ReasonNotHeld, false
		}
		if v.policy.MinHolding.Valid {
			f, ok := s.fraction(s.value[o.Symbol].Sub(value))
			if !ok || f.LessThan(v.policy.MinHolding.Decimal) {
				return ReasonMinHolding, false
			}
		}
	}
	return "", true
}
