package bankfeed

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money pairs a decimal amount with a display currency. The pipeline itself
// computes on bare decimals; Money only exists at the presentation boundary.
type Money struct {
	value decimal.Decimal
	cur   string
}

// M wraps a decimal amount in a display currency.
func M(value decimal.Decimal, currency string) Money {
	return Money{value: value, cur: currency}
}

// currency returns the money's currency, never nil.
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String formats the value with the currency's symbol and fraction rules.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

func (m Money) Currency() string   { return m.cur }
func (m Money) IsZero() bool       { return m.value.IsZero() }
func (m Money) IsNegative() bool   { return m.value.IsNegative() }
func (m Money) Equal(n Money) bool { return m.value.Equal(n.value) && m.cur == n.cur }
