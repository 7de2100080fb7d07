package money

import (
	"fmt"
	"time"
)

// Amount is a monetary value denoted in a single currency. Amounts are
// immutable; operations return new values.
type Amount struct {
	Currency Currency
	Value    float64
}

// Add combines two amounts into a Wallet. The result is always a Wallet,
// even when both amounts share the same currency, so that no implicit
// currency conversion ever takes place.
func (a Amount) Add(other Amount) Wallet {
	w := Wallet{}
	w.AddAmount(a)
	w.AddAmount(other)
	return w
}

// ConvertTo converts this amount to another currency at the provided time
// and returns the monetary value.
//
// A conversion to the amount's own currency returns the value unchanged, and
// a zero amount converts to exactly 0.0 without consulting the converter, so
// a currency absent from the rate table never fails when the quantity is
// moot. All other conversions go through conv.
func (a Amount) ConvertTo(conv Converter, to Currency, at time.Time) (float64, error) {
	if to == a.Currency {
		return a.Value, nil
	}
	if a.Value == 0.0 {
		return 0.0, nil
	}
	if conv == nil {
		conv = NoConversion{}
	}
	return conv.Convert(a, to, at)
}

func (a Amount) String() string {
	return fmt.Sprintf("%.2f@%s", a.Value, a.Currency)
}
