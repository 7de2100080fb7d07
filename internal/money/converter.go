package money

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoConverter indicates that a cross-currency conversion was attempted
// while no real converter is configured. This is a configuration problem and
// callers should treat it as fatal.
var ErrNoConverter = errors.New("money: no currency converter configured")

// ConversionError indicates that a converter has no rate path between two
// currencies at the requested time. No triangulation is attempted beyond a
// single converter's own knowledge.
type ConversionError struct {
	From Currency
	To   Currency
	At   time.Time
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("money: no conversion from %s to %s at %s", e.From, e.To, e.At.Format(time.RFC3339))
}

// Converter converts a monetary amount into another currency at a provided
// moment in time. Exactly one converter is active per account at a time;
// converters are replaced, never stacked.
type Converter interface {
	Convert(a Amount, to Currency, at time.Time) (float64, error)
}

// Compile-time interface checks.
var _ Converter = NoConversion{}
var _ Converter = OneToOneConversion{}
var _ Converter = (*StaticConversion)(nil)
var _ Converter = (*HistoricalConversion)(nil)

// NoConversion is the default converter. It fails on every conversion,
// signaling that cross-currency support was never configured.
type NoConversion struct{}

// Convert always fails with ErrNoConverter.
func (NoConversion) Convert(a Amount, to Currency, at time.Time) (float64, error) {
	return 0, fmt.Errorf("%w: cannot convert %s to %s", ErrNoConverter, a, to)
}

// OneToOneConversion converts 1:1 between all currencies, so 1 USD equals
// 1 EUR equals 1 GBP. Mostly useful in tests and single-currency setups.
type OneToOneConversion struct{}

// Convert returns the amount's value unchanged.
func (OneToOneConversion) Convert(a Amount, _ Currency, _ time.Time) (float64, error) {
	return a.Value, nil
}

// StaticConversion converts between currencies using a fixed rate table
// against a base currency. Time is ignored.
type StaticConversion struct {
	base  Currency
	rates map[Currency]float64
}

// NewStaticConversion creates a StaticConversion. Each rate expresses one
// unit of the base currency in the keyed currency. The base currency itself
// is always registered at 1.0.
func NewStaticConversion(base Currency, rates map[Currency]float64) *StaticConversion {
	r := make(map[Currency]float64, len(rates)+1)
	for c, v := range rates {
		r[c] = v
	}
	r[base] = 1.0
	return &StaticConversion{base: base, rates: r}
}

// Convert converts via the static rate table.
func (s *StaticConversion) Convert(a Amount, to Currency, at time.Time) (float64, error) {
	toRate, ok := s.rates[to]
	if !ok {
		return 0, &ConversionError{From: a.Currency, To: to, At: at}
	}
	fromRate, ok := s.rates[a.Currency]
	if !ok {
		return 0, &ConversionError{From: a.Currency, To: to, At: at}
	}
	return a.Value * toRate / fromRate, nil
}
