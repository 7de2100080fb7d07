package money

import (
	"sort"
	"time"
)

type ratePoint struct {
	At   time.Time
	Rate float64
}

// HistoricalConversion converts between currencies using a time-bucketed
// historical rate series per currency. Rates are piecewise-constant between
// observations: a query is answered by the first sample at or after the
// query time, clamped to the newest sample when the query lies past the end
// of the series. Rates never extrapolate forward.
type HistoricalConversion struct {
	base  Currency
	rates map[Currency][]ratePoint
}

// NewHistoricalConversion creates an empty HistoricalConversion against the
// given base currency. The base currency always converts at 1.0.
func NewHistoricalConversion(base Currency) *HistoricalConversion {
	return &HistoricalConversion{
		base:  base,
		rates: map[Currency][]ratePoint{},
	}
}

// Base returns the base currency of the rate table.
func (h *HistoricalConversion) Base() Currency {
	return h.base
}

// Currencies returns the currencies with at least one registered rate.
func (h *HistoricalConversion) Currencies() []Currency {
	result := make([]Currency, 0, len(h.rates)+1)
	result = append(result, h.base)
	for c := range h.rates {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// AddRate registers the rate of one base-currency unit expressed in the
// given currency at the given time. The per-currency series is kept in
// ascending time order.
func (h *HistoricalConversion) AddRate(c Currency, at time.Time, rate float64) {
	series := h.rates[c]
	idx := sort.Search(len(series), func(i int) bool { return !series[i].At.Before(at) })
	series = append(series, ratePoint{})
	copy(series[idx+1:], series[idx:])
	series[idx] = ratePoint{At: at, Rate: rate}
	h.rates[c] = series
}

// rate looks up the rate for a currency at a time: the first sample with a
// timestamp at or after the query, clamped to the last sample.
func (h *HistoricalConversion) rate(c Currency, at time.Time) (float64, bool) {
	if c == h.base {
		return 1.0, true
	}
	series := h.rates[c]
	if len(series) == 0 {
		return 0, false
	}
	idx := sort.Search(len(series), func(i int) bool { return !series[i].At.Before(at) })
	if idx >= len(series) {
		idx = len(series) - 1
	}
	return series[idx].Rate, true
}

// Convert converts via the historical rate series of both currencies.
func (h *HistoricalConversion) Convert(a Amount, to Currency, at time.Time) (float64, error) {
	toRate, ok := h.rate(to, at)
	if !ok {
		return 0, &ConversionError{From: a.Currency, To: to, At: at}
	}
	fromRate, ok := h.rate(a.Currency, at)
	if !ok || fromRate == 0 {
		return 0, &ConversionError{From: a.Currency, To: to, At: at}
	}
	return a.Value * toRate / fromRate, nil
}
