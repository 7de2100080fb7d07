package strategy

import (
	"context"

	"quantra/internal/domain"
)

// Compile-time interface check.
var _ Strategy = (*EMACrossover)(nil)

// EMACrossover generates a buy signal when the fast exponential moving
// average crosses above the slow one, and an exit signal when it crosses
// below. Signals are only produced after a warm-up of max(fast, slow)
// observations per symbol.
type EMACrossover struct {
	fast      float64
	slow      float64
	minSteps  int
	priceType domain.PriceType

	calculators map[string]*emaCalculator
}

// NewEMACrossover creates an EMACrossover with the given fast and slow
// periods and smoothing factor. Common values are 13/26 with smoothing 2.
func NewEMACrossover(fastPeriod, slowPeriod int, smoothing float64, pt domain.PriceType) *EMACrossover {
	return &EMACrossover{
		fast:        1.0 - smoothing/float64(fastPeriod+1),
		slow:        1.0 - smoothing/float64(slowPeriod+1),
		minSteps:    max(fastPeriod, slowPeriod),
		priceType:   pt,
		calculators: map[string]*emaCalculator{},
	}
}

// Name returns "ema-crossover".
func (s *EMACrossover) Name() string { return "ema-crossover" }

// CreateSignals implements the Strategy interface.
func (s *EMACrossover) CreateSignals(_ context.Context, event *domain.Event) []domain.Signal {
	var signals []domain.Signal
	for symbol, price := range event.Prices(s.priceType) {
		calc, ok := s.calculators[symbol]
		if !ok {
			s.calculators[symbol] = newEMACalculator(s.fast, s.slow, price)
			continue
		}

		wasAbove := calc.isAbove()
		step := calc.addPrice(price)
		if step <= s.minSteps {
			continue
		}
		if isAbove := calc.isAbove(); isAbove != wasAbove {
			if isAbove {
				signals = append(signals, domain.Buy(symbol, domain.SignalEntryExit))
			} else {
				signals = append(signals, domain.Sell(symbol, domain.SignalExit))
			}
		}
	}
	return signals
}

// emaCalculator tracks two exponential moving averages of one price series.
type emaCalculator struct {
	momentum1 float64
	momentum2 float64
	price1    float64
	price2    float64
	step      int
}

func newEMACalculator(momentum1, momentum2, price float64) *emaCalculator {
	return &emaCalculator{
		momentum1: momentum1,
		momentum2: momentum2,
		price1:    price,
		price2:    price,
	}
}

// isAbove reports whether the fast average is above the slow one.
func (c *emaCalculator) isAbove() bool { return c.price1 > c.price2 }

func (c *emaCalculator) addPrice(price float64) int {
	c.price1 = c.momentum1*c.price1 + (1.0-c.momentum1)*price
	c.price2 = c.momentum2*c.price2 + (1.0-c.momentum2)*price
	c.step++
	return c.step
}
