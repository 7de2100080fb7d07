package feed

import (
	"context"
	"math"
	"time"

	"quantra/internal/domain"
)

// Compile-time interface check.
var _ Feed = (*AggregatorFeed)(nil)

// AggregatorFeed aggregates trades or quotes from another feed into bars of a
// fixed frequency.
//
// With KindTrade the trade prices and volumes build the bars. With KindQuote
// the quote midpoints build the bars and volume stays NaN.
type AggregatorFeed struct {
	Source    Feed
	Frequency time.Duration

	// Trades selects trade-based aggregation; the default aggregates quote
	// midpoints.
	Trades bool

	// SendRemaining emits a final partial bar when the source is exhausted.
	SendRemaining bool

	// Continuation seeds the next interval with a flat bar at the previous
	// close for symbols that saw no new prices, so every interval has a bar
	// for every active symbol.
	Continuation bool
}

// NewAggregatorFeed aggregates quote midpoints of the source into bars,
// with continuation enabled.
func NewAggregatorFeed(source Feed, frequency time.Duration) *AggregatorFeed {
	return &AggregatorFeed{Source: source, Frequency: frequency, Continuation: true}
}

func (f *AggregatorFeed) update(evt *domain.Event, bars map[string]*domain.Bar, freq string) {
	for _, item := range evt.Items {
		var price, volume float64
		switch v := item.(type) {
		case domain.Trade:
			if !f.Trades {
				continue
			}
			price, volume = v.TradePrice, v.TradeSize
		case domain.Quote:
			if f.Trades {
				continue
			}
			price, volume = v.Midpoint(), math.NaN()
		default:
			continue
		}

		symbol := item.Symbol()
		if b, ok := bars[symbol]; ok {
			b.Close = price
			if price > b.High {
				b.High = price
			}
			if price < b.Low {
				b.Low = price
			}
			b.Vol += volume
		} else {
			bars[symbol] = &domain.Bar{
				Sym: symbol, Open: price, High: price, Low: price, Close: price,
				Vol: volume, Frequency: freq,
			}
		}
	}
}

// continuedBars flattens the finished bars into zero-range bars at the close,
// seeding the next interval.
func (f *AggregatorFeed) continuedBars(bars map[string]*domain.Bar, freq string) map[string]*domain.Bar {
	next := make(map[string]*domain.Bar, len(bars))
	for symbol, b := range bars {
		vol := math.NaN()
		if f.Trades {
			vol = 0
		}
		next[symbol] = &domain.Bar{
			Sym: symbol, Open: b.Close, High: b.Close, Low: b.Close, Close: b.Close,
			Vol: vol, Frequency: freq,
		}
	}
	return next
}

func barsToEvent(at time.Time, bars map[string]*domain.Bar) *domain.Event {
	items := make([]domain.PriceItem, 0, len(bars))
	for _, b := range bars {
		items = append(items, *b)
	}
	return domain.NewEvent(at, items...)
}

// Play aggregates the source feed and emits one event per elapsed interval.
func (f *AggregatorFeed) Play(ctx context.Context, channel *EventChannel) error {
	bars := map[string]*domain.Bar{}
	freq := f.Frequency.String()
	var nextTime time.Time

	src := PlayBackground(ctx, f.Source, 10)
	for {
		evt, ok := src.Get(0)
		if !ok {
			break
		}
		switch {
		case nextTime.IsZero():
			nextTime = evt.Time.Add(f.Frequency)
		case !evt.Time.Before(nextTime):
			if err := replay(ctx, channel, barsToEvent(nextTime, bars)); err != nil {
				return err
			}
			if f.Continuation {
				bars = f.continuedBars(bars, freq)
			} else {
				bars = map[string]*domain.Bar{}
			}
			nextTime = nextTime.Add(f.Frequency)
		}
		f.update(evt, bars, freq)
	}

	if len(bars) > 0 && f.SendRemaining && !nextTime.IsZero() {
		return replay(ctx, channel, barsToEvent(nextTime, bars))
	}
	return nil
}
