// Package domain holds the shared value types that flow through the trading
// pipeline: price items and events on the market-data side, and signals and
// orders on the trading side.
package domain

import "time"

// PriceType selects which price field of a PriceItem to use.
type PriceType string

const (
	PriceDefault PriceType = "DEFAULT"
	PriceOpen    PriceType = "OPEN"
	PriceHigh    PriceType = "HIGH"
	PriceLow     PriceType = "LOW"
	PriceClose   PriceType = "CLOSE"
	PriceAsk     PriceType = "ASK"
	PriceBid     PriceType = "BID"
)

// PriceItem is a single piece of price information for a symbol. The
// implementations form a closed set: Bar, Trade, and Quote. All of them
// answer a sensible default price when the requested type does not apply.
type PriceItem interface {
	Symbol() string
	Price(pt PriceType) float64
	Volume(pt PriceType) float64
}

// Compile-time checks that the closed set implements PriceItem.
var _ PriceItem = Bar{}
var _ PriceItem = Trade{}
var _ PriceItem = Quote{}

// Bar is an OHLCV candlestick for a symbol over some frequency (e.g. "1m",
// "1d").
type Bar struct {
	Sym       string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Vol       float64
	Frequency string
}

// BarFromAdjClose rescales a bar so its close equals the adjusted close,
// adjusting the remaining prices and volume proportionally.
func BarFromAdjClose(symbol string, b Bar, adjClose float64) Bar {
	adj := adjClose / b.Close
	return Bar{
		Sym:       symbol,
		Open:      b.Open * adj,
		High:      b.High * adj,
		Low:       b.Low * adj,
		Close:     adjClose,
		Vol:       b.Vol / adj,
		Frequency: b.Frequency,
	}
}

func (b Bar) Symbol() string { return b.Sym }

func (b Bar) Price(pt PriceType) float64 {
	switch pt {
	case PriceOpen:
		return b.Open
	case PriceHigh:
		return b.High
	case PriceLow:
		return b.Low
	default:
		return b.Close
	}
}

func (b Bar) Volume(_ PriceType) float64 { return b.Vol }

// Trade is a single executed trade, a price with a volume.
type Trade struct {
	Sym        string
	TradePrice float64
	TradeSize  float64
}

func (t Trade) Symbol() string { return t.Sym }

func (t Trade) Price(_ PriceType) float64 { return t.TradePrice }

func (t Trade) Volume(_ PriceType) float64 { return t.TradeSize }

// Quote is a bid/ask pair with sizes. The default price is the midpoint and
// the default volume the average of both sizes.
type Quote struct {
	Sym      string
	AskPrice float64
	AskSize  float64
	BidPrice float64
	BidSize  float64
}

func (q Quote) Symbol() string { return q.Sym }

func (q Quote) Price(pt PriceType) float64 {
	switch pt {
	case PriceAsk:
		return q.AskPrice
	case PriceBid:
		return q.BidPrice
	default:
		return q.Midpoint()
	}
}

func (q Quote) Volume(pt PriceType) float64 {
	switch pt {
	case PriceAsk:
		return q.AskSize
	case PriceBid:
		return q.BidSize
	default:
		return (q.AskSize + q.BidSize) / 2.0
	}
}

// Midpoint returns the mid-point between bid and ask.
func (q Quote) Midpoint() float64 { return (q.AskPrice + q.BidPrice) / 2.0 }

// Spread returns the difference between ask and bid.
func (q Quote) Spread() float64 { return q.AskPrice - q.BidPrice }

// Event is zero or more price items observed at a single moment in time.
// Times are always UTC.
type Event struct {
	Time  time.Time
	Items []PriceItem

	priceItems map[string]PriceItem
}

// NewEvent creates an event at the given time with the given items.
func NewEvent(t time.Time, items ...PriceItem) *Event {
	return &Event{Time: t.UTC(), Items: items}
}

// EmptyEvent returns an event without any items.
func EmptyEvent(t time.Time) *Event {
	return NewEvent(t)
}

// IsEmpty reports whether the event carries no items.
func (e *Event) IsEmpty() bool { return len(e.Items) == 0 }

// PriceItems returns the items of this event keyed by symbol. The map is
// built once on first use; a later symbol wins when a symbol repeats.
func (e *Event) PriceItems() map[string]PriceItem {
	if e.priceItems == nil {
		e.priceItems = make(map[string]PriceItem, len(e.Items))
		for _, item := range e.Items {
			e.priceItems[item.Symbol()] = item
		}
	}
	return e.priceItems
}

// Item returns the price item for a symbol, if present.
func (e *Event) Item(symbol string) (PriceItem, bool) {
	item, ok := e.PriceItems()[symbol]
	return item, ok
}

// Price returns the price of the given type for a symbol, if present.
func (e *Event) Price(symbol string, pt PriceType) (float64, bool) {
	if item, ok := e.Item(symbol); ok {
		return item.Price(pt), true
	}
	return 0, false
}

// Prices returns all prices of the given type keyed by symbol.
func (e *Event) Prices(pt PriceType) map[string]float64 {
	result := make(map[string]float64, len(e.Items))
	for symbol, item := range e.PriceItems() {
		result[symbol] = item.Price(pt)
	}
	return result
}
