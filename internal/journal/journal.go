// Package journal records what happens during a run: events, signals,
// orders, and account state. Journals observe the pipeline; they never
// influence it.
package journal

import (
	"log/slog"
	"strings"
	"sync"

	"quantra/internal/account"
	"quantra/internal/domain"
)

// Journal is invoked once per event, at the end of the pipeline, with
// everything that happened during that step.
type Journal interface {
	Track(event *domain.Event, acc *account.Account, signals []domain.Signal, orders []domain.Order)
}

// ---------------------------------------------------------------------------
// BasicJournal
// ---------------------------------------------------------------------------

// Compile-time interface checks.
var _ Journal = (*BasicJournal)(nil)
var _ Journal = (*PriceItemJournal)(nil)
var _ Journal = MultiJournal(nil)

// BasicJournal counts events, items, signals, and orders. It adds little
// overhead to a run and is safe for concurrent reads while the run is in
// progress.
type BasicJournal struct {
	mu      sync.Mutex
	events  int
	items   int
	signals int
	orders  int
}

// NewBasicJournal creates an empty BasicJournal.
func NewBasicJournal() *BasicJournal {
	return &BasicJournal{}
}

// Track implements the Journal interface.
func (j *BasicJournal) Track(event *domain.Event, _ *account.Account, signals []domain.Signal, orders []domain.Order) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events++
	j.items += len(event.Items)
	j.signals += len(signals)
	j.orders += len(orders)
}

// Counts returns the tracked totals: events, items, signals, orders.
func (j *BasicJournal) Counts() (events, items, signals, orders int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.events, j.items, j.signals, j.orders
}

// Log writes the current counters to the logger.
func (j *BasicJournal) Log(log *slog.Logger) {
	events, items, signals, orders := j.Counts()
	log.Info("run progress",
		"events", events, "items", items, "signals", signals, "orders", orders)
}

// ---------------------------------------------------------------------------
// PriceItemJournal
// ---------------------------------------------------------------------------

// PriceItemJournal captures the latest price and volume per symbol as named
// metrics like "item/aapl/price". Without configured symbols it tracks every
// symbol it sees.
type PriceItemJournal struct {
	mu         sync.Mutex
	symbols    map[string]bool
	priceType  domain.PriceType
	volumeType domain.PriceType
	metrics    map[string]float64
}

// NewPriceItemJournal creates a journal tracking the given symbols, or all
// symbols when none are given.
func NewPriceItemJournal(symbols ...string) *PriceItemJournal {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[s] = true
	}
	return &PriceItemJournal{
		symbols:    set,
		priceType:  domain.PriceDefault,
		volumeType: domain.PriceDefault,
		metrics:    map[string]float64{},
	}
}

// Track implements the Journal interface.
func (j *PriceItemJournal) Track(event *domain.Event, _ *account.Account, _ []domain.Signal, _ []domain.Order) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for symbol, item := range event.PriceItems() {
		if len(j.symbols) > 0 && !j.symbols[symbol] {
			continue
		}
		prefix := "item/" + strings.ToLower(symbol)
		j.metrics[prefix+"/price"] = item.Price(j.priceType)
		j.metrics[prefix+"/volume"] = item.Volume(j.volumeType)
	}
}

// Metrics returns a copy of the latest metric values.
func (j *PriceItemJournal) Metrics() map[string]float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	result := make(map[string]float64, len(j.metrics))
	for k, v := range j.metrics {
		result[k] = v
	}
	return result
}

// ---------------------------------------------------------------------------
// MultiJournal
// ---------------------------------------------------------------------------

// MultiJournal fans out to multiple journals in order.
type MultiJournal []Journal

// Track implements the Journal interface.
func (m MultiJournal) Track(event *domain.Event, acc *account.Account, signals []domain.Signal, orders []domain.Order) {
	for _, j := range m {
		j.Track(event, acc, signals, orders)
	}
}
