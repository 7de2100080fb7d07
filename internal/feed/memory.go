package feed

import (
	"context"
	"sort"
	"time"

	"quantra/internal/domain"
)

// Compile-time interface check.
var _ Feed = (*MemoryFeed)(nil)

// MemoryFeed holds events in memory and replays them in time order. It is
// the building block other feeds replay through, and handy in tests.
type MemoryFeed struct {
	events []*domain.Event
}

// NewMemoryFeed creates a feed pre-loaded with the given events.
func NewMemoryFeed(events ...*domain.Event) *MemoryFeed {
	f := &MemoryFeed{}
	f.Add(events...)
	return f
}

// Add inserts events, keeping the feed sorted by time.
func (f *MemoryFeed) Add(events ...*domain.Event) {
	f.events = append(f.events, events...)
	sortEvents(f.events)
}

// AddItem inserts a single price item at the given time.
func (f *MemoryFeed) AddItem(at time.Time, item domain.PriceItem) {
	f.Add(domain.NewEvent(at, item))
}

// Timespan returns the time of the first and last event.
func (f *MemoryFeed) Timespan() (time.Time, time.Time) {
	if len(f.events) == 0 {
		return time.Time{}, time.Time{}
	}
	return f.events[0].Time, f.events[len(f.events)-1].Time
}

// Play replays all events with backpressure.
func (f *MemoryFeed) Play(ctx context.Context, channel *EventChannel) error {
	return replay(ctx, channel, f.events...)
}

func sortEvents(events []*domain.Event) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })
}
