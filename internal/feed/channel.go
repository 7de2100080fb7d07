// Package feed provides market-data feeds and the event channel that
// connects a feed (the producer) to the run loop (the consumer).
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"quantra/internal/domain"
)

var (
	// ErrChannelClosed is returned by Put and PutWait after the channel was
	// closed.
	ErrChannelClosed = errors.New("feed: event channel closed")
	// ErrChannelFull is returned by Put when the buffer is full and the
	// event was dropped.
	ErrChannelFull = errors.New("feed: event channel full")
)

// EventChannel is a bounded, closable transport carrying time-ordered events
// from exactly one producer to exactly one consumer.
//
// Two producer operations exist with distinct overflow contracts:
//
//   - Put never blocks: when the buffer is full the event is dropped
//     (drop-newest) and ErrChannelFull returned. Push-based live sources use
//     this so a slow consumer can never stall upstream network I/O.
//   - PutWait applies backpressure: it blocks until buffer space is
//     available, the channel is closed, or the context is cancelled.
//     Historical replays use this so no event of the replay is ever lost.
//
// Close is idempotent and wakes a blocked Get or PutWait; Get drains any
// buffered events before reporting closure.
type EventChannel struct {
	ch   chan *domain.Event
	done chan struct{}

	closeOnce sync.Once
}

// NewEventChannel allocates a channel with the given buffer capacity.
func NewEventChannel(capacity int) *EventChannel {
	if capacity <= 0 {
		capacity = 1
	}
	return &EventChannel{
		ch:   make(chan *domain.Event, capacity),
		done: make(chan struct{}),
	}
}

// Put offers an event without blocking. It returns ErrChannelClosed after
// Close, or ErrChannelFull when the event was dropped because the buffer is
// full.
func (c *EventChannel) Put(evt *domain.Event) error {
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}
	select {
	case c.ch <- evt:
		return nil
	case <-c.done:
		return ErrChannelClosed
	default:
		return ErrChannelFull
	}
}

// PutWait delivers an event, blocking until buffer space is available. It
// returns ErrChannelClosed when the channel closes and ctx.Err() when the
// context is cancelled while waiting.
func (c *EventChannel) PutWait(ctx context.Context, evt *domain.Event) error {
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}
	select {
	case c.ch <- evt:
		return nil
	case <-c.done:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get waits up to timeout for the next event. It returns (nil, false) on
// timeout, and on closure once the buffer is drained. A timeout of zero or
// less waits indefinitely until an event arrives or the channel closes.
func (c *EventChannel) Get(timeout time.Duration) (*domain.Event, bool) {
	var timeC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeC = timer.C
	}

	select {
	case evt := <-c.ch:
		return evt, true
	case <-c.done:
		// Closed: drain what is still buffered.
		select {
		case evt := <-c.ch:
			return evt, true
		default:
			return nil, false
		}
	case <-timeC:
		return nil, false
	}
}

// Close stops the channel from accepting new events. It is safe to call
// multiple times and from any goroutine.
func (c *EventChannel) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Closed reports whether Close has been called.
func (c *EventChannel) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
