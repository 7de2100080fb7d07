package feed

import (
	"context"
	"errors"
	"log/slog"

	"quantra/internal/domain"
)

// Feed is a source of financial events that can be (re-)played. Play pushes
// events onto the channel in non-decreasing time order and returns when the
// feed is exhausted, the context is cancelled, or the channel is closed.
type Feed interface {
	Play(ctx context.Context, channel *EventChannel) error
}

// PlayBackground plays the feed on its own goroutine and returns the channel
// the events arrive on. The channel is always closed when playback ends, so
// the consumer's Get eventually reports closure regardless of how playback
// terminated.
func PlayBackground(ctx context.Context, f Feed, capacity int) *EventChannel {
	channel := NewEventChannel(capacity)
	go func() {
		defer channel.Close()
		if err := f.Play(ctx, channel); err != nil &&
			!errors.Is(err, ErrChannelClosed) && !errors.Is(err, context.Canceled) {
			slog.Error("feed playback failed", "err", err)
		}
	}()
	return channel
}

// replay delivers historical events with backpressure, stopping on closure
// or context cancellation.
func replay(ctx context.Context, channel *EventChannel, events ...*domain.Event) error {
	for _, evt := range events {
		if err := channel.PutWait(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}
