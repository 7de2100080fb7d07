package feed

import (
	"context"
	"testing"
	"time"

	"quantra/internal/domain"
)

func barEvent(at time.Time, symbol string, price float64) *domain.Event {
	return domain.NewEvent(at, domain.Bar{
		Sym: symbol, Open: price, High: price, Low: price, Close: price, Vol: 100,
	})
}

func TestEventChannelPutGet(t *testing.T) {
	c := NewEventChannel(5)
	now := time.Now()

	if err := c.Put(barEvent(now, "AAPL", 100)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	evt, ok := c.Get(time.Second)
	if !ok {
		t.Fatal("Get returned no event")
	}
	if _, exists := evt.Item("AAPL"); !exists {
		t.Error("event is missing AAPL item")
	}
}

func TestEventChannelFull(t *testing.T) {
	c := NewEventChannel(2)
	now := time.Now()

	if err := c.Put(barEvent(now, "A", 1)); err != nil {
		t.Fatalf("Put 1: %v", err)
	}
	if err := c.Put(barEvent(now, "B", 2)); err != nil {
		t.Fatalf("Put 2: %v", err)
	}
	if err := c.Put(barEvent(now, "C", 3)); err != ErrChannelFull {
		t.Fatalf("Put on full channel = %v, want ErrChannelFull", err)
	}

	// The dropped event is the newest one, the first two survive.
	evt, _ := c.Get(time.Second)
	if _, ok := evt.Item("A"); !ok {
		t.Error("first event should be A")
	}
}

func TestEventChannelTimeout(t *testing.T) {
	c := NewEventChannel(1)
	start := time.Now()
	if _, ok := c.Get(20 * time.Millisecond); ok {
		t.Fatal("Get on empty channel should time out")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("Get returned before the timeout elapsed")
	}
}

func TestEventChannelCloseDrains(t *testing.T) {
	c := NewEventChannel(5)
	now := time.Now()
	c.Put(barEvent(now, "A", 1))
	c.Close()

	if err := c.Put(barEvent(now, "B", 2)); err != ErrChannelClosed {
		t.Fatalf("Put after Close = %v, want ErrChannelClosed", err)
	}
	if !c.Closed() {
		t.Error("Closed() = false after Close")
	}

	// The buffered event is still delivered.
	if _, ok := c.Get(time.Second); !ok {
		t.Fatal("buffered event lost after Close")
	}
	if _, ok := c.Get(time.Second); ok {
		t.Fatal("Get should report closure once drained")
	}

	c.Close() // idempotent
}

func TestEventChannelPutWaitBlocks(t *testing.T) {
	c := NewEventChannel(1)
	now := time.Now()
	c.Put(barEvent(now, "A", 1))

	done := make(chan error, 1)
	go func() {
		done <- c.PutWait(context.Background(), barEvent(now, "B", 2))
	}()

	select {
	case <-done:
		t.Fatal("PutWait returned while the buffer was full")
	case <-time.After(20 * time.Millisecond):
	}

	// Free a slot, PutWait should complete.
	c.Get(time.Second)
	if err := <-done; err != nil {
		t.Fatalf("PutWait after space freed: %v", err)
	}
}

func TestEventChannelPutWaitCancel(t *testing.T) {
	c := NewEventChannel(1)
	now := time.Now()
	c.Put(barEvent(now, "A", 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.PutWait(ctx, barEvent(now, "B", 2)); err != context.Canceled {
		t.Fatalf("PutWait with cancelled context = %v, want context.Canceled", err)
	}
}
