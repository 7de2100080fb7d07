// Package engine runs the event-driven trading loop: feed events flow
// through the strategy, the trader, and the broker, one event at a time.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quantra/internal/account"
	"quantra/internal/broker"
	"quantra/internal/feed"
	"quantra/internal/journal"
	"quantra/internal/strategy"
	"quantra/internal/trader"
)

// Engine wires a feed, strategy, trader, and broker into a run. The same
// engine drives backtests, paper trading, and live trading; only the wiring
// differs.
type Engine struct {
	Feed     feed.Feed
	Strategy strategy.Strategy
	Trader   trader.Trader
	Broker   broker.Broker
	Journal  journal.Journal

	// ChannelCapacity is the event channel buffer size; defaults to 10.
	ChannelCapacity int
	// Timeout is the maximum wait per event; zero waits indefinitely. Live
	// runs set this so the loop notices cancellation during quiet markets.
	Timeout time.Duration

	mu   sync.RWMutex
	acc  *account.Account
	log  *slog.Logger
	once sync.Once
}

func (e *Engine) init() {
	e.once.Do(func() {
		if e.ChannelCapacity <= 0 {
			e.ChannelCapacity = 10
		}
		e.log = slog.Default().With("component", "engine")
	})
}

// Account returns the latest account snapshot, or nil before the first sync.
// Safe to call from other goroutines while the run is in progress.
func (e *Engine) Account() *account.Account {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.acc
}

func (e *Engine) setAccount(acc *account.Account) {
	e.mu.Lock()
	e.acc = acc
	e.mu.Unlock()
}

// Run plays the feed and processes every event sequentially until the feed
// is exhausted or the context is cancelled. Broker errors during an event
// are logged and the run continues with the previous account state; errors
// from the trader are fatal since they indicate a configuration problem.
func (e *Engine) Run(ctx context.Context) error {
	e.init()

	acc, err := e.Broker.Sync(ctx, nil)
	if err != nil {
		return fmt.Errorf("initial broker sync: %w", err)
	}
	e.setAccount(acc)
	e.log.Info("run started", "strategy", e.Strategy.Name(), "buyingPower", acc.BuyingPower)

	channel := feed.PlayBackground(ctx, e.Feed, e.ChannelCapacity)
	defer channel.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		event, ok := channel.Get(e.Timeout)
		if !ok {
			if channel.Closed() {
				e.log.Info("run finished")
				return nil
			}
			continue // timeout on a quiet market
		}

		signals := e.Strategy.CreateSignals(ctx, event)
		orders, err := e.Trader.CreateOrders(signals, event, e.Account())
		if err != nil {
			return fmt.Errorf("creating orders: %w", err)
		}

		if len(orders) > 0 {
			if err := e.Broker.PlaceOrders(ctx, orders); err != nil {
				e.log.Error("placing orders failed", "err", err, "orders", len(orders))
			}
		}

		acc, err := e.Broker.Sync(ctx, event)
		if err != nil {
			e.log.Error("broker sync failed", "err", err)
		} else {
			e.setAccount(acc)
		}

		if e.Journal != nil {
			e.Journal.Track(event, e.Account(), signals, orders)
		}
	}
}
