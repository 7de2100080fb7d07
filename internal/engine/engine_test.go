package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"quantra/internal/domain"
	"quantra/internal/feed"
	"quantra/internal/journal"
	"quantra/internal/money"
	"quantra/internal/strategy"
	"quantra/internal/trader"

	"quantra/internal/broker"
)

// buyOnce emits a single buy signal on the first event it sees.
type buyOnce struct {
	fired bool
}

func (s *buyOnce) Name() string { return "buy-once" }

func (s *buyOnce) CreateSignals(_ context.Context, event *domain.Event) []domain.Signal {
	if s.fired || event.IsEmpty() {
		return nil
	}
	s.fired = true
	return []domain.Signal{domain.Buy(event.Items[0].Symbol(), domain.SignalEntryExit)}
}

func barFeed(t0 time.Time, symbol string, prices ...float64) *feed.MemoryFeed {
	f := feed.NewMemoryFeed()
	for i, p := range prices {
		f.AddItem(t0.Add(time.Duration(i)*time.Minute), domain.Bar{
			Sym: symbol, Open: p, High: p, Low: p, Close: p, Vol: 1000,
		})
	}
	return f
}

func TestEngineRun(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	basic := journal.NewBasicJournal()

	e := &Engine{
		Feed:     barFeed(t0, "XYZ", 50, 50, 51, 52, 53),
		Strategy: &buyOnce{},
		Trader:   trader.NewFlexTrader(trader.DefaultFlexConfig()),
		Broker:   broker.NewSimBroker(money.USD.Amount(10_000), nil, nil),
		Journal:  basic,
	}

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	acc := e.Account()
	if acc == nil {
		t.Fatal("no account snapshot after run")
	}

	// Equity 10000, max order 5% = 500, price 50: a 10 share position.
	pos, ok := acc.Positions["XYZ"]
	if !ok {
		t.Fatal("no XYZ position after run")
	}
	if pos.Size.IntPart() != 10 {
		t.Errorf("position size = %s, want 10", pos.Size)
	}
	if pos.MktPrice != 53 {
		t.Errorf("market price = %v, want 53 (last bar)", pos.MktPrice)
	}

	// Bought 10 at 50 (the bar after the signal), now worth 53.
	equity, err := acc.Equity()
	if err != nil {
		t.Fatalf("Equity: %v", err)
	}
	if math.Abs(equity-10_030) > 1e-9 {
		t.Errorf("equity = %v, want 10030", equity)
	}

	events, items, signals, orders := basic.Counts()
	if events != 5 || items != 5 {
		t.Errorf("journal events/items = %d/%d, want 5/5", events, items)
	}
	if signals != 1 || orders != 1 {
		t.Errorf("journal signals/orders = %d/%d, want 1/1", signals, orders)
	}
}

func TestEngineCancellation(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &Engine{
		Feed:     barFeed(t0, "XYZ", 50),
		Strategy: &buyOnce{},
		Trader:   trader.NewFlexTrader(trader.DefaultFlexConfig()),
		Broker:   broker.NewSimBroker(money.USD.Amount(10_000), nil, nil),
		Timeout:  10 * time.Millisecond,
	}
	if err := e.Run(ctx); err != context.Canceled {
		t.Fatalf("Run with cancelled context = %v, want context.Canceled", err)
	}
}

func TestEngineEMACrossoverBacktest(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

	// A long decline followed by a rally: the crossover strategy should end
	// up with a long position.
	f := feed.NewMemoryFeed()
	price := 100.0
	for i := 0; i < 30; i++ {
		if i < 15 {
			price -= 1
		} else {
			price += 3
		}
		f.AddItem(t0.Add(time.Duration(i)*time.Minute), domain.Bar{
			Sym: "XYZ", Open: price, High: price, Low: price, Close: price, Vol: 1000,
		})
	}

	e := &Engine{
		Feed:     f,
		Strategy: strategy.NewEMACrossover(3, 5, 2.0, domain.PriceDefault),
		Trader:   trader.NewFlexTrader(trader.DefaultFlexConfig()),
		Broker:   broker.NewSimBroker(money.USD.Amount(100_000), nil, nil),
	}
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	acc := e.Account()
	if len(acc.Positions) == 0 {
		t.Fatal("no position after rally")
	}
	if pos := acc.Positions["XYZ"]; !pos.IsLong() {
		t.Errorf("position = %s, want long", pos.Size)
	}
}
