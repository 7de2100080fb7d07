package strategy

import (
	"context"
	"testing"
	"time"

	"quantra/internal/domain"
)

// stubStrategy is a minimal Strategy implementation used in registry tests.
type stubStrategy struct {
	name string
}

func (s *stubStrategy) Name() string { return s.name }
func (s *stubStrategy) CreateSignals(_ context.Context, _ *domain.Event) []domain.Signal {
	return nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	s := &stubStrategy{name: "test-strategy"}

	r.Register(s)

	got, ok := r.Get("test-strategy")
	if !ok {
		t.Fatal("Get returned false for registered strategy")
	}
	if got.Name() != "test-strategy" {
		t.Errorf("Get returned strategy with Name() = %q, want %q", got.Name(), "test-strategy")
	}
}

func TestRegistryGet_NotFound(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("nonexistent")
	if ok {
		t.Error("Get returned true for unregistered strategy")
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubStrategy{name: "beta"})
	r.Register(&stubStrategy{name: "alpha"})

	names := r.List()
	if len(names) != 2 {
		t.Fatalf("List returned %d names, want 2", len(names))
	}
	if names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("List = %v, want sorted [alpha beta]", names)
	}
}

// playPrices feeds a price series through the strategy and collects all
// signals.
func playPrices(s Strategy, symbol string, prices []float64) []domain.Signal {
	ctx := context.Background()
	t0 := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)

	var signals []domain.Signal
	for i, p := range prices {
		evt := domain.NewEvent(t0.Add(time.Duration(i)*time.Minute),
			domain.Bar{Sym: symbol, Open: p, High: p, Low: p, Close: p})
		signals = append(signals, s.CreateSignals(ctx, evt)...)
	}
	return signals
}

func TestEMACrossoverWarmup(t *testing.T) {
	s := NewEMACrossover(3, 5, 2.0, domain.PriceDefault)

	// A rising series shorter than the warm-up produces nothing.
	prices := []float64{100, 101, 102, 103}
	if signals := playPrices(s, "AAPL", prices); len(signals) != 0 {
		t.Errorf("got %d signals during warm-up, want 0", len(signals))
	}
}

func TestEMACrossoverSignals(t *testing.T) {
	s := NewEMACrossover(3, 5, 2.0, domain.PriceDefault)

	// Decline long enough to warm up, then a strong rally: the fast EMA
	// crosses above the slow one, producing a buy.
	prices := []float64{100, 99, 98, 97, 96, 95, 94, 110, 120, 130}
	signals := playPrices(s, "AAPL", prices)
	if len(signals) == 0 {
		t.Fatal("no signals after crossover")
	}
	first := signals[0]
	if !first.IsBuy() || first.Symbol != "AAPL" {
		t.Errorf("first signal = %+v, want buy for AAPL", first)
	}
	if !first.Type.IsEntry() {
		t.Error("buy signal should permit entries")
	}

	// Now crash: the fast EMA crosses back below, producing an exit sell.
	signals = playPrices(s, "AAPL", []float64{60, 50, 40, 30})
	if len(signals) == 0 {
		t.Fatal("no signals after downward crossover")
	}
	last := signals[0]
	if !last.IsSell() {
		t.Errorf("signal after crash = %+v, want sell", last)
	}
	if last.Type != domain.SignalExit {
		t.Errorf("sell signal type = %v, want exit-only", last.Type)
	}
}

func TestEMACrossoverPerSymbolState(t *testing.T) {
	s := NewEMACrossover(3, 5, 2.0, domain.PriceDefault)

	// Interleave two symbols; signals for one must not disturb the other.
	ctx := context.Background()
	t0 := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	up := []float64{100, 99, 98, 97, 96, 95, 94, 110, 120, 130}
	flat := []float64{50, 50, 50, 50, 50, 50, 50, 50, 50, 50}

	var signals []domain.Signal
	for i := range up {
		evt := domain.NewEvent(t0.Add(time.Duration(i)*time.Minute),
			domain.Bar{Sym: "UP", Close: up[i]},
			domain.Bar{Sym: "FLAT", Close: flat[i]},
		)
		signals = append(signals, s.CreateSignals(ctx, evt)...)
	}

	for _, sig := range signals {
		if sig.Symbol == "FLAT" {
			t.Errorf("flat series produced signal %+v", sig)
		}
	}
	if len(signals) == 0 {
		t.Error("rising series produced no signals")
	}
}
