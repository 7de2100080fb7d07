package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata/stream"

	"quantra/internal/domain"
	"quantra/internal/util"
)

// ---------------------------------------------------------------------------
// Compile-time interface checks
// ---------------------------------------------------------------------------

var _ Feed = (*AlpacaLiveFeed)(nil)
var _ Feed = (*AlpacaHistoricFeed)(nil)

// ---------------------------------------------------------------------------
// AlpacaLiveFeed — live market data via the Alpaca streaming API.
// ---------------------------------------------------------------------------

// AlpacaLiveFeed streams live trades, quotes and bars from the Alpaca
// websocket API. Subscribe before calling Play; incoming items are put on the
// event channel without blocking, so a slow consumer drops data instead of
// stalling the websocket.
type AlpacaLiveFeed struct {
	client *stream.StocksClient
	log    *slog.Logger

	channel *EventChannel

	tradeSymbols []string
	quoteSymbols []string
	barSymbols   []string
}

// NewAlpacaLiveFeed creates a live feed for the given market-data feed name
// ("iex" or "sip") using the given credentials.
func NewAlpacaLiveFeed(apiKey, apiSecret, dataFeed string) *AlpacaLiveFeed {
	if dataFeed == "" {
		dataFeed = "iex"
	}
	return &AlpacaLiveFeed{
		client: stream.NewStocksClient(dataFeed,
			stream.WithCredentials(apiKey, apiSecret),
		),
		log: slog.Default().With("feed", "alpaca-live"),
	}
}

// SubscribeTrades registers symbols for trade updates.
func (f *AlpacaLiveFeed) SubscribeTrades(symbols ...string) {
	f.tradeSymbols = append(f.tradeSymbols, symbols...)
}

// SubscribeQuotes registers symbols for quote updates.
func (f *AlpacaLiveFeed) SubscribeQuotes(symbols ...string) {
	f.quoteSymbols = append(f.quoteSymbols, symbols...)
}

// SubscribeBars registers symbols for minute-bar updates.
func (f *AlpacaLiveFeed) SubscribeBars(symbols ...string) {
	f.barSymbols = append(f.barSymbols, symbols...)
}

func (f *AlpacaLiveFeed) put(at time.Time, item domain.PriceItem) {
	channel := f.channel
	if channel == nil {
		return
	}
	if err := channel.Put(domain.NewEvent(at, item)); err == ErrChannelFull {
		f.log.Warn("dropping event, channel full", "symbol", item.Symbol())
	}
}

func (f *AlpacaLiveFeed) handleTrade(t stream.Trade) {
	f.put(t.Timestamp, domain.Trade{Sym: t.Symbol, TradePrice: t.Price, TradeSize: float64(t.Size)})
}

func (f *AlpacaLiveFeed) handleQuote(q stream.Quote) {
	f.put(q.Timestamp, domain.Quote{
		Sym:      q.Symbol,
		AskPrice: q.AskPrice, AskSize: float64(q.AskSize),
		BidPrice: q.BidPrice, BidSize: float64(q.BidSize),
	})
}

func (f *AlpacaLiveFeed) handleBar(b stream.Bar) {
	f.put(b.Timestamp, domain.Bar{
		Sym: b.Symbol, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close,
		Vol: float64(b.Volume), Frequency: "1m0s",
	})
}

// Play connects to the streaming API, subscribes the registered symbols and
// forwards incoming items until the context is cancelled, the channel is
// closed, or the connection terminates for good.
func (f *AlpacaLiveFeed) Play(ctx context.Context, channel *EventChannel) error {
	f.channel = channel
	defer func() { f.channel = nil }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The connect handshake is flaky on busy markets, retry it.
	err := util.Retry(ctx, 5, time.Second, func() error {
		return f.client.Connect(ctx)
	})
	if err != nil {
		return fmt.Errorf("connecting to alpaca stream: %w", err)
	}

	if len(f.tradeSymbols) > 0 {
		if err := f.client.SubscribeToTrades(f.handleTrade, f.tradeSymbols...); err != nil {
			return fmt.Errorf("subscribing to trades: %w", err)
		}
	}
	if len(f.quoteSymbols) > 0 {
		if err := f.client.SubscribeToQuotes(f.handleQuote, f.quoteSymbols...); err != nil {
			return fmt.Errorf("subscribing to quotes: %w", err)
		}
	}
	if len(f.barSymbols) > 0 {
		if err := f.client.SubscribeToBars(f.handleBar, f.barSymbols...); err != nil {
			return fmt.Errorf("subscribing to bars: %w", err)
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-channel.done:
		return nil
	case err := <-f.client.Terminated():
		return err
	}
}

// ---------------------------------------------------------------------------
// AlpacaHistoricFeed — historical bars via the Alpaca market-data API.
// ---------------------------------------------------------------------------

// AlpacaHistoricFeed fetches historical bars from the Alpaca market-data API
// and replays them as events. Fetching happens lazily on the first Play, so
// the same feed can be replayed multiple times without refetching.
type AlpacaHistoricFeed struct {
	client  *marketdata.Client
	limiter *util.RateLimiter
	log     *slog.Logger

	symbols   []string
	start     time.Time
	end       time.Time
	timeframe marketdata.TimeFrame

	events []*domain.Event
}

// NewAlpacaHistoricFeed creates a historical feed for the given symbols over
// [start, end) with the given bar timeframe.
func NewAlpacaHistoricFeed(apiKey, apiSecret string, symbols []string, start, end time.Time, timeframe marketdata.TimeFrame) *AlpacaHistoricFeed {
	return &AlpacaHistoricFeed{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		limiter:   util.NewRateLimiter(200),
		log:       slog.Default().With("feed", "alpaca-historic"),
		symbols:   symbols,
		start:     start,
		end:       end,
		timeframe: timeframe,
	}
}

func (f *AlpacaHistoricFeed) fetch(ctx context.Context) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}

	bars, err := f.client.GetMultiBars(f.symbols, marketdata.GetBarsRequest{
		TimeFrame:  f.timeframe,
		Start:      f.start,
		End:        f.end,
		Adjustment: marketdata.Split,
	})
	if err != nil {
		return fmt.Errorf("fetching bars: %w", err)
	}

	freq := f.timeframe.String()
	grouped := map[time.Time][]domain.PriceItem{}
	for symbol, symbolBars := range bars {
		for _, b := range symbolBars {
			t := b.Timestamp.UTC()
			grouped[t] = append(grouped[t], domain.Bar{
				Sym: symbol, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close,
				Vol: float64(b.Volume), Frequency: freq,
			})
		}
	}

	f.events = f.events[:0]
	for t, items := range grouped {
		f.events = append(f.events, domain.NewEvent(t, items...))
	}
	sortEvents(f.events)

	f.log.Info("fetched historical bars", "symbols", len(f.symbols), "events", len(f.events))
	return nil
}

// Play fetches the bars if needed and replays them in time order.
func (f *AlpacaHistoricFeed) Play(ctx context.Context, channel *EventChannel) error {
	if f.events == nil {
		if err := f.fetch(ctx); err != nil {
			return err
		}
	}
	return replay(ctx, channel, f.events...)
}
