// Command quantra runs the trading engine: it wires a feed, a strategy, the
// flex trader, and a broker per the configuration, and serves the status API
// while the run is in progress.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"quantra/internal/api"
	"quantra/internal/broker"
	"quantra/internal/config"
	"quantra/internal/domain"
	"quantra/internal/engine"
	"quantra/internal/feed"
	"quantra/internal/journal"
	"quantra/internal/money"
	"quantra/internal/strategy"
	"quantra/internal/trader"
	"quantra/internal/util"
)

func main() {
	// A .env file is optional; real env vars win either way.
	_ = godotenv.Load()

	cfgPath := "config/quantra.yaml"
	if p := os.Getenv("QUANTRA_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	e, err := buildEngine(cfg)
	if err != nil {
		logger.Error("building engine", "err", err)
		os.Exit(1)
	}
	basic := journal.NewBasicJournal()
	prices := journal.NewPriceItemJournal(cfg.Feed.Symbols...)
	e.Journal = journal.MultiJournal{basic, prices}

	srv := api.NewServer(cfg, e, basic, prices)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel() // a finished run also stops the API server
		return e.Run(ctx)
	})
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("run failed", "err", err)
		os.Exit(1)
	}
	basic.Log(logger)
}

// buildEngine assembles the engine from the configuration.
func buildEngine(cfg *config.Config) (*engine.Engine, error) {
	conv, err := buildConverter(cfg)
	if err != nil {
		return nil, err
	}

	f, err := buildFeed(cfg)
	if err != nil {
		return nil, err
	}

	var b broker.Broker
	switch cfg.Broker.Mode {
	case "alpaca":
		b = broker.NewAlpacaBroker(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
	default:
		deposit := cfg.Broker.Deposit
		if deposit == 0 {
			deposit = 1_000_000
		}
		base := money.Currency(cfg.Currency.Base)
		if base == "" {
			base = money.USD
		}
		b = broker.NewSimBroker(base.Amount(deposit), conv, nil)
	}

	st := strategy.NewEMACrossover(
		orDefault(cfg.Strategy.FastPeriod, 13),
		orDefault(cfg.Strategy.SlowPeriod, 26),
		orDefaultF(cfg.Strategy.Smoothing, 2.0),
		domain.PriceDefault,
	)

	tcfg := trader.DefaultFlexConfig()
	if cfg.Trading.OneOrderOnly != nil {
		tcfg.OneOrderOnly = *cfg.Trading.OneOrderOnly
	}
	tcfg.Shorting = cfg.Trading.Shorting
	tcfg.SizeFractions = cfg.Trading.SizeFractions
	if cfg.Trading.SafetyMarginPerc > 0 {
		tcfg.SafetyMarginPerc = cfg.Trading.SafetyMarginPerc
	}
	if cfg.Trading.MaxOrderPerc > 0 {
		tcfg.MaxOrderPerc = cfg.Trading.MaxOrderPerc
	}
	if cfg.Trading.MinOrderPerc > 0 {
		tcfg.MinOrderPerc = cfg.Trading.MinOrderPerc
	}
	if cfg.Trading.MaxPositionPerc > 0 {
		tcfg.MaxPositionPerc = cfg.Trading.MaxPositionPerc
	}

	e := &engine.Engine{
		Feed:            f,
		Strategy:        st,
		Trader:          trader.NewFlexTrader(tcfg),
		Broker:          b,
		ChannelCapacity: cfg.Feed.ChannelCapacity,
	}
	if cfg.Feed.Source == "alpaca" {
		// Live runs need a timeout so cancellation is noticed off-hours.
		e.Timeout = 15 * time.Second
	}
	return e, nil
}

// buildConverter returns the money converter for the run, or nil for
// single-currency runs.
func buildConverter(cfg *config.Config) (money.Converter, error) {
	if !cfg.Currency.ECBRates {
		return nil, nil
	}
	cacheDir := cfg.Currency.CacheDir
	if cacheDir == "" {
		cacheDir = os.TempDir()
	}
	conv, err := money.ECBConversion(cacheDir, false)
	if err != nil {
		return nil, fmt.Errorf("loading ECB rates: %w", err)
	}
	return conv, nil
}

// buildFeed returns the feed selected by the configuration.
func buildFeed(cfg *config.Config) (feed.Feed, error) {
	switch cfg.Feed.Source {
	case "sqlite":
		return feed.NewSQLFeed(cfg.Feed.SQLitePath, feed.KindBar), nil
	case "parquet":
		return feed.NewParquetFeed(cfg.Feed.DataDir), nil
	case "alpaca", "":
		live := feed.NewAlpacaLiveFeed(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataFeed)
		agg, err := cfg.Feed.AggregateDuration()
		if err != nil {
			return nil, err
		}
		if agg > 0 {
			live.SubscribeQuotes(cfg.Feed.Symbols...)
			return feed.NewAggregatorFeed(live, agg), nil
		}
		live.SubscribeBars(cfg.Feed.Symbols...)
		return live, nil
	default:
		return nil, fmt.Errorf("unknown feed source %q", cfg.Feed.Source)
	}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultF(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
