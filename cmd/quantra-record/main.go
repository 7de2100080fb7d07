// Command quantra-record records market data for later playback. It streams
// live Alpaca data (optionally aggregated into bars) and appends it to the
// SQLite or Parquet price store named by the configuration.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"quantra/internal/config"
	"quantra/internal/feed"
	"quantra/internal/util"
)

func main() {
	_ = godotenv.Load()

	duration := flag.Duration("duration", 0, "stop recording after this long (0 records until interrupted)")
	flag.Parse()

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

	if len(cfg.Feed.Symbols) == 0 {
		logger.Error("no symbols configured")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	live := feed.NewAlpacaLiveFeed(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataFeed)

	var source feed.Feed = live
	kind := feed.KindQuote
	agg, err := cfg.Feed.AggregateDuration()
	if err != nil {
		logger.Error("bad aggregate interval", "err", err)
		os.Exit(1)
	}
	if agg > 0 {
		live.SubscribeQuotes(cfg.Feed.Symbols...)
		source = feed.NewAggregatorFeed(live, agg)
		kind = feed.KindBar
	} else {
		live.SubscribeQuotes(cfg.Feed.Symbols...)
	}

	logger.Info("recording started",
		"symbols", cfg.Feed.Symbols, "source", cfg.Feed.Source, "aggregate", agg.String())
	start := time.Now()

	switch cfg.Feed.Source {
	case "parquet":
		pf := feed.NewParquetFeed(cfg.Feed.DataDir)
		err = pf.Record(ctx, source)
	default:
		sf := feed.NewSQLFeed(cfg.Feed.SQLitePath, kind)
		if err = sf.Record(ctx, source); err == nil {
			err = sf.CreateIndex()
		}
	}
	if err != nil && ctx.Err() == nil {
		logger.Error("recording failed", "err", err)
		os.Exit(1)
	}

	logger.Info("recording finished", "elapsed", time.Since(start).String())
}
