package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for a quantra run.
type Config struct {
	Logging  Logging        `yaml:"logging"`
	Server   Server         `yaml:"server"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Feed     FeedConfig     `yaml:"feed"`
	Strategy StrategyConfig `yaml:"strategy"`
	Trading  TradingConfig  `yaml:"trading"`
	Broker   BrokerConfig   `yaml:"broker"`
	Currency CurrencyConfig `yaml:"currency"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Server holds network listener configuration for the status API.
type Server struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
}

// Alpaca holds credentials and endpoints for the Alpaca APIs.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataFeed  string `yaml:"data_feed"` // "iex" or "sip"
}

// FeedConfig selects and parameterizes the market-data feed.
type FeedConfig struct {
	// Source is one of "alpaca", "sqlite", "parquet".
	Source  string   `yaml:"source"`
	Symbols []string `yaml:"symbols"`
	// SQLitePath is the database file for the sqlite source.
	SQLitePath string `yaml:"sqlite_path"`
	// DataDir is the directory for the parquet source.
	DataDir string `yaml:"data_dir"`
	// Aggregate turns trade/quote streams into bars of this interval, e.g.
	// "1m". Empty disables aggregation.
	Aggregate string `yaml:"aggregate"`
	// ChannelCapacity is the event channel buffer size.
	ChannelCapacity int `yaml:"channel_capacity"`
}

// AggregateDuration parses the aggregation interval; zero when disabled.
func (f FeedConfig) AggregateDuration() (time.Duration, error) {
	if f.Aggregate == "" {
		return 0, nil
	}
	return time.ParseDuration(f.Aggregate)
}

// StrategyConfig selects and parameterizes the strategy.
type StrategyConfig struct {
	Name       string  `yaml:"name"`
	FastPeriod int     `yaml:"fast_period"`
	SlowPeriod int     `yaml:"slow_period"`
	Smoothing  float64 `yaml:"smoothing"`
}

// TradingConfig defines the risk and sizing rules of the flex trader.
type TradingConfig struct {
	OneOrderOnly     *bool   `yaml:"one_order_only"`
	SizeFractions    int32   `yaml:"size_fractions"`
	SafetyMarginPerc float64 `yaml:"safety_margin_perc"`
	Shorting         bool    `yaml:"shorting"`
	MaxOrderPerc     float64 `yaml:"max_order_perc"`
	MinOrderPerc     float64 `yaml:"min_order_perc"`
	MaxPositionPerc  float64 `yaml:"max_position_perc"`
}

// BrokerConfig selects the broker implementation.
type BrokerConfig struct {
	// Mode is "sim" or "alpaca".
	Mode string `yaml:"mode"`
	// Deposit is the starting cash for the sim broker.
	Deposit float64 `yaml:"deposit"`
}

// CurrencyConfig configures money handling.
type CurrencyConfig struct {
	// Base is the base currency of the account, e.g. "USD".
	Base string `yaml:"base"`
	// ECBRates enables downloading the ECB historic exchange rates.
	ECBRates bool `yaml:"ecb_rates"`
	// CacheDir is where the downloaded rate files live.
	CacheDir string `yaml:"cache_dir"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.Feed.Source {
	case "", "alpaca", "sqlite", "parquet":
	default:
		return fmt.Errorf("config: unknown feed source %q", c.Feed.Source)
	}
	switch c.Broker.Mode {
	case "", "sim", "alpaca":
	default:
		return fmt.Errorf("config: unknown broker mode %q", c.Broker.Mode)
	}
	if _, err := c.Feed.AggregateDuration(); err != nil {
		return fmt.Errorf("config: bad aggregate interval: %w", err)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Feed.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Feed.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
