// Package config defines configuration for the tradecore demo. Config is
// loaded from a YAML file with sensitive fields overridable via TC_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration, mapping directly to the YAML
// file structure.
type Config struct {
	Decimal  DecimalConfig  `mapstructure:"decimal"`
	Market   MarketConfig   `mapstructure:"market"`
	Venue    VenueConfig    `mapstructure:"venue"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DecimalConfig holds precision/rounding settings. Validate checks them;
// the core divides at the fixed decimalctx.DivisionPrecision and the demo
// wiring does not apply these values.
type DecimalConfig struct {
	Precision int32  `mapstructure:"precision"`
	Rounding  string `mapstructure:"rounding"` // "half_even" | "down" | "up"
}

// MarketConfig describes the one market the demo wiring trades, and the
// simulator's fee schedule.
type MarketConfig struct {
	Symbol     string `mapstructure:"symbol"`
	BaseAsset  string `mapstructure:"base_asset"`
	QuoteAsset string `mapstructure:"quote_asset"`
	Direction  string `mapstructure:"direction"` // "linear" | "inverse"
	MakerFee   string `mapstructure:"maker_fee"` // decimal string, e.g. "-0.0002"
	TakerFee   string `mapstructure:"taker_fee"`
}

// VenueConfig holds the REST/WebSocket endpoints and signing credentials
// for the facade's reference implementation.
type VenueConfig struct {
	RESTBaseURL string `mapstructure:"rest_base_url"`
	WSURL       string `mapstructure:"ws_url"`
	APIKey      string `mapstructure:"api_key"`
	Secret      string `mapstructure:"secret"`
	DryRun      bool   `mapstructure:"dry_run"`
}

// PipelineConfig names a pipeline variant and a channel buffer size.
// Validate checks both; the demo always wires the synchronous pipeline
// and only logs Mode, and BufferSize is not read (the async pipeline's
// channel buffers have a fixed size).
type PipelineConfig struct {
	Mode       string `mapstructure:"mode"` // "sync" | "async"
	BufferSize int    `mapstructure:"buffer_size"`
}

// LoggingConfig selects slog's handler and level.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config from a YAML file with env var overrides. Sensitive
// fields use TC_* env vars: TC_VENUE_API_KEY, TC_VENUE_SECRET,
// TC_VENUE_DRY_RUN.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("TC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if key := os.Getenv("TC_VENUE_API_KEY"); key != "" {
		cfg.Venue.APIKey = key
	}
	if secret := os.Getenv("TC_VENUE_SECRET"); secret != "" {
		cfg.Venue.Secret = secret
	}
	if os.Getenv("TC_VENUE_DRY_RUN") == "true" || os.Getenv("TC_VENUE_DRY_RUN") == "1" {
		cfg.Venue.DryRun = true
	}

	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Decimal.Precision <= 0 {
		return fmt.Errorf("decimal.precision must be > 0")
	}
	switch c.Decimal.Rounding {
	case "half_even", "down", "up", "":
	default:
		return fmt.Errorf("decimal.rounding must be one of: half_even, down, up")
	}
	if c.Market.Symbol == "" {
		return fmt.Errorf("market.symbol is required")
	}
	switch c.Market.Direction {
	case "linear", "inverse":
	default:
		return fmt.Errorf("market.direction must be linear or inverse")
	}
	if c.Venue.WSURL == "" {
		return fmt.Errorf("venue.ws_url is required")
	}
	switch c.Pipeline.Mode {
	case "sync", "async":
	default:
		return fmt.Errorf("pipeline.mode must be sync or async")
	}
	if c.Pipeline.BufferSize <= 0 {
		return fmt.Errorf("pipeline.buffer_size must be > 0")
	}
	return nil
}

// RefreshInterval is a small convenience used by the demo loop; not part
// of the YAML schema.
const RefreshInterval = 2 * time.Second
