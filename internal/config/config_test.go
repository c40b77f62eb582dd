package config

import "testing"

func validConfig() *Config {
	return &Config{
		Decimal:  DecimalConfig{Precision: 25, Rounding: "half_even"},
		Market:   MarketConfig{Symbol: "BTC-USD", Direction: "linear"},
		Venue:    VenueConfig{WSURL: "wss://example.invalid/ws"},
		Pipeline: PipelineConfig{Mode: "sync", BufferSize: 16},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	t.Parallel()
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsBadDirection(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Market.Direction = "sideways"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid market direction")
	}
}

func TestValidateRejectsMissingWSURL(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Venue.WSURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing venue.ws_url")
	}
}

func TestValidateRejectsBadPipelineMode(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Pipeline.Mode = "both"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid pipeline.mode")
	}
}
