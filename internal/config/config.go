// Package config loads and validates the engine's YAML configuration.
// Load never returns a value the rest of the program has to re-check:
// any tunable outside its valid range fails at bootstrap, not at a
// random point during a live run.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root document loaded from configs/config.yaml.
type Config struct {
	Dashboard DashboardConfig          `yaml:"dashboard"`
	Scoring   ScoringConfig            `yaml:"scoring"`
	Venues    map[string]VenueConfig   `yaml:"venues"`
	Fees      FeesConfig               `yaml:"fees"`
	Engine    EngineConfig             `yaml:"engine"`
	Redis     RedisConfig              `yaml:"redis"`
}

// DashboardConfig controls the periodic projection task.
type DashboardConfig struct {
	IntervalSeconds int  `yaml:"interval_seconds"`
	TopN            int  `yaml:"top_n"`
	HTTPEnabled     bool `yaml:"http_enabled"`
	HTTPAddr        string `yaml:"http_addr"`
	TUIEnabled      bool `yaml:"tui_enabled"`
}

// ScoringConfig carries the scorer's thresholds.
type ScoringConfig struct {
	MinVolumeUSD          float64 `yaml:"min_volume_usd"`
	MinProfitBps          float64 `yaml:"min_profit_bps"`
	MaxValidSpreadBps     float64 `yaml:"max_valid_spread_bps"`
	MinScoreThreshold     float64 `yaml:"min_score_threshold"`
	SignalScoreThreshold  float64 `yaml:"signal_score_threshold"`
}

// FeesConfig carries the per-venue maker/taker fee tables, fractional.
type FeesConfig struct {
	Maker map[string]float64 `yaml:"maker"`
	Taker map[string]float64 `yaml:"taker"`
}

// VenueConfig controls one venue adapter's ingestion shape.
type VenueConfig struct {
	Enabled              bool    `yaml:"enabled"`
	Variant              string  `yaml:"variant"` // "unified" | "composite"
	ChunkSize            int     `yaml:"chunk_size"`
	ChunkStaggerSeconds  float64 `yaml:"chunk_stagger_seconds"`
	ReconnectBackoffSecs float64 `yaml:"reconnect_backoff_seconds"`
	RestRPS              float64 `yaml:"rest_rps"`
	RestBurst            int     `yaml:"rest_burst"`
}

// EngineConfig controls the signal-emission cooldown window.
type EngineConfig struct {
	CooldownSeconds int `yaml:"cooldown_seconds"`
	ScoringWorkers  int `yaml:"scoring_workers"`
}

// RedisConfig optionally backs the cooldown store across engine replicas.
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// Defaults returns the built-in tunables; Load starts from this and
// overlays whatever the YAML document sets.
func Defaults() Config {
	return Config{
		Dashboard: DashboardConfig{IntervalSeconds: 60, TopN: 20, HTTPEnabled: true, HTTPAddr: ":8090"},
		Scoring: ScoringConfig{
			MinVolumeUSD:         1_000_000,
			MinProfitBps:         2.0,
			MaxValidSpreadBps:    200.0,
			MinScoreThreshold:    5.0,
			SignalScoreThreshold: 10.0,
		},
		Fees: FeesConfig{
			Maker: map[string]float64{"binance": 0.00020, "bybit": 0.00020, "bitget": 0.00020, "okx": 0.00020, "default": 0.00020},
			Taker: map[string]float64{"binance": 0.00046, "bybit": 0.00055, "bitget": 0.00060, "okx": 0.00050, "default": 0.00060},
		},
		Venues: map[string]VenueConfig{
			"binance": {Enabled: true, Variant: "composite", ChunkSize: 50, ChunkStaggerSeconds: 2.0, ReconnectBackoffSecs: 5.0, RestRPS: 10, RestBurst: 20},
			"bybit":   {Enabled: true, Variant: "unified", ChunkSize: 50, ChunkStaggerSeconds: 2.0, ReconnectBackoffSecs: 5.0, RestRPS: 10, RestBurst: 20},
			"bitget":  {Enabled: true, Variant: "composite", ChunkSize: 50, ChunkStaggerSeconds: 2.0, ReconnectBackoffSecs: 5.0, RestRPS: 5, RestBurst: 10},
			"okx":     {Enabled: true, Variant: "unified", ChunkSize: 50, ChunkStaggerSeconds: 2.0, ReconnectBackoffSecs: 5.0, RestRPS: 10, RestBurst: 20},
		},
		Engine: EngineConfig{CooldownSeconds: 600, ScoringWorkers: 4},
	}
}

// Load reads and validates a YAML config file, overlaying it on Defaults().
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate fails fast on any tunable that would otherwise surface as a
// confusing runtime symptom later: configuration errors are a bootstrap
// concern, not something the engine should have to detect mid-run.
func (c Config) Validate() error {
	if c.Dashboard.IntervalSeconds <= 0 {
		return fmt.Errorf("dashboard.interval_seconds must be positive")
	}
	if c.Dashboard.TopN <= 0 {
		return fmt.Errorf("dashboard.top_n must be positive")
	}
	if c.Scoring.MinVolumeUSD < 0 {
		return fmt.Errorf("scoring.min_volume_usd cannot be negative")
	}
	if c.Scoring.MaxValidSpreadBps <= 0 {
		return fmt.Errorf("scoring.max_valid_spread_bps must be positive")
	}
	if c.Engine.CooldownSeconds < 0 {
		return fmt.Errorf("engine.cooldown_seconds cannot be negative")
	}
	if c.Engine.ScoringWorkers <= 0 {
		return fmt.Errorf("engine.scoring_workers must be positive")
	}
	if len(c.Venues) == 0 {
		return fmt.Errorf("at least one venue must be configured")
	}
	for name, v := range c.Venues {
		if v.Variant != "unified" && v.Variant != "composite" {
			return fmt.Errorf("venue %s: variant must be 'unified' or 'composite', got %q", name, v.Variant)
		}
		if v.ChunkSize <= 0 {
			return fmt.Errorf("venue %s: chunk_size must be positive", name)
		}
	}
	return nil
}

// Interval returns the dashboard refresh period as a Duration.
func (d DashboardConfig) Interval() time.Duration {
	return time.Duration(d.IntervalSeconds) * time.Second
}

// Cooldown returns the signal-emission cooldown window as a Duration.
func (e EngineConfig) Cooldown() time.Duration {
	return time.Duration(e.CooldownSeconds) * time.Second
}

// ChunkStagger returns venue v's per-chunk startup stagger as a Duration.
func (v VenueConfig) ChunkStagger() time.Duration {
	return time.Duration(v.ChunkStaggerSeconds * float64(time.Second))
}

// ReconnectBackoff returns venue v's reconnect backoff as a Duration.
func (v VenueConfig) ReconnectBackoff() time.Duration {
	return time.Duration(v.ReconnectBackoffSecs * float64(time.Second))
}
