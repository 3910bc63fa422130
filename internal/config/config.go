// Package config loads service configuration from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config is the complete service configuration.
type Config struct {
	Storage     StorageConfig          `yaml:"storage"`
	Hyperliquid HyperliquidConfig      `yaml:"hyperliquid"`
	Selection   domain.SelectionConfig `yaml:"selection"`
	Strategy    domain.StrategyConfig  `yaml:"strategy"`
	Backtest    domain.ExecutionConfig `yaml:"backtest"`
	Execution   ExecutionConfig        `yaml:"execution"`
	Risk        RiskConfig             `yaml:"risk"`
	Server      ServerConfig           `yaml:"server"`
	Log         LogConfig              `yaml:"log"`
}

// StorageConfig selects where data is persisted.
type StorageConfig struct {
	Backend       string `yaml:"backend"`        // memory | postgres
	PostgresDSN   string `yaml:"postgres_dsn"`   // required for postgres
	ClickHouseDSN string `yaml:"clickhouse_dsn"` // optional trade history mirror
	MaxConns      int32  `yaml:"max_conns"`
	MigrateOnBoot bool   `yaml:"migrate_on_boot"`
}

// HyperliquidConfig controls the venue client and background sync.
type HyperliquidConfig struct {
	BaseURL         string  `yaml:"base_url"`
	Testnet         bool    `yaml:"testnet"`
	RatePerSec      float64 `yaml:"rate_per_sec"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	BreakerFailures uint32  `yaml:"breaker_failures"`

	SyncIntervalMinutes int  `yaml:"sync_interval_minutes"` // 0 disables background sync
	SyncWindowDays      int  `yaml:"sync_window_days"`
	SyncLimit           int  `yaml:"sync_limit"`
	FeedSignals         bool `yaml:"feed_signals"` // push synced trades into the live signal engine
}

// ExecutionConfig controls follower order execution.
type ExecutionConfig struct {
	Client      string  `yaml:"client"` // simulated | hyperliquid
	DefaultSize float64 `yaml:"default_size"`
}

// RiskConfig controls the follower risk monitor.
type RiskConfig struct {
	InitialEquity  float64 `yaml:"initial_equity"`
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct"` // used when no risk_config row exists
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr                string `yaml:"addr"`
	Mode                string `yaml:"mode"` // gin mode: debug | release | test
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

// LogConfig controls log format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | console
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:  BackendMemory,
			MaxConns: 10,
		},
		Hyperliquid: HyperliquidConfig{
			BaseURL:         "https://api.hyperliquid.xyz",
			RatePerSec:      5,
			TimeoutSeconds:  10,
			BreakerFailures: 5,
			SyncWindowDays:  30,
			SyncLimit:       50,
		},
		Selection: domain.DefaultSelectionConfig(),
		Strategy:  domain.DefaultStrategyConfig(),
		Backtest:  domain.DefaultExecutionConfig(),
		Execution: ExecutionConfig{
			Client:      "simulated",
			DefaultSize: 0.01,
		},
		Risk: RiskConfig{
			InitialEquity:  10000,
			MaxDrawdownPct: domain.DefaultMaxDrawdownPct,
		},
		Server: ServerConfig{
			Addr:                ":8000",
			Mode:                "release",
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies .env and
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides overwrites values with environment variables when present.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SMARTCOPY_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickHouseDSN = v
	}
	if v := os.Getenv("HYPERLIQUID_BASE_URL"); v != "" {
		cfg.Hyperliquid.BaseURL = v
	}
	if v := os.Getenv("HYPERLIQUID_TESTNET"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HYPERLIQUID_TESTNET: %w", err)
		}
		cfg.Hyperliquid.Testnet = b
	}
	if v := os.Getenv("SMARTCOPY_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SMARTCOPY_EXECUTION_CLIENT"); v != "" {
		cfg.Execution.Client = v
	}
	if v := os.Getenv("SMARTCOPY_RISK_MAX_DRAWDOWN_PCT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SMARTCOPY_RISK_MAX_DRAWDOWN_PCT: %w", err)
		}
		cfg.Risk.MaxDrawdownPct = f
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// setDefaults fills values that must never be zero.
func setDefaults(cfg *Config) {
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendMemory
	}
	if cfg.Storage.MaxConns <= 0 {
		cfg.Storage.MaxConns = 10
	}
	if cfg.Hyperliquid.Testnet && cfg.Hyperliquid.BaseURL == "https://api.hyperliquid.xyz" {
		cfg.Hyperliquid.BaseURL = "https://api.hyperliquid-testnet.xyz"
	}
	if cfg.Hyperliquid.RatePerSec <= 0 {
		cfg.Hyperliquid.RatePerSec = 5
	}
	if cfg.Hyperliquid.TimeoutSeconds <= 0 {
		cfg.Hyperliquid.TimeoutSeconds = 10
	}
	if cfg.Hyperliquid.SyncWindowDays <= 0 {
		cfg.Hyperliquid.SyncWindowDays = 30
	}
	if cfg.Hyperliquid.SyncLimit <= 0 {
		cfg.Hyperliquid.SyncLimit = 50
	}
	if cfg.Execution.Client == "" {
		cfg.Execution.Client = "simulated"
	}
	if cfg.Execution.DefaultSize <= 0 {
		cfg.Execution.DefaultSize = 0.01
	}
	if cfg.Risk.InitialEquity <= 0 {
		cfg.Risk.InitialEquity = 10000
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}
	if err := c.Selection.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("selection: %w", err))
	}
	if err := c.Strategy.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("strategy: %w", err))
	}
	if err := c.Backtest.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("backtest: %w", err))
	}
	if c.Risk.MaxDrawdownPct <= 0 || c.Risk.MaxDrawdownPct > 1 {
		errs = append(errs, fmt.Errorf("risk.max_drawdown_pct must be in (0,1], got %v", c.Risk.MaxDrawdownPct))
	}
	switch c.Log.Format {
	case "json", "console", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// HyperliquidTimeout returns the per-request timeout.
func (c *Config) HyperliquidTimeout() time.Duration {
	return time.Duration(c.Hyperliquid.TimeoutSeconds) * time.Second
}

// SyncInterval returns the background sync interval; zero disables it.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Hyperliquid.SyncIntervalMinutes) * time.Minute
}
