// Package config loads the tidemark configuration from YAML with environment
// variable overrides. Every storage location is explicit configuration passed
// into components; nothing reads module-level path constants.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the tidemark pipeline.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Logging  Logging        `yaml:"logging"`
	Sync     SyncConfig     `yaml:"sync"`
	Strategy StrategyConfig `yaml:"strategy"`
	Backtest BacktestConfig `yaml:"backtest"`
	Schedule Schedule       `yaml:"schedule"`
}

// Storage holds every path the pipeline reads or writes.
type Storage struct {
	DataDir       string `yaml:"data_dir"`
	ArchiveDir    string `yaml:"archive_dir"`
	SQLitePath    string `yaml:"sqlite_path"`
	SnapshotPath  string `yaml:"snapshot_path"`
	ChangelogPath string `yaml:"changelog_path"`
	OutputDir     string `yaml:"output_dir"`
}

// Alpaca holds credentials and endpoints for the market-data provider.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SyncConfig controls the incremental daily-bar synchronization pass.
type SyncConfig struct {
	StartDate       string  `yaml:"start_date"`
	ThrottleSecs    float64 `yaml:"throttle_secs"`
	MaxWorkers      int     `yaml:"max_workers"`
	RateLimitPerMin int     `yaml:"rate_limit_per_min"`
	Archive         bool    `yaml:"archive"`
}

// StrategyConfig selects and parameterizes the active decision rule.
type StrategyConfig struct {
	Rule            string  `yaml:"rule"`
	ShortPeriod     int     `yaml:"short_period"`
	LongPeriod      int     `yaml:"long_period"`
	CapitalPerTrade float64 `yaml:"capital_per_trade"`
}

// BacktestConfig holds trade simulation parameters.
type BacktestConfig struct {
	HoldDays int `yaml:"hold_days"`
}

// Schedule holds the cron expression for daemon-mode syncs.
type Schedule struct {
	DailyCron string `yaml:"daily_cron"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
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
	applyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Storage.OutputDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
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
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}
	if v := os.Getenv("CAPITAL_PER_TRADE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Strategy.CapitalPerTrade = f
		}
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// applyDefaults fills fields that were left unset by both file and
// environment.
func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data/market_daily"
	}
	if cfg.Storage.SnapshotPath == "" {
		cfg.Storage.SnapshotPath = cfg.Storage.DataDir + "/symbols_snapshot.json"
	}
	if cfg.Storage.ChangelogPath == "" {
		cfg.Storage.ChangelogPath = cfg.Storage.DataDir + "/market_symbols_log.md"
	}
	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = "outputs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Sync.ThrottleSecs == 0 {
		cfg.Sync.ThrottleSecs = 0.5
	}
	if cfg.Sync.MaxWorkers == 0 {
		cfg.Sync.MaxWorkers = 1
	}
	if cfg.Strategy.Rule == "" {
		cfg.Strategy.Rule = "ma-cross"
	}
	if cfg.Strategy.ShortPeriod == 0 {
		cfg.Strategy.ShortPeriod = 5
	}
	if cfg.Strategy.LongPeriod == 0 {
		cfg.Strategy.LongPeriod = 20
	}
	if cfg.Strategy.CapitalPerTrade == 0 {
		cfg.Strategy.CapitalPerTrade = 100000
	}
	if cfg.Backtest.HoldDays == 0 {
		cfg.Backtest.HoldDays = 5
	}
}
