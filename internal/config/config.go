// Package config provides configuration management for the backtester.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds one backtest run configuration.
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Output    OutputConfig    `mapstructure:"output"`
	Pricing   PricingConfig   `mapstructure:"-"` // Loaded separately
}

// DataConfig holds the historical data input configuration.
type DataConfig struct {
	Path     string `mapstructure:"path"`
	Provider string `mapstructure:"provider"` // "cboe", "historicaloptiondata"
}

// LegWindow holds the delta window for one leg role.
type LegWindow struct {
	MinDelta     float64 `mapstructure:"min_delta"`
	MaxDelta     float64 `mapstructure:"max_delta"`
	OptimalDelta float64 `mapstructure:"optimal_delta"`
}

// StrategyConfig holds strategy selection and parameters.
type StrategyConfig struct {
	Kind        string `mapstructure:"kind"` // short_strangle, short_put_vertical, long_put_vertical, short_naked_put
	Ticker      string `mapstructure:"ticker"`
	StartDate   string `mapstructure:"start_date"` // YYYY-MM-DD, empty = no gating
	MinDTE      int    `mapstructure:"min_dte"`
	MaxDTE      int    `mapstructure:"max_dte"` // 0 = unset
	OptimalDTE  int    `mapstructure:"optimal_dte"`
	MonthlyOnly bool   `mapstructure:"monthly_only"`
	Multiplier  int    `mapstructure:"multiplier"` // contract multiplier, default 100

	MaxBidAsk float64 `mapstructure:"max_bid_ask"` // 0 = unset

	ShortPut  LegWindow `mapstructure:"short_put"`
	LongPut   LegWindow `mapstructure:"long_put"`
	ShortCall LegWindow `mapstructure:"short_call"`
}

// StartTime parses the configured start date, if any.
func (s *StrategyConfig) StartTime() (time.Time, error) {
	if s.StartDate == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s.StartDate)
}

// RiskConfig holds the risk-manager policy selection.
type RiskConfig struct {
	Policy   string `mapstructure:"policy"`
	FixedDTE int    `mapstructure:"fixed_dte"` // for the fixed-duration policy
}

// PortfolioConfig holds capital and buying-power parameters.
type PortfolioConfig struct {
	StartingCapital     float64 `mapstructure:"starting_capital"`
	MaxFractionToUse    float64 `mapstructure:"max_fraction_to_use"`
	MaxFractionPerTrade float64 `mapstructure:"max_fraction_per_trade"`
}

// FeesConfig selects the fee schedules applied to fills.
type FeesConfig struct {
	File      string `mapstructure:"file"`      // pricing YAML; empty disables fees
	Brokerage string `mapstructure:"brokerage"` // key into the pricing document
	Symbol    string `mapstructure:"symbol"`    // non-empty selects futures-option fees
}

// OutputConfig holds output destinations.
type OutputConfig struct {
	LedgerPath string `mapstructure:"ledger_path"`
	DBPath     string `mapstructure:"db_path"` // empty disables the run store
	RunName    string `mapstructure:"run_name"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-backtester"
	}
	return filepath.Join(home, ".config", "options-backtester")
}

// Load loads a run configuration from the specified YAML file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("data.provider", "cboe")
	v.SetDefault("strategy.multiplier", 100)
	v.SetDefault("strategy.optimal_dte", 45)
	v.SetDefault("risk.policy", "hold_to_expiration")
	v.SetDefault("portfolio.starting_capital", 1_000_000.0)
	v.SetDefault("portfolio.max_fraction_to_use", 0.5)
	v.SetDefault("portfolio.max_fraction_per_trade", 0.5)
	v.SetDefault("fees.brokerage", "tastyworks")
	v.SetDefault("output.ledger_path", "ledger.csv")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			if werr := writeTemplate(path, runConfigTemplate); werr == nil {
				return nil, fmt.Errorf("config file %s not found; a template was written there, edit it and re-run", path)
			}
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate validates the run configuration.
func (c *Config) Validate() error {
	if c.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}
	if c.Strategy.Ticker == "" {
		return fmt.Errorf("strategy.ticker is required")
	}
	if c.Strategy.Kind == "" {
		return fmt.Errorf("strategy.kind is required")
	}
	if c.Strategy.Multiplier <= 0 {
		return fmt.Errorf("strategy.multiplier must be positive")
	}
	if c.Strategy.MaxDTE != 0 && c.Strategy.MaxDTE < c.Strategy.MinDTE {
		return fmt.Errorf("strategy.max_dte must be >= strategy.min_dte")
	}
	if _, err := c.Strategy.StartTime(); err != nil {
		return fmt.Errorf("strategy.start_date: %w", err)
	}
	if c.Portfolio.StartingCapital <= 0 {
		return fmt.Errorf("portfolio.starting_capital must be positive")
	}
	if c.Portfolio.MaxFractionToUse <= 0 || c.Portfolio.MaxFractionToUse > 1 {
		return fmt.Errorf("portfolio.max_fraction_to_use must be in (0, 1]")
	}
	if c.Portfolio.MaxFractionPerTrade <= 0 || c.Portfolio.MaxFractionPerTrade > 1 {
		return fmt.Errorf("portfolio.max_fraction_per_trade must be in (0, 1]")
	}
	if c.Fees.File != "" && c.Fees.Brokerage == "" {
		return fmt.Errorf("fees.brokerage is required when fees.file is set")
	}
	return nil
}
