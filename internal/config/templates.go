package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const runConfigTemplate = `# options-backtester run configuration

data:
  # Path to the historical option data CSV
  path: "data/spx_eod.csv"
  # Data provider: "cboe" or "historicaloptiondata"
  provider: "cboe"

strategy:
  # One of: short_strangle, short_put_vertical, long_put_vertical, short_naked_put
  kind: "short_strangle"
  ticker: "SPX"
  # Skip ticks before this date (YYYY-MM-DD); empty disables gating
  start_date: ""
  min_dte: 30
  max_dte: 60
  optimal_dte: 45
  # Restrict entries to monthly expirations
  monthly_only: true
  multiplier: 100
  # Reject legs whose bid/ask spread exceeds this (0 disables)
  max_bid_ask: 0.0
  short_put:
    min_delta: -0.20
    max_delta: -0.10
    optimal_delta: -0.16
  short_call:
    min_delta: 0.10
    max_delta: 0.20
    optimal_delta: 0.16
  long_put:
    min_delta: -0.10
    max_delta: -0.02
    optimal_delta: -0.05

risk:
  # One of: hold_to_expiration, close_at_50, close_at_50_or_21_days,
  # close_at_50_or_21_days_or_half_loss, close_at_21_days, close_at_fixed_dte
  policy: "close_at_50_or_21_days"
  fixed_dte: 30

portfolio:
  starting_capital: 1000000.0
  max_fraction_to_use: 0.5
  max_fraction_per_trade: 0.5

fees:
  # Pricing-source YAML; empty runs without commissions or fees
  file: ""
  brokerage: "tastyworks"
  # Set to a futures root (e.g. "ES") to use futures-option schedules
  symbol: ""

output:
  ledger_path: "ledger.csv"
  # SQLite run-summary database; empty disables
  db_path: ""
  run_name: ""
`

const pricingTemplate = `# Per-contract commissions and fees, keyed by brokerage.
# The SEC fee is multiplied by the option mid price; all others are flat.

tastyworks:
  stock_options:
    index_option:
      open:
        commission_per_contract: 1.0
        clearing_fee_per_contract: 0.10
        orf_fee_per_contract: 0.02915
        finra_taf_per_contract: 0.0
        proprietary_index_fee_per_contract: 0.0
        sec_fee_per_contract_wo_trade_price: 0.0
        nfa_fee_per_contract: 0.0
        exchange_fee_per_contract: 0.0
      close:
        commission_per_contract: 0.0
        clearing_fee_per_contract: 0.10
        orf_fee_per_contract: 0.02915
        finra_taf_per_contract: 0.002
        proprietary_index_fee_per_contract: 0.0
        sec_fee_per_contract_wo_trade_price: 0.0000221
        nfa_fee_per_contract: 0.0
        exchange_fee_per_contract: 0.0
  futures_options:
    ES:
      open:
        commission_per_contract: 1.25
        clearing_fee_per_contract: 0.30
        orf_fee_per_contract: 0.0
        finra_taf_per_contract: 0.0
        proprietary_index_fee_per_contract: 0.0
        sec_fee_per_contract_wo_trade_price: 0.0
        nfa_fee_per_contract: 0.02
        exchange_fee_per_contract: 1.42
      close:
        commission_per_contract: 1.25
        clearing_fee_per_contract: 0.30
        orf_fee_per_contract: 0.0
        finra_taf_per_contract: 0.0
        proprietary_index_fee_per_contract: 0.0
        sec_fee_per_contract_wo_trade_price: 0.0
        nfa_fee_per_contract: 0.02
        exchange_fee_per_contract: 1.42
`

// WriteRunTemplate writes the annotated run-configuration template to path.
// It refuses to overwrite an existing file.
func WriteRunTemplate(path string) error {
	return writeTemplate(path, runConfigTemplate)
}

// WritePricingTemplate writes the pricing-source template to path.
func WritePricingTemplate(path string) error {
	return writeTemplate(path, pricingTemplate)
}

func writeTemplate(path, content string) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing file: %s", path)
	}
	return os.WriteFile(path, []byte(content), 0644)
}
