package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"options-backtester/internal/errors"
)

// FeeSchedule holds per-contract fees for one order stage at one brokerage.
// All fees are flat per contract except the SEC fee, which is multiplied by
// the option mid price at execution time.
type FeeSchedule struct {
	CommissionPerContract          float64 `mapstructure:"commission_per_contract"`
	ClearingFeePerContract         float64 `mapstructure:"clearing_fee_per_contract"`
	ORFFeePerContract              float64 `mapstructure:"orf_fee_per_contract"`
	FinraTafPerContract            float64 `mapstructure:"finra_taf_per_contract"`
	ProprietaryIndexFeePerContract float64 `mapstructure:"proprietary_index_fee_per_contract"`
	SECFeePerContractWoTradePrice  float64 `mapstructure:"sec_fee_per_contract_wo_trade_price"`
	NFAFeePerContract              float64 `mapstructure:"nfa_fee_per_contract"`
	ExchangeFeePerContract         float64 `mapstructure:"exchange_fee_per_contract"`
}

// OpenClose pairs the opening and closing fee schedules for one product.
type OpenClose struct {
	Open  FeeSchedule `mapstructure:"open"`
	Close FeeSchedule `mapstructure:"close"`
}

// BrokerageFees holds all fee schedules for one brokerage.
type BrokerageFees struct {
	StockOptions struct {
		IndexOption OpenClose `mapstructure:"index_option"`
	} `mapstructure:"stock_options"`
	FuturesOptions map[string]OpenClose `mapstructure:"futures_options"`
}

// PricingConfig maps brokerage names to their fee schedules.
type PricingConfig map[string]BrokerageFees

// LoadPricing loads the pricing-source document from the specified YAML file.
func LoadPricing(path string) (PricingConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			if werr := writeTemplate(path, pricingTemplate); werr == nil {
				return nil, fmt.Errorf("pricing file %s not found; a template was written there, edit it and re-run", path)
			}
		}
		return nil, fmt.Errorf("reading pricing config %s: %w", path, err)
	}

	pc := PricingConfig{}
	if err := v.Unmarshal(&pc); err != nil {
		return nil, fmt.Errorf("parsing pricing config %s: %w", path, err)
	}
	return pc, nil
}

// IndexOption returns the index-option fee schedules for a brokerage.
// A missing brokerage is a fatal configuration error.
func (p PricingConfig) IndexOption(brokerage string) (*OpenClose, error) {
	fees, ok := p[brokerage]
	if !ok {
		return nil, errors.NewConfigError(brokerage, "brokerage not in pricing source", errors.ErrPricingKeyAbsent)
	}
	oc := fees.StockOptions.IndexOption
	return &oc, nil
}

// FuturesOption returns the futures-option fee schedules for a brokerage and
// contract symbol. A missing key is a fatal configuration error.
func (p PricingConfig) FuturesOption(brokerage, symbol string) (*OpenClose, error) {
	fees, ok := p[brokerage]
	if !ok {
		return nil, errors.NewConfigError(brokerage, "brokerage not in pricing source", errors.ErrPricingKeyAbsent)
	}
	oc, ok := fees.FuturesOptions[symbol]
	if !ok {
		return nil, errors.NewConfigError(brokerage+"."+symbol, "futures contract not in pricing source", errors.ErrPricingKeyAbsent)
	}
	return &oc, nil
}
