// Package position implements composable option primitives: naked puts,
// put verticals, and strangles. A primitive owns its legs and knows its
// aggregate Greeks, profit/loss, buying power, and fees.
package position

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"options-backtester/internal/config"
	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

// FeeStage selects the opening or closing fee schedule.
type FeeStage int

const (
	// FeeOpen is the opening stage.
	FeeOpen FeeStage = iota
	// FeeClose is the closing stage.
	FeeClose
)

// Leg is one option record plus the side it was transacted on.
type Leg struct {
	Record *models.OptionRecord
	Side   models.Direction
}

// Primitive is the capability set shared by all trade variants.
type Primitive interface {
	// ID is a unique identifier assigned at construction.
	ID() string
	// Kind names the variant ("naked_put", "put_vertical", "strangle").
	Kind() string
	// Ticker is the shared underlying ticker of all legs.
	Ticker() string
	// Quantity is the order quantity (number of spreads/contracts).
	Quantity() int
	// SetQuantity fixes the order quantity decided by position sizing.
	SetQuantity(qty int)
	// Multiplier is the contract multiplier (typically 100).
	Multiplier() int
	// Legs returns the owned legs.
	Legs() []Leg

	// Aggregate Greeks. Nil when any leg's corresponding Greek is nil.
	Delta() *float64
	Gamma() *float64
	Theta() *float64
	Vega() *float64

	// ProfitLoss is the mark-to-market P/L in dollars.
	ProfitLoss() decimal.Decimal
	// ProfitLossPct is the P/L as a percentage of premium at risk.
	ProfitLossPct() float64
	// BuyingPower is the capital the brokerage requires to hold this.
	BuyingPower() decimal.Decimal
	// Fees returns total commissions and fees for the given stage.
	Fees(stage FeeStage) decimal.Decimal

	// UpdateFrom refreshes every leg from a new chain event. If any leg is
	// missing from the chain no leg is modified and an error is returned.
	UpdateFrom(chain *models.ChainEvent) error
	// DTE is whole days to the nearest leg expiration.
	DTE() int
}

// base carries the state common to all variants.
type base struct {
	id         string
	qty        int
	multiplier int
	fees       *config.OpenClose
}

func newBase(multiplier int, fees *config.OpenClose) base {
	return base{
		id:         uuid.NewString(),
		qty:        1,
		multiplier: multiplier,
		fees:       fees,
	}
}

func (b *base) ID() string      { return b.id }
func (b *base) Quantity() int   { return b.qty }
func (b *base) Multiplier() int { return b.multiplier }

func (b *base) SetQuantity(qty int) {
	if qty < 1 {
		qty = 1
	}
	b.qty = qty
}

// aggregateGreek sums one Greek across legs, negating sold legs, scaled by
// the order quantity. Nil propagates all-or-nothing: one nil leg Greek makes
// the aggregate nil.
func aggregateGreek(legs []Leg, qty int, get func(*models.OptionRecord) *float64) *float64 {
	total := 0.0
	for _, leg := range legs {
		g := get(leg.Record)
		if g == nil {
			return nil
		}
		v := *g
		if leg.Side == models.Sell {
			v = -v
		}
		total += v
	}
	total *= float64(qty)
	return &total
}

// profitLoss marks the legs to the current mid. Sold legs profit when the
// mid drops below the trade price, bought legs when it rises.
func profitLoss(legs []Leg, qty, multiplier int) decimal.Decimal {
	total := decimal.Zero
	for _, leg := range legs {
		d := leg.Record.TradePrice.Sub(leg.Record.Mid())
		if leg.Side == models.Buy {
			d = d.Neg()
		}
		total = total.Add(d)
	}
	return total.Mul(decimal.NewFromInt(int64(qty * multiplier)))
}

// profitLossPct expresses P/L as a percentage of the total absolute premium.
func profitLossPct(legs []Leg, qty, multiplier int) float64 {
	premium := decimal.Zero
	for _, leg := range legs {
		premium = premium.Add(leg.Record.TradePrice.Abs())
	}
	capital := premium.Mul(decimal.NewFromInt(int64(qty * multiplier)))
	if capital.IsZero() {
		return 0
	}
	pl := profitLoss(legs, qty, multiplier)
	pct, _ := pl.Div(capital).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// updateLegs refreshes all legs from the chain, two-phase so a partially
// matched chain leaves the primitive untouched.
func updateLegs(legs []Leg, chain *models.ChainEvent) error {
	matched := make([]*models.OptionRecord, len(legs))
	for i, leg := range legs {
		rec := chain.Find(leg.Record.Ticker, leg.Record.Type, leg.Record.Strike, leg.Record.Expiration)
		if rec == nil {
			return errors.NewUpdateError(leg.Record.Ticker,
				string(leg.Record.Type)+" "+leg.Record.Strike.String(), errors.ErrLegNotInChain)
		}
		matched[i] = rec
	}
	for i, leg := range legs {
		if err := leg.Record.UpdateFrom(matched[i]); err != nil {
			return err
		}
	}
	return nil
}

// minDTE returns whole days to the earliest leg expiration.
func minDTE(legs []Leg) int {
	dte := legs[0].Record.DTE()
	for _, leg := range legs[1:] {
		if d := leg.Record.DTE(); d < dte {
			dte = d
		}
	}
	return dte
}

// stageFees computes per-contract commissions and fees for the legs. The
// SEC fee scales with the leg mid; everything else is flat per contract.
func stageFees(legs []Leg, qty int, fs *config.FeeSchedule) decimal.Decimal {
	flat := decimal.NewFromFloat(fs.CommissionPerContract).
		Add(decimal.NewFromFloat(fs.ClearingFeePerContract)).
		Add(decimal.NewFromFloat(fs.ORFFeePerContract)).
		Add(decimal.NewFromFloat(fs.FinraTafPerContract)).
		Add(decimal.NewFromFloat(fs.ProprietaryIndexFeePerContract)).
		Add(decimal.NewFromFloat(fs.NFAFeePerContract)).
		Add(decimal.NewFromFloat(fs.ExchangeFeePerContract))

	total := decimal.Zero
	for _, leg := range legs {
		sec := decimal.NewFromFloat(fs.SECFeePerContractWoTradePrice).Mul(leg.Record.Mid())
		total = total.Add(flat).Add(sec)
	}
	return total.Mul(decimal.NewFromInt(int64(qty)))
}

func (b *base) feesFor(legs []Leg, stage FeeStage) decimal.Decimal {
	if b.fees == nil {
		return decimal.Zero
	}
	switch stage {
	case FeeClose:
		return stageFees(legs, b.qty, &b.fees.Close)
	default:
		return stageFees(legs, b.qty, &b.fees.Open)
	}
}

// anchorTradePrice clones a chain record and stamps the fill price, which
// is assumed to be the mid at composition time.
func anchorTradePrice(rec *models.OptionRecord) *models.OptionRecord {
	c := rec.Clone()
	c.TradePrice = c.Mid()
	return c
}
