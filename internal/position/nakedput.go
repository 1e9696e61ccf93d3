package position

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"options-backtester/internal/config"
	"options-backtester/internal/models"
)

var (
	pct10 = decimal.NewFromFloat(0.10)
	pct15 = decimal.NewFromFloat(0.15)
	pct20 = decimal.NewFromFloat(0.20)
	pct25 = decimal.NewFromFloat(0.25)
)

// NakedPut is a single short put against a cash-settled index.
type NakedPut struct {
	base
	put    Leg
	logger zerolog.Logger
}

// NewNakedPut composes a short naked put from a chain record. The record is
// cloned; the primitive owns its copy.
func NewNakedPut(put *models.OptionRecord, fees *config.OpenClose, multiplier int, logger zerolog.Logger) (*NakedPut, error) {
	if put.Type != models.Put {
		return nil, fmt.Errorf("naked put requires a put leg, got %s", put.Type)
	}
	return &NakedPut{
		base:   newBase(multiplier, fees),
		put:    Leg{Record: anchorTradePrice(put), Side: models.Sell},
		logger: logger,
	}, nil
}

// Kind implements Primitive.
func (n *NakedPut) Kind() string { return "naked_put" }

// Ticker implements Primitive.
func (n *NakedPut) Ticker() string { return n.put.Record.Ticker }

// Legs implements Primitive.
func (n *NakedPut) Legs() []Leg { return []Leg{n.put} }

// Delta implements Primitive.
func (n *NakedPut) Delta() *float64 {
	return aggregateGreek(n.Legs(), n.qty, func(r *models.OptionRecord) *float64 { return r.Delta })
}

// Gamma implements Primitive.
func (n *NakedPut) Gamma() *float64 {
	return aggregateGreek(n.Legs(), n.qty, func(r *models.OptionRecord) *float64 { return r.Gamma })
}

// Theta implements Primitive.
func (n *NakedPut) Theta() *float64 {
	return aggregateGreek(n.Legs(), n.qty, func(r *models.OptionRecord) *float64 { return r.Theta })
}

// Vega implements Primitive.
func (n *NakedPut) Vega() *float64 {
	return aggregateGreek(n.Legs(), n.qty, func(r *models.OptionRecord) *float64 { return r.Vega })
}

// ProfitLoss implements Primitive.
func (n *NakedPut) ProfitLoss() decimal.Decimal {
	return profitLoss(n.Legs(), n.qty, n.multiplier)
}

// ProfitLossPct implements Primitive.
func (n *NakedPut) ProfitLossPct() float64 {
	return profitLossPct(n.Legs(), n.qty, n.multiplier)
}

// BuyingPower returns the index naked-put requirement: the greater of
// 20% of the underlying less the out-of-the-money amount plus premium, and
// 10% of the strike plus premium.
func (n *NakedPut) BuyingPower() decimal.Decimal {
	s := n.put.Record.UnderlyingPrice
	k := n.put.Record.Strike
	mid := n.put.Record.Mid()

	otm := pct20.Mul(s).Sub(s.Sub(k)).Add(mid)
	floor := pct10.Mul(k).Add(mid)

	bp := decimal.Max(otm, floor).Mul(decimal.NewFromInt(int64(n.qty * n.multiplier)))
	if bp.Sign() <= 0 {
		n.logger.Warn().
			Str("ticker", n.Ticker()).
			Str("buying_power", bp.String()).
			Msg("Non-positive buying power for naked put")
	}
	return bp
}

// Fees implements Primitive.
func (n *NakedPut) Fees(stage FeeStage) decimal.Decimal {
	return n.feesFor(n.Legs(), stage)
}

// UpdateFrom implements Primitive.
func (n *NakedPut) UpdateFrom(chain *models.ChainEvent) error {
	return updateLegs(n.Legs(), chain)
}

// DTE implements Primitive.
func (n *NakedPut) DTE() int { return minDTE(n.Legs()) }
