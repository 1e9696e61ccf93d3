package position

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"options-backtester/internal/config"
	"options-backtester/internal/models"
)

// Strangle is one put and one call on the same underlying. Direction Sell
// is a short strangle (both legs sold); expirations may differ.
type Strangle struct {
	base
	put       Leg
	call      Leg
	direction models.Direction
	logger    zerolog.Logger
}

// NewStrangle composes a strangle from two chain records. Records are
// cloned; the primitive owns its copies.
func NewStrangle(put, call *models.OptionRecord, direction models.Direction, fees *config.OpenClose, multiplier int, logger zerolog.Logger) (*Strangle, error) {
	if put.Type != models.Put {
		return nil, fmt.Errorf("strangle put leg has type %s", put.Type)
	}
	if call.Type != models.Call {
		return nil, fmt.Errorf("strangle call leg has type %s", call.Type)
	}
	if put.Ticker != call.Ticker {
		return nil, fmt.Errorf("strangle legs must share underlying, got %s/%s", put.Ticker, call.Ticker)
	}
	return &Strangle{
		base:      newBase(multiplier, fees),
		put:       Leg{Record: anchorTradePrice(put), Side: direction},
		call:      Leg{Record: anchorTradePrice(call), Side: direction},
		direction: direction,
		logger:    logger,
	}, nil
}

// Kind implements Primitive.
func (g *Strangle) Kind() string { return "strangle" }

// Ticker implements Primitive.
func (g *Strangle) Ticker() string { return g.put.Record.Ticker }

// Legs implements Primitive.
func (g *Strangle) Legs() []Leg { return []Leg{g.put, g.call} }

// Direction returns Sell for a short strangle.
func (g *Strangle) Direction() models.Direction { return g.direction }

// Delta implements Primitive.
func (g *Strangle) Delta() *float64 {
	return aggregateGreek(g.Legs(), g.qty, func(r *models.OptionRecord) *float64 { return r.Delta })
}

// Gamma implements Primitive.
func (g *Strangle) Gamma() *float64 {
	return aggregateGreek(g.Legs(), g.qty, func(r *models.OptionRecord) *float64 { return r.Gamma })
}

// Theta implements Primitive.
func (g *Strangle) Theta() *float64 {
	return aggregateGreek(g.Legs(), g.qty, func(r *models.OptionRecord) *float64 { return r.Theta })
}

// Vega implements Primitive.
func (g *Strangle) Vega() *float64 {
	return aggregateGreek(g.Legs(), g.qty, func(r *models.OptionRecord) *float64 { return r.Vega })
}

// ProfitLoss implements Primitive.
func (g *Strangle) ProfitLoss() decimal.Decimal {
	return profitLoss(g.Legs(), g.qty, g.multiplier)
}

// ProfitLossPct implements Primitive.
func (g *Strangle) ProfitLossPct() float64 {
	return profitLossPct(g.Legs(), g.qty, g.multiplier)
}

// BuyingPower returns the cash-settled index strangle requirement: the
// greater of the 25%-of-underlying method and the 15%-of-strike method. In
// each method the side with the greater requirement uses its own formula
// and the opposite side contributes its premium; ties go to the leg with
// the higher mid. A long strangle simply requires the premium paid.
func (g *Strangle) BuyingPower() decimal.Decimal {
	scale := decimal.NewFromInt(int64(g.qty * g.multiplier))
	putMid := g.put.Record.Mid()
	callMid := g.call.Record.Mid()

	if g.direction == models.Buy {
		return putMid.Add(callMid).Mul(scale)
	}

	s := g.put.Record.UnderlyingPrice
	putOTM := decimal.Max(decimal.Zero, s.Sub(g.put.Record.Strike))
	callOTM := decimal.Max(decimal.Zero, g.call.Record.Strike.Sub(s))

	put25 := pct25.Mul(s).Sub(putOTM).Add(putMid)
	call25 := pct25.Mul(s).Sub(callOTM).Add(callMid)
	method1 := dominantSide(put25, call25, putMid, callMid)

	put15 := pct15.Mul(g.put.Record.Strike).Add(putMid)
	call15 := pct15.Mul(g.call.Record.Strike).Add(callMid)
	method2 := dominantSide(put15, call15, putMid, callMid)

	bp := decimal.Max(method1, method2).Mul(scale)
	if bp.Sign() <= 0 {
		g.logger.Warn().
			Str("ticker", g.Ticker()).
			Str("buying_power", bp.String()).
			Msg("Non-positive buying power for strangle")
	}
	return bp
}

// dominantSide applies one margin method: the side with the greater
// requirement keeps its formula and picks up the other side's premium as
// extra margin. Ties break toward the leg with the higher mid.
func dominantSide(putReq, callReq, putMid, callMid decimal.Decimal) decimal.Decimal {
	switch putReq.Cmp(callReq) {
	case 1:
		return putReq.Add(callMid)
	case -1:
		return callReq.Add(putMid)
	default:
		if putMid.GreaterThanOrEqual(callMid) {
			return putReq.Add(callMid)
		}
		return callReq.Add(putMid)
	}
}

// Fees implements Primitive.
func (g *Strangle) Fees(stage FeeStage) decimal.Decimal {
	return g.feesFor(g.Legs(), stage)
}

// UpdateFrom implements Primitive.
func (g *Strangle) UpdateFrom(chain *models.ChainEvent) error {
	return updateLegs(g.Legs(), chain)
}

// DTE implements Primitive.
func (g *Strangle) DTE() int { return minDTE(g.Legs()) }
