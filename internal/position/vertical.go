package position

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"options-backtester/internal/config"
	"options-backtester/internal/models"
)

// PutVertical is a two-leg put spread: one put sold and one put bought,
// same underlying and expiration, different strikes. Direction Sell is a
// credit (short) vertical; Buy is a debit (long) vertical.
type PutVertical struct {
	base
	short     Leg // the leg sold
	long      Leg // the leg bought
	direction models.Direction
	logger    zerolog.Logger
}

// NewPutVertical composes a put vertical from two chain records. Records
// are cloned; the primitive owns its copies. Legs must share underlying and
// expiration and must differ in strike.
func NewPutVertical(shortPut, longPut *models.OptionRecord, direction models.Direction, fees *config.OpenClose, multiplier int, logger zerolog.Logger) (*PutVertical, error) {
	if shortPut.Type != models.Put || longPut.Type != models.Put {
		return nil, fmt.Errorf("put vertical requires two puts, got %s/%s", shortPut.Type, longPut.Type)
	}
	if shortPut.Ticker != longPut.Ticker {
		return nil, fmt.Errorf("put vertical legs must share underlying, got %s/%s", shortPut.Ticker, longPut.Ticker)
	}
	if !shortPut.Expiration.Equal(longPut.Expiration) {
		return nil, fmt.Errorf("put vertical legs must share expiration")
	}
	if shortPut.Strike.Equal(longPut.Strike) {
		return nil, fmt.Errorf("put vertical legs must differ in strike")
	}
	return &PutVertical{
		base:      newBase(multiplier, fees),
		short:     Leg{Record: anchorTradePrice(shortPut), Side: models.Sell},
		long:      Leg{Record: anchorTradePrice(longPut), Side: models.Buy},
		direction: direction,
		logger:    logger,
	}, nil
}

// Kind implements Primitive.
func (v *PutVertical) Kind() string { return "put_vertical" }

// Ticker implements Primitive.
func (v *PutVertical) Ticker() string { return v.short.Record.Ticker }

// Legs implements Primitive.
func (v *PutVertical) Legs() []Leg { return []Leg{v.short, v.long} }

// Direction returns Sell for a credit vertical, Buy for a debit vertical.
func (v *PutVertical) Direction() models.Direction { return v.direction }

// Delta implements Primitive.
func (v *PutVertical) Delta() *float64 {
	return aggregateGreek(v.Legs(), v.qty, func(r *models.OptionRecord) *float64 { return r.Delta })
}

// Gamma implements Primitive.
func (v *PutVertical) Gamma() *float64 {
	return aggregateGreek(v.Legs(), v.qty, func(r *models.OptionRecord) *float64 { return r.Gamma })
}

// Theta implements Primitive.
func (v *PutVertical) Theta() *float64 {
	return aggregateGreek(v.Legs(), v.qty, func(r *models.OptionRecord) *float64 { return r.Theta })
}

// Vega implements Primitive.
func (v *PutVertical) Vega() *float64 {
	return aggregateGreek(v.Legs(), v.qty, func(r *models.OptionRecord) *float64 { return r.Vega })
}

// ProfitLoss implements Primitive.
func (v *PutVertical) ProfitLoss() decimal.Decimal {
	return profitLoss(v.Legs(), v.qty, v.multiplier)
}

// ProfitLossPct implements Primitive.
func (v *PutVertical) ProfitLossPct() float64 {
	return profitLossPct(v.Legs(), v.qty, v.multiplier)
}

// BuyingPower returns the spread requirement. A credit vertical requires
// the strike width less the net credit; a debit vertical requires the net
// debit.
func (v *PutVertical) BuyingPower() decimal.Decimal {
	shortMid := v.short.Record.Mid()
	longMid := v.long.Record.Mid()

	var per decimal.Decimal
	if v.direction == models.Sell {
		width := v.short.Record.Strike.Sub(v.long.Record.Strike)
		per = width.Sub(shortMid.Sub(longMid))
	} else {
		per = longMid.Sub(shortMid)
	}

	bp := per.Mul(decimal.NewFromInt(int64(v.qty * v.multiplier)))
	if bp.Sign() <= 0 {
		v.logger.Warn().
			Str("ticker", v.Ticker()).
			Str("buying_power", bp.String()).
			Msg("Non-positive buying power for put vertical")
	}
	return bp
}

// Fees implements Primitive.
func (v *PutVertical) Fees(stage FeeStage) decimal.Decimal {
	return v.feesFor(v.Legs(), stage)
}

// UpdateFrom implements Primitive.
func (v *PutVertical) UpdateFrom(chain *models.ChainEvent) error {
	return updateLegs(v.Legs(), chain)
}

// DTE implements Primitive.
func (v *PutVertical) DTE() int { return minDTE(v.Legs()) }
