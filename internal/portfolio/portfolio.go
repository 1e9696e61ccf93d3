// Package portfolio is the bookkeeper of the simulation: it admits signals
// under capital rules, updates open positions each tick, consults the risk
// manager, and maintains realized capital and net liquidity.
package portfolio

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"options-backtester/internal/config"
	"options-backtester/internal/models"
	"options-backtester/internal/position"
	"options-backtester/internal/risk"
)

// Stats is a point-in-time snapshot used for the per-tick ledger.
type Stats struct {
	NetLiq          decimal.Decimal
	RealizedCapital decimal.Decimal
	NumPositions    int
	TotalContracts  int
	BuyingPowerUsed decimal.Decimal
	TotalDelta      float64
	TotalGamma      float64
	TotalTheta      float64
	TotalVega       float64
	Wins            int
	Losses          int
}

type openPosition struct {
	prim position.Primitive
	mgr  risk.Manager
}

// Portfolio owns the set of open positions. It is mutated only from the
// event loop; there is no internal locking.
type Portfolio struct {
	logger zerolog.Logger

	maxFractionToUse    decimal.Decimal
	maxFractionPerTrade decimal.Decimal

	realized  decimal.Decimal
	netLiq    decimal.Decimal
	bpUsed    decimal.Decimal
	delta     float64
	gamma     float64
	theta     float64
	vega      float64
	contracts int

	positions []*openPosition
	wins      int
	losses    int
}

// New creates a portfolio with the configured starting capital and caps.
func New(cfg config.PortfolioConfig, logger zerolog.Logger) *Portfolio {
	capital := decimal.NewFromFloat(cfg.StartingCapital)
	return &Portfolio{
		logger:              logger.With().Str("component", "portfolio").Logger(),
		maxFractionToUse:    decimal.NewFromFloat(cfg.MaxFractionToUse),
		maxFractionPerTrade: decimal.NewFromFloat(cfg.MaxFractionPerTrade),
		realized:            capital,
		netLiq:              capital,
	}
}

// NetLiquidity returns realized capital plus open P/L as of the last tick.
func (p *Portfolio) NetLiquidity() decimal.Decimal { return p.netLiq }

// RealizedCapital returns starting capital plus the running sum of closed
// P/L net of fees.
func (p *Portfolio) RealizedCapital() decimal.Decimal { return p.realized }

// AvailableBuyingPower returns the unused portion of the portfolio-wide
// buying-power budget.
func (p *Portfolio) AvailableBuyingPower() decimal.Decimal {
	avail := p.maxFractionToUse.Mul(p.netLiq).Sub(p.bpUsed)
	return decimal.Max(avail, decimal.Zero)
}

// PerTradeCap returns the buying-power ceiling for any single trade.
func (p *Portfolio) PerTradeCap() decimal.Decimal {
	return p.maxFractionPerTrade.Mul(p.netLiq)
}

// HasPosition reports whether a position on the ticker is already open.
func (p *Portfolio) HasPosition(ticker string) bool {
	for _, pos := range p.positions {
		if pos.prim.Ticker() == ticker {
			return true
		}
	}
	return false
}

// Positions returns the open primitives.
func (p *Portfolio) Positions() []position.Primitive {
	prims := make([]position.Primitive, len(p.positions))
	for i, pos := range p.positions {
		prims[i] = pos.prim
	}
	return prims
}

// Admit applies the capital rules to a signal. A rejected signal is logged
// and dropped; it is never an error.
func (p *Portfolio) Admit(prim position.Primitive, mgr risk.Manager) bool {
	ticker := prim.Ticker()

	if p.HasPosition(ticker) {
		p.logger.Debug().Str("ticker", ticker).Msg("Rejecting signal: position already open")
		return false
	}
	if p.bpUsed.GreaterThanOrEqual(p.maxFractionToUse.Mul(p.netLiq)) {
		p.logger.Debug().Str("ticker", ticker).Msg("Rejecting signal: buying-power budget exhausted")
		return false
	}
	bp := prim.BuyingPower()
	if bp.GreaterThanOrEqual(p.PerTradeCap()) {
		p.logger.Debug().
			Str("ticker", ticker).
			Str("buying_power", bp.String()).
			Msg("Rejecting signal: exceeds per-trade cap")
		return false
	}

	openFees := prim.Fees(position.FeeOpen)
	p.realized = p.realized.Sub(openFees)
	p.netLiq = p.netLiq.Sub(openFees)

	p.positions = append(p.positions, &openPosition{prim: prim, mgr: mgr})
	p.bpUsed = p.bpUsed.Add(bp)
	p.addGreeks(prim)
	p.contracts += prim.Quantity() * len(prim.Legs())

	p.logger.Info().
		Str("ticker", ticker).
		Str("kind", prim.Kind()).
		Int("quantity", prim.Quantity()).
		Str("buying_power", bp.String()).
		Str("policy", mgr.Name()).
		Msg("Position opened")
	return true
}

// OnChain updates every position against the new chain, closes what the
// risk manager says to close (and whatever can no longer be updated), and
// republishes aggregates. Runs after the strategy has seen the same chain.
func (p *Portfolio) OnChain(chain *models.ChainEvent) {
	p.delta, p.gamma, p.theta, p.vega = 0, 0, 0, 0
	p.bpUsed = decimal.Zero
	p.contracts = 0
	openPL := decimal.Zero

	survivors := p.positions[:0]
	for _, pos := range p.positions {
		if err := pos.prim.UpdateFrom(chain); err != nil {
			// The contract vanished from the chain; close at the last
			// known marks.
			p.close(pos.prim, "leg vanished from chain")
			continue
		}
		if pos.mgr.ShouldClose(pos.prim) {
			p.close(pos.prim, pos.mgr.Name())
			continue
		}

		survivors = append(survivors, pos)
		p.bpUsed = p.bpUsed.Add(pos.prim.BuyingPower())
		p.addGreeks(pos.prim)
		p.contracts += pos.prim.Quantity() * len(pos.prim.Legs())
		openPL = openPL.Add(pos.prim.ProfitLoss())
	}
	for i := len(survivors); i < len(p.positions); i++ {
		p.positions[i] = nil
	}
	p.positions = survivors

	p.netLiq = p.realized.Add(openPL)
}

// Stats returns the current snapshot.
func (p *Portfolio) Stats() Stats {
	return Stats{
		NetLiq:          p.netLiq,
		RealizedCapital: p.realized,
		NumPositions:    len(p.positions),
		TotalContracts:  p.contracts,
		BuyingPowerUsed: p.bpUsed,
		TotalDelta:      p.delta,
		TotalGamma:      p.gamma,
		TotalTheta:      p.theta,
		TotalVega:       p.vega,
		Wins:            p.wins,
		Losses:          p.losses,
	}
}

// close realizes a position's P/L, net of closing fees, into capital.
func (p *Portfolio) close(prim position.Primitive, reason string) {
	pl := prim.ProfitLoss()
	fees := prim.Fees(position.FeeClose)
	p.realized = p.realized.Add(pl).Sub(fees)

	if pl.Sign() > 0 {
		p.wins++
	} else {
		p.losses++
	}

	p.logger.Info().
		Str("ticker", prim.Ticker()).
		Str("kind", prim.Kind()).
		Str("pnl", pl.String()).
		Str("fees", fees.String()).
		Str("reason", reason).
		Msg("Position closed")
}

// addGreeks accumulates a position's aggregate Greeks, treating a null
// Greek as zero with a warning.
func (p *Portfolio) addGreeks(prim position.Primitive) {
	p.delta += p.greekOrZero(prim, "delta", prim.Delta())
	p.gamma += p.greekOrZero(prim, "gamma", prim.Gamma())
	p.theta += p.greekOrZero(prim, "theta", prim.Theta())
	p.vega += p.greekOrZero(prim, "vega", prim.Vega())
}

func (p *Portfolio) greekOrZero(prim position.Primitive, name string, v *float64) float64 {
	if v == nil {
		p.logger.Warn().
			Str("ticker", prim.Ticker()).
			Str("greek", name).
			Msg("Aggregate Greek unavailable, treating as zero")
		return 0
	}
	return *v
}
