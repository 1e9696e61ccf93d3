package strategy

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"options-backtester/internal/config"
	"options-backtester/internal/engine"
	"options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/internal/position"
	"options-backtester/internal/risk"
)

// CapitalView is the portfolio state a strategy needs for position sizing.
type CapitalView interface {
	NetLiquidity() decimal.Decimal
	AvailableBuyingPower() decimal.Decimal
	PerTradeCap() decimal.Decimal
}

// New builds the configured strategy. An unknown kind is a fatal
// configuration error.
func New(cfg config.StrategyConfig, fees *config.OpenClose, capital CapitalView, mgr risk.Manager, logger zerolog.Logger) (engine.Strategy, error) {
	start, err := cfg.StartTime()
	if err != nil {
		return nil, errors.NewConfigError("strategy.start_date", cfg.StartDate, err)
	}

	b := baseStrategy{
		cfg:     cfg,
		fees:    fees,
		capital: capital,
		mgr:     mgr,
		start:   start,
		logger:  logger.With().Str("component", "strategy").Str("kind", cfg.Kind).Logger(),
	}

	switch cfg.Kind {
	case "short_strangle":
		return &shortStrangle{baseStrategy: b}, nil
	case "short_put_vertical":
		return &putVertical{baseStrategy: b, direction: models.Sell}, nil
	case "long_put_vertical":
		return &putVertical{baseStrategy: b, direction: models.Buy}, nil
	case "short_naked_put":
		return &shortNakedPut{baseStrategy: b}, nil
	default:
		return nil, errors.NewConfigError("strategy.kind", cfg.Kind, errors.ErrUnknownStrategy)
	}
}

// baseStrategy carries the state shared by all variants.
type baseStrategy struct {
	cfg     config.StrategyConfig
	fees    *config.OpenClose
	capital CapitalView
	mgr     risk.Manager
	start   time.Time
	logger  zerolog.Logger
}

// gated reports whether the tick predates the configured start date.
func (b *baseStrategy) gated(tick time.Time) bool {
	return !b.start.IsZero() && tick.Before(b.start)
}

// selector builds a leg selector for one role.
func (b *baseStrategy) selector(typ models.OptionType, window config.LegWindow) legSelector {
	return legSelector{
		ticker:      b.cfg.Ticker,
		typ:         typ,
		window:      window,
		minDTE:      b.cfg.MinDTE,
		maxDTE:      b.cfg.MaxDTE,
		optimalDTE:  b.cfg.OptimalDTE,
		maxBidAsk:   decimal.NewFromFloat(b.cfg.MaxBidAsk),
		monthlyOnly: b.cfg.MonthlyOnly,
	}
}

// size decides the order quantity for a candidate sized at quantity one:
// the floor of the per-trade capital budget divided by the capital one
// spread needs (buying power plus opening fees). Zero means no signal.
func (b *baseStrategy) size(prim position.Primitive) int {
	needed := prim.BuyingPower().Add(prim.Fees(position.FeeOpen))
	if needed.Sign() <= 0 {
		return 0
	}
	budget := decimal.Min(b.capital.AvailableBuyingPower(), b.capital.PerTradeCap())
	qty := budget.Div(needed).IntPart()
	if qty < 1 {
		return 0
	}
	return int(qty)
}

// emit wraps a sized candidate into a signal event.
func (b *baseStrategy) emit(prim position.Primitive) *engine.SignalEvent {
	qty := b.size(prim)
	if qty == 0 {
		b.logger.Debug().Str("ticker", prim.Ticker()).Msg("No capital for candidate, skipping signal")
		return nil
	}
	prim.SetQuantity(qty)
	b.logger.Debug().
		Str("ticker", prim.Ticker()).
		Str("kind", prim.Kind()).
		Int("quantity", qty).
		Msg("Signal")
	return &engine.SignalEvent{Primitive: prim, Risk: b.mgr}
}

// logScan records why candidates were discarded, at debug level.
func (b *baseStrategy) logScan(role string, report ScanReport) {
	ev := b.logger.Debug().Str("role", role)
	for reason, count := range report {
		ev = ev.Int(reason.String(), count)
	}
	ev.Msg("No candidate found")
}
