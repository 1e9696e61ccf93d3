package strategy

import (
	"options-backtester/internal/engine"
	"options-backtester/internal/models"
	"options-backtester/internal/position"
)

// shortStrangle sells one out-of-the-money put and one out-of-the-money
// call per signal.
type shortStrangle struct {
	baseStrategy
}

// OnChain implements engine.Strategy.
func (s *shortStrangle) OnChain(chain *models.ChainEvent) *engine.SignalEvent {
	if s.gated(chain.Time) {
		return nil
	}

	putSel := s.selector(models.Put, s.cfg.ShortPut)
	callSel := s.selector(models.Call, s.cfg.ShortCall)

	put, putReport := putSel.selectBest(chain)
	if put == nil {
		s.logScan("short_put", putReport)
		return nil
	}
	call, callReport := callSel.selectBest(chain)
	if call == nil {
		s.logScan("short_call", callReport)
		return nil
	}

	prim, err := position.NewStrangle(put, call, models.Sell, s.fees, s.cfg.Multiplier, s.logger)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Candidate strangle rejected")
		return nil
	}
	return s.emit(prim)
}
