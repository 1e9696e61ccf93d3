package strategy

import (
	"options-backtester/internal/engine"
	"options-backtester/internal/models"
	"options-backtester/internal/position"
)

// shortNakedPut sells a single uncovered put per signal.
type shortNakedPut struct {
	baseStrategy
}

// OnChain implements engine.Strategy.
func (s *shortNakedPut) OnChain(chain *models.ChainEvent) *engine.SignalEvent {
	if s.gated(chain.Time) {
		return nil
	}

	sel := s.selector(models.Put, s.cfg.ShortPut)
	put, report := sel.selectBest(chain)
	if put == nil {
		s.logScan("short_put", report)
		return nil
	}

	prim, err := position.NewNakedPut(put, s.fees, s.cfg.Multiplier, s.logger)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Candidate naked put rejected")
		return nil
	}
	return s.emit(prim)
}
