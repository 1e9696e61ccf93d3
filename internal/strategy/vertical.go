package strategy

import (
	"options-backtester/internal/engine"
	"options-backtester/internal/models"
	"options-backtester/internal/position"
)

// putVertical trades a two-put spread: sold as a credit spread or bought
// as a debit spread depending on direction.
type putVertical struct {
	baseStrategy
	direction models.Direction
}

// OnChain implements engine.Strategy.
func (s *putVertical) OnChain(chain *models.ChainEvent) *engine.SignalEvent {
	if s.gated(chain.Time) {
		return nil
	}

	shortSel := s.selector(models.Put, s.cfg.ShortPut)
	short, shortReport := shortSel.selectBest(chain)
	if short == nil {
		s.logScan("short_put", shortReport)
		return nil
	}

	// The long leg must share the short leg's expiration.
	longSel := s.selector(models.Put, s.cfg.LongPut)
	longSel.expiration = short.Expiration
	long, longReport := longSel.selectBest(chain)
	if long == nil {
		s.logScan("long_put", longReport)
		return nil
	}
	if long.Strike.Equal(short.Strike) {
		s.logger.Debug().
			Str("strike", short.Strike.String()).
			Msg("Short and long legs collapsed onto one strike, skipping signal")
		return nil
	}

	prim, err := position.NewPutVertical(short, long, s.direction, s.fees, s.cfg.Multiplier, s.logger)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Candidate put vertical rejected")
		return nil
	}
	return s.emit(prim)
}
