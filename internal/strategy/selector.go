package strategy

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"options-backtester/internal/config"
	"options-backtester/internal/models"
)

// legSelector scans a chain for the single best leg of one role.
type legSelector struct {
	ticker      string
	typ         models.OptionType
	window      config.LegWindow
	minDTE      int
	maxDTE      int // 0 = unset
	optimalDTE  int
	maxBidAsk   decimal.Decimal // zero = unset
	monthlyOnly bool
	expiration  time.Time // zero = any expiration
}

// filter applies the per-leg predicates in order and reports the first
// failure.
func (s *legSelector) filter(rec *models.OptionRecord) Reason {
	if rec.Ticker != s.ticker {
		return ReasonWrongTicker
	}
	if rec.Delta == nil {
		return ReasonNoDelta
	}
	if rec.Settlement == nil {
		return ReasonNoSettlement
	}
	dte := rec.DTE()
	if dte < s.minDTE {
		return ReasonMinDTE
	}
	if s.maxDTE > 0 && dte > s.maxDTE {
		return ReasonMaxDTE
	}
	if *rec.Delta < s.window.MinDelta || *rec.Delta > s.window.MaxDelta {
		return ReasonDeltaWindow
	}
	if !s.maxBidAsk.IsZero() && rec.Ask.Sub(rec.Bid).Abs().GreaterThan(s.maxBidAsk) {
		return ReasonBidAsk
	}
	return ReasonOK
}

// selectBest scans the chain and returns the candidate whose DTE is closest
// to the optimal DTE, breaking ties by delta closest to the optimal delta.
// A later candidate that is not strictly closer leaves the current optimum
// unchanged.
func (s *legSelector) selectBest(chain *models.ChainEvent) (*models.OptionRecord, ScanReport) {
	report := make(ScanReport)

	var best *models.OptionRecord
	var bestDTEDiff int
	var bestDeltaDiff float64

	for _, rec := range chain.Records {
		if rec.Type != s.typ {
			continue
		}
		if s.monthlyOnly && !isMonthlyExpiration(rec.Expiration) {
			continue
		}
		if !s.expiration.IsZero() && !rec.Expiration.Equal(s.expiration) {
			continue
		}

		reason := s.filter(rec)
		report.add(reason)
		if reason != ReasonOK {
			continue
		}

		dteDiff := abs(rec.DTE() - s.optimalDTE)
		deltaDiff := math.Abs(*rec.Delta - s.window.OptimalDelta)

		switch {
		case best == nil:
		case dteDiff < bestDTEDiff:
		case dteDiff == bestDTEDiff && deltaDiff < bestDeltaDiff:
		default:
			continue
		}
		best = rec
		bestDTEDiff = dteDiff
		bestDeltaDiff = deltaDiff
	}

	return best, report
}

// isMonthlyExpiration detects a standard monthly expiration: the third
// Friday, with the day of month strictly between 14 and 22.
func isMonthlyExpiration(t time.Time) bool {
	return t.Weekday() == time.Friday && t.Day() > 14 && t.Day() < 22
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
