// Package store persists backtest run summaries so parameter sweeps can be
// compared across sessions.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Run is one completed backtest, recorded after the simulation finishes.
type Run struct {
	ID            string
	Name          string
	Ticker        string
	Strategy      string
	RiskPolicy    string
	StartedAt     time.Time
	FinishedAt    time.Time
	Ticks         int
	FinalNetLiq   decimal.Decimal
	MaxDrawdown   decimal.Decimal
	MeanDailyPL   float64
	StdDevDailyPL float64
	Wins          int
	Losses        int
	LedgerPath    string
}

// RunStore records and retrieves run summaries.
type RunStore interface {
	SaveRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context) ([]*Run, error)
	Close() error
}
