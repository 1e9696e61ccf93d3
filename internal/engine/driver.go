package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/internal/portfolio"
)

// ChainSource produces chain events in non-decreasing timestamp order and
// reports errors.ErrExhausted when the input is consumed.
type ChainSource interface {
	Next() (*models.ChainEvent, error)
}

// Strategy inspects each tick and emits at most one signal.
type Strategy interface {
	OnChain(chain *models.ChainEvent) *SignalEvent
}

// Driver runs the pop-or-refill loop: drain the queue, then ask the source
// for the next chain; terminate on exhaustion.
type Driver struct {
	queue    Queue
	source   ChainSource
	strategy Strategy
	book     *portfolio.Portfolio
	monitor  *LedgerWriter
	logger   zerolog.Logger

	ticks int
}

// NewDriver wires the loop. monitor may be nil to skip ledger output.
func NewDriver(source ChainSource, strategy Strategy, book *portfolio.Portfolio, monitor *LedgerWriter, logger zerolog.Logger) *Driver {
	return &Driver{
		source:   source,
		strategy: strategy,
		book:     book,
		monitor:  monitor,
		logger:   logger.With().Str("component", "driver").Logger(),
	}
}

// Ticks returns the number of tick events processed so far.
func (d *Driver) Ticks() int { return d.ticks }

// Run executes the simulation until the source is exhausted or the context
// is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ev, ok := d.queue.Pop()
		if !ok {
			chain, err := d.source.Next()
			if errors.Is(err, errors.ErrExhausted) {
				d.logger.Info().Int("ticks", d.ticks).Msg("Source exhausted, run complete")
				return nil
			}
			if err != nil {
				return fmt.Errorf("fetching next chain: %w", err)
			}
			d.queue.Push(&TickEvent{Chain: chain})
			continue
		}

		switch e := ev.(type) {
		case *TickEvent:
			d.handleTick(e)
		case *SignalEvent:
			d.book.Admit(e.Primitive, e.Risk)
		default:
			return fmt.Errorf("unknown event kind %T", ev)
		}
	}
}

// handleTick dispatches one chain event: the strategy sees the chain first,
// then the portfolio updates existing positions. Any signal the strategy
// produced is queued and admitted after the update.
func (d *Driver) handleTick(ev *TickEvent) {
	d.ticks++

	if sig := d.strategy.OnChain(ev.Chain); sig != nil {
		d.queue.Push(sig)
	}
	d.book.OnChain(ev.Chain)

	if d.monitor != nil {
		if err := d.monitor.Write(ev.Chain, d.book.Stats()); err != nil {
			d.logger.Warn().Err(err).Msg("Ledger write failed")
		}
	}
}
