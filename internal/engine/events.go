// Package engine contains the event queue, the loop driver, and the
// per-tick ledger monitor. The simulation is single-threaded: the driver is
// the only executor and events are handled strictly in enqueue order.
package engine

import (
	"options-backtester/internal/models"
	"options-backtester/internal/position"
	"options-backtester/internal/risk"
)

// Event is a marker for the two event kinds carried by the queue.
type Event interface {
	isEvent()
}

// TickEvent wraps one option-chain event.
type TickEvent struct {
	Chain *models.ChainEvent
}

func (*TickEvent) isEvent() {}

// SignalEvent carries a candidate primitive and the risk policy to attach
// to it. Consumed exactly once, by portfolio admission.
type SignalEvent struct {
	Primitive position.Primitive
	Risk      risk.Manager
}

func (*SignalEvent) isEvent() {}

// Queue is a FIFO event queue. It is bounded in practice by one tick event
// plus at most one signal per tick.
type Queue struct {
	events []Event
}

// Push appends an event.
func (q *Queue) Push(ev Event) {
	q.events = append(q.events, ev)
}

// Pop removes and returns the oldest event, or false when empty.
func (q *Queue) Pop() (Event, bool) {
	if len(q.events) == 0 {
		return nil, false
	}
	ev := q.events[0]
	q.events[0] = nil
	q.events = q.events[1:]
	return ev, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.events)
}
