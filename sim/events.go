package sim

import (
	"github.com/inference-sim/trade-sim/sim/trace"
)

// EventKind names an economic event.
type EventKind string

const (
	EventInflation      EventKind = "inflation"
	EventRestock        EventKind = "restock"
	EventBudgetRecharge EventKind = "budget_recharge"
	EventAvailability   EventKind = "availability"

	// EventIdle is not dispatched; it marks a tick in which no company was selected.
	EventIdle EventKind = "idle"
)

// eventHandler applies one event and returns its aggregated record, or nil when there
// was nothing eligible to change. Handlers never fail.
type eventHandler func(e *Engine, tick int64) *trace.EventRecord

// eventGate pairs a handler with the probability that it fires when events roll.
type eventGate struct {
	kind        EventKind
	probability func(Config) float64
	handle      eventHandler
}

// eventGates is the dispatch order. Every gate is rolled on every event tick,
// independent of the others.
var eventGates = []eventGate{
	{EventInflation, func(c Config) float64 { return c.Inflation.Probability }, (*Engine).applyInflation},
	{EventRestock, func(c Config) float64 { return c.Restock.Probability }, (*Engine).applyRestock},
	{EventBudgetRecharge, func(c Config) float64 { return c.Recharge.Probability }, (*Engine).applyBudgetRecharge},
	{EventAvailability, func(c Config) float64 { return c.Availability.Probability }, (*Engine).applyAvailability},
}

// dispatchEvents rolls each gate and runs the handlers that fire, emitting one record
// per handler that changed something. It returns the kinds that fired.
func (e *Engine) dispatchEvents(tick int64, verbose bool) ([]EventKind, error) {
	rng := e.RNG.ForSubsystem(SubsystemEvents)
	var fired []EventKind
	for _, g := range eventGates {
		if !bernoulli(rng, g.probability(e.Config)) {
			continue
		}
		rec := g.handle(e, tick)
		if rec == nil {
			continue
		}
		e.Metrics.recordEvent(g.kind)
		if err := e.emit(*rec, verbose); err != nil {
			return fired, err
		}
		fired = append(fired, g.kind)
	}
	return fired, nil
}

// newEventRecord stamps an event record for tick.
func (e *Engine) newEventRecord(tick int64, kind EventKind, affected int, details map[string]any, message string) *trace.EventRecord {
	return &trace.EventRecord{
		Tick:      tick,
		Timestamp: e.Clock(),
		Kind:      string(kind),
		Affected:  affected,
		Details:   details,
		Message:   message,
	}
}
