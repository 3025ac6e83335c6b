package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/trade-sim/sim/ledger"
	"github.com/inference-sim/trade-sim/sim/pricing"
	"github.com/inference-sim/trade-sim/sim/trace"
)

// TickResult summarizes one AdvanceTick call for the caller (CLI output, metrics).
type TickResult struct {
	Tick        int64
	Selected    int // companies drawn this tick; equals purchase records emitted
	Purchases   int // successful purchases
	Failures    int // attempted purchases that failed
	Skipped     int // selected companies with no candidate product
	EventsFired int
	Events      []EventKind // fired events in dispatch order
}

// Actions is the number of purchase attempts actually made.
func (r TickResult) Actions() int { return r.Purchases + r.Failures }

// Engine is the tick orchestrator. It owns its EngineState and RNG; the ledger store
// and sink are collaborators supplied by the host.
//
// Thread-safety: NOT thread-safe. Run one Engine per goroutine, or serialize calls.
type Engine struct {
	Config  Config
	Store   ledger.Store
	State   *EngineState
	Sink    trace.Sink
	RNG     *PartitionedRNG
	Metrics *RunMetrics

	// Clock stamps records. Tests replace it to make record bytes reproducible.
	Clock func() time.Time
}

// NewEngine validates cfg and wires an engine around store and prices.
// rng may be nil, in which case one is derived from cfg.Seed.
func NewEngine(cfg Config, store ledger.Store, prices *pricing.Table, sink trace.Sink, rng *PartitionedRNG) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if store == nil || sink == nil {
		return nil, fmt.Errorf("engine requires a ledger store and a record sink")
	}
	if rng == nil {
		rng = NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	}
	return &Engine{
		Config:  cfg,
		Store:   store,
		State:   NewEngineState(prices),
		Sink:    sink,
		RNG:     rng,
		Metrics: NewRunMetrics(),
		Clock:   time.Now,
	}, nil
}

// AdvanceTick runs one full tick: company selection, strategy resolution and
// purchases, then (every EventInterval ticks) the four event gates.
// verbose echoes every record's human-readable line at Info instead of Debug.
//
// An error means the tick hit a broken invariant or the sink could not persist a
// record; state may be partially updated and the run should stop.
func (e *Engine) AdvanceTick(verbose bool) (TickResult, error) {
	e.State.Tick++
	tick := e.State.Tick
	result := TickResult{Tick: tick}

	companies := e.Store.ListCompanies()
	products := e.Store.ListProducts()
	suppliers := e.Store.ListSuppliers()

	selection := e.RNG.ForSubsystem(SubsystemSelection)
	active := make([]*ledger.Company, 0, len(companies))
	for _, c := range companies {
		if bernoulli(selection, e.Config.SelectionProbability) {
			active = append(active, c)
		}
	}
	result.Selected = len(active)

	for _, c := range active {
		rec, err := e.actFor(tick, c, products, suppliers)
		if err != nil {
			return result, fmt.Errorf("tick %d, company %s: %w", tick, c.ID, err)
		}
		switch {
		case rec.Success:
			result.Purchases++
		case rec.Reason == string(ReasonNoCandidate):
			result.Skipped++
		default:
			result.Failures++
		}
		e.Metrics.recordPurchase(rec)
		if err := e.emit(rec, verbose); err != nil {
			return result, err
		}
	}

	if len(active) == 0 {
		idle := trace.EventRecord{
			Tick:      tick,
			Timestamp: e.Clock(),
			Kind:      string(EventIdle),
			Message:   "no company acted this tick",
		}
		if err := e.emit(idle, verbose); err != nil {
			return result, err
		}
	}

	if tick%e.Config.EventInterval == 0 {
		fired, err := e.dispatchEvents(tick, verbose)
		if err != nil {
			return result, err
		}
		result.Events = fired
		result.EventsFired = len(fired)
	}

	e.Metrics.recordTick(result)
	if verbose {
		logrus.Infof("[tick %07d] selected=%d purchases=%d failures=%d skipped=%d events=%d",
			tick, result.Selected, result.Purchases, result.Failures, result.Skipped, result.EventsFired)
	}
	return result, nil
}

// actFor resolves one selected company's strategy and attempts the purchase.
// It always returns exactly one record unless an invariant is broken.
func (e *Engine) actFor(tick int64, c *ledger.Company, products []*ledger.Product, suppliers []*ledger.Supplier) (trace.PurchaseRecord, error) {
	product, err := e.chooseProduct(c, products, suppliers)
	if err != nil {
		return trace.PurchaseRecord{}, err
	}
	if product == nil {
		rec := e.newPurchaseRecord(tick, c, nil)
		rec.Reason = string(ReasonNoCandidate)
		return rec, nil
	}
	return e.attemptPurchase(tick, c, product, suppliers)
}

// Run advances up to ticks ticks, stopping early on ctx cancellation or the first
// error. Cancellation is only observed between ticks.
func (e *Engine) Run(ctx context.Context, ticks int64, verbose bool) ([]TickResult, error) {
	results := make([]TickResult, 0, ticks)
	for i := int64(0); i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r, err := e.AdvanceTick(verbose)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// ResetWorld clears the ledger store, every price quote, the inflation memory and the
// tick counter. Run metrics are cleared as well.
func (e *Engine) ResetWorld() {
	e.Store.Clear()
	e.State.Reset()
	e.Metrics = NewRunMetrics()
	logrus.Infof("[tick %07d] World reset", e.State.Tick)
}

// emit hands a record to the sink and echoes it to the process log.
func (e *Engine) emit(r trace.Record, verbose bool) error {
	if err := trace.Emit(e.Sink, r); err != nil {
		return fmt.Errorf("tick %d: record sink: %w", e.State.Tick, err)
	}
	if verbose {
		logrus.Info(r.Human())
	} else {
		logrus.Debug(r.Human())
	}
	return nil
}
