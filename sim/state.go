package sim

import "github.com/inference-sim/trade-sim/sim/pricing"

// EngineState is the mutable simulation state owned by exactly one Engine.
// Companies, suppliers and products live in the ledger store; everything else the
// engine mutates lives here.
type EngineState struct {
	Tick   int64          // monotonic tick counter, 0 before the first tick
	Prices *pricing.Table // realized unit prices

	// inflated holds every product ID hit by inflation during this run. It only grows;
	// Reset is the sole way to shrink it.
	inflated map[string]struct{}
}

// NewEngineState creates state around an existing price table. A nil table is
// replaced by an empty one.
func NewEngineState(prices *pricing.Table) *EngineState {
	if prices == nil {
		prices = pricing.NewTable()
	}
	return &EngineState{
		Prices:   prices,
		inflated: make(map[string]struct{}),
	}
}

// WasInflated reports whether productID is in the inflation memory.
func (s *EngineState) WasInflated(productID string) bool {
	_, ok := s.inflated[productID]
	return ok
}

// rememberInflation adds productID to the inflation memory. Idempotent.
func (s *EngineState) rememberInflation(productID string) {
	s.inflated[productID] = struct{}{}
}

// InflationMemorySize is the number of distinct products inflated so far.
func (s *EngineState) InflationMemorySize() int {
	return len(s.inflated)
}

// Reset returns the state to tick zero with no prices and an empty inflation memory.
func (s *EngineState) Reset() {
	s.Tick = 0
	s.Prices.Clear()
	clear(s.inflated)
}
