package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inference-sim/trade-sim/sim/ledger"
	"github.com/inference-sim/trade-sim/sim/pricing"
	"github.com/inference-sim/trade-sim/sim/trace"
	"github.com/inference-sim/trade-sim/sim/worldgen"
)

var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

// quietConfig selects every company every tick and never fires events, so a test
// sees only purchase behavior.
func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.SelectionProbability = 1.0
	cfg.EventInterval = 1_000_000
	cfg.Inflation.Probability = 0
	cfg.Restock.Probability = 0
	cfg.Recharge.Probability = 0
	cfg.Availability.Probability = 0
	return cfg
}

// newTestEngine wires an engine around a hand-built ledger with a memory sink and a
// fixed clock.
func newTestEngine(t *testing.T, cfg Config, build func(*ledger.MemoryStore, *pricing.Table)) (*Engine, *trace.MemorySink) {
	t.Helper()
	store := ledger.NewMemoryStore()
	prices := pricing.NewTable()
	if build != nil {
		build(store, prices)
	}
	sink := trace.NewMemorySink()
	e, err := NewEngine(cfg, store, prices, sink, nil)
	require.NoError(t, err)
	e.Clock = fixedClock
	return e, sink
}

// newGeneratedEngine builds a full random world from cfg.World, seeded from cfg.Seed.
func newGeneratedEngine(t *testing.T, cfg Config, sink trace.Sink) *Engine {
	t.Helper()
	store := ledger.NewMemoryStore()
	prices := pricing.NewTable()
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	require.NoError(t, worldgen.Generate(cfg.World, store, prices, rng.ForSubsystem(SubsystemWorld)))
	e, err := NewEngine(cfg, store, prices, sink, rng)
	require.NoError(t, err)
	e.Clock = fixedClock
	return e
}

// singleTradeWorld is one company (budget 100, cheapest-first), one supplier holding
// five units of product A, optionally quoting it at 20.
func singleTradeWorld(quote bool) func(*ledger.MemoryStore, *pricing.Table) {
	return func(s *ledger.MemoryStore, p *pricing.Table) {
		mustAdd(s.AddProduct(&ledger.Product{ID: "A", Name: "Product A", BasePrice: 20, Active: true, Category: ledger.CategoryRawMaterial}))
		mustAdd(s.AddSupplier(&ledger.Supplier{ID: "S", Name: "Supplier S", Stock: map[string]int{"A": 5}}))
		mustAdd(s.AddCompany(&ledger.Company{ID: "C", Name: "Company C", Budget: 100, InitialBudget: 100,
			PreferredCategories: []ledger.Category{ledger.CategoryRawMaterial}, Strategy: ledger.StrategyCheapestFirst}))
		if quote {
			p.Set("A", "S", 20)
		}
	}
}

func mustAdd(err error) {
	if err != nil {
		panic(err)
	}
}

func purchaseEntries(sink *trace.MemorySink) []trace.Entry {
	return sink.OfType(trace.TypePurchase)
}

// categoryWorld has one active product per category, all stocked and quoted by two
// suppliers, and two well-funded companies with opposite strategies.
func categoryWorld(s *ledger.MemoryStore, p *pricing.Table) {
	ids := []string{"RM", "CO", "FG"}
	for i, cat := range ledger.AllCategories {
		mustAdd(s.AddProduct(&ledger.Product{ID: ids[i], Name: "Product " + ids[i], BasePrice: 10, Active: true, Category: cat}))
	}
	for i, sid := range []string{"S1", "S2"} {
		stock := map[string]int{}
		for j, pid := range ids {
			stock[pid] = 100
			p.Set(pid, sid, float64(10+i+j))
		}
		mustAdd(s.AddSupplier(&ledger.Supplier{ID: sid, Name: "Supplier " + sid, Stock: stock}))
	}
	mustAdd(s.AddCompany(&ledger.Company{ID: "C1", Name: "Company 1", Budget: 1000, InitialBudget: 1000,
		PreferredCategories: []ledger.Category{ledger.CategoryConsumable}, Strategy: ledger.StrategyCategoryPreferred}))
	mustAdd(s.AddCompany(&ledger.Company{ID: "C2", Name: "Company 2", Budget: 1000, InitialBudget: 1000,
		Strategy: ledger.StrategyCheapestFirst}))
}
