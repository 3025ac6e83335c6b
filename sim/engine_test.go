package sim

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/trade-sim/sim/ledger"
	"github.com/inference-sim/trade-sim/sim/pricing"
	"github.com/inference-sim/trade-sim/sim/trace"
)

func TestAdvanceTick_SingleTrade_BuysWithinBounds(t *testing.T) {
	// GIVEN one company with budget 100, one supplier with 5 units quoted at 20
	e, sink := newTestEngine(t, quietConfig(), singleTradeWorld(true))

	// WHEN one tick runs with selection probability 1
	res, err := e.AdvanceTick(false)
	require.NoError(t, err)

	// THEN exactly one successful purchase of 1..5 units is recorded
	assert.Equal(t, int64(1), res.Tick)
	assert.Equal(t, 1, res.Selected)
	assert.Equal(t, 1, res.Purchases)
	entries := purchaseEntries(sink)
	require.Len(t, entries, 1)
	f := entries[0].Fields
	assert.Equal(t, true, f[trace.FieldSuccess])
	qty := f["quantity"].(int)
	assert.GreaterOrEqual(t, qty, 1)
	assert.LessOrEqual(t, qty, 5)

	// AND budget and stock moved by exactly qty units at 20
	c, _ := e.Store.Company("C")
	s, _ := e.Store.Supplier("S")
	assert.Equal(t, 100-20*float64(qty), c.Budget)
	assert.Equal(t, 5-qty, s.Stock["A"])
	assert.GreaterOrEqual(t, c.Budget, 0.0)
	assert.GreaterOrEqual(t, s.Stock["A"], 0)
	assert.Equal(t, 20.0*float64(qty), f[trace.FieldTotal])
	assert.Equal(t, c.Budget, f["remaining_budget"])
}

func TestAdvanceTick_SingleTrade_NoQuote_FailsWithoutMutation(t *testing.T) {
	// GIVEN the single-trade world without a price entry
	e, sink := newTestEngine(t, quietConfig(), singleTradeWorld(false))

	// WHEN one tick runs
	res, err := e.AdvanceTick(false)
	require.NoError(t, err)

	// THEN exactly one no_price_quoted failure is recorded and nothing changed
	assert.Equal(t, 1, res.Failures)
	entries := purchaseEntries(sink)
	require.Len(t, entries, 1)
	assert.Equal(t, string(ReasonNoPriceQuoted), entries[0].Fields[trace.FieldReason])
	assert.Equal(t, "S", entries[0].Fields["supplier_id"])
	c, _ := e.Store.Company("C")
	s, _ := e.Store.Supplier("S")
	assert.Equal(t, 100.0, c.Budget)
	assert.Equal(t, 5, s.Stock["A"])
}

func TestAdvanceTick_NobodySelected_EmitsIdleRecord(t *testing.T) {
	cfg := quietConfig()
	cfg.SelectionProbability = 0
	e, sink := newTestEngine(t, cfg, singleTradeWorld(true))

	res, err := e.AdvanceTick(false)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Selected)
	assert.Empty(t, purchaseEntries(sink))
	events := sink.OfType(trace.TypeEvent)
	require.Len(t, events, 1)
	assert.Equal(t, string(EventIdle), events[0].Fields[trace.FieldKind])
}

func TestAdvanceTick_AllProductsInactive_RecordsNoCandidate(t *testing.T) {
	e, sink := newTestEngine(t, quietConfig(), func(s *ledger.MemoryStore, p *pricing.Table) {
		singleTradeWorld(true)(s, p)
		prod, _ := s.Product("A")
		prod.Active = false
	})

	res, err := e.AdvanceTick(false)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Actions())
	entries := purchaseEntries(sink)
	require.Len(t, entries, 1)
	assert.Equal(t, string(ReasonNoCandidate), entries[0].Fields[trace.FieldReason])
	s, _ := e.Store.Supplier("S")
	assert.Equal(t, 5, s.Stock["A"], "inactive product keeps its stock")
	_, quoted := e.State.Prices.Get("A", "S")
	assert.True(t, quoted, "inactive product keeps its quote")
}

func TestAdvanceTick_InvariantsHoldOverLongRun(t *testing.T) {
	// GIVEN a generated world with frequent events
	cfg := DefaultConfig()
	cfg.Seed = 1234
	cfg.SelectionProbability = 0.8
	cfg.EventInterval = 3
	cfg.Inflation.Probability = 0.5
	cfg.Restock.Probability = 0.5
	cfg.Recharge.Probability = 0.3
	cfg.Availability.Probability = 0.5
	sink := trace.NewMemorySink()
	e := newGeneratedEngine(t, cfg, sink)

	for i := 0; i < 300; i++ {
		sink.Reset()
		res, err := e.AdvanceTick(false)
		require.NoError(t, err)

		// budgets and stock never go negative
		for _, c := range e.Store.ListCompanies() {
			require.GreaterOrEqual(t, c.Budget, 0.0, "tick %d company %s", res.Tick, c.ID)
		}
		for _, s := range e.Store.ListSuppliers() {
			for pid, q := range s.Stock {
				require.GreaterOrEqual(t, q, 0, "tick %d supplier %s product %s", res.Tick, s.ID, pid)
			}
		}

		// one purchase record per selected company
		purchases := purchaseEntries(sink)
		require.Len(t, purchases, res.Selected, "tick %d", res.Tick)

		// realized quantity never exceeds min(affordable, stock)
		for _, p := range purchases {
			if ok, _ := p.Fields[trace.FieldSuccess].(bool); !ok {
				continue
			}
			qty := p.Fields["quantity"].(int)
			assert.LessOrEqual(t, qty, p.Fields["max_affordable"].(int))
			assert.LessOrEqual(t, qty, p.Fields["supplier_stock"].(int))
			assert.GreaterOrEqual(t, qty, 1)
		}
	}
	assert.Equal(t, int64(300), e.Metrics.Ticks)
	assert.Positive(t, e.Metrics.Purchases)
}

func runJSONL(t *testing.T, seed int64, ticks int64) []byte {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = seed
	cfg.EventInterval = 4
	cfg.Inflation.Probability = 0.6
	cfg.Restock.Probability = 0.6
	cfg.Recharge.Probability = 0.6
	cfg.Availability.Probability = 0.6

	var buf bytes.Buffer
	e := newGeneratedEngine(t, cfg, trace.NewJSONLSink(&buf))
	_, err := e.Run(context.Background(), ticks, false)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRun_SameSeed_ByteIdenticalRecords(t *testing.T) {
	first := runJSONL(t, 42, 200)
	second := runJSONL(t, 42, 200)

	require.NotEmpty(t, first)
	assert.True(t, bytes.Equal(first, second), "same seed and config must replay identically")
}

func TestRun_DifferentSeed_DifferentRecords(t *testing.T) {
	assert.False(t, bytes.Equal(runJSONL(t, 42, 50), runJSONL(t, 43, 50)))
}

func TestRun_CancelledContext_StopsBeforeFirstTick(t *testing.T) {
	e, _ := newTestEngine(t, quietConfig(), singleTradeWorld(true))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := e.Run(ctx, 10, false)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.Equal(t, int64(0), e.State.Tick)
}

func TestRun_ReturnsOneResultPerTick(t *testing.T) {
	e, _ := newTestEngine(t, quietConfig(), singleTradeWorld(true))

	results, err := e.Run(context.Background(), 5, true)

	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, int64(i+1), r.Tick)
	}
}

// staleStore forgets every company on lookup while still listing it.
type staleStore struct {
	*ledger.MemoryStore
}

func (s staleStore) Company(id string) (*ledger.Company, error) {
	return nil, ledger.ErrNotFound
}

func TestAdvanceTick_StaleCompany_FailsLoudlyWithoutMutation(t *testing.T) {
	store := ledger.NewMemoryStore()
	prices := pricing.NewTable()
	singleTradeWorld(true)(store, prices)
	e, err := NewEngine(quietConfig(), staleStore{store}, prices, trace.NewMemorySink(), nil)
	require.NoError(t, err)

	_, err = e.AdvanceTick(false)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariant))
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
	c := store.ListCompanies()[0]
	s := store.ListSuppliers()[0]
	assert.Equal(t, 100.0, c.Budget)
	assert.Equal(t, 5, s.Stock["A"])
}

func TestAdvanceTick_UnknownStrategy_IsInvariantViolation(t *testing.T) {
	e, _ := newTestEngine(t, quietConfig(), func(s *ledger.MemoryStore, p *pricing.Table) {
		singleTradeWorld(true)(s, p)
		c, _ := s.Company("C")
		c.Strategy = ledger.Strategy(99)
	})

	_, err := e.AdvanceTick(false)

	assert.ErrorIs(t, err, ErrInvariant)
}

type brokenSink struct{}

func (brokenSink) Write(map[string]any, string) error { return errors.New("disk full") }
func (brokenSink) Close() error                       { return nil }

func TestAdvanceTick_SinkFailure_FailsTick(t *testing.T) {
	store := ledger.NewMemoryStore()
	prices := pricing.NewTable()
	singleTradeWorld(true)(store, prices)
	e, err := NewEngine(quietConfig(), store, prices, brokenSink{}, nil)
	require.NoError(t, err)

	_, err = e.AdvanceTick(false)

	assert.ErrorContains(t, err, "disk full")
}

func TestAdvanceTick_EventsRollOnlyOnInterval(t *testing.T) {
	// GIVEN every gate certain to fire every 5 ticks, with targets for each
	cfg := quietConfig()
	cfg.EventInterval = 5
	cfg.Inflation.Probability = 1
	cfg.Restock.Probability = 1
	cfg.Restock.SupplierProbability = 1
	cfg.Restock.ProductProbability = 1
	cfg.Recharge.Probability = 1
	cfg.Availability.Probability = 1
	cfg.Availability.DeactivateProbability = 1
	e, sink := newTestEngine(t, cfg, categoryWorld)

	for tick := int64(1); tick <= 5; tick++ {
		res, err := e.AdvanceTick(false)
		require.NoError(t, err)
		if tick < 5 {
			assert.Zero(t, res.EventsFired, "tick %d", tick)
			continue
		}
		// THEN all four fire, in dispatch order
		assert.Equal(t, 4, res.EventsFired)
		assert.Equal(t, []EventKind{EventInflation, EventRestock, EventBudgetRecharge, EventAvailability}, res.Events)
	}
	assert.Len(t, sink.OfType(trace.TypeEvent), 4)
	assert.Equal(t, 1, e.Metrics.Events[EventRestock])
}

func TestAdvanceTick_GatesClosed_NoEvents(t *testing.T) {
	cfg := quietConfig()
	cfg.EventInterval = 1
	e, sink := newTestEngine(t, cfg, categoryWorld)

	res, err := e.AdvanceTick(false)
	require.NoError(t, err)

	assert.Zero(t, res.EventsFired)
	assert.Empty(t, sink.OfType(trace.TypeEvent))
}

func TestResetWorld_ClearsEverything(t *testing.T) {
	cfg := quietConfig()
	cfg.Inflation.Factor = 2
	e, _ := newTestEngine(t, cfg, singleTradeWorld(true))
	_, err := e.AdvanceTick(false)
	require.NoError(t, err)
	e.State.rememberInflation("A")

	e.ResetWorld()

	assert.Equal(t, int64(0), e.State.Tick)
	assert.Equal(t, 0, e.State.InflationMemorySize())
	assert.Equal(t, 0, e.State.Prices.Len())
	assert.Empty(t, e.Store.ListCompanies())
	assert.Zero(t, e.Metrics.Ticks)
}

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SelectionProbability = 2
	_, err := NewEngine(cfg, ledger.NewMemoryStore(), nil, trace.NewMemorySink(), nil)
	assert.Error(t, err)

	_, err = NewEngine(DefaultConfig(), nil, nil, trace.NewMemorySink(), nil)
	assert.Error(t, err)
}
