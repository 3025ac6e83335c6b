package sim

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/trade-sim/sim/ledger"
	"github.com/inference-sim/trade-sim/sim/trace"
)

// applyInflation raises prices for either one random active product or one whole
// category (equal odds). Every quote of a targeted product is multiplied by
// Inflation.Factor, compounded with Inflation.BonusFactor if the product was inflated
// before in this run. Targeted products with at least one quote join the inflation
// memory.
func (e *Engine) applyInflation(tick int64) *trace.EventRecord {
	rng := e.RNG.ForSubsystem(SubsystemEvents)
	products := e.Store.ListProducts()

	var targets []*ledger.Product
	var scope, target string
	if rng.Float64() < 0.5 {
		active := activeProducts(products)
		if len(active) == 0 {
			return nil
		}
		p := active[rng.Intn(len(active))]
		targets, scope, target = []*ledger.Product{p}, "product", p.Name
	} else {
		cat := ledger.AllCategories[rng.Intn(len(ledger.AllCategories))]
		for _, p := range products {
			if p.Category == cat {
				targets = append(targets, p)
			}
		}
		scope, target = "category", cat.String()
	}

	var changes []float64
	productsHit, repeatHits := 0, 0
	for _, p := range targets {
		entries := e.State.Prices.EntriesFor(p.ID)
		if len(entries) == 0 {
			continue
		}
		factor := e.Config.Inflation.Factor
		if e.State.WasInflated(p.ID) {
			factor *= e.Config.Inflation.BonusFactor
			repeatHits++
		}
		for _, en := range entries {
			before, after, ok := e.State.Prices.Scale(en.Key, factor)
			if !ok {
				continue
			}
			changes = append(changes, (after-before)/before*100)
		}
		e.State.rememberInflation(p.ID)
		productsHit++
	}
	if len(changes) == 0 {
		return nil
	}

	details := map[string]any{
		"scope":           scope,
		"target":          target,
		"products":        productsHit,
		"repeat_hits":     repeatHits,
		"price_entries":   len(changes),
		"min_change_pct":  round2(floats.Min(changes)),
		"max_change_pct":  round2(floats.Max(changes)),
		"mean_change_pct": round2(stat.Mean(changes, nil)),
		"memory_size":     e.State.InflationMemorySize(),
	}
	msg := fmt.Sprintf("%s %q: %d prices across %d products up %.2f%% on average (%d repeat hits)",
		scope, target, len(changes), productsHit, stat.Mean(changes, nil), repeatHits)
	return e.newEventRecord(tick, EventInflation, len(changes), details, msg)
}

func activeProducts(products []*ledger.Product) []*ledger.Product {
	out := make([]*ledger.Product, 0, len(products))
	for _, p := range products {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}
