package sim

import (
	"fmt"
	"sort"

	"github.com/inference-sim/trade-sim/sim/trace"
)

// applyRestock visits each supplier with Restock.SupplierProbability and, for each
// product it carries, adds a uniform quantity in [MinQuantity, MaxQuantity] with
// Restock.ProductProbability. Carried products are the keys of the stock map, so a
// product sold out to zero can still be restocked.
func (e *Engine) applyRestock(tick int64) *trace.EventRecord {
	rng := e.RNG.ForSubsystem(SubsystemEvents)
	cfg := e.Config.Restock

	suppliersHit, entries, units := 0, 0, 0
	for _, s := range e.Store.ListSuppliers() {
		if !bernoulli(rng, cfg.SupplierProbability) {
			continue
		}
		ids := make([]string, 0, len(s.Stock))
		for id := range s.Stock {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		touched := false
		for _, id := range ids {
			if !bernoulli(rng, cfg.ProductProbability) {
				continue
			}
			q := uniformInt(rng, cfg.MinQuantity, cfg.MaxQuantity)
			if q <= 0 {
				continue
			}
			s.Stock[id] += q
			entries++
			units += q
			touched = true
		}
		if touched {
			suppliersHit++
		}
	}
	if entries == 0 {
		return nil
	}

	details := map[string]any{
		"suppliers":   suppliersHit,
		"products":    entries,
		"units_added": units,
	}
	msg := fmt.Sprintf("%d units added across %d stock lines at %d suppliers", units, entries, suppliersHit)
	return e.newEventRecord(tick, EventRestock, entries, details, msg)
}
