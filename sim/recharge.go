package sim

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/inference-sim/trade-sim/sim/trace"
)

// applyBudgetRecharge adds a uniform amount in [MinAmount, MaxAmount], rounded to
// cents, to each company chosen with Recharge.CompanyProbability (1 = everyone).
func (e *Engine) applyBudgetRecharge(tick int64) *trace.EventRecord {
	rng := e.RNG.ForSubsystem(SubsystemEvents)
	cfg := e.Config.Recharge

	total := decimal.Zero
	count := 0
	minAdded, maxAdded := 0.0, 0.0
	for _, c := range e.Store.ListCompanies() {
		if !bernoulli(rng, cfg.CompanyProbability) {
			continue
		}
		amount := decimal.NewFromFloat(uniformFloat(rng, cfg.MinAmount, cfg.MaxAmount)).Round(2)
		if !amount.IsPositive() {
			continue
		}
		c.Budget = decimal.NewFromFloat(c.Budget).Add(amount).Round(2).InexactFloat64()
		total = total.Add(amount)

		a := amount.InexactFloat64()
		if count == 0 || a < minAdded {
			minAdded = a
		}
		if count == 0 || a > maxAdded {
			maxAdded = a
		}
		count++
	}
	if count == 0 {
		return nil
	}

	details := map[string]any{
		"companies":   count,
		"total_added": total.InexactFloat64(),
		"min_added":   minAdded,
		"max_added":   maxAdded,
	}
	msg := fmt.Sprintf("%d companies received %s in total", count, total.StringFixed(2))
	return e.newEventRecord(tick, EventBudgetRecharge, count, details, msg)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
