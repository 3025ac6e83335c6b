package sim

import (
	"math"

	"github.com/inference-sim/trade-sim/sim/ledger"
	"github.com/inference-sim/trade-sim/sim/pricing"
)

// chooseProduct applies the company's strategy and returns the product to attempt,
// or nil when nothing qualifies.
//
// A product qualifies when it is active, at least one supplier holds stock for it,
// and it is not known to be unaffordable: if any stocked supplier quotes it, the
// cheapest such quote must fit the budget. Stocked products with no quote at all
// still qualify (ranked last by cheapest-first); the purchase then fails with
// no_price_quoted, which is the only way that reason can be observed.
func (e *Engine) chooseProduct(c *ledger.Company, products []*ledger.Product, suppliers []*ledger.Supplier) (*ledger.Product, error) {
	switch c.Strategy {
	case ledger.StrategyCheapestFirst:
		return e.cheapestFirst(c, products, suppliers), nil
	case ledger.StrategyCategoryPreferred:
		return e.categoryPreferred(c, products, suppliers), nil
	}
	return nil, invariantf("company %s has unknown strategy %v", c.ID, c.Strategy)
}

// cheapestFirst picks the qualifying product with the lowest minimum price across
// stocked suppliers. Ties keep the first product in store order.
func (e *Engine) cheapestFirst(c *ledger.Company, products []*ledger.Product, suppliers []*ledger.Supplier) *ledger.Product {
	var best *ledger.Product
	bestPrice := math.Inf(1)
	for _, p := range products {
		minPrice, ok := e.qualifies(c, p, suppliers)
		if !ok {
			continue
		}
		if best == nil || minPrice < bestPrice {
			best, bestPrice = p, minPrice
		}
	}
	return best
}

// categoryPreferred picks uniformly among qualifying products in the company's
// preferred categories.
func (e *Engine) categoryPreferred(c *ledger.Company, products []*ledger.Product, suppliers []*ledger.Supplier) *ledger.Product {
	var candidates []*ledger.Product
	for _, p := range products {
		if !c.Prefers(p.Category) {
			continue
		}
		if _, ok := e.qualifies(c, p, suppliers); ok {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	rng := e.RNG.ForSubsystem(SubsystemStrategy)
	return candidates[rng.Intn(len(candidates))]
}

// qualifies returns the product's minimum stocked price (+Inf if unquoted) and
// whether the product is a purchase candidate for c.
func (e *Engine) qualifies(c *ledger.Company, p *ledger.Product, suppliers []*ledger.Supplier) (float64, bool) {
	if !p.Active || !anyStocks(p.ID, suppliers) {
		return 0, false
	}
	minPrice := e.State.Prices.MinPrice(p.ID, suppliers)
	if pricing.Purchasable(minPrice) && minPrice > c.Budget {
		return 0, false
	}
	return minPrice, true
}

func anyStocks(productID string, suppliers []*ledger.Supplier) bool {
	for _, s := range suppliers {
		if s.Carries(productID) {
			return true
		}
	}
	return false
}
