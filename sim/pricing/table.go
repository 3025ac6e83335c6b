// Package pricing holds the realized unit prices suppliers quote for products.
package pricing

import (
	"cmp"
	"math"
	"slices"

	"github.com/inference-sim/trade-sim/sim/ledger"
)

// PriceKey identifies one supplier's quote for one product.
type PriceKey struct {
	ProductID  string
	SupplierID string
}

// Entry is a PriceKey with its current price.
type Entry struct {
	Key   PriceKey
	Price float64
}

// Table maps (product, supplier) to a unit price. A missing key means the supplier
// does not quote the product, which is distinct from the supplier having zero stock.
//
// Thread-safety: NOT thread-safe. Owned by a single engine.
type Table struct {
	prices map[PriceKey]float64
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{prices: make(map[PriceKey]float64)}
}

// Get returns the quoted price and whether a quote exists.
func (t *Table) Get(productID, supplierID string) (float64, bool) {
	p, ok := t.prices[PriceKey{ProductID: productID, SupplierID: supplierID}]
	return p, ok
}

// Set records a quote. Non-positive prices remove the quote instead, so a present
// entry is always > 0.
func (t *Table) Set(productID, supplierID string, price float64) {
	key := PriceKey{ProductID: productID, SupplierID: supplierID}
	if price <= 0 || math.IsNaN(price) {
		delete(t.prices, key)
		return
	}
	t.prices[key] = price
}

// Scale multiplies an existing quote by factor and returns the old and new price.
// ok is false if the key has no quote.
func (t *Table) Scale(key PriceKey, factor float64) (before, after float64, ok bool) {
	before, ok = t.prices[key]
	if !ok {
		return 0, 0, false
	}
	after = before * factor
	t.prices[key] = after
	return before, after, true
}

// MinPrice returns the lowest quote for productID among suppliers holding stock > 0.
// It returns +Inf when no such supplier quotes the product; use Purchasable to test
// the result rather than comparing against a real price.
func (t *Table) MinPrice(productID string, suppliers []*ledger.Supplier) float64 {
	best := math.Inf(1)
	for _, s := range suppliers {
		if !s.Carries(productID) {
			continue
		}
		if p, ok := t.Get(productID, s.ID); ok && p < best {
			best = p
		}
	}
	return best
}

// MaxPrice returns the highest quote for productID across all suppliers, regardless of
// stock.
func (t *Table) MaxPrice(productID string) (float64, bool) {
	best, found := 0.0, false
	for k, p := range t.prices {
		if k.ProductID != productID {
			continue
		}
		if !found || p > best {
			best, found = p, true
		}
	}
	return best, found
}

// EntriesFor returns every quote for productID, ordered by supplier ID.
func (t *Table) EntriesFor(productID string) []Entry {
	var out []Entry
	for k, p := range t.prices {
		if k.ProductID == productID {
			out = append(out, Entry{Key: k, Price: p})
		}
	}
	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.Key.SupplierID, b.Key.SupplierID) })
	return out
}

// Len is the number of quotes.
func (t *Table) Len() int { return len(t.prices) }

// Clear removes every quote.
func (t *Table) Clear() { clear(t.prices) }

// Purchasable reports whether a MinPrice result is a real price.
func Purchasable(minPrice float64) bool {
	return !math.IsInf(minPrice, 1)
}
