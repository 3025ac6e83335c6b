package sim

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/inference-sim/trade-sim/sim/ledger"
	"github.com/inference-sim/trade-sim/sim/trace"
)

// attemptPurchase resolves one company buying one product:
//  1. collect suppliers holding stock for the product (none → product_unavailable)
//  2. pick one uniformly at random
//  3. look up its quote (absent → no_price_quoted)
//  4. max affordable = floor(budget / price) (≤ 0 → insufficient_budget)
//  5. draw quantity uniformly in [1, min(max affordable, stock)]
//  6. debit the rounded total and decrement stock together
//
// Every path returns exactly one record. The error return is reserved for broken
// invariants (entity vanished from the store), in which case nothing is mutated.
func (e *Engine) attemptPurchase(tick int64, c *ledger.Company, p *ledger.Product, suppliers []*ledger.Supplier) (trace.PurchaseRecord, error) {
	rec := e.newPurchaseRecord(tick, c, p)

	stocked := make([]*ledger.Supplier, 0, len(suppliers))
	for _, s := range suppliers {
		if s.Carries(p.ID) {
			stocked = append(stocked, s)
		}
	}
	if len(stocked) == 0 {
		rec.Reason = string(ReasonProductUnavailable)
		return rec, nil
	}

	rng := e.RNG.ForSubsystem(SubsystemPurchase)
	sup := stocked[rng.Intn(len(stocked))]
	stock := sup.Stock[p.ID]
	rec.SupplierID = sup.ID
	rec.SupplierName = sup.Name
	rec.SupplierStock = stock

	price, ok := e.State.Prices.Get(p.ID, sup.ID)
	if !ok {
		rec.Reason = string(ReasonNoPriceQuoted)
		return rec, nil
	}
	rec.UnitPrice = price

	budget := decimal.NewFromFloat(c.Budget)
	unit := decimal.NewFromFloat(price)
	maxAffordable := budget.Div(unit).Floor().IntPart()
	rec.MaxAffordable = int(maxAffordable)
	if maxAffordable <= 0 {
		rec.Reason = string(ReasonInsufficientBudget)
		return rec, nil
	}

	limit := min(maxAffordable, int64(stock))
	qty := 1 + rng.Int63n(limit)

	total := unit.Mul(decimal.NewFromInt(qty)).Round(2)
	remaining := budget.Sub(total).Round(2)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	// Both entities must still be in the store before either is touched.
	if _, err := e.Store.Company(c.ID); err != nil {
		return rec, fmt.Errorf("%w: purchase by stale company: %w", ErrInvariant, err)
	}
	if _, err := e.Store.Supplier(sup.ID); err != nil {
		return rec, fmt.Errorf("%w: purchase from stale supplier: %w", ErrInvariant, err)
	}

	c.Budget = remaining.InexactFloat64()
	sup.Stock[p.ID] = stock - int(qty)
	if err := e.Store.UpdateSupplier(sup); err != nil {
		return rec, fmt.Errorf("%w: writing back supplier: %w", ErrInvariant, err)
	}
	if err := e.Store.UpdateCompany(c); err != nil {
		return rec, fmt.Errorf("%w: writing back company: %w", ErrInvariant, err)
	}

	rec.Success = true
	rec.Quantity = int(qty)
	rec.Total = total.InexactFloat64()
	rec.RemainingBudget = c.Budget
	return rec, nil
}

// newPurchaseRecord fills the fields every purchase record carries. p may be nil.
func (e *Engine) newPurchaseRecord(tick int64, c *ledger.Company, p *ledger.Product) trace.PurchaseRecord {
	rec := trace.PurchaseRecord{
		Tick:         tick,
		Timestamp:    e.Clock(),
		Strategy:     c.Strategy.String(),
		CompanyID:    c.ID,
		CompanyName:  c.Name,
		BudgetBefore: c.Budget,
	}
	if p != nil {
		rec.ProductID = p.ID
		rec.ProductName = p.Name
		rec.ProductCategory = p.Category.String()
	}
	return rec
}
