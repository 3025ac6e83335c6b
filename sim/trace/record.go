// Package trace provides the log records the engine emits for every purchase attempt
// and every applied economic event, and the sinks that receive them.
// It has no dependencies on sim/ and holds pure data types.
package trace

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Record kinds, stored under FieldType.
const (
	TypePurchase = "purchase"
	TypeEvent    = "event"
)

// Flat field names shared by all records.
const (
	FieldType      = "type"
	FieldTick      = "tick"
	FieldTimestamp = "timestamp"
	FieldSuccess   = "success"
	FieldReason    = "reason"
	FieldKind      = "kind"
	FieldAffected  = "affected"
	FieldTotal     = "total"
)

// Record is anything the engine hands to a Sink.
type Record interface {
	Fields() map[string]any
	Human() string
}

// PurchaseRecord captures a single purchase attempt, successful or not.
// Supplier fields are empty when the attempt failed before a supplier was chosen.
type PurchaseRecord struct {
	Tick      int64
	Timestamp time.Time
	Strategy  string

	CompanyID    string
	CompanyName  string
	BudgetBefore float64

	ProductID       string
	ProductName     string
	ProductCategory string

	SupplierID    string
	SupplierName  string
	SupplierStock int // stock at time of the decision
	MaxAffordable int

	Success         bool
	Quantity        int
	UnitPrice       float64
	Total           float64
	RemainingBudget float64
	Reason          string // empty on success
}

// Fields flattens the record into a map suitable for machine-readable sinks.
func (r PurchaseRecord) Fields() map[string]any {
	f := map[string]any{
		FieldType:       TypePurchase,
		FieldTick:       r.Tick,
		FieldTimestamp:  r.Timestamp.UTC().Format(time.RFC3339Nano),
		"strategy":      r.Strategy,
		"company_id":    r.CompanyID,
		"company_name":  r.CompanyName,
		"budget_before": r.BudgetBefore,
		FieldSuccess:    r.Success,
	}
	if r.ProductID != "" {
		f["product_id"] = r.ProductID
		f["product_name"] = r.ProductName
		f["product_category"] = r.ProductCategory
	}
	if r.SupplierID != "" {
		f["supplier_id"] = r.SupplierID
		f["supplier_name"] = r.SupplierName
		f["supplier_stock"] = r.SupplierStock
	}
	if r.Success {
		f["quantity"] = r.Quantity
		f["unit_price"] = r.UnitPrice
		f[FieldTotal] = r.Total
		f["remaining_budget"] = r.RemainingBudget
		f["max_affordable"] = r.MaxAffordable
	} else {
		f[FieldReason] = r.Reason
		if r.UnitPrice > 0 {
			f["unit_price"] = r.UnitPrice
		}
	}
	return f
}

// Human renders the record as one readable line.
func (r PurchaseRecord) Human() string {
	if r.Success {
		return fmt.Sprintf("[tick %d] %s bought %d x %s from %s at %s each (total %s, budget left %s)",
			r.Tick, r.CompanyName, r.Quantity, r.ProductName, r.SupplierName,
			money(r.UnitPrice), money(r.Total), money(r.RemainingBudget))
	}
	target := r.ProductName
	if target == "" {
		target = "nothing"
	}
	return fmt.Sprintf("[tick %d] %s (%s) could not buy %s: %s (budget %s)",
		r.Tick, r.CompanyName, r.Strategy, target, r.Reason, money(r.BudgetBefore))
}

// EventRecord captures one applied economic event, aggregated over all its targets.
type EventRecord struct {
	Tick      int64
	Timestamp time.Time
	Kind      string
	Affected  int            // number of entities changed
	Details   map[string]any // kind-specific flat fields
	Message   string
}

// Fields flattens the record. Details keys never override the common fields.
func (r EventRecord) Fields() map[string]any {
	f := make(map[string]any, len(r.Details)+5)
	for k, v := range r.Details {
		f[k] = v
	}
	f[FieldType] = TypeEvent
	f[FieldTick] = r.Tick
	f[FieldTimestamp] = r.Timestamp.UTC().Format(time.RFC3339Nano)
	f[FieldKind] = r.Kind
	f[FieldAffected] = r.Affected
	return f
}

// Human renders the record as one readable line.
func (r EventRecord) Human() string {
	if r.Message != "" {
		return fmt.Sprintf("[tick %d] %s: %s", r.Tick, r.Kind, r.Message)
	}
	keys := make([]string, 0, len(r.Details))
	for k := range r.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, r.Details[k]))
	}
	return fmt.Sprintf("[tick %d] %s affected %d (%s)", r.Tick, r.Kind, r.Affected, strings.Join(parts, " "))
}

func money(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 2)
}
