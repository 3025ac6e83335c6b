// Tracks run-wide totals: purchases, failures by reason, spend and fired events.

package sim

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/inference-sim/trade-sim/sim/trace"
)

// RunMetrics aggregates statistics about the simulation for final reporting.
type RunMetrics struct {
	Ticks       int64
	Selected    int
	Purchases   int
	UnitsBought int
	TotalSpend  decimal.Decimal

	Failures map[FailureReason]int // includes no_candidate skips
	Events   map[EventKind]int
}

// NewRunMetrics returns zeroed metrics.
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{
		Failures: make(map[FailureReason]int),
		Events:   make(map[EventKind]int),
	}
}

func (m *RunMetrics) recordPurchase(r trace.PurchaseRecord) {
	if !r.Success {
		m.Failures[FailureReason(r.Reason)]++
		return
	}
	m.Purchases++
	m.UnitsBought += r.Quantity
	m.TotalSpend = m.TotalSpend.Add(decimal.NewFromFloat(r.Total))
}

func (m *RunMetrics) recordEvent(kind EventKind) {
	m.Events[kind]++
}

func (m *RunMetrics) recordTick(r TickResult) {
	m.Ticks++
	m.Selected += r.Selected
}

// FailureCount is the number of selected companies that did not complete a purchase.
func (m *RunMetrics) FailureCount() int {
	n := 0
	for _, c := range m.Failures {
		n += c
	}
	return n
}

// Print writes aggregated metrics at the end of the simulation.
func (m *RunMetrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Ticks                : %d\n", m.Ticks)
	fmt.Fprintf(w, "Companies Selected   : %d\n", m.Selected)
	fmt.Fprintf(w, "Purchases            : %d\n", m.Purchases)
	fmt.Fprintf(w, "Units Bought         : %d\n", m.UnitsBought)
	fmt.Fprintf(w, "Total Spend          : %s\n", m.TotalSpend.StringFixed(2))
	if m.Selected > 0 {
		fmt.Fprintf(w, "Success Rate         : %.2f%%\n", 100*float64(m.Purchases)/float64(m.Selected))
	}

	reasons := make([]string, 0, len(m.Failures))
	for r := range m.Failures {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "Failed (%s) : %d\n", r, m.Failures[FailureReason(r)])
	}

	kinds := make([]string, 0, len(m.Events))
	for k := range m.Events {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "Event (%s) : %d\n", k, m.Events[EventKind(k)])
	}
}
