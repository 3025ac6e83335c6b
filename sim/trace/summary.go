package trace

// TraceSummary aggregates statistics over recorded entries.
type TraceSummary struct {
	PurchaseAttempts int
	Successes        int
	UnitsBought      int
	TotalSpend       float64
	FailureReasons   map[string]int // reason → count
	EventCounts      map[string]int // event kind → count
	SuccessRate      float64
}

// Summarize computes aggregate statistics from recorded entries.
// Safe for nil or empty input (returns zero-value fields).
func Summarize(entries []Entry) *TraceSummary {
	summary := &TraceSummary{
		FailureReasons: make(map[string]int),
		EventCounts:    make(map[string]int),
	}
	for _, e := range entries {
		switch e.Fields[FieldType] {
		case TypePurchase:
			summary.PurchaseAttempts++
			if ok, _ := e.Fields[FieldSuccess].(bool); ok {
				summary.Successes++
				if q, ok := e.Fields["quantity"].(int); ok {
					summary.UnitsBought += q
				}
				if total, ok := e.Fields[FieldTotal].(float64); ok {
					summary.TotalSpend += total
				}
				continue
			}
			reason, _ := e.Fields[FieldReason].(string)
			summary.FailureReasons[reason]++
		case TypeEvent:
			kind, _ := e.Fields[FieldKind].(string)
			summary.EventCounts[kind]++
		}
	}
	if summary.PurchaseAttempts > 0 {
		summary.SuccessRate = float64(summary.Successes) / float64(summary.PurchaseAttempts)
	}
	return summary
}
