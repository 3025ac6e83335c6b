package sim

import (
	"fmt"
	"strings"

	"github.com/inference-sim/trade-sim/sim/trace"
)

// applyAvailability flips active products off with DeactivateProbability and inactive
// products on with ActivateProbability. Each product is considered once, against its
// state before the pass. Stock and quotes are left untouched.
func (e *Engine) applyAvailability(tick int64) *trace.EventRecord {
	rng := e.RNG.ForSubsystem(SubsystemEvents)
	cfg := e.Config.Availability

	var deactivated, activated []string
	activeNow := 0
	for _, p := range e.Store.ListProducts() {
		if p.Active {
			if bernoulli(rng, cfg.DeactivateProbability) {
				p.Active = false
				deactivated = append(deactivated, p.Name)
			}
		} else if bernoulli(rng, cfg.ActivateProbability) {
			p.Active = true
			activated = append(activated, p.Name)
		}
		if p.Active {
			activeNow++
		}
	}
	changed := len(deactivated) + len(activated)
	if changed == 0 {
		return nil
	}

	details := map[string]any{
		"deactivated":       len(deactivated),
		"activated":         len(activated),
		"active_products":   activeNow,
		"deactivated_names": strings.Join(deactivated, ","),
		"activated_names":   strings.Join(activated, ","),
	}
	msg := fmt.Sprintf("%d products withdrawn, %d returned, %d now on sale",
		len(deactivated), len(activated), activeNow)
	return e.newEventRecord(tick, EventAvailability, changed, details, msg)
}
