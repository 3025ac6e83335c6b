// Package metrics exposes per-tick simulation summaries as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inference-sim/trade-sim/sim"
)

// Registry owns a private Prometheus registry so multiple engines in one process do
// not collide on the default one.
type Registry struct {
	reg *prometheus.Registry

	Ticks     prometheus.Counter
	Selected  prometheus.Counter
	Purchases prometheus.Counter
	Failures  prometheus.Counter
	Skipped   prometheus.Counter
	Events    *prometheus.CounterVec
	LastTick  prometheus.Gauge
	Spend     prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	ticks := prometheus.NewCounter(prometheus.CounterOpts{Name: "tradesim_ticks_total"})
	selected := prometheus.NewCounter(prometheus.CounterOpts{Name: "tradesim_companies_selected_total"})
	purchases := prometheus.NewCounter(prometheus.CounterOpts{Name: "tradesim_purchases_total"})
	failures := prometheus.NewCounter(prometheus.CounterOpts{Name: "tradesim_purchase_failures_total"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "tradesim_purchases_skipped_total"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tradesim_events_total"}, []string{"kind"})
	lastTick := prometheus.NewGauge(prometheus.GaugeOpts{Name: "tradesim_last_tick"})
	spend := prometheus.NewGauge(prometheus.GaugeOpts{Name: "tradesim_total_spend"})

	r.MustRegister(ticks, selected, purchases, failures, skipped, events, lastTick, spend)
	return &Registry{
		reg:       r,
		Ticks:     ticks,
		Selected:  selected,
		Purchases: purchases,
		Failures:  failures,
		Skipped:   skipped,
		Events:    events,
		LastTick:  lastTick,
		Spend:     spend,
	}
}

// Observe folds one tick summary into the counters.
func (r *Registry) Observe(res sim.TickResult) {
	r.Ticks.Inc()
	r.LastTick.Set(float64(res.Tick))
	r.Selected.Add(float64(res.Selected))
	r.Purchases.Add(float64(res.Purchases))
	r.Failures.Add(float64(res.Failures))
	r.Skipped.Add(float64(res.Skipped))
	for _, k := range res.Events {
		r.Events.WithLabelValues(string(k)).Inc()
	}
}

// ObserveRun copies run-wide totals that are not derivable from tick summaries.
func (r *Registry) ObserveRun(m *sim.RunMetrics) {
	r.Spend.Set(m.TotalSpend.InexactFloat64())
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
