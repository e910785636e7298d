package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DiscountMetrics records discount validation outcomes and lookup latency.
type DiscountMetrics struct {
	validations *prometheus.CounterVec
	lookups     *prometheus.HistogramVec
}

// NewDiscountMetrics registers the discount metrics on the provided registerer.
func NewDiscountMetrics(reg prometheus.Registerer) *DiscountMetrics {
	if reg == nil {
		return &DiscountMetrics{}
	}
	validations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discount_validations_total",
		Help: "Discount code validations by outcome.",
	}, []string{"outcome"})
	lookups := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "discount_lookup_duration_seconds",
		Help:    "Duration of discount code lookups in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	reg.MustRegister(validations, lookups)
	return &DiscountMetrics{
		validations: validations,
		lookups:     lookups,
	}
}

// IncOutcome counts one validation with the given outcome (e.g. "applied", "expired").
func (d *DiscountMetrics) IncOutcome(outcome string) {
	if d == nil || d.validations == nil {
		return
	}
	d.validations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveLookup records how long a lookup took and whether it succeeded.
func (d *DiscountMetrics) ObserveLookup(result string, duration time.Duration) {
	if d == nil || d.lookups == nil {
		return
	}
	d.lookups.WithLabelValues(normalizeLabel(result)).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
