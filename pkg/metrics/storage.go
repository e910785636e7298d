package metrics

import "github.com/prometheus/client_golang/prometheus"

// StorageMetrics counts persistence operations per driver.
type StorageMetrics struct {
	operations *prometheus.CounterVec
}

func NewStorageMetrics(reg prometheus.Registerer) *StorageMetrics {
	if reg == nil {
		return &StorageMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_operations_total",
		Help: "Storage adapter operations by driver, operation and result.",
	}, []string{"driver", "op", "result"})
	reg.MustRegister(operations)
	return &StorageMetrics{operations: operations}
}

// Observe counts one operation; a nil err is recorded as "ok".
func (s *StorageMetrics) Observe(driver, op string, err error) {
	if s == nil || s.operations == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.operations.WithLabelValues(normalizeLabel(driver), normalizeLabel(op), result).Inc()
}
