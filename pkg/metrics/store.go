package metrics

import (
	"sync"
	"time"

	"github.com/marmos91/littlefs/pkg/kv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeCollectorsOnce sync.Once
	storeTxnsTotal      *prometheus.CounterVec
	storeTxnDuration    *prometheus.HistogramVec
)

// storeMetrics is the Prometheus implementation of kv.Metrics for one
// store type.
type storeMetrics struct {
	storeType string
}

// NewStoreMetrics returns a kv.Metrics labelled with storeType ("memory",
// "badger", "s3").
//
// Returns nil if metrics are not enabled, which kv.Instrument treats as
// "do not wrap".
func NewStoreMetrics(storeType string) kv.Metrics {
	if !IsEnabled() {
		return nil
	}

	storeCollectorsOnce.Do(func() {
		reg := GetRegistry()
		storeTxnsTotal = promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "littlefs_store_transactions_total",
				Help: "Total number of key-value store transactions by store, kind and status",
			},
			[]string{"store", "kind", "status"},
		)
		storeTxnDuration = promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "littlefs_store_transaction_duration_seconds",
				Help: "Duration of key-value store transactions in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.001,  // 1ms
					0.01,   // 10ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
					5.0,    // 5s
				},
			},
			[]string{"store", "kind"},
		)
	})

	return &storeMetrics{storeType: storeType}
}

func (m *storeMetrics) RecordTransaction(kind string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	storeTxnsTotal.WithLabelValues(m.storeType, kind, status).Inc()
	storeTxnDuration.WithLabelValues(m.storeType, kind).Observe(duration.Seconds())
}
