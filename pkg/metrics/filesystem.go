package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/marmos91/littlefs/pkg/filesystem"
	"github.com/marmos91/littlefs/pkg/lfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// filesystemMetrics is the Prometheus implementation of filesystem.Metrics.
//
// This implementation collects:
//   - Call counts by operation and outcome
//   - Call latency
//   - Payload bytes read and written
type filesystemMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTotal        *prometheus.CounterVec
}

var (
	fsMetricsOnce sync.Once
	fsMetrics     *filesystemMetrics
)

// NewFilesystemMetrics returns the Prometheus-backed filesystem.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// filesystem.WithMetrics treats as "keep the no-op implementation". The
// collectors are registered once; later calls share them.
func NewFilesystemMetrics() filesystem.Metrics {
	if !IsEnabled() {
		return nil
	}
	fsMetricsOnce.Do(func() { fsMetrics = newFilesystemMetrics(GetRegistry()) })
	return fsMetrics
}

func newFilesystemMetrics(reg prometheus.Registerer) *filesystemMetrics {
	return &filesystemMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "littlefs_operations_total",
				Help: "Total number of filesystem calls by operation and result",
			},
			[]string{"operation", "result"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "littlefs_operation_duration_seconds",
				Help: "Duration of filesystem calls in seconds",
				Buckets: []float64{
					0.00001, // 10µs
					0.0001,  // 100µs
					0.001,   // 1ms
					0.01,    // 10ms
					0.1,     // 100ms
					1.0,     // 1s
				},
			},
			[]string{"operation"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "littlefs_bytes_total",
				Help: "Total file payload bytes by direction",
			},
			[]string{"direction"}, // read or write
		),
	}
}

// ResultLabel returns the result label for err: the lfs.ErrorCode name
// ("Success", "NoSuchEntry", ...) or "Other" for errors from outside lfs.
func ResultLabel(err error) string {
	if err == nil {
		return lfs.CodeSuccess.String()
	}
	var lfsErr lfs.Error
	if errors.As(err, &lfsErr) {
		return lfsErr.Code().String()
	}
	return "Other"
}

func (m *filesystemMetrics) RecordOperation(op string, duration time.Duration, err error) {
	m.operationsTotal.WithLabelValues(op, ResultLabel(err)).Inc()
	m.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func (m *filesystemMetrics) RecordBytes(direction string, n int) {
	m.bytesTotal.WithLabelValues(direction).Add(float64(n))
}
