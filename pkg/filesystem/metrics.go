package filesystem

import "time"

// Metrics receives one observation per filesystem call.
//
// Implementations must be safe for concurrent use. A Prometheus
// implementation lives in pkg/metrics; a nil Metrics disables collection.
type Metrics interface {
	// RecordOperation records a completed call. err is nil on success and
	// usually wraps an lfs.Error otherwise.
	RecordOperation(op string, duration time.Duration, err error)

	// RecordBytes records payload bytes moved by a file read or write.
	// direction is "read" or "write".
	RecordBytes(direction string, n int)
}

type noopMetrics struct{}

func (noopMetrics) RecordOperation(string, time.Duration, error) {}
func (noopMetrics) RecordBytes(string, int)                      {}
