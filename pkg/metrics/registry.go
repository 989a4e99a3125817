// Package metrics provides Prometheus metrics collection for littlefs components.
//
// All metrics are optional - if not initialized, components use no-op implementations
// that have zero overhead. This allows littlefs to run with or without metrics
// collection enabled.
//
// Usage:
//
//	// Initialize global registry (typically in main.go)
//	metrics.InitRegistry()
//
//	// Create metrics instances for components
//	fsys, err := filesystem.Mount(eng, filesystem.WithMetrics(metrics.NewFilesystemMetrics()))
//	store := kv.Instrument(badgerStore, metrics.NewStoreMetrics("badger"))
//
//	// Without InitRegistry the constructors return nil, which components
//	// treat as "no metrics"
package metrics

import (
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

var (
	// registry is the global Prometheus registry for all littlefs metrics
	// Protected by registryOnce for write-once, read-many pattern
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// This must be called before creating any metrics instances. It's safe to call
// multiple times - subsequent calls are ignored.
//
// If not called, GetRegistry() will return nil and all metrics constructors
// will return nil.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global Prometheus registry.
//
// Returns nil if InitRegistry() has not been called, indicating metrics
// are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true if metrics collection is enabled.
//
// Metrics are enabled if InitRegistry() has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}

// WriteText writes every gathered metric to w in the Prometheus text
// exposition format. It writes nothing when metrics are disabled.
func WriteText(w io.Writer) error {
	reg := GetRegistry()
	if reg == nil {
		return nil
	}

	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
