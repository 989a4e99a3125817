package config

import (
	"github.com/marmos91/littlefs/pkg/filesystem"
	"github.com/marmos91/littlefs/pkg/metrics"
)

// InitializeMetrics sets up metrics collection based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Returns a Prometheus-backed filesystem.Metrics
//
// If metrics are disabled it returns nil, which filesystem.WithMetrics
// treats as "no metrics". It must run before CreateStore for store
// transactions to be instrumented.
func InitializeMetrics(cfg *Config) filesystem.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}

	metrics.InitRegistry()
	return metrics.NewFilesystemMetrics()
}
