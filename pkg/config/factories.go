package config

import (
	"context"
	"fmt"

	"github.com/marmos91/littlefs/internal/logger"
	"github.com/marmos91/littlefs/pkg/engine/kvfs"
	"github.com/marmos91/littlefs/pkg/kv"
	"github.com/marmos91/littlefs/pkg/kv/badger"
	"github.com/marmos91/littlefs/pkg/kv/memory"
	"github.com/marmos91/littlefs/pkg/kv/s3"
	"github.com/marmos91/littlefs/pkg/metrics"
	"github.com/mitchellh/mapstructure"
)

// CreateStore creates the key-value store the engine runs on.
//
// This factory function uses the Type field to determine which backend to
// create, then decodes the type-specific configuration from the corresponding
// map and passes it to the backend's constructor. When metrics are enabled
// the store is instrumented.
//
// Supported types:
//   - "memory": Uses pkg/kv/memory (in-process B-tree, lost on exit)
//   - "badger": Uses pkg/kv/badger (BadgerDB on disk or in memory)
//   - "s3": Uses pkg/kv/s3 (one object per key in an S3 bucket)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Engine configuration
//
// Returns:
//   - kv.Store: Initialized store
//   - error: Configuration or initialization error
func CreateStore(ctx context.Context, cfg *EngineConfig) (kv.Store, error) {
	var (
		store kv.Store
		err   error
	)

	switch cfg.Type {
	case "memory":
		store = memory.New()
	case "badger":
		store, err = createBadgerStore(ctx, cfg.Badger)
	case "s3":
		store, err = createS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown store type: %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Created %s store", cfg.Type)
	return kv.Instrument(store, metrics.NewStoreMetrics(cfg.Type)), nil
}

// createBadgerStore creates a BadgerDB-backed store.
func createBadgerStore(ctx context.Context, options map[string]any) (kv.Store, error) {
	var storeCfg badger.Config
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger store config: %w", err)
	}

	store, err := badger.Open(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger store: %w", err)
	}
	return store, nil
}

// createS3Store creates an S3-backed store.
func createS3Store(ctx context.Context, options map[string]any) (kv.Store, error) {
	var storeCfg s3.Config
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 store config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 store: bucket is required")
	}

	store, err := s3.Open(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 store: %w", err)
	}
	return store, nil
}

// CreateEngine creates the store and a reference engine over it.
//
// The caller owns the returned store and must Close it after unmounting.
func CreateEngine(ctx context.Context, cfg *EngineConfig) (*kvfs.Engine, kv.Store, error) {
	store, err := CreateStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return kvfs.New(store, cfg.Limits), store, nil
}

// ConfigureLogging applies the logging section to the global logger.
func ConfigureLogging(cfg *LoggingConfig) error {
	if err := logger.Configure(cfg.Level, cfg.Format, cfg.Output); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	return nil
}
