// Package badger is a kv.Store backed by BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/littlefs/pkg/kv"
)

// Config configures a BadgerDB store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string `mapstructure:"path"`

	// InMemory keeps the database in RAM only.
	InMemory bool `mapstructure:"in_memory"`

	// SyncWrites fsyncs every commit.
	SyncWrites bool `mapstructure:"sync_writes"`
}

// Store wraps a BadgerDB handle.
type Store struct {
	db *badger.DB
}

// Open opens or creates the database described by cfg.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger store: path is required")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithLoggingLevel(badger.WARNING) // Reduce log noise
	opts = opts.WithCompression(options.None)    // Records are small

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.Path, err)
	}

	return &Store{db: db}, nil
}

func (s *Store) View(ctx context.Context, fn func(txn kv.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(t *badger.Txn) error {
		return fn(&txn{t: t})
	})
}

func (s *Store) Update(ctx context.Context, fn func(txn kv.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(t *badger.Txn) error {
		return fn(&txn{t: t})
	})
}

// DropAll discards every key with badger's native drop, which is not bound
// by the transaction size limit.
func (s *Store) DropAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return kv.ErrClosed
	}
	return s.db.DropAll()
}

func (s *Store) Close() error {
	return s.db.Close()
}

type txn struct {
	t *badger.Txn
}

func (t *txn) Get(key []byte) ([]byte, error) {
	item, err := t.t.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *txn) Set(key, value []byte) error {
	err := t.t.Set(key, value)
	if errors.Is(err, badger.ErrReadOnlyTxn) {
		return kv.ErrReadOnly
	}
	return err
}

func (t *txn) Delete(key []byte) error {
	err := t.t.Delete(key)
	if errors.Is(err, badger.ErrReadOnlyTxn) {
		return kv.ErrReadOnly
	}
	return err
}

func (t *txn) Scan(prefix []byte, fn func(key, value []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := t.t.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(item.KeyCopy(nil), value); err != nil {
			return err
		}
	}
	return nil
}
