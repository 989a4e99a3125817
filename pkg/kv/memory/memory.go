// Package memory is an in-process kv.Store backed by a B-tree.
package memory

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/marmos91/littlefs/pkg/kv"
	"github.com/tidwall/btree"
)

// Store keeps all data in a copy-on-write B-tree.
//
// Update works on a lazy copy of the tree and swaps it in on success, so a
// failed transaction leaves no trace. Writers are serialized and readers see
// the last committed tree.
type Store struct {
	mu     sync.Mutex // serializes writers
	viewMu sync.RWMutex
	tree   *btree.Map[string, []byte]
	closed bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		tree: btree.NewMap[string, []byte](0), // degree 0 = default
	}
}

func (s *Store) View(ctx context.Context, fn func(txn kv.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.viewMu.RLock()
	defer s.viewMu.RUnlock()

	if s.closed {
		return kv.ErrClosed
	}
	return fn(&txn{tree: s.tree, readOnly: true})
}

func (s *Store) Update(ctx context.Context, fn func(txn kv.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy marks the source tree, so it needs the exclusive lock.
	s.viewMu.Lock()
	if s.closed {
		s.viewMu.Unlock()
		return kv.ErrClosed
	}
	tree := s.tree.Copy()
	s.viewMu.Unlock()

	if err := fn(&txn{tree: tree}); err != nil {
		return err
	}

	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	if s.closed {
		return kv.ErrClosed
	}
	s.tree = tree
	return nil
}

// Close drops all data.
func (s *Store) Close() error {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	s.closed = true
	s.tree = nil
	return nil
}

type txn struct {
	tree     *btree.Map[string, []byte]
	readOnly bool
}

func (t *txn) Get(key []byte) ([]byte, error) {
	v, ok := t.tree.Get(string(key))
	if !ok {
		return nil, kv.ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (t *txn) Set(key, value []byte) error {
	if t.readOnly {
		return kv.ErrReadOnly
	}
	t.tree.Set(string(key), bytes.Clone(value))
	return nil
}

func (t *txn) Delete(key []byte) error {
	if t.readOnly {
		return kv.ErrReadOnly
	}
	t.tree.Delete(string(key))
	return nil
}

func (t *txn) Scan(prefix []byte, fn func(key, value []byte) error) error {
	p := string(prefix)

	var err error
	t.tree.Ascend(p, func(k string, v []byte) bool {
		if !strings.HasPrefix(k, p) {
			return false
		}
		err = fn([]byte(k), bytes.Clone(v))
		return err == nil
	})
	return err
}
