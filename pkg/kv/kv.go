// Package kv defines the key-value storage the reference engine runs on.
//
// Backends:
//   - memory: in-process B-tree, copy-on-write transactions
//   - badger: BadgerDB, on disk or in memory
//   - s3: one object per key in an S3 bucket
package kv

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Txn.Get for a missing key.
	ErrNotFound = errors.New("kv: key not found")

	// ErrReadOnly is returned by writes inside View.
	ErrReadOnly = errors.New("kv: read-only transaction")

	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("kv: store closed")
)

// Store is a transactional key-value store.
//
// View runs fn against a read-only snapshot. Update runs fn in a read-write
// transaction that is committed if fn returns nil and discarded otherwise.
// Whether the commit is atomic is backend dependent; memory and badger are
// atomic, s3 is not.
type Store interface {
	View(ctx context.Context, fn func(txn Txn) error) error
	Update(ctx context.Context, fn func(txn Txn) error) error
	Close() error
}

// Txn is a transaction handle. It must not be used after fn returns.
type Txn interface {
	// Get returns a copy of the value for key, or ErrNotFound.
	Get(key []byte) ([]byte, error)

	Set(key, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key []byte) error

	// Scan calls fn for every key with the given prefix in ascending order.
	// A non-nil error from fn stops the scan and is returned. fn must not
	// write through the same transaction.
	Scan(prefix []byte, fn func(key, value []byte) error) error
}
