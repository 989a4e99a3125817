package kv

import (
	"context"
	"errors"
)

// DropBatchSize caps the deletes DropAll issues per Update, keeping each
// transaction well under backend size limits such as badger's.
const DropBatchSize = 1000

// Dropper is implemented by stores that can discard every key natively.
type Dropper interface {
	DropAll(ctx context.Context) error
}

// errBatchFull stops a Scan once a batch has been collected.
var errBatchFull = errors.New("kv: batch full")

// DropAll removes every key from store. Wrappers that expose Unwrap are
// looked through so a native Dropper is found; otherwise keys are deleted
// in Updates of at most DropBatchSize keys. The result is not atomic.
func DropAll(ctx context.Context, store Store) error {
	for s := store; s != nil; {
		if d, ok := s.(Dropper); ok {
			return d.DropAll(ctx)
		}
		u, ok := s.(interface{ Unwrap() Store })
		if !ok {
			break
		}
		s = u.Unwrap()
	}

	for {
		var batch [][]byte
		err := store.View(ctx, func(txn Txn) error {
			return txn.Scan(nil, func(key, _ []byte) error {
				batch = append(batch, append([]byte(nil), key...))
				if len(batch) == DropBatchSize {
					return errBatchFull
				}
				return nil
			})
		})
		if err != nil && !errors.Is(err, errBatchFull) {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := store.Update(ctx, func(txn Txn) error {
			for _, key := range batch {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}
}
