package memory

import (
	"context"
	"testing"

	"github.com/marmos91/littlefs/pkg/kv"
	"github.com/marmos91/littlefs/pkg/kv/kvtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	suite := &kvtest.StoreTestSuite{
		NewStore: func(t *testing.T) kv.Store { return New() },
		Atomic:   true,
	}
	suite.Run(t)
}

func TestMemoryStore_ViewSeesCommittedSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(txn kv.Txn) error {
		return txn.Set([]byte("k"), []byte("old"))
	}))

	require.NoError(t, s.View(ctx, func(txn kv.Txn) error {
		v, err := txn.Get([]byte("k"))
		require.NoError(t, err)

		// Mutating the returned slice must not leak into the store.
		v[0] = 'X'
		return nil
	}))

	require.NoError(t, s.View(ctx, func(txn kv.Txn) error {
		v, err := txn.Get([]byte("k"))
		require.NoError(t, err)
		assert.Equal(t, "old", string(v))
		return nil
	}))
}

func TestMemoryStore_Closed(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())

	err := s.View(context.Background(), func(txn kv.Txn) error { return nil })
	assert.ErrorIs(t, err, kv.ErrClosed)

	err = s.Update(context.Background(), func(txn kv.Txn) error { return nil })
	assert.ErrorIs(t, err, kv.ErrClosed)
}
