// Package kvtest is a conformance suite for kv.Store implementations.
package kvtest

import (
	"context"
	"errors"
	"testing"

	"github.com/marmos91/littlefs/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreTestSuite tests the kv.Store contract. NewStore must return a fresh,
// empty store for each call.
type StoreTestSuite struct {
	NewStore func(t *testing.T) kv.Store

	// Atomic enables checks that a failed Update leaves no writes behind.
	Atomic bool
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("GetSetDelete", suite.testGetSetDelete)
	t.Run("Scan", suite.testScan)
	t.Run("ViewIsReadOnly", suite.testViewIsReadOnly)
	t.Run("FailedUpdateDiscarded", suite.testFailedUpdateDiscarded)
	t.Run("CancelledContext", suite.testCancelledContext)
}

func (suite *StoreTestSuite) store(t *testing.T) kv.Store {
	t.Helper()
	s := suite.NewStore(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func (suite *StoreTestSuite) testGetSetDelete(t *testing.T) {
	s := suite.store(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(txn kv.Txn) error {
		return txn.Set([]byte("k"), []byte("v1"))
	}))

	require.NoError(t, s.View(ctx, func(txn kv.Txn) error {
		v, err := txn.Get([]byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), v)

		_, err = txn.Get([]byte("missing"))
		assert.ErrorIs(t, err, kv.ErrNotFound)
		return nil
	}))

	require.NoError(t, s.Update(ctx, func(txn kv.Txn) error {
		require.NoError(t, txn.Delete([]byte("k")))
		require.NoError(t, txn.Delete([]byte("never-existed")))

		_, err := txn.Get([]byte("k"))
		assert.ErrorIs(t, err, kv.ErrNotFound)
		return nil
	}))

	require.NoError(t, s.View(ctx, func(txn kv.Txn) error {
		_, err := txn.Get([]byte("k"))
		assert.ErrorIs(t, err, kv.ErrNotFound)
		return nil
	}))
}

func (suite *StoreTestSuite) testScan(t *testing.T) {
	s := suite.store(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(txn kv.Txn) error {
		for _, k := range []string{"c:1:b", "c:1:a", "c:2:a", "f:1", "c:1:c"} {
			if err := txn.Set([]byte(k), []byte("v-"+k)); err != nil {
				return err
			}
		}
		return nil
	}))

	var keys []string
	require.NoError(t, s.View(ctx, func(txn kv.Txn) error {
		return txn.Scan([]byte("c:1:"), func(key, value []byte) error {
			keys = append(keys, string(key))
			assert.Equal(t, "v-"+string(key), string(value))
			return nil
		})
	}))
	assert.Equal(t, []string{"c:1:a", "c:1:b", "c:1:c"}, keys)

	stop := errors.New("stop")
	count := 0
	err := s.View(ctx, func(txn kv.Txn) error {
		return txn.Scan([]byte("c:"), func(key, value []byte) error {
			count++
			return stop
		})
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, count)
}

func (suite *StoreTestSuite) testViewIsReadOnly(t *testing.T) {
	s := suite.store(t)

	err := s.View(context.Background(), func(txn kv.Txn) error {
		return txn.Set([]byte("k"), []byte("v"))
	})
	assert.Error(t, err)
}

func (suite *StoreTestSuite) testFailedUpdateDiscarded(t *testing.T) {
	if !suite.Atomic {
		t.Skip("store does not guarantee atomic updates")
	}

	s := suite.store(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Update(ctx, func(txn kv.Txn) error {
		require.NoError(t, txn.Set([]byte("k"), []byte("v")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(txn kv.Txn) error {
		_, err := txn.Get([]byte("k"))
		assert.ErrorIs(t, err, kv.ErrNotFound)
		return nil
	}))
}

func (suite *StoreTestSuite) testCancelledContext(t *testing.T) {
	s := suite.store(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Update(ctx, func(txn kv.Txn) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
