package kvfs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/marmos91/littlefs/pkg/engine"
	enginetesting "github.com/marmos91/littlefs/pkg/engine/testing"
	"github.com/marmos91/littlefs/pkg/kv"
	"github.com/marmos91/littlefs/pkg/kv/badger"
	"github.com/marmos91/littlefs/pkg/kv/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Memory(t *testing.T) {
	suite := &enginetesting.EngineTestSuite{
		NewEngine: func(t *testing.T, limits engine.Limits) engine.Engine {
			return New(memory.New(), limits)
		},
	}
	suite.Run(t)
}

func TestEngine_BadgerInMemory(t *testing.T) {
	suite := &enginetesting.EngineTestSuite{
		NewEngine: func(t *testing.T, limits engine.Limits) engine.Engine {
			store, err := badger.Open(context.Background(), badger.Config{InMemory: true})
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return New(store, limits)
		},
	}
	suite.Run(t)
}

func TestEngine_BadgerOnDisk(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping on-disk badger suite in short mode")
	}

	suite := &enginetesting.EngineTestSuite{
		NewEngine: func(t *testing.T, limits engine.Limits) engine.Engine {
			store, err := badger.Open(context.Background(), badger.Config{Path: t.TempDir()})
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return New(store, limits)
		},
	}
	suite.Run(t)
}

func writeSuperblock(t *testing.T, store kv.Store, value []byte) {
	t.Helper()
	require.NoError(t, store.Update(context.Background(), func(txn kv.Txn) error {
		return txn.Set(keySuperblock, value)
	}))
}

func TestMount_CorruptSuperblock(t *testing.T) {
	t.Run("Garbage", func(t *testing.T) {
		store := memory.New()
		writeSuperblock(t, store, []byte{0x01})
		assert.Equal(t, engine.ErrCorrupt, New(store, engine.Limits{}).Mount())
	})

	t.Run("WrongMagic", func(t *testing.T) {
		store := memory.New()
		data, err := encode(&superblock{Magic: "ext4", Version: diskVersion})
		require.NoError(t, err)
		writeSuperblock(t, store, data)
		assert.Equal(t, engine.ErrCorrupt, New(store, engine.Limits{}).Mount())
	})

	t.Run("MissingRoot", func(t *testing.T) {
		store := memory.New()
		data, err := encode(&superblock{Magic: magic, Version: diskVersion})
		require.NoError(t, err)
		writeSuperblock(t, store, data)
		assert.Equal(t, engine.ErrCorrupt, New(store, engine.Limits{}).Mount())
	})

	t.Run("CorruptInode", func(t *testing.T) {
		store := memory.New()
		eng := New(store, engine.Limits{})
		require.Equal(t, engine.OK, eng.Format())
		require.Equal(t, engine.OK, eng.Mount())
		require.Equal(t, engine.OK, eng.Mkdir("/d"))

		var id string
		require.NoError(t, store.View(context.Background(), func(txn kv.Txn) error {
			v, err := txn.Get(keyChild(rootID, "d"))
			id = string(v)
			return err
		}))
		require.NoError(t, store.Update(context.Background(), func(txn kv.Txn) error {
			return txn.Set(keyInode(id), []byte{0xde})
		}))

		var info engine.Info
		assert.Equal(t, engine.ErrCorrupt, eng.Stat("/d", &info))
	})
}

func TestMount_IncompatibleVersion(t *testing.T) {
	store := memory.New()
	data, err := encode(&superblock{Magic: magic, Version: 0x00030000})
	require.NoError(t, err)
	writeSuperblock(t, store, data)

	assert.Equal(t, engine.ErrInval, New(store, engine.Limits{}).Mount())
}

func TestMount_AdoptsRecordedLimits(t *testing.T) {
	store := memory.New()
	require.Equal(t, engine.OK, New(store, engine.Limits{NameMax: 16}).Format())

	eng := New(store, engine.Limits{NameMax: 200, MaxOpenFiles: 3})
	require.Equal(t, engine.OK, eng.Mount())

	limits := eng.Limits()
	assert.Equal(t, uint32(16), limits.NameMax)
	assert.Equal(t, uint32(3), limits.MaxOpenFiles)
}

func TestStoreFailureIsIO(t *testing.T) {
	store := memory.New()
	eng := New(store, engine.Limits{})
	require.Equal(t, engine.OK, eng.Format())
	require.Equal(t, engine.OK, eng.Mount())
	require.NoError(t, store.Close())

	var info engine.Info
	assert.Equal(t, engine.ErrIO, eng.Stat("/", &info))
	assert.Equal(t, engine.ErrIO, eng.Mkdir("/a"))
}

// limitedStore fails any Update that writes more than limit keys.
type limitedStore struct {
	kv.Store
	limit int
}

var errTxnTooBig = errors.New("transaction too big")

func (s *limitedStore) Update(ctx context.Context, fn func(txn kv.Txn) error) error {
	return s.Store.Update(ctx, func(txn kv.Txn) error {
		return fn(&limitedTxn{Txn: txn, left: s.limit})
	})
}

type limitedTxn struct {
	kv.Txn
	left int
}

func (t *limitedTxn) Set(key, value []byte) error {
	if t.left--; t.left < 0 {
		return errTxnTooBig
	}
	return t.Txn.Set(key, value)
}

func (t *limitedTxn) Delete(key []byte) error {
	if t.left--; t.left < 0 {
		return errTxnTooBig
	}
	return t.Txn.Delete(key)
}

func seed(t *testing.T, store kv.Store, n int) {
	t.Helper()
	require.NoError(t, store.Update(context.Background(), func(txn kv.Txn) error {
		for i := 0; i < n; i++ {
			if err := txn.Set([]byte(fmt.Sprintf("junk/%05d", i)), []byte("x")); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestFormat_LargeStore(t *testing.T) {
	inner := memory.New()
	defer inner.Close()
	seed(t, inner, 2*kv.DropBatchSize+500)

	store := &limitedStore{Store: inner, limit: kv.DropBatchSize}
	eng := New(store, engine.Limits{})
	require.Equal(t, engine.OK, eng.Format())
	require.Equal(t, engine.OK, eng.Mount())

	var info engine.Info
	require.Equal(t, engine.OK, eng.Stat("/", &info))
	assert.Equal(t, engine.TypeDir, info.Type)

	keys := 0
	require.NoError(t, inner.View(context.Background(), func(txn kv.Txn) error {
		return txn.Scan([]byte("junk/"), func(_, _ []byte) error {
			keys++
			return nil
		})
	}))
	assert.Zero(t, keys)
}

func TestFormat_LargeBadgerStore(t *testing.T) {
	store, err := badger.Open(context.Background(), badger.Config{InMemory: true})
	require.NoError(t, err)
	defer store.Close()
	seed(t, store, 3*kv.DropBatchSize)

	eng := New(store, engine.Limits{})
	require.Equal(t, engine.OK, eng.Format())
	require.Equal(t, engine.OK, eng.Mount())
	assert.Equal(t, engine.OK, eng.Mkdir("/fresh"))
}

func TestFormat_ClosedStoreIsIO(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Close())

	assert.Equal(t, engine.ErrIO, New(store, engine.Limits{}).Format())
}

func TestRecordEncoding(t *testing.T) {
	data, err := encode(&inode{Type: uint32(engine.TypeReg), Size: 42})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 1, 0, 0, 0, 42}, data, "XDR big-endian uint32 pair")

	var node inode
	require.NoError(t, decode(data, &node))
	assert.Equal(t, inode{Type: 1, Size: 42}, node)

	assert.Equal(t, "x:abc:0a", string(keyAttr("abc", 10)))
	assert.Equal(t, "name", childName("p", keyChild("p", "name")))
}
