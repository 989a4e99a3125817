package metrics

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/marmos91/littlefs/pkg/engine/kvfs"
	"github.com/marmos91/littlefs/pkg/filesystem"
	"github.com/marmos91/littlefs/pkg/kv"
	"github.com/marmos91/littlefs/pkg/kv/memory"
	"github.com/marmos91/littlefs/pkg/lfs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "Success", ResultLabel(nil))
	assert.Equal(t, "NoSuchEntry", ResultLabel(lfs.ErrNoSuchEntry))
	assert.Equal(t, "Unknown", ResultLabel(lfs.Unknown(-9999)))
	assert.Equal(t, "Io", ResultLabel(fmt.Errorf("wrapped: %w", lfs.ErrIo)))
	assert.Equal(t, "Other", ResultLabel(context.Canceled))
}

// The registry is process-global, so the tests below run in order and
// compare deltas rather than absolute values.

func TestDisabled(t *testing.T) {
	if IsEnabled() {
		t.Skip("registry already initialized")
	}
	assert.Nil(t, NewFilesystemMetrics())
	assert.Nil(t, NewStoreMetrics("memory"))

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf))
	assert.Empty(t, buf.String())
}

func TestFilesystemMetrics(t *testing.T) {
	InitRegistry()
	require.True(t, IsEnabled())

	m := NewFilesystemMetrics()
	require.NotNil(t, m)
	assert.Same(t, m, NewFilesystemMetrics(), "collectors are shared")

	fm := m.(*filesystemMetrics)
	okBefore := testutil.ToFloat64(fm.operationsTotal.WithLabelValues("stat", "Success"))
	missBefore := testutil.ToFloat64(fm.operationsTotal.WithLabelValues("stat", "NoSuchEntry"))
	readBefore := testutil.ToFloat64(fm.bytesTotal.WithLabelValues("read"))

	m.RecordOperation("stat", time.Millisecond, nil)
	m.RecordOperation("stat", time.Millisecond, lfs.ErrNoSuchEntry)
	m.RecordOperation("stat", time.Millisecond, lfs.ErrNoSuchEntry)
	m.RecordBytes("read", 512)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(fm.operationsTotal.WithLabelValues("stat", "Success")))
	assert.Equal(t, missBefore+2, testutil.ToFloat64(fm.operationsTotal.WithLabelValues("stat", "NoSuchEntry")))
	assert.Equal(t, readBefore+512, testutil.ToFloat64(fm.bytesTotal.WithLabelValues("read")))
}

func TestFilesystemMetrics_EndToEnd(t *testing.T) {
	InitRegistry()

	store := kv.Instrument(memory.New(), NewStoreMetrics("memory"))
	eng := kvfs.New(store, engine.Limits{})
	fsys, err := filesystem.Mount(eng, filesystem.WithAutoFormat(true), filesystem.WithMetrics(NewFilesystemMetrics()))
	require.NoError(t, err)
	defer fsys.Unmount()

	fm := NewFilesystemMetrics().(*filesystemMetrics)
	before := testutil.ToFloat64(fm.operationsTotal.WithLabelValues("mkdir", "EntryAlreadyExisted"))
	updatesBefore := testutil.ToFloat64(storeTxnsTotal.WithLabelValues("memory", "update", "success"))

	require.NoError(t, fsys.Mkdir("/a"))
	require.Error(t, fsys.Mkdir("/a"))

	assert.Equal(t, before+1, testutil.ToFloat64(fm.operationsTotal.WithLabelValues("mkdir", "EntryAlreadyExisted")))
	assert.Equal(t, updatesBefore+1, testutil.ToFloat64(storeTxnsTotal.WithLabelValues("memory", "update", "success")))

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf))
	assert.Contains(t, buf.String(), "littlefs_operations_total")
	assert.Contains(t, buf.String(), "littlefs_store_transactions_total")
}

func TestStoreMetrics(t *testing.T) {
	InitRegistry()

	m := NewStoreMetrics("badger")
	require.NotNil(t, m)

	before := testutil.ToFloat64(storeTxnsTotal.WithLabelValues("badger", "view", "error"))
	m.RecordTransaction("view", time.Millisecond, kv.ErrClosed)
	assert.Equal(t, before+1, testutil.ToFloat64(storeTxnsTotal.WithLabelValues("badger", "view", "error")))
}
