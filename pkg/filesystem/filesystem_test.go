package filesystem

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/littlefs/internal/logger"
	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/marmos91/littlefs/pkg/engine/kvfs"
	"github.com/marmos91/littlefs/pkg/kv/memory"
	"github.com/marmos91/littlefs/pkg/lfs"
	"github.com/marmos91/littlefs/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedOp struct {
	op  string
	err error
}

type fakeMetrics struct {
	mu    sync.Mutex
	ops   []recordedOp
	bytes map[string]int
}

func (m *fakeMetrics) RecordOperation(op string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, recordedOp{op: op, err: err})
}

func (m *fakeMetrics) RecordBytes(direction string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bytes == nil {
		m.bytes = make(map[string]int)
	}
	m.bytes[direction] += n
}

func newEngine(limits engine.Limits) engine.Engine {
	return kvfs.New(memory.New(), limits)
}

func mount(t *testing.T, opts ...Option) *FS {
	t.Helper()
	eng := newEngine(engine.Limits{})
	require.NoError(t, Format(eng))
	fsys, err := Mount(eng, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fsys.Unmount() })
	return fsys
}

// requireLFS asserts err is a *fs.PathError for op wrapping want.
func requireLFS(t *testing.T, want lfs.Error, op string, err error) {
	t.Helper()
	require.Error(t, err)

	var pathErr *fs.PathError
	require.True(t, errors.As(err, &pathErr), "expected *fs.PathError, got %T", err)
	assert.Equal(t, op, pathErr.Op)
	assert.Equal(t, want, pathErr.Err)
	assert.ErrorIs(t, err, want)
}

// ============================================================================
// Mount
// ============================================================================

func TestMount_Unformatted(t *testing.T) {
	_, err := Mount(newEngine(engine.Limits{}))
	requireLFS(t, lfs.ErrCorruption, "mount", err)
}

func TestMount_AutoFormat(t *testing.T) {
	fsys, err := Mount(newEngine(engine.Limits{}), WithAutoFormat(true))
	require.NoError(t, err)
	defer fsys.Unmount()

	entries, err := fsys.ReadDir("/")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnmount_Twice(t *testing.T) {
	eng := newEngine(engine.Limits{})
	require.NoError(t, Format(eng))
	fsys, err := Mount(eng)
	require.NoError(t, err)

	require.NoError(t, fsys.Unmount())
	requireLFS(t, lfs.ErrInvalid, "unmount", fsys.Unmount())
}

// ============================================================================
// Namespace
// ============================================================================

func TestMkdirAndStat(t *testing.T) {
	fsys := mount(t)

	require.NoError(t, fsys.Mkdir("/docs"))
	requireLFS(t, lfs.ErrEntryAlreadyExisted, "mkdir", fsys.Mkdir("/docs"))
	requireLFS(t, lfs.ErrNoSuchEntry, "mkdir", fsys.Mkdir("/a/b"))

	info, err := fsys.Stat("docs/")
	require.NoError(t, err)
	assert.Equal(t, "docs", info.Name())
	assert.True(t, info.IsDir())
	assert.Equal(t, fs.ModeDir|0o755, info.Mode())

	_, err = fsys.Stat("/nope")
	requireLFS(t, lfs.ErrNoSuchEntry, "stat", err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMkdirAll(t *testing.T) {
	fsys := mount(t)

	require.NoError(t, fsys.MkdirAll("/a/b/c"))
	require.NoError(t, fsys.MkdirAll("/a/b/c"), "existing tree")
	require.NoError(t, fsys.MkdirAll("/"))

	require.NoError(t, fsys.WriteFile("/a/file", []byte("x")))
	requireLFS(t, lfs.ErrPathNotDir, "mkdir", fsys.MkdirAll("/a/file/sub"))
}

func TestRemoveAndRemoveAll(t *testing.T) {
	fsys := mount(t)
	require.NoError(t, fsys.MkdirAll("/tree/sub"))
	require.NoError(t, fsys.WriteFile("/tree/sub/f", []byte("data")))
	require.NoError(t, fsys.WriteFile("/tree/g", []byte("more")))

	requireLFS(t, lfs.ErrDirNotEmpty, "remove", fsys.Remove("/tree"))
	requireLFS(t, lfs.ErrInvalid, "remove", fsys.Remove("/"))

	require.NoError(t, fsys.RemoveAll("/tree"))
	require.NoError(t, fsys.RemoveAll("/tree"), "missing path")

	exists, err := fsys.Exists("/tree")
	require.NoError(t, err)
	assert.False(t, exists)

	used, err := fsys.Used()
	require.NoError(t, err)
	assert.Equal(t, int64(0), used)
}

func TestRemoveAll_Root(t *testing.T) {
	fsys := mount(t)
	require.NoError(t, fsys.MkdirAll("/a/b"))
	require.NoError(t, fsys.WriteFile("/c", nil))

	require.NoError(t, fsys.RemoveAll("/"))

	entries, err := fsys.ReadDir("/")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRename(t *testing.T) {
	fsys := mount(t)
	require.NoError(t, fsys.WriteFile("/old", []byte("content")))
	require.NoError(t, fsys.Mkdir("/dir"))

	require.NoError(t, fsys.Rename("/old", "/dir/new"))
	data, err := fsys.ReadFile("/dir/new")
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)

	requireLFS(t, lfs.ErrNoSuchEntry, "rename", fsys.Rename("/old", "/x"))
	requireLFS(t, lfs.ErrPathIsDir, "rename", fsys.Rename("/dir/new", "/dir"))
	requireLFS(t, lfs.ErrIo, "rename", fsys.Rename("/dir/new", "/../x"))
}

func TestReadDir(t *testing.T) {
	fsys := mount(t)
	require.NoError(t, fsys.Mkdir("/d"))
	require.NoError(t, fsys.WriteFile("/d/b", []byte("bb")))
	require.NoError(t, fsys.WriteFile("/d/a", []byte("a")))
	require.NoError(t, fsys.Mkdir("/d/c"))

	entries, err := fsys.ReadDir("/d")
	require.NoError(t, err)

	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.True(t, sort.StringsAreSorted(names))
	assert.Equal(t, []string{"a", "b", "c"}, names)
	assert.True(t, entries[2].IsDir())

	info, err := entries[1].Info()
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Size())

	_, err = fsys.ReadDir("/d/a")
	requireLFS(t, lfs.ErrPathNotDir, "readdir", err)
}

// ============================================================================
// Paths
// ============================================================================

func TestInvalidPathsBecomeIo(t *testing.T) {
	fsys := mount(t)

	for _, name := range []string{"", "/a\x00b", "/../etc", "\xff"} {
		err := fsys.Mkdir(name)
		requireLFS(t, lfs.ErrIo, "mkdir", err)

		var pathErr *fs.PathError
		require.True(t, errors.As(err, &pathErr))
		assert.Equal(t, name, pathErr.Path, "path is reported as given")
	}
}

func TestInvalidPathsLogAtDebug(t *testing.T) {
	fsys := mount(t)

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetLevel("DEBUG")
	t.Cleanup(func() {
		logger.SetOutput(os.Stdout)
		logger.SetLevel("INFO")
	})

	requireLFS(t, lfs.ErrIo, "mkdir", fsys.Mkdir("/a\x00"))
	requireLFS(t, lfs.ErrIo, "rename", fsys.Rename("/a", "/../b"))

	out := buf.String()
	assert.Contains(t, out, "Rejected path")
	assert.NotContains(t, out, "[ERROR]")
}

func TestLongNames(t *testing.T) {
	fsys := mount(t)

	err := fsys.Mkdir("/" + strings.Repeat("x", 256))
	requireLFS(t, lfs.ErrFilenameTooLong, "mkdir", err)

	require.NoError(t, fsys.Mkdir("/"+strings.Repeat("y", 255)))

	deep := strings.Repeat("/abcdefghi", 31)
	require.Greater(t, len(deep), 300)
	require.NoError(t, fsys.MkdirAll(deep))

	info, err := fsys.Stat(deep)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "abcdefghi", info.Name())
}

func TestErrorsClassifyAsOther(t *testing.T) {
	fsys := mount(t)
	_, err := fsys.Open("/missing")
	assert.Equal(t, stream.KindOther, stream.KindOf(err))
}

// ============================================================================
// Files
// ============================================================================

func TestFileReadWriteSeek(t *testing.T) {
	fsys := mount(t)

	file, err := fsys.Create("/f")
	require.NoError(t, err)
	assert.Equal(t, "/f", file.Name())

	n, err := file.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	pos, err := file.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	buf := make([]byte, 4)
	n, err = file.Read(buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err, "EOF is returned unwrapped")

	pos, err = file.Seek(-5, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)

	_, err = file.Seek(-1, io.SeekStart)
	requireLFS(t, lfs.ErrInvalid, "seek", err)
	_, err = file.Seek(1<<40, io.SeekStart)
	requireLFS(t, lfs.ErrInvalid, "seek", err)

	size, err := file.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)

	require.NoError(t, file.Truncate(5))
	require.NoError(t, file.Sync())
	info, err := file.Stat()
	require.NoError(t, err)
	assert.Equal(t, "f", info.Name())
	assert.Equal(t, int64(5), info.Size())

	require.NoError(t, file.Close())
	err = file.Close()
	requireLFS(t, lfs.ErrBadFileDescriptor, "close", err)
	assert.ErrorIs(t, err, fs.ErrClosed)

	_, err = file.Read(buf)
	requireLFS(t, lfs.ErrBadFileDescriptor, "read", err)
}

func TestOpenFileFlags(t *testing.T) {
	fsys := mount(t)

	_, err := fsys.Open("/missing")
	requireLFS(t, lfs.ErrNoSuchEntry, "open", err)

	file, err := fsys.OpenFile("/f", os.O_WRONLY|os.O_CREATE|os.O_EXCL)
	require.NoError(t, err)
	_, err = file.Read(make([]byte, 1))
	requireLFS(t, lfs.ErrBadFileDescriptor, "read", err)
	require.NoError(t, file.Close())

	_, err = fsys.OpenFile("/f", os.O_WRONLY|os.O_CREATE|os.O_EXCL)
	requireLFS(t, lfs.ErrEntryAlreadyExisted, "open", err)
	assert.ErrorIs(t, err, fs.ErrExist)

	require.NoError(t, fsys.WriteFile("/log", []byte("a")))
	file, err = fsys.OpenFile("/log", os.O_WRONLY|os.O_APPEND)
	require.NoError(t, err)
	_, err = file.Write([]byte("b"))
	require.NoError(t, err)
	require.NoError(t, file.Close())

	data, err := fsys.ReadFile("/log")
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), data)

	_, err = fsys.Open("/")
	requireLFS(t, lfs.ErrPathIsDir, "open", err)
}

func TestReadFileLarge(t *testing.T) {
	fsys := mount(t)
	payload := []byte(strings.Repeat("0123456789", 1000))

	require.NoError(t, fsys.WriteFile("/big", payload))
	data, err := fsys.ReadFile("/big")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

// ============================================================================
// Attributes
// ============================================================================

func TestAttributes(t *testing.T) {
	fsys := mount(t)
	require.NoError(t, fsys.WriteFile("/f", nil))

	_, err := fsys.GetAttr("/f", 7)
	requireLFS(t, lfs.ErrNoAttribute, "getattr", err)

	require.NoError(t, fsys.SetAttr("/f", 7, []byte("v1")))
	value, err := fsys.GetAttr("/f", 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), value)

	require.NoError(t, fsys.RemoveAttr("/f", 7))
	_, err = fsys.GetAttr("/f", 7)
	requireLFS(t, lfs.ErrNoAttribute, "getattr", err)

	err = fsys.SetAttr("/f", 7, make([]byte, 2000))
	requireLFS(t, lfs.ErrNoSpace, "setattr", err)
}

func TestGetAttrLargerThanDefaultBuffer(t *testing.T) {
	eng := newEngine(engine.Limits{AttrMax: 4096})
	fsys, err := Mount(eng, WithAutoFormat(true))
	require.NoError(t, err)
	defer fsys.Unmount()

	value := []byte(strings.Repeat("v", 3000))
	require.NoError(t, fsys.WriteFile("/f", nil))
	require.NoError(t, fsys.SetAttr("/f", 1, value))

	got, err := fsys.GetAttr("/f", 1)
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

// ============================================================================
// Engine codes
// ============================================================================

// statEngine overrides Stat with a fixed return code.
type statEngine struct {
	engine.Engine
	code int32
}

func (e statEngine) Stat(string, *engine.Info) int32 { return e.code }

func TestUnknownEngineCode(t *testing.T) {
	base := newEngine(engine.Limits{})
	require.NoError(t, Format(base))
	fsys, err := Mount(statEngine{Engine: base, code: -9999})
	require.NoError(t, err)
	defer fsys.Unmount()

	_, err = fsys.Stat("/")
	requireLFS(t, lfs.Unknown(-9999), "stat", err)

	var lfsErr lfs.Error
	require.True(t, errors.As(err, &lfsErr))
	assert.Equal(t, int32(-9999), lfsErr.ReturnCode())
}

// ============================================================================
// Metrics
// ============================================================================

func TestMetricsRecorded(t *testing.T) {
	m := &fakeMetrics{}
	fsys := mount(t, WithMetrics(m))

	require.NoError(t, fsys.WriteFile("/f", []byte("12345")))
	_, err := fsys.ReadFile("/f")
	require.NoError(t, err)
	_, err = fsys.Stat("/missing")
	require.Error(t, err)

	m.mu.Lock()
	defer m.mu.Unlock()

	assert.Equal(t, 5, m.bytes["write"])
	assert.Equal(t, 5, m.bytes["read"])

	ops := map[string]int{}
	var statErr error
	for _, rec := range m.ops {
		ops[rec.op]++
		if rec.op == "stat" {
			statErr = rec.err
		}
	}
	assert.Equal(t, 1, ops["mount"])
	assert.Equal(t, 2, ops["open"])
	assert.Equal(t, 2, ops["close"])
	assert.Equal(t, 1, ops["write"])
	assert.Equal(t, 2, ops["read"], "data read plus the EOF read")
	assert.Equal(t, lfs.ErrNoSuchEntry, statErr)
}

func TestWithNilMetrics(t *testing.T) {
	fsys := mount(t, WithMetrics(nil))
	require.NoError(t, fsys.Mkdir("/ok"))
}
