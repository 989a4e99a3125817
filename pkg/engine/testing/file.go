package testing

import (
	"testing"

	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunFileTests executes all file descriptor tests
func (suite *EngineTestSuite) RunFileTests(t *testing.T) {
	t.Run("OpenFlags", suite.testOpenFlags)
	t.Run("ReadWrite", suite.testReadWrite)
	t.Run("AccessMode", suite.testAccessMode)
	t.Run("Append", suite.testAppend)
	t.Run("Seek", suite.testSeek)
	t.Run("SparseWrite", suite.testSparseWrite)
	t.Run("Truncate", suite.testTruncate)
	t.Run("BadDescriptor", suite.testBadDescriptor)
	t.Run("RemovedWhileOpen", suite.testRemovedWhileOpen)
}

func (suite *EngineTestSuite) testOpenFlags(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	RequireOK(t, eng.Mkdir("/dir"))

	AssertCode(t, engine.ErrNoEnt, eng.FileOpen("/f", engine.O_RDONLY))
	AssertCode(t, engine.ErrInval, eng.FileOpen("/f", 0))
	AssertCode(t, engine.ErrInval, eng.FileOpen("/f", engine.O_RDWR|0x10000))
	AssertCode(t, engine.ErrIsDir, eng.FileOpen("/dir", engine.O_RDONLY))
	AssertCode(t, engine.ErrIsDir, eng.FileOpen("/", engine.O_RDONLY))
	AssertCode(t, engine.ErrNoEnt, eng.FileOpen("/missing/f", engine.O_WRONLY|engine.O_CREAT))

	fd := eng.FileOpen("/f", engine.O_WRONLY|engine.O_CREAT|engine.O_EXCL)
	RequireOK(t, fd)
	RequireOK(t, eng.FileClose(fd))

	AssertCode(t, engine.ErrExist, eng.FileOpen("/f", engine.O_WRONLY|engine.O_CREAT|engine.O_EXCL))

	fd = eng.FileOpen("/f", engine.O_WRONLY|engine.O_CREAT)
	RequireOK(t, fd)
	RequireOK(t, eng.FileClose(fd))
}

func (suite *EngineTestSuite) testReadWrite(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})

	fd := eng.FileOpen("/f", engine.O_RDWR|engine.O_CREAT)
	RequireOK(t, fd)

	assert.Equal(t, int32(11), eng.FileWrite(fd, []byte("hello world")))
	assert.Equal(t, int32(11), eng.FileTell(fd))
	assert.Equal(t, int32(11), eng.FileSize(fd))
	assert.Equal(t, int32(0), eng.FileWrite(fd, nil))

	assert.Equal(t, int32(0), eng.FileSeek(fd, 0, engine.SeekSet))
	buf := make([]byte, 5)
	assert.Equal(t, int32(5), eng.FileRead(fd, buf))
	assert.Equal(t, "hello", string(buf))

	buf = make([]byte, 64)
	n := eng.FileRead(fd, buf)
	require.Equal(t, int32(6), n)
	assert.Equal(t, " world", string(buf[:n]))
	assert.Equal(t, int32(0), eng.FileRead(fd, buf), "read at EOF returns 0")

	// Overwrite in the middle.
	assert.Equal(t, int32(6), eng.FileSeek(fd, 6, engine.SeekSet))
	assert.Equal(t, int32(5), eng.FileWrite(fd, []byte("WORLD")))
	RequireOK(t, eng.FileSync(fd))
	RequireOK(t, eng.FileClose(fd))

	assert.Equal(t, []byte("hello WORLD"), ReadFile(t, eng, "/f"))
	assert.Equal(t, int32(11), eng.FSSize())

	var info engine.Info
	RequireOK(t, eng.Stat("/f", &info))
	assert.Equal(t, uint32(11), info.Size)
}

func (suite *EngineTestSuite) testAccessMode(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	CreateFile(t, eng, "/f", []byte("abc"))

	ro := eng.FileOpen("/f", engine.O_RDONLY)
	RequireOK(t, ro)
	AssertCode(t, engine.ErrBadF, eng.FileWrite(ro, []byte("x")))
	AssertCode(t, engine.ErrBadF, eng.FileTruncate(ro, 0))
	RequireOK(t, eng.FileClose(ro))

	wo := eng.FileOpen("/f", engine.O_WRONLY)
	RequireOK(t, wo)
	AssertCode(t, engine.ErrBadF, eng.FileRead(wo, make([]byte, 1)))
	RequireOK(t, eng.FileClose(wo))

	AssertCode(t, engine.ErrInval, eng.FileOpen("/f", engine.O_RDONLY|engine.O_TRUNC))

	tr := eng.FileOpen("/f", engine.O_WRONLY|engine.O_TRUNC)
	RequireOK(t, tr)
	assert.Equal(t, int32(0), eng.FileSize(tr))
	RequireOK(t, eng.FileClose(tr))
	assert.Equal(t, int32(0), eng.FSSize())
}

func (suite *EngineTestSuite) testAppend(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	CreateFile(t, eng, "/log", []byte("one\n"))

	fd := eng.FileOpen("/log", engine.O_WRONLY|engine.O_APPEND)
	RequireOK(t, fd)
	assert.Equal(t, int32(0), eng.FileSeek(fd, 0, engine.SeekSet))
	assert.Equal(t, int32(4), eng.FileWrite(fd, []byte("two\n")))
	assert.Equal(t, int32(8), eng.FileTell(fd))
	RequireOK(t, eng.FileClose(fd))

	assert.Equal(t, []byte("one\ntwo\n"), ReadFile(t, eng, "/log"))
}

func (suite *EngineTestSuite) testSeek(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	CreateFile(t, eng, "/f", []byte("0123456789"))

	fd := eng.FileOpen("/f", engine.O_RDONLY)
	RequireOK(t, fd)
	defer eng.FileClose(fd)

	assert.Equal(t, int32(4), eng.FileSeek(fd, 4, engine.SeekSet))
	assert.Equal(t, int32(6), eng.FileSeek(fd, 2, engine.SeekCur))
	assert.Equal(t, int32(3), eng.FileSeek(fd, -3, engine.SeekCur))
	assert.Equal(t, int32(8), eng.FileSeek(fd, -2, engine.SeekEnd))
	assert.Equal(t, int32(20), eng.FileSeek(fd, 10, engine.SeekEnd))
	assert.Equal(t, int32(0), eng.FileRead(fd, make([]byte, 4)), "read past end")

	AssertCode(t, engine.ErrInval, eng.FileSeek(fd, -1, engine.SeekSet))
	AssertCode(t, engine.ErrInval, eng.FileSeek(fd, 0, 7))
	assert.Equal(t, int32(20), eng.FileTell(fd), "failed seek leaves position")
}

func (suite *EngineTestSuite) testSparseWrite(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})

	fd := eng.FileOpen("/sparse", engine.O_WRONLY|engine.O_CREAT)
	RequireOK(t, fd)
	assert.Equal(t, int32(4), eng.FileSeek(fd, 4, engine.SeekSet))
	assert.Equal(t, int32(2), eng.FileWrite(fd, []byte("ab")))
	RequireOK(t, eng.FileClose(fd))

	assert.Equal(t, []byte{0, 0, 0, 0, 'a', 'b'}, ReadFile(t, eng, "/sparse"))
}

func (suite *EngineTestSuite) testTruncate(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	CreateFile(t, eng, "/f", []byte("hello world"))

	fd := eng.FileOpen("/f", engine.O_RDWR)
	RequireOK(t, fd)

	AssertCode(t, engine.OK, eng.FileTruncate(fd, 5))
	assert.Equal(t, int32(5), eng.FileSize(fd))
	assert.Equal(t, int32(5), eng.FSSize())

	AssertCode(t, engine.OK, eng.FileTruncate(fd, 8))
	assert.Equal(t, int32(8), eng.FileSize(fd))
	RequireOK(t, eng.FileClose(fd))

	assert.Equal(t, []byte("hello\x00\x00\x00"), ReadFile(t, eng, "/f"))
}

func (suite *EngineTestSuite) testBadDescriptor(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})

	AssertCode(t, engine.ErrBadF, eng.FileRead(42, make([]byte, 1)))
	AssertCode(t, engine.ErrBadF, eng.FileWrite(42, []byte("x")))
	AssertCode(t, engine.ErrBadF, eng.FileSeek(42, 0, engine.SeekSet))
	AssertCode(t, engine.ErrBadF, eng.FileTell(42))
	AssertCode(t, engine.ErrBadF, eng.FileSize(42))
	AssertCode(t, engine.ErrBadF, eng.FileTruncate(42, 0))
	AssertCode(t, engine.ErrBadF, eng.FileSync(42))
	AssertCode(t, engine.ErrBadF, eng.FileClose(42))

	fd := eng.FileOpen("/f", engine.O_WRONLY|engine.O_CREAT)
	RequireOK(t, fd)
	RequireOK(t, eng.FileClose(fd))
	AssertCode(t, engine.ErrBadF, eng.FileClose(fd), "double close")

	dir := eng.DirOpen("/")
	RequireOK(t, dir)
	AssertCode(t, engine.ErrBadF, eng.FileRead(dir, make([]byte, 1)), "directory descriptor")
	RequireOK(t, eng.DirClose(dir))
}

func (suite *EngineTestSuite) testRemovedWhileOpen(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	CreateFile(t, eng, "/f", []byte("abc"))

	fd := eng.FileOpen("/f", engine.O_RDWR)
	RequireOK(t, fd)
	RequireOK(t, eng.Remove("/f"))

	AssertCode(t, engine.ErrBadF, eng.FileRead(fd, make([]byte, 3)))
	AssertCode(t, engine.ErrBadF, eng.FileWrite(fd, []byte("x")))
	AssertCode(t, engine.OK, eng.FileClose(fd))
}
