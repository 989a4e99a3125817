package testing

import (
	"strings"
	"testing"

	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/stretchr/testify/assert"
)

// RunLimitTests executes tests for the configured engine limits
func (suite *EngineTestSuite) RunLimitTests(t *testing.T) {
	t.Run("NameTooLong", suite.testNameTooLong)
	t.Run("FileTooBig", suite.testFileTooBig)
	t.Run("NoSpace", suite.testNoSpace)
	t.Run("OpenFileTable", suite.testOpenFileTable)
}

func (suite *EngineTestSuite) testNameTooLong(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{NameMax: 8})

	AssertCode(t, engine.OK, eng.Mkdir("/12345678"))
	AssertCode(t, engine.ErrNameTooLong, eng.Mkdir("/123456789"))
	AssertCode(t, engine.ErrNameTooLong, eng.FileOpen("/"+strings.Repeat("x", 9), engine.O_WRONLY|engine.O_CREAT))

	CreateFile(t, eng, "/short", nil)
	AssertCode(t, engine.ErrNameTooLong, eng.Rename("/short", "/much-too-long"))
}

func (suite *EngineTestSuite) testFileTooBig(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{FileMax: 8})

	fd := eng.FileOpen("/f", engine.O_RDWR|engine.O_CREAT)
	RequireOK(t, fd)
	defer eng.FileClose(fd)

	assert.Equal(t, int32(8), eng.FileWrite(fd, []byte("12345678")))
	AssertCode(t, engine.ErrFBig, eng.FileWrite(fd, []byte("9")))
	AssertCode(t, engine.ErrFBig, eng.FileTruncate(fd, 9))
	AssertCode(t, engine.ErrInval, eng.FileSeek(fd, 9, engine.SeekSet))
	assert.Equal(t, int32(8), eng.FileSize(fd), "failed write leaves file intact")
}

func (suite *EngineTestSuite) testNoSpace(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{CapacityBytes: 10})

	CreateFile(t, eng, "/a", []byte("123456"))

	fd := eng.FileOpen("/b", engine.O_WRONLY|engine.O_CREAT)
	RequireOK(t, fd)
	AssertCode(t, engine.ErrNoSpc, eng.FileWrite(fd, []byte("12345")))
	assert.Equal(t, int32(4), eng.FileWrite(fd, []byte("1234")))
	AssertCode(t, engine.ErrNoSpc, eng.FileTruncate(fd, 5))
	RequireOK(t, eng.FileClose(fd))

	AssertCode(t, engine.ErrNoSpc, eng.SetAttr("/a", 1, []byte("x")))
	assert.Equal(t, int32(10), eng.FSSize())

	RequireOK(t, eng.Remove("/a"))
	AssertCode(t, engine.OK, eng.SetAttr("/b", 1, []byte("x")))
}

func (suite *EngineTestSuite) testOpenFileTable(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{MaxOpenFiles: 2})
	CreateFile(t, eng, "/f", nil)

	a := eng.FileOpen("/f", engine.O_RDONLY)
	RequireOK(t, a)
	b := eng.DirOpen("/")
	RequireOK(t, b)
	assert.NotEqual(t, a, b)

	AssertCode(t, engine.ErrNoMem, eng.FileOpen("/f", engine.O_RDONLY))
	AssertCode(t, engine.ErrNoMem, eng.DirOpen("/"))

	RequireOK(t, eng.FileClose(a))
	c := eng.FileOpen("/f", engine.O_RDONLY)
	RequireOK(t, c)
	RequireOK(t, eng.FileClose(c))
	RequireOK(t, eng.DirClose(b))
}
