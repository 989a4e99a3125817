package testing

import (
	"strings"
	"testing"

	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/stretchr/testify/assert"
)

// RunNamespaceTests executes mkdir/remove/rename/stat tests
func (suite *EngineTestSuite) RunNamespaceTests(t *testing.T) {
	t.Run("Mkdir", suite.testMkdir)
	t.Run("Remove", suite.testRemove)
	t.Run("Rename", suite.testRename)
	t.Run("Stat", suite.testStat)
}

// ============================================================================
// Mkdir Tests
// ============================================================================

func (suite *EngineTestSuite) testMkdir(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})

	AssertCode(t, engine.OK, eng.Mkdir("/a"))
	AssertCode(t, engine.OK, eng.Mkdir("/a/b"))
	AssertCode(t, engine.ErrExist, eng.Mkdir("/a"))
	AssertCode(t, engine.ErrExist, eng.Mkdir("/"))
	AssertCode(t, engine.ErrNoEnt, eng.Mkdir("/missing/child"))

	CreateFile(t, eng, "/file", nil)
	AssertCode(t, engine.ErrExist, eng.Mkdir("/file"))
	AssertCode(t, engine.ErrNotDir, eng.Mkdir("/file/child"))

	assert.Equal(t, []string{"a", "file"}, ListDir(t, eng, "/"))
}

// ============================================================================
// Remove Tests
// ============================================================================

func (suite *EngineTestSuite) testRemove(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	RequireOK(t, eng.Mkdir("/dir"))
	CreateFile(t, eng, "/dir/file", []byte("12345"))

	AssertCode(t, engine.ErrNotEmpty, eng.Remove("/dir"))
	AssertCode(t, engine.ErrInval, eng.Remove("/"))
	AssertCode(t, engine.ErrNoEnt, eng.Remove("/nope"))
	AssertCode(t, engine.ErrNotDir, eng.Remove("/dir/file/x"))

	AssertCode(t, engine.OK, eng.Remove("/dir/file"))
	assert.Equal(t, int32(0), eng.FSSize())
	AssertCode(t, engine.OK, eng.Remove("/dir"))

	var info engine.Info
	AssertCode(t, engine.ErrNoEnt, eng.Stat("/dir", &info))
}

// ============================================================================
// Rename Tests
// ============================================================================

func (suite *EngineTestSuite) testRename(t *testing.T) {
	t.Run("MoveFile", suite.testRenameMoveFile)
	t.Run("MoveDirectory", suite.testRenameMoveDirectory)
	t.Run("ReplaceFile", suite.testRenameReplaceFile)
	t.Run("ReplaceEmptyDirectory", suite.testRenameReplaceEmptyDirectory)
	t.Run("Errors", suite.testRenameErrors)
}

func (suite *EngineTestSuite) testRenameMoveFile(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	RequireOK(t, eng.Mkdir("/dst"))
	CreateFile(t, eng, "/old", []byte("content"))

	AssertCode(t, engine.OK, eng.Rename("/old", "/dst/new"))
	AssertCode(t, engine.OK, eng.Rename("/dst/new", "/dst/new"))

	var info engine.Info
	AssertCode(t, engine.ErrNoEnt, eng.Stat("/old", &info))
	assert.Equal(t, []byte("content"), ReadFile(t, eng, "/dst/new"))
}

func (suite *EngineTestSuite) testRenameMoveDirectory(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	RequireOK(t, eng.Mkdir("/a"))
	RequireOK(t, eng.Mkdir("/a/sub"))
	CreateFile(t, eng, "/a/sub/f", []byte("x"))

	AssertCode(t, engine.OK, eng.Rename("/a", "/b"))
	assert.Equal(t, []byte("x"), ReadFile(t, eng, "/b/sub/f"))
	assert.Equal(t, []string{"b"}, ListDir(t, eng, "/"))
}

func (suite *EngineTestSuite) testRenameReplaceFile(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	CreateFile(t, eng, "/src", []byte("new"))
	CreateFile(t, eng, "/dst", []byte("old-content"))

	AssertCode(t, engine.OK, eng.Rename("/src", "/dst"))
	assert.Equal(t, []byte("new"), ReadFile(t, eng, "/dst"))
	assert.Equal(t, []string{"dst"}, ListDir(t, eng, "/"))
	assert.Equal(t, int32(3), eng.FSSize())
}

func (suite *EngineTestSuite) testRenameReplaceEmptyDirectory(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	RequireOK(t, eng.Mkdir("/src"))
	RequireOK(t, eng.Mkdir("/dst"))

	AssertCode(t, engine.OK, eng.Rename("/src", "/dst"))
	assert.Equal(t, []string{"dst"}, ListDir(t, eng, "/"))
}

func (suite *EngineTestSuite) testRenameErrors(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	RequireOK(t, eng.Mkdir("/dir"))
	RequireOK(t, eng.Mkdir("/full"))
	CreateFile(t, eng, "/full/f", nil)
	CreateFile(t, eng, "/file", nil)

	AssertCode(t, engine.ErrNoEnt, eng.Rename("/missing", "/x"))
	AssertCode(t, engine.ErrNoEnt, eng.Rename("/file", "/missing/x"))
	AssertCode(t, engine.ErrNotDir, eng.Rename("/dir", "/file"))
	AssertCode(t, engine.ErrIsDir, eng.Rename("/file", "/dir"))
	AssertCode(t, engine.ErrNotEmpty, eng.Rename("/dir", "/full"))
	AssertCode(t, engine.ErrInval, eng.Rename("/dir", "/dir/inside"))
	AssertCode(t, engine.ErrInval, eng.Rename("/", "/elsewhere"))
}

// ============================================================================
// Stat Tests
// ============================================================================

func (suite *EngineTestSuite) testStat(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	RequireOK(t, eng.Mkdir("/dir"))
	CreateFile(t, eng, "/dir/file.txt", []byte("hello world"))

	var info engine.Info
	AssertCode(t, engine.OK, eng.Stat("/dir/file.txt", &info))
	assert.Equal(t, engine.Info{Type: engine.TypeReg, Size: 11, Name: "file.txt"}, info)

	AssertCode(t, engine.OK, eng.Stat("/dir", &info))
	assert.Equal(t, engine.TypeDir, info.Type)
	assert.Equal(t, "dir", info.Name)

	AssertCode(t, engine.OK, eng.Stat("/", &info))
	assert.Equal(t, "/", info.Name)

	AssertCode(t, engine.ErrNoEnt, eng.Stat("/dir/other", &info))
	AssertCode(t, engine.ErrNotDir, eng.Stat("/dir/file.txt/x", &info))
	AssertCode(t, engine.ErrNoEnt, eng.Stat("/"+strings.Repeat("n", 300), &info))
}
