package testing

import (
	"testing"

	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDirectoryTests executes all directory listing tests
func (suite *EngineTestSuite) RunDirectoryTests(t *testing.T) {
	t.Run("ReadDirectory", suite.testReadDirectory)
	t.Run("ListingIsSnapshot", suite.testListingIsSnapshot)
	t.Run("Errors", suite.testDirectoryErrors)
}

func (suite *EngineTestSuite) testReadDirectory(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	RequireOK(t, eng.Mkdir("/d"))
	RequireOK(t, eng.Mkdir("/d/sub"))
	CreateFile(t, eng, "/d/b.txt", []byte("bb"))
	CreateFile(t, eng, "/d/a.txt", []byte("a"))

	fd := eng.DirOpen("/d")
	RequireOK(t, fd)

	var got []engine.Info
	for {
		var info engine.Info
		rc := eng.DirRead(fd, &info)
		RequireOK(t, rc)
		if rc == 0 {
			break
		}
		require.Equal(t, int32(1), rc)
		got = append(got, info)
	}
	AssertCode(t, engine.OK, eng.DirRead(fd, &engine.Info{}), "exhausted listing stays at end")
	RequireOK(t, eng.DirClose(fd))

	assert.Equal(t, []engine.Info{
		{Type: engine.TypeDir, Name: "."},
		{Type: engine.TypeDir, Name: ".."},
		{Type: engine.TypeReg, Size: 1, Name: "a.txt"},
		{Type: engine.TypeReg, Size: 2, Name: "b.txt"},
		{Type: engine.TypeDir, Name: "sub"},
	}, got)
}

func (suite *EngineTestSuite) testListingIsSnapshot(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	CreateFile(t, eng, "/a", nil)

	fd := eng.DirOpen("/")
	RequireOK(t, fd)
	CreateFile(t, eng, "/b", nil)

	names := []string{}
	for {
		var info engine.Info
		if eng.DirRead(fd, &info) != 1 {
			break
		}
		names = append(names, info.Name)
	}
	RequireOK(t, eng.DirClose(fd))

	assert.Equal(t, []string{".", "..", "a"}, names)
	assert.Equal(t, []string{"a", "b"}, ListDir(t, eng, "/"))
}

func (suite *EngineTestSuite) testDirectoryErrors(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	CreateFile(t, eng, "/file", nil)

	AssertCode(t, engine.ErrNoEnt, eng.DirOpen("/missing"))
	AssertCode(t, engine.ErrNotDir, eng.DirOpen("/file"))

	var info engine.Info
	AssertCode(t, engine.ErrBadF, eng.DirRead(99, &info))
	AssertCode(t, engine.ErrBadF, eng.DirClose(99))

	fd := eng.FileOpen("/file", engine.O_RDONLY)
	RequireOK(t, fd)
	AssertCode(t, engine.ErrBadF, eng.DirClose(fd), "file descriptor")
	RequireOK(t, eng.FileClose(fd))
}
