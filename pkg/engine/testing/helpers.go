package testing

import (
	"testing"

	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/marmos91/littlefs/pkg/lfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertCode asserts that an engine call returned the expected code. Codes
// are compared by name so failures read as LFS_ERR_* instead of numbers.
func AssertCode(t *testing.T, expected, actual int32, msgAndArgs ...any) bool {
	t.Helper()
	return assert.Equal(t, lfs.ReturnCodeString(expected), lfs.ReturnCodeString(actual), msgAndArgs...)
}

// RequireOK fails the test immediately when rc is negative.
func RequireOK(t *testing.T, rc int32, msgAndArgs ...any) {
	t.Helper()
	if rc < 0 {
		require.FailNow(t, "engine call failed with "+lfs.ReturnCodeString(rc), msgAndArgs...)
	}
}

// mounted returns a formatted and mounted engine.
func (suite *EngineTestSuite) mounted(t *testing.T, limits engine.Limits) engine.Engine {
	t.Helper()
	eng := suite.NewEngine(t, limits)
	RequireOK(t, eng.Format())
	RequireOK(t, eng.Mount())
	return eng
}

// CreateFile creates path with content and closes it.
func CreateFile(t *testing.T, eng engine.Engine, path string, content []byte) {
	t.Helper()
	fd := eng.FileOpen(path, engine.O_WRONLY|engine.O_CREAT|engine.O_TRUNC)
	RequireOK(t, fd, "open %s", path)
	if len(content) > 0 {
		n := eng.FileWrite(fd, content)
		RequireOK(t, n, "write %s", path)
		require.Equal(t, int32(len(content)), n)
	}
	RequireOK(t, eng.FileClose(fd))
}

// ReadFile reads the whole of path.
func ReadFile(t *testing.T, eng engine.Engine, path string) []byte {
	t.Helper()
	fd := eng.FileOpen(path, engine.O_RDONLY)
	RequireOK(t, fd, "open %s", path)
	defer eng.FileClose(fd)

	var out []byte
	buf := make([]byte, 7) // odd size to exercise short reads
	for {
		n := eng.FileRead(fd, buf)
		RequireOK(t, n, "read %s", path)
		if n == 0 {
			return out
		}
		out = append(out, buf[:n]...)
	}
}

// ListDir returns the names in path, without "." and "..".
func ListDir(t *testing.T, eng engine.Engine, path string) []string {
	t.Helper()
	fd := eng.DirOpen(path)
	RequireOK(t, fd, "opendir %s", path)
	defer eng.DirClose(fd)

	names := []string{}
	for {
		var info engine.Info
		rc := eng.DirRead(fd, &info)
		RequireOK(t, rc)
		if rc == 0 {
			return names
		}
		if info.Name == "." || info.Name == ".." {
			continue
		}
		names = append(names, info.Name)
	}
}
