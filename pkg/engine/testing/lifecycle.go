package testing

import (
	"testing"

	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/stretchr/testify/assert"
)

// RunLifecycleTests executes format/mount tests
func (suite *EngineTestSuite) RunLifecycleTests(t *testing.T) {
	t.Run("MountUnformatted", suite.testMountUnformatted)
	t.Run("FormatMountUnmount", suite.testFormatMountUnmount)
	t.Run("CallsWhileUnmounted", suite.testCallsWhileUnmounted)
	t.Run("DoubleMount", suite.testDoubleMount)
	t.Run("FormatWhileMounted", suite.testFormatWhileMounted)
	t.Run("RemountKeepsData", suite.testRemountKeepsData)
	t.Run("FormatErasesData", suite.testFormatErasesData)
	t.Run("UnmountDropsDescriptors", suite.testUnmountDropsDescriptors)
}

func (suite *EngineTestSuite) testMountUnformatted(t *testing.T) {
	eng := suite.NewEngine(t, engine.Limits{})
	AssertCode(t, engine.ErrCorrupt, eng.Mount())
}

func (suite *EngineTestSuite) testFormatMountUnmount(t *testing.T) {
	eng := suite.NewEngine(t, engine.Limits{})
	AssertCode(t, engine.OK, eng.Format())
	AssertCode(t, engine.OK, eng.Mount())

	var info engine.Info
	AssertCode(t, engine.OK, eng.Stat("/", &info))
	assert.Equal(t, engine.TypeDir, info.Type)
	assert.Equal(t, int32(0), eng.FSSize())

	AssertCode(t, engine.OK, eng.Unmount())
	AssertCode(t, engine.ErrInval, eng.Unmount())
}

func (suite *EngineTestSuite) testCallsWhileUnmounted(t *testing.T) {
	eng := suite.NewEngine(t, engine.Limits{})
	RequireOK(t, eng.Format())

	var info engine.Info
	AssertCode(t, engine.ErrInval, eng.Stat("/", &info))
	AssertCode(t, engine.ErrInval, eng.Mkdir("/a"))
	AssertCode(t, engine.ErrInval, eng.FileOpen("/a", engine.O_RDONLY))
	AssertCode(t, engine.ErrInval, eng.DirOpen("/"))
	AssertCode(t, engine.ErrInval, eng.FSSize())
}

func (suite *EngineTestSuite) testDoubleMount(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	AssertCode(t, engine.ErrInval, eng.Mount())
}

func (suite *EngineTestSuite) testFormatWhileMounted(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	AssertCode(t, engine.ErrInval, eng.Format())
}

func (suite *EngineTestSuite) testRemountKeepsData(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	RequireOK(t, eng.Mkdir("/docs"))
	CreateFile(t, eng, "/docs/readme", []byte("hello"))

	RequireOK(t, eng.Unmount())
	RequireOK(t, eng.Mount())

	assert.Equal(t, []byte("hello"), ReadFile(t, eng, "/docs/readme"))
	assert.Equal(t, int32(5), eng.FSSize())
}

func (suite *EngineTestSuite) testFormatErasesData(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	CreateFile(t, eng, "/file", []byte("data"))
	RequireOK(t, eng.Unmount())

	RequireOK(t, eng.Format())
	RequireOK(t, eng.Mount())

	var info engine.Info
	AssertCode(t, engine.ErrNoEnt, eng.Stat("/file", &info))
	assert.Empty(t, ListDir(t, eng, "/"))
	assert.Equal(t, int32(0), eng.FSSize())
}

func (suite *EngineTestSuite) testUnmountDropsDescriptors(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	fd := eng.FileOpen("/f", engine.O_RDWR|engine.O_CREAT)
	RequireOK(t, fd)

	RequireOK(t, eng.Unmount())
	RequireOK(t, eng.Mount())

	AssertCode(t, engine.ErrBadF, eng.FileClose(fd))
}
