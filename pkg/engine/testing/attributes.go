package testing

import (
	"testing"

	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/stretchr/testify/assert"
)

// RunAttributeTests executes custom attribute tests
func (suite *EngineTestSuite) RunAttributeTests(t *testing.T) {
	t.Run("SetGetRemove", suite.testAttrSetGetRemove)
	t.Run("ShortBuffer", suite.testAttrShortBuffer)
	t.Run("Errors", suite.testAttrErrors)
	t.Run("RemovedWithEntry", suite.testAttrRemovedWithEntry)
}

func (suite *EngineTestSuite) testAttrSetGetRemove(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	CreateFile(t, eng, "/f", nil)

	AssertCode(t, engine.OK, eng.SetAttr("/f", 0x74, []byte("text/plain")))
	AssertCode(t, engine.OK, eng.SetAttr("/", 1, []byte{0xff}))

	buf := make([]byte, 32)
	n := eng.GetAttr("/f", 0x74, buf)
	assert.Equal(t, int32(10), n)
	assert.Equal(t, "text/plain", string(buf[:n]))
	assert.Equal(t, int32(1), eng.GetAttr("/", 1, buf))
	assert.Equal(t, int32(11), eng.FSSize())

	AssertCode(t, engine.OK, eng.SetAttr("/f", 0x74, []byte("json")))
	assert.Equal(t, int32(4), eng.GetAttr("/f", 0x74, buf))
	assert.Equal(t, int32(5), eng.FSSize())

	AssertCode(t, engine.OK, eng.RemoveAttr("/f", 0x74))
	AssertCode(t, engine.ErrNoAttr, eng.GetAttr("/f", 0x74, buf))
	AssertCode(t, engine.OK, eng.RemoveAttr("/f", 0x74), "removing an unset attribute")
	assert.Equal(t, int32(1), eng.FSSize())
}

func (suite *EngineTestSuite) testAttrShortBuffer(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	CreateFile(t, eng, "/f", nil)
	RequireOK(t, eng.SetAttr("/f", 2, []byte("abcdef")))

	buf := make([]byte, 3)
	assert.Equal(t, int32(6), eng.GetAttr("/f", 2, buf), "full size is reported")
	assert.Equal(t, "abc", string(buf))
}

func (suite *EngineTestSuite) testAttrErrors(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{AttrMax: 4})
	CreateFile(t, eng, "/f", nil)

	AssertCode(t, engine.ErrNoAttr, eng.GetAttr("/f", 9, nil))
	AssertCode(t, engine.ErrNoEnt, eng.GetAttr("/missing", 9, nil))
	AssertCode(t, engine.ErrNoEnt, eng.SetAttr("/missing", 9, []byte("x")))
	AssertCode(t, engine.ErrNoEnt, eng.RemoveAttr("/missing", 9))
	AssertCode(t, engine.ErrNoSpc, eng.SetAttr("/f", 9, []byte("12345")))
	AssertCode(t, engine.OK, eng.SetAttr("/f", 9, []byte("1234")))
}

func (suite *EngineTestSuite) testAttrRemovedWithEntry(t *testing.T) {
	eng := suite.mounted(t, engine.Limits{})
	CreateFile(t, eng, "/f", []byte("xy"))
	RequireOK(t, eng.SetAttr("/f", 1, []byte("meta")))
	assert.Equal(t, int32(6), eng.FSSize())

	RequireOK(t, eng.Remove("/f"))
	assert.Equal(t, int32(0), eng.FSSize())

	CreateFile(t, eng, "/f", nil)
	AssertCode(t, engine.ErrNoAttr, eng.GetAttr("/f", 1, nil))
}
