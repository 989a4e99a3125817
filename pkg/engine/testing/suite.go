package testing

import (
	"testing"

	"github.com/marmos91/littlefs/pkg/engine"
)

// EngineTestSuite is a conformance suite for engine.Engine implementations.
// It checks return codes against the littlefs contract, not implementation
// details, so it can be reused across engines and storage backends.
type EngineTestSuite struct {
	// NewEngine returns a fresh, unformatted engine honouring limits.
	NewEngine func(t *testing.T, limits engine.Limits) engine.Engine
}

// Run executes all tests in the suite.
func (suite *EngineTestSuite) Run(t *testing.T) {
	t.Run("Lifecycle", suite.RunLifecycleTests)
	t.Run("Namespace", suite.RunNamespaceTests)
	t.Run("File", suite.RunFileTests)
	t.Run("Directory", suite.RunDirectoryTests)
	t.Run("Attributes", suite.RunAttributeTests)
	t.Run("Limits", suite.RunLimitTests)
}
