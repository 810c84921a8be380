package core

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures no goroutines leak in any test in the core package.
// IdentifierDatabase is hammered by concurrent readers and writers in these tests.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// Ignore known background goroutines
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}
