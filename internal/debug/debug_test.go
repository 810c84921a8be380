package debug

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// saveAndRestoreState saves the debug package state and returns a cleanup function
func saveAndRestoreState() func() {
	originalDebug := EnableDebug
	originalMode := MCPMode
	originalOutput := debugOutput
	originalFile := debugFile
	return func() {
		EnableDebug = originalDebug
		MCPMode = originalMode
		debugOutput = originalOutput
		debugFile = originalFile
	}
}

func TestIsDebugEnabled(t *testing.T) {
	defer saveAndRestoreState()()
	t.Setenv("DEBUG", "")

	EnableDebug = "false"
	MCPMode = false
	assert.False(t, IsDebugEnabled())

	EnableDebug = "true"
	assert.True(t, IsDebugEnabled())

	// MCP mode always wins
	MCPMode = true
	assert.False(t, IsDebugEnabled())
}

func TestIsDebugEnabled_Env(t *testing.T) {
	defer saveAndRestoreState()()
	EnableDebug = "false"
	MCPMode = false

	t.Setenv("DEBUG", "1")
	assert.True(t, IsDebugEnabled())

	t.Setenv("DEBUG", "true")
	assert.True(t, IsDebugEnabled())

	t.Setenv("DEBUG", "no")
	assert.False(t, IsDebugEnabled())
}

func TestLog_ComponentPrefix(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	MCPMode = false

	LogQuery("query %q for %s\n", "fo", "cpp")
	LogIndexing("installed %d shards\n", 3)

	out := buf.String()
	assert.Contains(t, out, `[DEBUG:QUERY] query "fo" for cpp`)
	assert.Contains(t, out, "[DEBUG:INDEX] installed 3 shards")
}

func TestLog_TerminatesLines(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	MCPMode = false

	Log("TEST", "first")
	Log("TEST", "second\n")
	assert.Equal(t, "[DEBUG:TEST] first\n[DEBUG:TEST] second\n", buf.String())
}

func TestLog_SuppressedInMCPMode(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	SetMCPMode(true)

	LogMCP("should not appear")
	Printf("nor this")
	assert.Empty(t, buf.String())
}

func TestLog_NoWriter(t *testing.T) {
	defer saveAndRestoreState()()

	SetDebugOutput(nil)
	EnableDebug = "true"
	MCPMode = false

	assert.NotPanics(t, func() {
		Log("TEST", "dropped")
	})
}

func TestFatal_ReturnsError(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	MCPMode = false

	err := Fatal("index corrupted: %s", "cpp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index corrupted: cpp")
	assert.Contains(t, buf.String(), "[FATAL] index corrupted: cpp")
}

func TestInitDebugLogFile(t *testing.T) {
	defer saveAndRestoreState()()

	path, err := InitDebugLogFile()
	require.NoError(t, err)
	defer os.Remove(path)

	EnableDebug = "true"
	MCPMode = false
	Log("TEST", "to file\n")
	require.NoError(t, CloseDebugLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG:TEST] to file")

	// Second close is a no-op
	assert.NoError(t, CloseDebugLog())
}
