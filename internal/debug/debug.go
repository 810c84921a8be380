package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/standardbeagle/lcc/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// MCPMode tracks if we're running as an MCP stdio server (set by main).
// Stdout/stderr belong to the protocol in that mode, so nothing is written.
var MCPMode = false

var (
	debugOutput io.Writer
	debugFile   *os.File
	debugMutex  sync.Mutex
)

// Component names used as log prefixes
const (
	ComponentIndex    = "INDEX"
	ComponentQuery    = "QUERY"
	ComponentWatch    = "WATCH"
	ComponentServer   = "SERVER"
	ComponentMCP      = "MCP"
	ComponentParser   = "PARSER"
	ComponentComplete = "COMPLETER"
	ComponentConfig   = "CONFIG"
)

// SetMCPMode enables MCP mode which suppresses all debug output
func SetMCPMode(enabled bool) {
	MCPMode = enabled
}

// SetDebugOutput sets a custom writer for debug output.
// Pass nil to disable debug output entirely.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// InitDebugLogFile starts writing debug output to a timestamped file under the temp dir
// and returns its path. Call CloseDebugLog when done.
func InitDebugLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "lcc-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s.log", time.Now().Format("2006-01-02T150405")))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugFile = file
	debugOutput = file
	return logPath, nil
}

// CloseDebugLog closes the debug log file if one is open
func CloseDebugLog() error {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debugFile == nil {
		return nil
	}
	err := debugFile.Close()
	debugFile = nil
	debugOutput = nil
	return err
}

// IsDebugEnabled returns true if debug mode is enabled and we're not in MCP mode
func IsDebugEnabled() bool {
	if MCPMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("DEBUG")
	return v == "1" || v == "true"
}

func writer() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// Printf prints debug information when debug mode is enabled and output is configured
func Printf(format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	if w := writer(); w != nil {
		fmt.Fprintf(w, "[DEBUG] "+format, args...)
	}
}

// Log writes a debug line tagged with a component name
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	if w := writer(); w != nil {
		msg := fmt.Sprintf(format, args...)
		if !strings.HasSuffix(msg, "\n") {
			msg += "\n"
		}
		fmt.Fprintf(w, "[DEBUG:%s] %s", component, msg)
	}
}

// LogIndexing logs ingest and scan activity
func LogIndexing(format string, args ...interface{}) { Log(ComponentIndex, format, args...) }

// LogQuery logs completion queries
func LogQuery(format string, args ...interface{}) { Log(ComponentQuery, format, args...) }

// LogWatch logs file watcher activity
func LogWatch(format string, args ...interface{}) { Log(ComponentWatch, format, args...) }

// LogServer logs socket server activity
func LogServer(format string, args ...interface{}) { Log(ComponentServer, format, args...) }

// LogMCP logs MCP server activity
func LogMCP(format string, args ...interface{}) { Log(ComponentMCP, format, args...) }

// Fatal records a fatal condition in the debug log and returns it as an error.
// It never exits; callers decide what to do.
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if !MCPMode {
		if w := writer(); w != nil {
			fmt.Fprintf(w, "[FATAL] %s", msg)
		}
	}
	return fmt.Errorf("fatal error: %s", msg)
}
