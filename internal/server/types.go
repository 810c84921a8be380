package server

import (
	"github.com/standardbeagle/lcc/internal/completer"
	"github.com/standardbeagle/lcc/internal/core"
	"github.com/standardbeagle/lcc/internal/indexing"
)

// RPC request/response types for client-server communication

// EventNotificationRequest carries an editor event and the buffer it concerns
type EventNotificationRequest struct {
	EventName string `json:"event_name"`
	Filepath  string `json:"filepath"`
	Filetype  string `json:"filetype,omitempty"`
	Contents  string `json:"contents,omitempty"`
	LineNum   int    `json:"line_num,omitempty"`
	ColumnNum int    `json:"column_num,omitempty"`
}

// EventNotificationResponse confirms the event was applied
type EventNotificationResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CompletionsRequest asks for identifier completions. An empty Query is taken
// from the buffer at LineNum/ColumnNum.
type CompletionsRequest struct {
	Filepath   string `json:"filepath,omitempty"`
	Filetype   string `json:"filetype,omitempty"`
	Contents   string `json:"contents,omitempty"`
	LineNum    int    `json:"line_num,omitempty"`
	ColumnNum  int    `json:"column_num,omitempty"`
	Query      string `json:"query,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// CompletionsResponse contains ranked candidates, best first
type CompletionsResponse struct {
	Completions []completer.Candidate `json:"completions"`
	Error       string                `json:"error,omitempty"`
}

// IngestRequest replaces the identifiers of every listed file
type IngestRequest struct {
	Files core.FiletypeIdentifierMap `json:"files"`
}

// IngestResponse reports how many files were written
type IngestResponse struct {
	Files int    `json:"files"`
	Error string `json:"error,omitempty"`
}

// ScanSummary describes the most recent project scan
type ScanSummary struct {
	FilesIndexed int    `json:"files_indexed"`
	Identifiers  int    `json:"identifier_refs"`
	Errors       int    `json:"errors"`
	Truncated    bool   `json:"truncated,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
	Error        string `json:"error,omitempty"`
	Retryable    bool   `json:"retryable,omitempty"` // The scan timed out; /reindex may complete it
}

// IndexStatus represents the current status of the index
type IndexStatus struct {
	Ready          bool                   `json:"ready"`
	IndexingActive bool                   `json:"indexing_active"`
	Stats          map[string]interface{} `json:"stats,omitempty"`
	LastScan       *ScanSummary           `json:"last_scan,omitempty"`
	Watch          *indexing.WatchStats   `json:"watch,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

// ShutdownRequest requests server shutdown
type ShutdownRequest struct {
	Force bool `json:"force,omitempty"`
}

// ShutdownResponse confirms shutdown
type ShutdownResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// PingResponse confirms server is alive
type PingResponse struct {
	Uptime  float64 `json:"uptime_seconds"`
	Version string  `json:"version"`
	BuildID string  `json:"build_id"`
	Root    string  `json:"root"`
}

// ReindexRequest triggers a rescan
type ReindexRequest struct {
	Path string `json:"path,omitempty"` // Empty means use configured root
}

// ReindexResponse confirms the rescan started
type ReindexResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
