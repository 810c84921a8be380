package mcp

import "github.com/standardbeagle/lcc/internal/completer"

// CompleteParams are the arguments of the complete tool. When Query is empty it
// is taken from Contents at LineNum/ColumnNum.
type CompleteParams struct {
	Query      string `json:"query,omitempty"`
	Filetype   string `json:"filetype,omitempty"`
	Filepath   string `json:"filepath,omitempty"`
	Contents   string `json:"contents,omitempty"`
	LineNum    int    `json:"line_num,omitempty"`
	ColumnNum  int    `json:"column_num,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// CompleteResult lists candidates best first
type CompleteResult struct {
	Completions []completer.Candidate `json:"completions"`
	Count       int                   `json:"count"`
	IndexReady  bool                  `json:"index_ready"`
}

// IngestFileParams are the arguments of ingest_file. Identifiers win over
// Contents; with neither, the file is read from disk.
type IngestFileParams struct {
	Filepath    string   `json:"filepath"`
	Filetype    string   `json:"filetype,omitempty"`
	Contents    string   `json:"contents,omitempty"`
	Identifiers []string `json:"identifiers,omitempty"`
}

// IngestFileResult reports what was stored for the file
type IngestFileResult struct {
	Success     bool   `json:"success"`
	Filepath    string `json:"filepath"`
	Filetype    string `json:"filetype"`
	Identifiers int    `json:"identifiers"`
	Source      string `json:"source"`
}

// ClearFileParams are the arguments of clear_file
type ClearFileParams struct {
	Filepath string `json:"filepath"`
	Filetype string `json:"filetype,omitempty"`
}

// ScanState describes the background project scan
type ScanState struct {
	Active       bool   `json:"active"`
	Completed    bool   `json:"completed"`
	FilesIndexed int    `json:"files_indexed"`
	Identifiers  int    `json:"identifier_refs"`
	Errors       int    `json:"errors"`
	Truncated    bool   `json:"truncated,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
	Error        string `json:"error,omitempty"`
}
