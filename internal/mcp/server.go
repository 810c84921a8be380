package mcp

import (
	"context"
	"errors"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/lcc/internal/completer"
	"github.com/standardbeagle/lcc/internal/config"
	"github.com/standardbeagle/lcc/internal/debug"
	"github.com/standardbeagle/lcc/internal/indexing"
	"github.com/standardbeagle/lcc/internal/metrics"
	"github.com/standardbeagle/lcc/internal/parser"
	"github.com/standardbeagle/lcc/internal/version"
)

// Server exposes the identifier index as MCP tools over stdio
type Server struct {
	cfg       *config.Config
	completer *completer.IdentifierCompleter
	scanner   *indexing.Scanner
	server    *mcp.Server
	logger    *DiagnosticLogger

	scanWG     sync.WaitGroup
	scanCancel context.CancelFunc

	mu   sync.RWMutex
	scan ScanState
}

// NewServer creates an MCP server over c, or over a fresh completer when c is nil
func NewServer(cfg *config.Config, c *completer.IdentifierCompleter, logger *DiagnosticLogger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if c == nil {
		c = completer.New(cfg.Completion)
	}
	if logger == nil {
		logger = NoOpLogger
	}

	s := &Server{
		cfg:       cfg,
		completer: c,
		scanner:   indexing.NewScanner(cfg, c),
		logger:    logger,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "lcc-mcp-server",
			Version: version.Version,
		}, nil),
	}
	s.registerTools()
	return s, nil
}

// Completer returns the completer behind the tools
func (s *Server) Completer() *completer.IdentifierCompleter {
	return s.completer
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "complete",
		Description: "Rank indexed identifiers for a partial word. Pass query directly, or contents plus a 1-based line_num/column_num to complete the word before the cursor.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query":       {Type: "string", Description: "Partial identifier to complete"},
				"filetype":    {Type: "string", Description: "Language of the buffer (derived from filepath when omitted)"},
				"filepath":    {Type: "string", Description: "Path of the buffer being edited"},
				"contents":    {Type: "string", Description: "Buffer contents, used when query is empty"},
				"line_num":    {Type: "integer", Description: "1-based cursor line"},
				"column_num":  {Type: "integer", Description: "1-based cursor column"},
				"max_results": {Type: "integer", Description: "Maximum candidates (default from configuration)"},
			},
		},
	}, s.handleComplete)

	s.server.AddTool(&mcp.Tool{
		Name:        "ingest_file",
		Description: "Replace the identifiers stored for one file. Supply identifiers, or contents to extract from, or neither to read the file from disk.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"filepath": {Type: "string", Description: "File to index"},
				"filetype": {Type: "string", Description: "Language (derived from filepath when omitted)"},
				"contents": {Type: "string", Description: "Buffer contents to extract identifiers from"},
				"identifiers": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Identifiers to store verbatim",
				},
			},
			Required: []string{"filepath"},
		},
	}, s.handleIngestFile)

	s.server.AddTool(&mcp.Tool{
		Name:        "clear_file",
		Description: "Forget the identifiers stored for one file.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"filepath": {Type: "string", Description: "File to clear"},
				"filetype": {Type: "string", Description: "Language (derived from filepath when omitted)"},
			},
			Required: []string{"filepath"},
		},
	}, s.handleClearFile)

	s.server.AddTool(&mcp.Tool{
		Name:        "status",
		Description: "Index statistics per filetype and the state of the project scan.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleStatus)
}

// Preload ingests the built-in keyword lists and configured tag files
func (s *Server) Preload() {
	if s.cfg.Completion.SyntaxKeywords {
		s.completer.AddBuiltinKeywords(parser.KeywordFiletypes()...)
	}
	if len(s.cfg.Completion.TagFiles) > 0 {
		if err := s.completer.AddTagFiles(s.cfg.Completion.TagFiles); err != nil {
			s.logger.Errorf("tag files: %v", err)
		}
	}
}

// StartIndexing scans the project root in the background. Buffers sent through
// the tools as contents or identifiers are left alone.
func (s *Server) StartIndexing(ctx context.Context) {
	s.mu.Lock()
	if s.scan.Active {
		s.mu.Unlock()
		return
	}
	s.scan = ScanState{Active: true}
	scanCtx, cancel := context.WithCancel(ctx)
	s.scanCancel = cancel
	s.mu.Unlock()

	s.scanWG.Add(1)
	go func() {
		defer s.scanWG.Done()
		defer cancel()

		root := s.cfg.Project.Root
		s.logger.Printf("scanning %s", root)
		batch, stats, err := s.scanner.Scan(scanCtx, root)

		written := s.completer.IngestBatchKeepingBuffers(batch)
		publishStats(s.completer)

		state := ScanState{
			Completed:    true,
			FilesIndexed: written,
			Identifiers:  stats.Identifiers,
			Errors:       stats.Errors,
			Truncated:    stats.Truncated,
			DurationMs:   stats.Duration.Milliseconds(),
		}
		if err != nil {
			state.Error = err.Error()
			s.logger.Errorf("scan: %v", err)
		} else {
			s.logger.Printf("scan completed: %d files in %v", written, stats.Duration)
		}
		debug.LogMCP("scan finished: %d files", written)

		s.mu.Lock()
		s.scan = state
		s.mu.Unlock()
	}()
}

// WaitForIndexing blocks until the background scan, if any, has finished
func (s *Server) WaitForIndexing() {
	s.scanWG.Wait()
}

func (s *Server) scanState() ScanState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scan
}

// indexReady is false only while a startup scan is still running
func (s *Server) indexReady() bool {
	return !s.scanState().Active
}

// Start serves MCP over stdio until ctx is done or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	s.logger.Printf("starting MCP server with stdio transport (root %s)", s.cfg.Project.Root)
	s.Preload()
	if s.cfg.Index.ScanOnStart {
		s.StartIndexing(ctx)
	}
	err := s.server.Run(ctx, &mcp.StdioTransport{})
	s.Shutdown()
	return err
}

// Shutdown cancels the background scan and waits for it
func (s *Server) Shutdown() {
	s.mu.RLock()
	cancel := s.scanCancel
	s.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	s.scanWG.Wait()
	s.logger.Printf("MCP server shut down")
}

func publishStats(c *completer.IdentifierCompleter) {
	stats := metrics.NewIndexStats()
	stats.CalculateFromDatabase(c.Database())
	stats.Publish()
}
