package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lcc/internal/completer"
	"github.com/standardbeagle/lcc/internal/config"
	"github.com/standardbeagle/lcc/internal/core"
	"github.com/standardbeagle/lcc/internal/debug"
	lccerrors "github.com/standardbeagle/lcc/internal/errors"
	"github.com/standardbeagle/lcc/internal/indexing"
	"github.com/standardbeagle/lcc/internal/metrics"
	"github.com/standardbeagle/lcc/internal/parser"
)

// IndexServer owns an identifier index and answers completion requests over a
// unix socket
type IndexServer struct {
	cfg       *config.Config
	completer *completer.IdentifierCompleter
	scanner   *indexing.Scanner
	watcher   *indexing.FileWatcher

	listener     net.Listener
	server       *http.Server
	startTime    time.Time
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
	socketPath   string // Custom socket path (empty uses the per-root default)

	// Cancels the scan in progress
	scanCtx    context.Context
	scanCancel context.CancelFunc

	mu             sync.RWMutex
	running        bool
	indexingActive bool
	lastScan       *ScanSummary
}

// NewIndexServer creates a server with a fresh index configured from cfg
func NewIndexServer(cfg *config.Config) (*IndexServer, error) {
	return NewIndexServerWithCompleter(cfg, completer.New(cfg.Completion))
}

// NewIndexServerWithCompleter creates a server over an existing completer, so the
// index can be shared with another front end
func NewIndexServerWithCompleter(cfg *config.Config, c *completer.IdentifierCompleter) (*IndexServer, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	scanCtx, scanCancel := context.WithCancel(context.Background())
	return &IndexServer{
		cfg:          cfg,
		completer:    c,
		scanner:      indexing.NewScanner(cfg, c),
		startTime:    time.Now(),
		shutdownChan: make(chan struct{}),
		scanCtx:      scanCtx,
		scanCancel:   scanCancel,
	}, nil
}

// GetSocketPath returns the socket used when no project root is known
func GetSocketPath() string {
	return filepath.Join(os.TempDir(), "lcc-server.sock")
}

// GetSocketPathForRoot returns a project-specific socket path based on the root
// directory, so servers for different projects can run side by side
func GetSocketPathForRoot(root string) string {
	if root == "" {
		return GetSocketPath()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return GetSocketPath()
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("lcc-server-%016x.sock", xxhash.Sum64String(absRoot)))
}

// SetSocketPath sets a custom socket path for this server
func (s *IndexServer) SetSocketPath(path string) {
	s.socketPath = path
}

// GetServerSocketPath returns the socket path this server is using
func (s *IndexServer) GetServerSocketPath() string {
	if s.socketPath != "" {
		return s.socketPath
	}
	if s.cfg.Server.SocketPath != "" {
		return s.cfg.Server.SocketPath
	}
	return GetSocketPathForRoot(s.cfg.Project.Root)
}

// Completer returns the completer behind this server
func (s *IndexServer) Completer() *completer.IdentifierCompleter {
	return s.completer
}

// Start loads keywords and tag files, begins the startup scan in the background
// when Index.ScanOnStart is set, and starts listening for clients
func (s *IndexServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.mu.Unlock()

	socketPath := s.GetServerSocketPath()
	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("failed to create socket: %w", err)
	}
	s.listener = listener
	os.Chmod(socketPath, 0600)

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.Preload()

	if s.cfg.Index.ScanOnStart {
		s.startScan(s.cfg.Project.Root, true)
	} else if s.cfg.Index.WatchMode {
		s.startWatcher()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			debug.LogServer("server error: %v", err)
		}
	}()

	debug.LogServer("index server started on %s (pid: %d)", socketPath, os.Getpid())
	debug.LogServer("project root: %s", s.cfg.Project.Root)
	return nil
}

// Preload ingests the built-in keyword lists and configured tag files
func (s *IndexServer) Preload() {
	if s.cfg.Completion.SyntaxKeywords {
		s.completer.AddBuiltinKeywords(parser.KeywordFiletypes()...)
	}
	if len(s.cfg.Completion.TagFiles) > 0 {
		if err := s.completer.AddTagFiles(s.cfg.Completion.TagFiles); err != nil {
			debug.LogServer("tag files: %v", err)
		}
	}
}

// startScan scans root in the background. The initial scan leaves files the
// editor already sent untouched and starts the watcher when it is done.
func (s *IndexServer) startScan(root string, initial bool) {
	s.mu.Lock()
	if s.indexingActive {
		s.mu.Unlock()
		return
	}
	s.indexingActive = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		debug.LogServer("scanning %s...", root)
		batch, stats, err := s.scanner.Scan(s.scanCtx, root)
		written := s.ingestScanBatch(batch, initial)

		summary := &ScanSummary{
			FilesIndexed: written,
			Identifiers:  stats.Identifiers,
			Errors:       stats.Errors,
			Truncated:    stats.Truncated,
			DurationMs:   stats.Duration.Milliseconds(),
		}
		if err != nil {
			summary.Error = err.Error()
			var idxErr *lccerrors.IndexingError
			summary.Retryable = errors.As(err, &idxErr) && idxErr.IsRecoverable()
			debug.LogServer("scan error: %v", err)
		} else {
			debug.LogServer("scan completed: %d files in %v", written, stats.Duration)
		}

		s.mu.Lock()
		s.indexingActive = false
		s.lastScan = summary
		s.mu.Unlock()

		if initial && s.cfg.Index.WatchMode && s.scanCtx.Err() == nil {
			s.startWatcher()
		}
	}()
}

// ingestScanBatch writes a scan batch. With keepExisting, files open in the
// editor are skipped: during startup their buffers are newer than the disk.
func (s *IndexServer) ingestScanBatch(batch core.FiletypeIdentifierMap, keepExisting bool) int {
	written := 0
	if keepExisting {
		written = s.completer.IngestBatchKeepingBuffers(batch)
	} else {
		for _, files := range batch {
			written += len(files)
		}
		s.completer.IngestBatch(batch)
	}
	s.publishStats()
	return written
}

func (s *IndexServer) startWatcher() {
	watcher, err := indexing.NewFileWatcher(s.cfg, s.scanner)
	if err != nil {
		debug.LogServer("file watcher unavailable: %v", err)
		return
	}
	watcher.BindDatabase(s.completer.Database(), s.completer)
	if err := watcher.Start(s.cfg.Project.Root); err != nil {
		debug.LogServer("file watcher failed to start: %v", err)
		_ = watcher.Stop()
		return
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		_ = watcher.Stop()
		return
	}
	s.watcher = watcher
	s.mu.Unlock()
}

func (s *IndexServer) publishStats() {
	stats := metrics.NewIndexStats()
	stats.CalculateFromDatabase(s.completer.Database())
	stats.Publish()
}

// Wait blocks until a client requests shutdown
func (s *IndexServer) Wait() {
	<-s.shutdownChan
}

func (s *IndexServer) requestShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdownChan) })
}

// Shutdown stops the scan, the watcher and the HTTP server, then removes the socket
func (s *IndexServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	watcher := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	s.scanCancel()
	if watcher != nil {
		_ = watcher.Stop()
	}

	var shutdownErr error
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
	}

	s.wg.Wait()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.GetServerSocketPath())
	s.requestShutdown()

	debug.LogServer("index server shut down cleanly")
	return shutdownErr
}
