package indexing

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/lcc/internal/config"
	"github.com/standardbeagle/lcc/internal/core"
	"github.com/standardbeagle/lcc/internal/debug"
	"github.com/standardbeagle/lcc/internal/metrics"
	"github.com/standardbeagle/lcc/internal/parser"
)

// FileWatcher keeps the identifier index in step with the file system
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	config    *config.Config
	scanner   *Scanner
	debouncer *eventDebouncer
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	stopOnce  sync.Once

	// Callbacks for handling file events
	onFileChanged func(path string, eventType FileEventType) error
	onFileRemoved func(path string) error

	// Watch mode statistics
	eventsProcessed int64
	errorCount      int64
	watchedDirs     int
	lastEventTime   time.Time
	statsMu         sync.RWMutex
}

// FileEventType represents the type of file system event
type FileEventType int

const (
	FileEventCreate FileEventType = iota
	FileEventWrite
	FileEventRemove
	FileEventRename
)

func (t FileEventType) String() string {
	switch t {
	case FileEventCreate:
		return "create"
	case FileEventWrite:
		return "write"
	case FileEventRemove:
		return "remove"
	case FileEventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// NewFileWatcher creates a watcher that filters paths with scanner
func NewFileWatcher(cfg *config.Config, scanner *Scanner) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	fw := &FileWatcher{
		watcher:   watcher,
		config:    cfg,
		scanner:   scanner,
		debouncer: newEventDebouncer(time.Duration(cfg.Index.WatchDebounceMs) * time.Millisecond),
		ctx:       ctx,
		cancel:    cancel,
	}
	fw.debouncer.setCallbacks(fw)

	return fw, nil
}

// SetCallbacks sets the callbacks for handling file events. Creates, writes and
// renames arrive at onFileChanged.
func (fw *FileWatcher) SetCallbacks(
	onFileChanged func(path string, eventType FileEventType) error,
	onFileRemoved func(path string) error,
) {
	fw.onFileChanged = onFileChanged
	fw.onFileRemoved = onFileRemoved
}

// BindDatabase routes file events into db: changed files are re-extracted and
// replace their entry, removed files and directories are cleared
func (fw *FileWatcher) BindDatabase(db *core.IdentifierDatabase, extractor IdentifierExtractor) {
	fw.SetCallbacks(
		func(path string, _ FileEventType) error {
			filetype := parser.FiletypeForPath(path)
			content, skip, err := fw.scanner.readSourceFile(path)
			if err != nil {
				return err
			}
			if skip != skipNone {
				db.ClearFile(filetype, path)
				metrics.ClearsTotal.Inc()
				return nil
			}
			ids, err := extractor.ExtractIdentifiers(fw.ctx, content, filetype)
			if err != nil {
				return fmt.Errorf("extract %s: %w", path, err)
			}
			db.IngestFile(ids, filetype, path)
			metrics.IngestsTotal.WithLabelValues("watch").Inc()
			return nil
		},
		func(path string) error {
			if filetype := parser.FiletypeForPath(path); filetype != "" {
				db.ClearFile(filetype, path)
				metrics.ClearsTotal.Inc()
				return nil
			}
			// Directory removal: clear everything indexed beneath it
			prefix := path + string(filepath.Separator)
			for _, filetype := range db.Filetypes() {
				for _, p := range db.Filepaths(filetype) {
					if strings.HasPrefix(p, prefix) {
						db.ClearFile(filetype, p)
						metrics.ClearsTotal.Inc()
					}
				}
			}
			return nil
		},
	)
}

// Start begins watching root
func (fw *FileWatcher) Start(root string) error {
	if !fw.config.Index.WatchMode {
		log.Printf("File watching disabled in configuration")
		return nil
	}

	debug.LogWatch("starting file watcher for %s", root)

	if err := fw.addWatches(root, false); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", root, err)
	}

	fw.wg.Add(1)
	go fw.processEvents()

	fw.wg.Add(1)
	go fw.debouncer.run(fw.ctx, &fw.wg)

	debug.LogWatch("file watcher started, %d directories", fw.GetStats().WatchedDirs)
	return nil
}

// Stop stops the watcher and waits for its goroutines. Pending events are dropped.
func (fw *FileWatcher) Stop() error {
	fw.stopOnce.Do(func() {
		fw.cancel()
		fw.debouncer.stop()
		fw.debouncer.inflight.Wait()

		if err := fw.watcher.Close(); err != nil {
			log.Printf("Error closing fsnotify watcher: %v", err)
		}

		fw.wg.Wait()
		debug.LogWatch("file watcher stopped")
	})
	return nil
}

// addWatches recursively watches every directory below root that is not
// excluded. With enqueue set, files found on the way are queued as created,
// since a directory moved into the tree produces no events for its contents.
func (fw *FileWatcher) addWatches(root string, enqueue bool) error {
	// Track visited directories to prevent infinite loops from symlink cycles
	visitedDirs := make(map[string]bool)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}

		if !d.IsDir() {
			if enqueue {
				if _, ok := fw.scanner.ShouldProcessFile(path); ok {
					fw.debouncer.addEvent(path, FileEventCreate)
				}
			}
			return nil
		}

		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visitedDirs[realPath] {
			return filepath.SkipDir
		}
		visitedDirs[realPath] = true

		if fw.shouldIgnoreDirectory(path) {
			return filepath.SkipDir
		}

		if err := fw.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to add watch for %s: %v", path, err)
			return nil
		}
		fw.statsMu.Lock()
		fw.watchedDirs++
		fw.statsMu.Unlock()
		return nil
	})
}

// shouldIgnoreDirectory applies the exclude patterns and gitignore to a directory
func (fw *FileWatcher) shouldIgnoreDirectory(path string) bool {
	rel := relativeSlash(fw.config.Project.Root, path)
	if rel == "." || strings.HasPrefix(rel, "../") {
		return false
	}
	return fw.scanner.shouldIgnoreDir(rel, fw.scanner.gitignore)
}

// processEvents processes file system events from fsnotify
func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
			fw.incrementStats(0, 1)
		}
	}
}

// handleEvent filters one fsnotify event and hands it to the debouncer
func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	debug.LogWatch("received %v for %s", event.Op, path)

	info, err := os.Stat(path)
	if err != nil {
		// Gone: a removal or the old name of a rename
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && fw.shouldTrackRemoval(path) {
			fw.debouncer.addEvent(path, FileEventRemove)
		}
		return
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !fw.shouldIgnoreDirectory(path) {
			if err := fw.addWatches(path, true); err != nil {
				log.Printf("Warning: failed to watch new directory %s: %v", path, err)
			}
		}
		return
	}

	if _, ok := fw.scanner.ShouldProcessFile(path); !ok {
		debug.LogWatch("ignoring %s", path)
		return
	}

	var eventType FileEventType
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = FileEventCreate
	case event.Op&fsnotify.Write != 0:
		eventType = FileEventWrite
	case event.Op&fsnotify.Rename != 0:
		eventType = FileEventRename
	default:
		return // Chmod
	}
	fw.debouncer.addEvent(path, eventType)
}

// shouldTrackRemoval accepts removed source files and removed directories that
// were not excluded; which of the two it was can no longer be checked
func (fw *FileWatcher) shouldTrackRemoval(path string) bool {
	if _, ok := fw.scanner.ShouldProcessFile(path); ok {
		return true
	}
	if parser.FiletypeForPath(path) != "" {
		return false
	}
	rel := relativeSlash(fw.config.Project.Root, path)
	if strings.HasPrefix(rel, "../") || rel == "." {
		return false
	}
	return !fw.scanner.inExcludedDir(rel) && !fw.scanner.shouldIgnoreDir(rel, fw.scanner.gitignore)
}

// eventDebouncer batches file events to avoid excessive processing
type eventDebouncer struct {
	events    map[string]FileEventType
	mutex     sync.Mutex
	debounce  time.Duration
	timer     *time.Timer
	stopped   bool
	inflight  sync.WaitGroup
	callbacks *FileWatcher
}

func newEventDebouncer(debounce time.Duration) *eventDebouncer {
	return &eventDebouncer{
		events:   make(map[string]FileEventType),
		debounce: debounce,
	}
}

func (d *eventDebouncer) setCallbacks(fw *FileWatcher) {
	d.callbacks = fw
}

// addEvent records the latest event for path and restarts the quiet period
func (d *eventDebouncer) addEvent(path string, eventType FileEventType) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}
	d.events[path] = eventType

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, d.flush)
}

func (d *eventDebouncer) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	<-ctx.Done()
	d.stop()
}

// stop discards pending events and prevents further flushes
func (d *eventDebouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.events = make(map[string]FileEventType)
}

// flush processes all accumulated events: removals first, then changes, then creates
func (d *eventDebouncer) flush() {
	d.mutex.Lock()
	if d.stopped {
		d.mutex.Unlock()
		return
	}
	events := d.events
	d.events = make(map[string]FileEventType)
	d.inflight.Add(1)
	d.mutex.Unlock()
	defer d.inflight.Done()

	if len(events) == 0 || d.callbacks == nil {
		return
	}
	fw := d.callbacks

	debug.LogWatch("processing %d debounced file events", len(events))

	var creates, removes, changes []string
	for path, eventType := range events {
		switch eventType {
		case FileEventCreate:
			creates = append(creates, path)
		case FileEventRemove:
			removes = append(removes, path)
		case FileEventWrite, FileEventRename:
			changes = append(changes, path)
		}
	}

	for _, path := range removes {
		fw.dispatch(path, FileEventRemove)
	}
	for _, path := range changes {
		fw.dispatch(path, FileEventWrite)
	}
	for _, path := range creates {
		fw.dispatch(path, FileEventCreate)
	}
}

func (fw *FileWatcher) dispatch(path string, eventType FileEventType) {
	if fw.ctx.Err() != nil {
		return
	}

	var err error
	switch {
	case eventType == FileEventRemove && fw.onFileRemoved != nil:
		err = fw.onFileRemoved(path)
	case eventType != FileEventRemove && fw.onFileChanged != nil:
		err = fw.onFileChanged(path, eventType)
	default:
		return
	}

	metrics.WatcherEventsTotal.WithLabelValues(eventType.String()).Inc()
	if err != nil {
		log.Printf("Failed to update index for %s: %v", path, err)
		fw.incrementStats(1, 1)
		return
	}
	fw.incrementStats(1, 0)
}

// incrementStats updates watch mode statistics
func (fw *FileWatcher) incrementStats(events int64, errors int64) {
	fw.statsMu.Lock()
	defer fw.statsMu.Unlock()

	fw.eventsProcessed += events
	fw.errorCount += errors
	if events > 0 {
		fw.lastEventTime = time.Now()
	}
}

// GetStats returns current watch mode statistics
func (fw *FileWatcher) GetStats() WatchStats {
	fw.statsMu.RLock()
	defer fw.statsMu.RUnlock()

	return WatchStats{
		EventsProcessed: fw.eventsProcessed,
		ErrorCount:      fw.errorCount,
		WatchedDirs:     fw.watchedDirs,
		LastEventTime:   fw.lastEventTime,
		IsActive:        fw.ctx.Err() == nil,
	}
}

// WatchStats contains statistics about file watching operations
type WatchStats struct {
	EventsProcessed int64     `json:"events_processed"`
	ErrorCount      int64     `json:"error_count"`
	WatchedDirs     int       `json:"watched_dirs"`
	LastEventTime   time.Time `json:"last_event_time"`
	IsActive        bool      `json:"is_active"`
}
