package indexing

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lcc/internal/config"
	"github.com/standardbeagle/lcc/internal/core"
)

func newTestWatcher(t *testing.T, root string) (*FileWatcher, *core.IdentifierDatabase) {
	t.Helper()
	cfg := config.Default(root)
	cfg.Index.WatchDebounceMs = 20

	fw, err := NewFileWatcher(cfg, NewScanner(cfg, regexExtractor))
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Stop() })

	db := core.NewIdentifierDatabase(nil, nil)
	fw.BindDatabase(db, regexExtractor)
	return fw, db
}

func shardContains(db *core.IdentifierDatabase, filetype, path, text string) bool {
	shard, ok := db.FileShard(filetype, path)
	if !ok {
		return false
	}
	for _, id := range shard.Identifiers() {
		if id.Text() == text {
			return true
		}
	}
	return false
}

func TestFileWatcher_TracksWritesAndRemovals(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"pkg/existing.go": "package pkg\n"})

	fw, db := newTestWatcher(t, root)
	require.NoError(t, fw.Start(root))
	assert.Equal(t, 2, fw.GetStats().WatchedDirs)

	path := filepath.Join(root, "pkg", "fresh.go")
	require.NoError(t, os.WriteFile(path, []byte("package pkg\n\nvar watchedName = 1\n"), 0644))
	require.Eventually(t, func() bool {
		return shardContains(db, "go", path, "watchedName")
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("package pkg\n\nvar renamedName = 2\n"), 0644))
	require.Eventually(t, func() bool {
		return shardContains(db, "go", path, "renamedName") && !shardContains(db, "go", path, "watchedName")
	}, 5*time.Second, 20*time.Millisecond, "a write replaces the file's identifiers")

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		shard, ok := db.FileShard("go", path)
		return ok && shard.Len() == 0
	}, 5*time.Second, 20*time.Millisecond)

	stats := fw.GetStats()
	assert.True(t, stats.IsActive)
	assert.GreaterOrEqual(t, stats.EventsProcessed, int64(3))
}

func TestFileWatcher_NewDirectoryAndRemoval(t *testing.T) {
	root := t.TempDir()
	fw, db := newTestWatcher(t, root)
	require.NoError(t, fw.Start(root))

	dir := filepath.Join(root, "feature")
	require.NoError(t, os.Mkdir(dir, 0755))
	// Give the watcher a moment to add the new directory before writing into it
	require.Eventually(t, func() bool { return fw.GetStats().WatchedDirs == 2 }, 5*time.Second, 10*time.Millisecond)

	path := filepath.Join(dir, "module.py")
	require.NoError(t, os.WriteFile(path, []byte("def nested_function():\n    pass\n"), 0644))
	require.Eventually(t, func() bool {
		return shardContains(db, "python", path, "nested_function")
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.RemoveAll(dir))
	require.Eventually(t, func() bool {
		shard, ok := db.FileShard("python", path)
		return ok && shard.Len() == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestFileWatcher_IgnoresExcludedPaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"node_modules/dep/index.js": "var x = 1\n"})

	fw, db := newTestWatcher(t, root)
	require.NoError(t, fw.Start(root))
	assert.Equal(t, 1, fw.GetStats().WatchedDirs, "excluded directories are not watched")

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.unknownext"), []byte("text"), 0644))
	kept := filepath.Join(root, "kept.go")
	require.NoError(t, os.WriteFile(kept, []byte("package kept\n"), 0644))

	require.Eventually(t, func() bool {
		return shardContains(db, "go", kept, "kept")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"go"}, db.Filetypes())
}

func TestFileWatcher_DisabledWatchMode(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default(root)
	cfg.Index.WatchMode = false

	fw, err := NewFileWatcher(cfg, NewScanner(cfg, regexExtractor))
	require.NoError(t, err)
	require.NoError(t, fw.Start(root))
	assert.Equal(t, 0, fw.GetStats().WatchedDirs)
	require.NoError(t, fw.Stop())
	require.NoError(t, fw.Stop(), "stop is idempotent")
	assert.False(t, fw.GetStats().IsActive)
}

func TestEventDebouncer_FlushOrder(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default(root)
	fw, err := NewFileWatcher(cfg, NewScanner(cfg, regexExtractor))
	require.NoError(t, err)
	defer fw.Stop()

	var mu sync.Mutex
	var order []string
	record := func(tag string) {
		mu.Lock()
		order = append(order, tag)
		mu.Unlock()
	}
	fw.SetCallbacks(
		func(path string, eventType FileEventType) error {
			record(eventType.String() + ":" + filepath.Base(path))
			return nil
		},
		func(path string) error {
			record("remove:" + filepath.Base(path))
			return nil
		},
	)

	d := fw.debouncer
	d.events["c.go"] = FileEventCreate
	d.events["w.go"] = FileEventWrite
	d.events["r.go"] = FileEventRemove
	d.flush()

	assert.Equal(t, []string{"remove:r.go", "write:w.go", "create:c.go"}, order)
	assert.Equal(t, int64(3), fw.GetStats().EventsProcessed)
}

func TestEventDebouncer_LatestEventWins(t *testing.T) {
	d := newEventDebouncer(time.Hour)
	d.addEvent("a.go", FileEventRemove)
	d.addEvent("a.go", FileEventCreate)

	d.mutex.Lock()
	assert.Equal(t, FileEventCreate, d.events["a.go"])
	d.mutex.Unlock()

	d.stop()
	d.addEvent("b.go", FileEventWrite)
	d.mutex.Lock()
	assert.Empty(t, d.events, "stopped debouncer drops events")
	d.mutex.Unlock()
}
