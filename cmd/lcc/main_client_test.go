package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lcc/internal/config"
	"github.com/standardbeagle/lcc/internal/debug"
	"github.com/standardbeagle/lcc/internal/server"
)

// startServer runs a server on the socket derived from root, which is where the
// CLI looks for it
func startServer(t *testing.T, root string) *server.IndexServer {
	t.Helper()
	cfg := config.Default(root)
	cfg.Index.ScanOnStart = false
	cfg.Index.WatchMode = false
	cfg.Completion.SyntaxKeywords = false

	srv, err := server.NewIndexServer(cfg)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func TestNotifyThenCompleteViaServer(t *testing.T) {
	root := t.TempDir()
	startServer(t, root)

	// Outside the root, so only the server can know about it
	buffer := filepath.Join(t.TempDir(), "buffer.go")
	require.NoError(t, os.WriteFile(buffer, []byte("package b\n\nvar bufferOnlyName = 1\n"), 0644))

	out, err := runApp(t, "--root", root, "notify", buffer)
	require.NoError(t, err)
	assert.Contains(t, out, "FileReadyToParse")

	out, err = runApp(t, "--root", root, "complete", "-f", "go", "bufOnly")
	require.NoError(t, err)
	assert.Contains(t, out, "bufferOnlyName")

	_, err = runApp(t, "--root", root, "notify", "--event", "BufferUnload", buffer)
	require.NoError(t, err)

	out, err = runApp(t, "--root", root, "complete", "-f", "go", "bufOnly")
	require.NoError(t, err)
	assert.Contains(t, out, "No completions")
}

func TestNotifyRequiresKnownFiletype(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.unknownext")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	_, err := runApp(t, "--root", t.TempDir(), "notify", path)
	assert.Error(t, err)
}

func TestTagsPush(t *testing.T) {
	root := t.TempDir()
	startServer(t, root)

	tagsPath := filepath.Join(root, "tags")
	require.NoError(t, os.WriteFile(tagsPath,
		[]byte("parseRequest\tsrv/http.go\t/^func parseRequest(/;\"\tf\tlanguage:Go\n"), 0644))

	out, err := runApp(t, "--root", root, "tags", "--push", tagsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Pushed identifiers for 1 files")

	out, err = runApp(t, "--root", root, "complete", "-f", "go", "parseReq")
	require.NoError(t, err)
	assert.Contains(t, out, "parseRequest")
}

func TestReindexCommand(t *testing.T) {
	root := t.TempDir()
	srv := startServer(t, root)
	mainPath := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(mainPath, []byte("package main\n\nfunc computeTotal() int { return 0 }\n"), 0644))

	out, err := runApp(t, "--root", root, "reindex", "--wait", "5s")
	require.NoError(t, err)
	assert.Contains(t, out, "Reindex started")

	db := srv.Completer().Database()
	assert.Eventually(t, func() bool {
		_, ok := db.FileShard("go", mainPath)
		return ok
	}, 5*time.Second, 20*time.Millisecond)
}

func TestReindexWithoutServer(t *testing.T) {
	_, err := runApp(t, "--root", t.TempDir(), "reindex")
	assert.Error(t, err)
}

func TestDebugLogFlag(t *testing.T) {
	prev := debug.EnableDebug
	t.Cleanup(func() { debug.EnableDebug = prev })

	_, err := runApp(t, "--root", writeProject(t), "--debug-log", "scan")
	require.NoError(t, err)
	assert.Equal(t, "true", debug.EnableDebug)
}
