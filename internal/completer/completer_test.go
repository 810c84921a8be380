package completer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/lcc/internal/config"
	"github.com/standardbeagle/lcc/internal/core"
	lccerrors "github.com/standardbeagle/lcc/internal/errors"
	"github.com/standardbeagle/lcc/internal/types"
)

func newTestCompleter(mutate ...func(*config.Completion)) *IdentifierCompleter {
	cfg := config.Default("/project").Completion
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg)
}

func insertionTexts(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.InsertionText
	}
	return out
}

func TestOnFileReadyToParse_IngestsBuffer(t *testing.T) {
	c := newTestCompleter()
	err := c.OnFileReadyToParse(context.Background(), Request{
		Filepath: "/project/app.py",
		Filetype: "python",
		Contents: "def foo_bar():\n    foo_baz = 1\n",
	})
	require.NoError(t, err)

	got, err := c.ComputeCandidates(Request{Filetype: "python", Query: "foo"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"foo_bar", "foo_baz"}, insertionTexts(got))
}

func TestOnFileReadyToParse_DerivesFiletypeFromPath(t *testing.T) {
	c := newTestCompleter()
	require.NoError(t, c.OnFileReadyToParse(context.Background(), Request{
		Filepath: "/project/main.go",
		Contents: "package main\n\nfunc computeTotal() {}\n",
	}))

	_, ok := c.Database().FileShard("go", "/project/main.go")
	assert.True(t, ok)
}

func TestOnFileReadyToParse_SkipsUnchangedContents(t *testing.T) {
	c := newTestCompleter()
	req := Request{Filepath: "/project/a.py", Filetype: "python", Contents: "alpha_one = 1\n"}
	require.NoError(t, c.OnFileReadyToParse(context.Background(), req))

	// Clearing behind the completer's back shows whether the second call re-ingests
	c.Database().ClearFile("python", "/project/a.py")
	require.NoError(t, c.OnFileReadyToParse(context.Background(), req))
	shard, _ := c.Database().FileShard("python", "/project/a.py")
	assert.Equal(t, 0, shard.Len(), "same contents must not be re-parsed")

	req.Contents = "alpha_two = 2\n"
	require.NoError(t, c.OnFileReadyToParse(context.Background(), req))
	got, err := c.ComputeCandidates(Request{Filetype: "python", Query: "alph"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha_two"}, insertionTexts(got))
}

func TestOnFileReadyToParse_CancelledContext(t *testing.T) {
	c := newTestCompleter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.OnFileReadyToParse(ctx, Request{Filepath: "/p/a.go", Filetype: "go", Contents: "package a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var idxErr *lccerrors.IndexingError
	require.ErrorAs(t, err, &idxErr)
	assert.Equal(t, "/p/a.go", idxErr.FilePath)
}

func TestOnBufferUnload(t *testing.T) {
	c := newTestCompleter()
	req := Request{Filepath: "/project/b.py", Filetype: "python", Contents: "unique_name = 1\n"}
	require.NoError(t, c.OnFileReadyToParse(context.Background(), req))
	require.NoError(t, c.OnBufferUnload(req))

	got, err := c.ComputeCandidates(Request{Filetype: "python", Query: "uniq"})
	require.NoError(t, err)
	assert.Empty(t, got)

	// The buffer hash is forgotten, so reloading the same contents ingests again
	require.NoError(t, c.OnFileReadyToParse(context.Background(), req))
	got, err = c.ComputeCandidates(Request{Filetype: "python", Query: "uniq"})
	require.NoError(t, err)
	assert.Equal(t, []string{"unique_name"}, insertionTexts(got))
}

func TestOnInsertLeave_MergesIdentifierUnderCursor(t *testing.T) {
	c := newTestCompleter()
	require.NoError(t, c.OnFileReadyToParse(context.Background(), Request{
		Filepath: "/project/c.txt", Filetype: "text", Contents: "existingWord\n",
	}))

	err := c.OnInsertLeave(Request{
		Filepath:  "/project/c.txt",
		Filetype:  "text",
		Contents:  "existingWord\nhello newWord\n",
		LineNum:   2,
		ColumnNum: 8,
	})
	require.NoError(t, err)

	got, err := c.ComputeCandidates(Request{Filetype: "text", Query: "new"})
	require.NoError(t, err)
	assert.Equal(t, []string{"newWord"}, insertionTexts(got))

	got, err = c.ComputeCandidates(Request{Filetype: "text", Query: "exi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"existingWord"}, insertionTexts(got), "merge keeps the existing identifiers")
}

func TestOnInsertLeave_OutOfRangeLineIsNoop(t *testing.T) {
	c := newTestCompleter()
	err := c.OnInsertLeave(Request{Filepath: "/p/x.txt", Filetype: "text", Contents: "one", LineNum: 5, ColumnNum: 1})
	assert.NoError(t, err)
	assert.Equal(t, 0, c.Database().Stats().Files)
}

func TestComputeCandidates_MinNumChars(t *testing.T) {
	c := newTestCompleter()
	c.Database().IngestFile([]string{"foobar"}, "go", "/a.go")

	got, err := c.ComputeCandidates(Request{Filetype: "go", Query: "f"})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.ComputeCandidates(Request{Filetype: "go", Query: "fo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"foobar"}, insertionTexts(got))
}

func TestComputeCandidates_DropsTypedWord(t *testing.T) {
	c := newTestCompleter()
	c.Database().IngestFile([]string{"ab", "abc", "abd", "abe"}, "go", "/a.go")

	got, err := c.ComputeCandidates(Request{Filetype: "go", Query: "ab", MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2, "headroom keeps the result full after dropping the typed word")
	assert.NotContains(t, insertionTexts(got), "ab")
}

func TestComputeCandidates_MinIdentifierCandidateChars(t *testing.T) {
	c := newTestCompleter(func(cfg *config.Completion) { cfg.MinIdentifierCandidateChars = 5 })
	c.Database().IngestFile([]string{"abcd", "abcdef"}, "go", "/a.go")

	got, err := c.ComputeCandidates(Request{Filetype: "go", Query: "ab"})
	require.NoError(t, err)
	assert.Equal(t, []string{"abcdef"}, insertionTexts(got))
}

func TestComputeCandidates_FiltersBeforeLimit(t *testing.T) {
	c := newTestCompleter(func(cfg *config.Completion) {
		cfg.MinNumChars = 1
		cfg.MaxCandidates = 2
		cfg.MinIdentifierCandidateChars = 5
	})
	// The short names rank highest, and all of them are filtered out
	c.Database().IngestFile([]string{"ab", "abc", "abcd", "abcdefgh", "abcdefghij"}, "go", "/a.go")

	got, err := c.ComputeCandidates(Request{Filetype: "go", Query: "a"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"abcdefgh", "abcdefghij"}, insertionTexts(got))
}

func TestComputeCandidates_TypedWordDoesNotTakeASlot(t *testing.T) {
	c := newTestCompleter(func(cfg *config.Completion) { cfg.MaxCandidates = 2 })
	c.Database().IngestFile([]string{"ab", "abc", "abcd"}, "go", "/a.go")

	got, err := c.ComputeCandidates(Request{Filetype: "go", Query: "ab"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"abc", "abcd"}, insertionTexts(got))
}

func TestComputeCandidates_QueryFromCursor(t *testing.T) {
	c := newTestCompleter()
	contents := "foobar\nx = foob"
	require.NoError(t, c.OnFileReadyToParse(context.Background(), Request{
		Filepath: "/project/q.py", Filetype: "python", Contents: contents,
	}))

	got, err := c.ComputeCandidates(Request{
		Filepath:  "/project/q.py",
		Filetype:  "python",
		Contents:  contents,
		LineNum:   2,
		ColumnNum: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"foobar"}, insertionTexts(got))
}

func TestComputeCandidates_DefaultLimit(t *testing.T) {
	c := newTestCompleter(func(cfg *config.Completion) { cfg.MaxCandidates = 3 })
	c.Database().IngestFile([]string{"item1", "item2", "item3", "item4", "item5"}, "go", "/a.go")

	got, err := c.ComputeCandidates(Request{Filetype: "go", Query: "it"})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestComputeCandidates_RequiresFiletype(t *testing.T) {
	c := newTestCompleter()
	_, err := c.ComputeCandidates(Request{Filepath: "README", Query: "abc"})
	var reqErr *lccerrors.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "filetype", reqErr.Field)
}

func TestEvents_RequireFilepath(t *testing.T) {
	c := newTestCompleter()
	err := c.OnBufferUnload(Request{Filetype: "go"})
	var reqErr *lccerrors.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "filepath", reqErr.Field)
}

func TestAddSyntaxKeywords(t *testing.T) {
	c := newTestCompleter()
	c.AddBuiltinKeywords("go", "ruby")

	shard, ok := c.Database().FileShard("go", types.SyntaxFilepathPrefix+"go")
	require.True(t, ok)
	assert.Greater(t, shard.Len(), 10)
	assert.Equal(t, []string{"go"}, c.Database().Filetypes(), "filetypes without keywords are skipped")

	got, err := c.ComputeCandidates(Request{Filetype: "go", Query: "fallth"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fallthrough"}, insertionTexts(got))

	// A later list replaces the earlier one
	c.AddSyntaxKeywords("go", []string{"onlyword"})
	shard, _ = c.Database().FileShard("go", types.SyntaxFilepathPrefix+"go")
	assert.Equal(t, 1, shard.Len())
}

func TestAddTagFiles(t *testing.T) {
	dir := t.TempDir()
	tagsPath := filepath.Join(dir, "tags")
	require.NoError(t, os.WriteFile(tagsPath, []byte("tagged_function\tsrc/lib.c\t1;\"\tf\tlanguage:C\n"), 0644))

	c := newTestCompleter()
	err := c.AddTagFiles([]string{tagsPath, filepath.Join(dir, "missing")})
	assert.Error(t, err, "missing file is reported")

	got, err := c.ComputeCandidates(Request{Filetype: "c", Query: "tagged"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tagged_function"}, insertionTexts(got), "readable files still load")
}

func TestHandleEvent(t *testing.T) {
	c := newTestCompleter()
	ctx := context.Background()
	req := Request{Filepath: "/project/h.py", Filetype: "python", Contents: "handled_event = 1\n"}

	require.NoError(t, c.HandleEvent(ctx, types.EventFileReadyToParse, req))
	assert.Equal(t, 1, c.Database().Stats().Files)

	require.NoError(t, c.HandleEvent(ctx, types.EventBufferVisit, req))
	require.NoError(t, c.HandleEvent(ctx, "SomethingElse", req))

	require.NoError(t, c.HandleEvent(ctx, types.EventBufferUnload, req))
	shard, _ := c.Database().FileShard("python", "/project/h.py")
	assert.Equal(t, 0, shard.Len())
}

func TestLineAt(t *testing.T) {
	line, ok := lineAt("a\r\nb\nc", 2)
	assert.True(t, ok)
	assert.Equal(t, "b", line)

	line, ok = lineAt("a\r\nb\nc", 1)
	assert.True(t, ok)
	assert.Equal(t, "a", line)

	line, ok = lineAt("a\nb", 3)
	assert.False(t, ok)
	assert.Empty(t, line)

	_, ok = lineAt("a", 0)
	assert.False(t, ok)
}

func TestIngestBatchKeepingBuffers(t *testing.T) {
	ctx := context.Background()
	c := newTestCompleter()

	open := Request{Filepath: "/p/open.py", Filetype: "python", Contents: "buffer_name = 1\n"}
	closed := Request{Filepath: "/p/closed.py", Filetype: "python", Contents: "closed_buffer = 1\n"}
	require.NoError(t, c.OnFileReadyToParse(ctx, open))
	require.NoError(t, c.OnFileReadyToParse(ctx, closed))
	require.NoError(t, c.OnBufferUnload(closed))
	c.IngestBuffer([]string{"client_name"}, "python", "/p/client.py")

	written := c.IngestBatchKeepingBuffers(core.FiletypeIdentifierMap{"python": {
		"/p/open.py":   {"disk_open"},
		"/p/closed.py": {"disk_closed"},
		"/p/client.py": {"disk_client"},
		"/p/new.py":    {"disk_new"},
	}})
	assert.Equal(t, 2, written)

	shardTexts := func(path string) []string {
		shard, ok := c.Database().FileShard("python", path)
		require.True(t, ok, path)
		var out []string
		for _, id := range shard.Identifiers() {
			out = append(out, id.Text())
		}
		return out
	}
	assert.Equal(t, []string{"buffer_name"}, shardTexts("/p/open.py"))
	assert.Equal(t, []string{"client_name"}, shardTexts("/p/client.py"))
	assert.Equal(t, []string{"disk_closed"}, shardTexts("/p/closed.py"), "a closed buffer takes the disk contents")
	assert.Equal(t, []string{"disk_new"}, shardTexts("/p/new.py"))

	assert.Equal(t, 0, c.IngestBatchKeepingBuffers(nil))
}

func TestOnFileReadyToParse_ConcurrentEventsForOneBuffer(t *testing.T) {
	ctx := context.Background()
	c := newTestCompleter()
	older := Request{Filepath: "/p/race.py", Filetype: "python", Contents: "older_name = 1\n"}
	newer := Request{Filepath: "/p/race.py", Filetype: "python", Contents: "newer_name = 1\n"}

	var g errgroup.Group
	for i := 0; i < 50; i++ {
		req := older
		if i%2 == 1 {
			req = newer
		}
		g.Go(func() error { return c.OnFileReadyToParse(ctx, req) })
	}
	require.NoError(t, g.Wait())

	// Whatever order the events ran in, the recorded hash matches the index, so
	// resending either buffer is applied or correctly skipped
	for _, req := range []Request{newer, older, newer} {
		require.NoError(t, c.OnFileReadyToParse(ctx, req))
		want := strings.Fields(req.Contents)[0]
		shard, ok := c.Database().FileShard("python", req.Filepath)
		require.True(t, ok)
		require.Equal(t, 1, shard.Len())
		assert.Equal(t, want, shard.Identifiers()[0].Text())
	}
}

func TestOnBufferUnload_ConcurrentWithParse(t *testing.T) {
	ctx := context.Background()
	for round := 0; round < 20; round++ {
		c := newTestCompleter()
		req := Request{Filepath: "/p/flip.py", Filetype: "python", Contents: "flip_name = 1\n"}
		key := bufferKey{filetype: "python", filepath: req.Filepath}

		var g errgroup.Group
		g.Go(func() error { return c.OnFileReadyToParse(ctx, req) })
		g.Go(func() error { return c.OnBufferUnload(req) })
		require.NoError(t, g.Wait())

		// Either the unload ran last and the buffer is gone, or the parse ran last
		// and the buffer is open with its contents
		shard, ok := c.Database().FileShard("python", req.Filepath)
		if c.bufferOpen(key) {
			require.True(t, ok)
			assert.Equal(t, 1, shard.Len())
		} else if ok {
			assert.Equal(t, 0, shard.Len())
		}
	}
}
