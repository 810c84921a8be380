// Package completer turns editor events and completion requests into identifier
// index operations.
package completer

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lcc/internal/config"
	"github.com/standardbeagle/lcc/internal/core"
	"github.com/standardbeagle/lcc/internal/debug"
	lccerrors "github.com/standardbeagle/lcc/internal/errors"
	"github.com/standardbeagle/lcc/internal/match"
	"github.com/standardbeagle/lcc/internal/metrics"
	"github.com/standardbeagle/lcc/internal/parser"
	"github.com/standardbeagle/lcc/internal/tags"
	"github.com/standardbeagle/lcc/internal/types"
)

// Request describes one editor buffer position. LineNum and ColumnNum are 1-based;
// ColumnNum counts bytes.
type Request struct {
	Filepath   string
	Filetype   string
	Contents   string
	LineNum    int
	ColumnNum  int
	Query      string
	MaxResults int
}

// Candidate is one completion offered to the editor
type Candidate struct {
	InsertionText string  `json:"insertion_text"`
	Score         float64 `json:"score"`
}

// IdentifierCompleter feeds buffers, tag files and keyword lists into an
// IdentifierDatabase and answers completion requests from it. Safe for
// concurrent use.
type IdentifierCompleter struct {
	cfg       config.Completion
	db        *core.IdentifierDatabase
	extractor *parser.Extractor

	mu      sync.Mutex // guards buffers
	buffers map[bufferKey]*bufferState
}

type bufferKey struct {
	filetype string
	filepath string
}

// bufferState tracks one editor buffer. Events for the buffer run under mu, one at
// a time.
type bufferState struct {
	mu     sync.Mutex
	hash   uint64
	hashed bool
	open   atomic.Bool // the index holds editor contents for this buffer
}

// lockBuffer returns the locked state for key. A state removed by OnBufferUnload
// while the caller waited is not returned; the caller gets a fresh one.
func (c *IdentifierCompleter) lockBuffer(key bufferKey) *bufferState {
	for {
		c.mu.Lock()
		st, ok := c.buffers[key]
		if !ok {
			st = &bufferState{}
			c.buffers[key] = st
		}
		c.mu.Unlock()

		st.mu.Lock()
		c.mu.Lock()
		current := c.buffers[key] == st
		c.mu.Unlock()
		if current {
			return st
		}
		st.mu.Unlock()
	}
}

// bufferOpen reports whether the index holds editor contents for key
func (c *IdentifierCompleter) bufferOpen(key bufferKey) bool {
	c.mu.Lock()
	st, ok := c.buffers[key]
	c.mu.Unlock()
	return ok && st.open.Load()
}

// New creates a completer with its own database configured from cfg
func New(cfg config.Completion) *IdentifierCompleter {
	repo := core.NewCandidateRepositoryWithLimit(cfg.MaxIdentifierLength)
	db := core.NewIdentifierDatabase(repo, match.NewMatcher(cfg.SimilarityAlgorithm))
	return NewWithDatabase(cfg, db)
}

// NewWithDatabase creates a completer over an existing database
func NewWithDatabase(cfg config.Completion, db *core.IdentifierDatabase) *IdentifierCompleter {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = types.DefaultMaxCandidates
	}
	return &IdentifierCompleter{
		cfg: cfg,
		db:  db,
		extractor: parser.NewExtractor(parser.Options{
			CollectFromCommentsAndStrings: cfg.CollectFromCommentsAndStrings,
		}),
		buffers: make(map[bufferKey]*bufferState),
	}
}

// Database returns the underlying identifier database
func (c *IdentifierCompleter) Database() *core.IdentifierDatabase {
	return c.db
}

// Extractor returns the identifier extractor used for buffers
func (c *IdentifierCompleter) Extractor() *parser.Extractor {
	return c.extractor
}

// Config returns the completion settings in effect
func (c *IdentifierCompleter) Config() config.Completion {
	return c.cfg
}

// HandleEvent dispatches an editor event. Unknown events are ignored.
func (c *IdentifierCompleter) HandleEvent(ctx context.Context, event types.EventName, req Request) error {
	switch event {
	case types.EventFileReadyToParse:
		return c.OnFileReadyToParse(ctx, req)
	case types.EventBufferUnload:
		return c.OnBufferUnload(req)
	case types.EventInsertLeave:
		return c.OnInsertLeave(req)
	case types.EventBufferVisit:
		return nil
	default:
		debug.Log(debug.ComponentComplete, "ignoring unknown event %q", event)
		return nil
	}
}

// OnFileReadyToParse re-extracts the buffer's identifiers and replaces the
// file's entry in the index. Unchanged contents are skipped.
func (c *IdentifierCompleter) OnFileReadyToParse(ctx context.Context, req Request) error {
	filetype, err := c.resolveBuffer(&req)
	if err != nil {
		return err
	}

	key := bufferKey{filetype: filetype, filepath: req.Filepath}
	sum := xxhash.Sum64String(req.Contents)
	st := c.lockBuffer(key)
	defer st.mu.Unlock()

	if st.hashed && st.hash == sum {
		debug.Log(debug.ComponentComplete, "buffer unchanged: %s", req.Filepath)
		return nil
	}

	identifiers, err := c.ExtractIdentifiers(ctx, []byte(req.Contents), filetype)
	if err != nil {
		return lccerrors.NewIndexingError("parse", err).WithFile(filetype, req.Filepath)
	}

	st.open.Store(true)
	c.db.IngestFile(identifiers, filetype, req.Filepath)
	metrics.IngestsTotal.WithLabelValues("file").Inc()
	st.hash, st.hashed = sum, true

	debug.Log(debug.ComponentComplete, "ingested %d identifiers from %s (%s)", len(identifiers), req.Filepath, filetype)
	return nil
}

// ExtractIdentifiers runs the extractor and records parse metrics
func (c *IdentifierCompleter) ExtractIdentifiers(ctx context.Context, content []byte, filetype string) ([]string, error) {
	start := time.Now()
	identifiers, err := c.extractor.Extract(ctx, content, filetype)
	metrics.ParseDuration.WithLabelValues(filetype).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ParseErrorsTotal.WithLabelValues(filetype).Inc()
		return nil, err
	}
	return identifiers, nil
}

// OnBufferUnload drops the buffer's identifiers from the index
func (c *IdentifierCompleter) OnBufferUnload(req Request) error {
	filetype, err := c.resolveBuffer(&req)
	if err != nil {
		return err
	}

	key := bufferKey{filetype: filetype, filepath: req.Filepath}
	st := c.lockBuffer(key)
	defer st.mu.Unlock()

	c.db.ClearFile(filetype, req.Filepath)
	metrics.ClearsTotal.Inc()
	st.open.Store(false)

	c.mu.Lock()
	delete(c.buffers, key)
	c.mu.Unlock()
	return nil
}

// OnInsertLeave adds the identifier under the cursor to the buffer's entry,
// so a word typed in insert mode completes before the next full parse
func (c *IdentifierCompleter) OnInsertLeave(req Request) error {
	filetype, err := c.resolveBuffer(&req)
	if err != nil {
		return err
	}

	line, ok := lineAt(req.Contents, req.LineNum)
	if !ok {
		return nil
	}
	ident := parser.IdentifierUnderCursor(line, req.ColumnNum-1, filetype)
	if ident == "" {
		return nil
	}

	st := c.lockBuffer(bufferKey{filetype: filetype, filepath: req.Filepath})
	defer st.mu.Unlock()

	st.open.Store(true)
	c.db.MergeFile([]string{ident}, filetype, req.Filepath)
	metrics.IngestsTotal.WithLabelValues("merge").Inc()
	// The merged identifier is not in the hashed contents
	st.hashed = false
	return nil
}

// IngestBuffer stores identifiers a client extracted itself as the contents of an
// open buffer, replacing what the index held for it
func (c *IdentifierCompleter) IngestBuffer(identifiers []string, filetype, filepath string) {
	st := c.lockBuffer(bufferKey{filetype: filetype, filepath: filepath})
	defer st.mu.Unlock()

	st.open.Store(true)
	c.db.IngestFile(identifiers, filetype, filepath)
	metrics.IngestsTotal.WithLabelValues("file").Inc()
	st.hashed = false
}

// AddSyntaxKeywords stores keywords for filetype under the synthetic path
// "syntax:<filetype>", replacing any earlier list
func (c *IdentifierCompleter) AddSyntaxKeywords(filetype string, keywords []string) {
	if filetype == "" {
		return
	}
	c.db.IngestFile(keywords, filetype, types.SyntaxFilepathPrefix+filetype)
	metrics.IngestsTotal.WithLabelValues("syntax").Inc()
}

// AddBuiltinKeywords loads the built-in keyword list for every filetype that has one
func (c *IdentifierCompleter) AddBuiltinKeywords(filetypes ...string) {
	for _, ft := range filetypes {
		if kw := parser.KeywordsForFiletype(ft); len(kw) > 0 {
			c.AddSyntaxKeywords(ft, kw)
		}
	}
}

// AddTagFiles loads ctags files into the index. Unreadable files are reported but
// do not prevent the others from loading.
func (c *IdentifierCompleter) AddTagFiles(paths []string) error {
	batch, err := tags.LoadTagFiles(paths)
	c.IngestBatch(batch)
	if err != nil {
		debug.Log(debug.ComponentComplete, "tag files: %v", err)
	}
	return err
}

// IngestBatch applies a multi-file batch with BulkIngest
func (c *IdentifierCompleter) IngestBatch(batch core.FiletypeIdentifierMap) {
	if len(batch) == 0 {
		return
	}
	c.db.BulkIngest(batch)
	metrics.IngestsTotal.WithLabelValues("bulk").Inc()
}

// IngestBatchKeepingBuffers applies a batch read from disk, skipping files open in
// the editor, and returns the number of files written. Open buffers are checked
// under the database write lock, so a buffer ingested before the batch lands is
// never overwritten by it.
func (c *IdentifierCompleter) IngestBatchKeepingBuffers(batch core.FiletypeIdentifierMap) int {
	if len(batch) == 0 {
		return 0
	}
	written := c.db.BulkIngestExcept(batch, func(filetype, filepath string) bool {
		return c.bufferOpen(bufferKey{filetype: filetype, filepath: filepath})
	})
	metrics.IngestsTotal.WithLabelValues("bulk").Inc()
	return written
}

// ComputeCandidates returns ranked completions for the request. An empty Query is
// taken from the identifier ending at the cursor. Queries shorter than
// MinNumChars yield nothing.
func (c *IdentifierCompleter) ComputeCandidates(req Request) ([]Candidate, error) {
	filetype, err := c.resolve(&req)
	if err != nil {
		return nil, err
	}

	query := req.Query
	if query == "" {
		if line, ok := lineAt(req.Contents, req.LineNum); ok {
			query = parser.QueryAtCursor(line, req.ColumnNum-1, filetype)
		}
	}
	if utf8.RuneCountInString(query) < c.cfg.MinNumChars {
		return nil, nil
	}

	limit := c.cfg.MaxCandidates
	if req.MaxResults > 0 {
		limit = req.MaxResults
	}

	minChars := c.cfg.MinIdentifierCandidateChars
	keep := func(id *core.Identifier) bool {
		text := id.Text()
		if text == query {
			return false
		}
		return minChars <= 0 || utf8.RuneCountInString(text) >= minChars
	}

	start := time.Now()
	results := c.db.QueryFunc(query, filetype, limit, keep)
	elapsed := time.Since(start)
	metrics.QueryDuration.WithLabelValues(filetype).Observe(elapsed.Seconds())
	debug.LogQuery("%s %q: %d results in %v", filetype, query, len(results), elapsed)
	metrics.QueriesTotal.WithLabelValues(filetype).Inc()

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, Candidate{InsertionText: r.Text(), Score: r.Score})
	}
	return candidates, nil
}

// resolve fills in the filetype from the path when the editor did not send one
func (c *IdentifierCompleter) resolve(req *Request) (string, error) {
	filetype := req.Filetype
	if filetype == "" {
		filetype = parser.FiletypeForPath(req.Filepath)
	}
	if filetype == "" {
		return "", lccerrors.NewRequestError("filetype", "missing and not derivable from filepath", nil)
	}
	return filetype, nil
}

// resolveBuffer is resolve for events, which always name a buffer
func (c *IdentifierCompleter) resolveBuffer(req *Request) (string, error) {
	if req.Filepath == "" {
		return "", lccerrors.NewRequestError("filepath", "required", nil)
	}
	return c.resolve(req)
}

// lineAt returns the 1-based line of contents
func lineAt(contents string, lineNum int) (string, bool) {
	if lineNum < 1 {
		return "", false
	}
	for i := 1; ; i++ {
		end := strings.IndexByte(contents, '\n')
		if i == lineNum {
			if end < 0 {
				return strings.TrimSuffix(contents, "\r"), true
			}
			return strings.TrimSuffix(contents[:end], "\r"), true
		}
		if end < 0 {
			return "", false
		}
		contents = contents[end+1:]
	}
}
