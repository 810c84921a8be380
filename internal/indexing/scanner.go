package indexing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/lcc/internal/config"
	"github.com/standardbeagle/lcc/internal/core"
	"github.com/standardbeagle/lcc/internal/debug"
	lccerrors "github.com/standardbeagle/lcc/internal/errors"
	"github.com/standardbeagle/lcc/internal/parser"
)

// IdentifierExtractor turns file contents into identifiers.
// *completer.IdentifierCompleter satisfies it.
type IdentifierExtractor interface {
	ExtractIdentifiers(ctx context.Context, content []byte, filetype string) ([]string, error)
}

// ExtractorFunc adapts a function to IdentifierExtractor
type ExtractorFunc func(ctx context.Context, content []byte, filetype string) ([]string, error)

func (f ExtractorFunc) ExtractIdentifiers(ctx context.Context, content []byte, filetype string) ([]string, error) {
	return f(ctx, content, filetype)
}

// ScanStats reports what a project scan did
type ScanStats struct {
	FilesVisited int           `json:"files_visited"`
	FilesIndexed int           `json:"files_indexed"`
	Skipped      int           `json:"skipped"` // Excluded, ignored or unknown filetype
	TooLarge     int           `json:"too_large"`
	Binary       int           `json:"binary"`
	Errors       int           `json:"errors"`
	Identifiers  int           `json:"identifier_refs"` // Identifier refs across all indexed files
	Truncated    bool          `json:"truncated"`
	Duration     time.Duration `json:"duration_ns"`
}

// Scanner walks a project tree and extracts the identifiers of every source file
// into a batch for IdentifierDatabase.BulkIngest
type Scanner struct {
	config         *config.Config
	extractor      IdentifierExtractor
	binaryDetector *BinaryDetector
	gitignore      *config.GitignoreParser
}

// NewScanner creates a scanner for cfg. The project's .gitignore is loaded when
// Index.RespectGitignore is set.
func NewScanner(cfg *config.Config, extractor IdentifierExtractor) *Scanner {
	s := &Scanner{
		config:         cfg,
		extractor:      extractor,
		binaryDetector: NewBinaryDetector(),
	}
	if cfg.Index.RespectGitignore && cfg.Project.Root != "" {
		s.gitignore = loadGitignore(cfg.Project.Root)
	}
	return s
}

func loadGitignore(root string) *config.GitignoreParser {
	gp := config.NewGitignoreParser()
	if err := gp.LoadGitignore(root); err != nil {
		debug.LogIndexing("gitignore not loaded for %s: %v", root, err)
		return nil
	}
	return gp
}

type scanFile struct {
	path     string
	filetype string
}

type scanResult struct {
	identifiers []string
	ok          bool
}

// Scan walks root (the configured project root when empty) and returns the
// identifiers of every accepted file grouped by filetype and absolute path.
// Per-file failures are counted in ScanStats and do not abort the scan. A
// cancelled or timed-out context returns what was extracted so far together
// with the error.
func (s *Scanner) Scan(ctx context.Context, root string) (core.FiletypeIdentifierMap, ScanStats, error) {
	start := time.Now()
	var stats ScanStats

	if root == "" {
		root = s.config.Project.Root
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, stats, lccerrors.NewFileError("resolve", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, stats, lccerrors.NewFileError("stat", absRoot, err)
	}
	if !info.IsDir() {
		return nil, stats, lccerrors.NewFileError("scan", absRoot, fmt.Errorf("not a directory"))
	}

	if timeout := s.config.Performance.IndexingTimeoutSec; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	gitignore := s.gitignore
	if s.config.Index.RespectGitignore && absRoot != s.config.Project.Root {
		gitignore = loadGitignore(absRoot)
	}

	files, err := s.collect(ctx, absRoot, gitignore, &stats)
	if err != nil {
		stats.Duration = time.Since(start)
		return nil, stats, lccerrors.NewIndexingError("scan", err).WithRecoverable(errors.Is(err, context.DeadlineExceeded))
	}

	results := make([]scanResult, len(files))
	var tooLarge, binary, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for i, f := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, skip, err := s.readSourceFile(f.path)
			switch {
			case err != nil:
				failed.Add(1)
				debug.LogIndexing("scan: read %s: %v", f.path, err)
				return nil
			case skip == skipTooLarge:
				tooLarge.Add(1)
				return nil
			case skip == skipBinary:
				binary.Add(1)
				return nil
			}

			ids, err := s.extractor.ExtractIdentifiers(gctx, content, f.filetype)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.Add(1)
				debug.LogIndexing("scan: extract %s: %v", f.path, err)
				return nil
			}
			results[i] = scanResult{identifiers: ids, ok: true}
			return nil
		})
	}
	waitErr := g.Wait()
	if waitErr == nil {
		waitErr = ctx.Err()
	}

	batch := make(core.FiletypeIdentifierMap)
	for i, r := range results {
		if !r.ok {
			continue
		}
		f := files[i]
		byPath, ok := batch[f.filetype]
		if !ok {
			byPath = make(core.FilepathToIdentifiers)
			batch[f.filetype] = byPath
		}
		byPath[f.path] = r.identifiers
		stats.FilesIndexed++
		stats.Identifiers += len(r.identifiers)
	}
	stats.TooLarge = int(tooLarge.Load())
	stats.Binary = int(binary.Load())
	stats.Errors = int(failed.Load())
	stats.Duration = time.Since(start)

	debug.LogIndexing("scan of %s: %d files indexed, %d identifier refs in %v",
		absRoot, stats.FilesIndexed, stats.Identifiers, stats.Duration)

	if waitErr != nil {
		// A timed-out scan keeps its partial batch and may finish on a retry
		return batch, stats, lccerrors.NewIndexingError("scan", waitErr).WithRecoverable(errors.Is(waitErr, context.DeadlineExceeded))
	}
	return batch, stats, nil
}

func (s *Scanner) workers() int {
	if n := s.config.Performance.ParallelFileWorkers; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

var errFileLimit = errors.New("file limit reached")

// collect walks root and returns the files that pass the path filters. Symlinked
// directories are followed only with Index.FollowSymlinks and at most once per
// real directory.
func (s *Scanner) collect(ctx context.Context, root string, gitignore *config.GitignoreParser, stats *ScanStats) ([]scanFile, error) {
	var files []scanFile
	visited := make(map[string]bool)

	var walk func(dir, logical string) error
	walk = func(dir, logical string) error {
		realDir, err := filepath.EvalSymlinks(dir)
		if err != nil || visited[realDir] {
			return nil
		}
		visited[realDir] = true

		return filepath.WalkDir(realDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				debug.LogIndexing("scan: walk %s: %v", path, err)
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			// Paths are reported under the logical tree, not the symlink target
			abs := filepath.Join(logical, strings.TrimPrefix(path, realDir))
			rel := relativeSlash(root, abs)

			if d.Type()&fs.ModeSymlink != 0 {
				target, err := os.Stat(path)
				if err != nil {
					return nil
				}
				if target.IsDir() {
					if s.config.Index.FollowSymlinks && !s.shouldIgnoreDir(rel, gitignore) {
						return walk(path, abs)
					}
					return nil
				}
				if !s.config.Index.FollowSymlinks {
					return nil
				}
			} else if d.IsDir() {
				if path != realDir && s.shouldIgnoreDir(rel, gitignore) {
					return filepath.SkipDir
				}
				return nil
			}

			stats.FilesVisited++
			filetype, ok := s.acceptFile(rel, gitignore)
			if !ok {
				stats.Skipped++
				return nil
			}
			if limit := s.config.Index.MaxFileCount; limit > 0 && len(files) >= limit {
				stats.Truncated = true
				return errFileLimit
			}
			files = append(files, scanFile{path: abs, filetype: filetype})
			return nil
		})
	}

	err := walk(root, root)
	if errors.Is(err, errFileLimit) {
		debug.LogIndexing("scan: stopped at %d files", len(files))
		err = nil
	}
	return files, err
}

// ShouldProcessFile applies the scan's path filters to a single absolute path
func (s *Scanner) ShouldProcessFile(path string) (string, bool) {
	rel := relativeSlash(s.config.Project.Root, path)
	if strings.HasPrefix(rel, "../") {
		return "", false
	}
	if s.inExcludedDir(rel) {
		return "", false
	}
	return s.acceptFile(rel, s.gitignore)
}

// inExcludedDir checks every parent directory of rel against the directory filters
func (s *Scanner) inExcludedDir(rel string) bool {
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if s.shouldIgnoreDir(dir, s.gitignore) {
			return true
		}
	}
	return false
}

// acceptFile returns the filetype of a root-relative path that passes the
// include, exclude and gitignore filters
func (s *Scanner) acceptFile(rel string, gitignore *config.GitignoreParser) (string, bool) {
	filetype := parser.FiletypeForPath(rel)
	if filetype == "" {
		return "", false
	}
	if s.binaryDetector.IsBinaryByExtension(rel) {
		return "", false
	}
	if len(s.config.Include) > 0 && !matchAny(s.config.Include, rel) {
		return "", false
	}
	if matchAny(s.config.Exclude, rel) {
		return "", false
	}
	if gitignore != nil && gitignore.ShouldIgnore(rel, false) {
		return "", false
	}
	return filetype, true
}

// shouldIgnoreDir reports whether a root-relative directory is excluded. A
// pattern ending in "/**" also excludes the directory itself.
func (s *Scanner) shouldIgnoreDir(rel string, gitignore *config.GitignoreParser) bool {
	for _, pattern := range s.config.Exclude {
		if matchPattern(pattern, rel) {
			return true
		}
		if strings.HasSuffix(pattern, "/**") && matchPattern(strings.TrimSuffix(pattern, "/**"), rel) {
			return true
		}
	}
	return gitignore != nil && gitignore.ShouldIgnore(rel, true)
}

type skipReason int

const (
	skipNone skipReason = iota
	skipTooLarge
	skipBinary
)

// readSourceFile reads path unless it is over the size limit or binary
func (s *Scanner) readSourceFile(path string) ([]byte, skipReason, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, skipNone, lccerrors.NewFileError("stat", path, err)
	}
	if limit := s.config.Index.MaxFileSize; limit > 0 && info.Size() > limit {
		debug.LogIndexing("skipping %s: %v", path, lccerrors.NewFileTooLargeError(path, info.Size(), limit))
		return nil, skipTooLarge, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, skipNone, lccerrors.NewFileError("read", path, err)
	}
	if s.binaryDetector.IsBinaryContent(content) {
		return nil, skipBinary, nil
	}
	return content, skipNone, nil
}

// ExtractFile reads one file and extracts its identifiers. Files the scan
// would skip for size or content are reported as errors.
func (s *Scanner) ExtractFile(ctx context.Context, path string) (string, []string, error) {
	filetype := parser.FiletypeForPath(path)
	if filetype == "" {
		return "", nil, lccerrors.NewRequestError("filepath", "no filetype for "+filepath.Base(path), nil)
	}
	content, skip, err := s.readSourceFile(path)
	if err != nil {
		return filetype, nil, err
	}
	switch skip {
	case skipTooLarge:
		return filetype, nil, lccerrors.NewIndexingError("extract", errors.New("file exceeds size limit")).WithFile(filetype, path)
	case skipBinary:
		return filetype, nil, lccerrors.NewIndexingError("extract", errors.New("binary content")).WithFile(filetype, path)
	}
	ids, err := s.extractor.ExtractIdentifiers(ctx, content, filetype)
	if err != nil {
		return filetype, nil, lccerrors.NewIndexingError("extract", err).WithFile(filetype, path)
	}
	return filetype, ids, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if matchPattern(pattern, rel) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, rel string) bool {
	matched, err := doublestar.Match(pattern, rel)
	return err == nil && matched
}

// relativeSlash returns path relative to root with forward slashes, or path
// itself when no relative form exists
func relativeSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
