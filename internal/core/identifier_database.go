package core

import (
	"cmp"
	"slices"
	"sort"
	"sync"

	"github.com/standardbeagle/lcc/internal/debug"
)

// FilepathToIdentifiers maps a file path to the raw identifier strings found in it
type FilepathToIdentifiers map[string][]string

// FiletypeIdentifierMap maps a filetype to the identifiers of each of its files
type FiletypeIdentifierMap map[string]FilepathToIdentifiers

// Scorer scores one query against one identifier. It must be safe for concurrent use
// and must not retain the identifier. ok=false means the identifier does not match.
type Scorer interface {
	Score(query string, id *Identifier) (score float64, ok bool)
}

// Result is one ranked completion candidate
type Result struct {
	Identifier *Identifier
	Score      float64
}

// Text returns the candidate's identifier text
func (r Result) Text() string { return r.Identifier.Text() }

// filepath -> current shard for that file
type filepathToShards map[string]*FileShard

// DatabaseStats describes the structural size of an IdentifierDatabase
type DatabaseStats struct {
	Filetypes      int `json:"filetypes"`
	Files          int `json:"files"`
	IdentifierRefs int `json:"identifier_refs"`
	Identifiers    int `json:"identifiers"`
}

// IdentifierDatabase stores the identifiers seen per (filetype, filepath) and answers
// ranked fuzzy queries over all files of a filetype.
//
// LOCKING:
//   - mu guards only structural membership: the filetype map, each filetype's file map,
//     and which *FileShard is installed for a path.
//   - Shards are immutable. Writers build a replacement outside the lock and swap it in;
//     readers copy the shard pointers under RLock and score with no lock held.
//   - Each query therefore sees every file as of the moment its pointer was copied. Two
//     files may reflect writes from different points in time; there is no global snapshot.
//
// This type is safe for concurrent use.
type IdentifierDatabase struct {
	repository *CandidateRepository
	scorer     Scorer

	mu        sync.RWMutex
	filetypes map[string]filepathToShards
}

// NewIdentifierDatabase creates an empty database. Identifiers are interned into repository
// and ranked with scorer.
func NewIdentifierDatabase(repository *CandidateRepository, scorer Scorer) *IdentifierDatabase {
	if repository == nil {
		repository = NewCandidateRepository()
	}
	return &IdentifierDatabase{
		repository: repository,
		scorer:     scorer,
		filetypes:  make(map[string]filepathToShards),
	}
}

// Repository returns the interning store backing this database
func (db *IdentifierDatabase) Repository() *CandidateRepository {
	return db.repository
}

// BulkIngest replaces the shard of every (filetype, filepath) in batch, taking the write
// lock once for the whole batch. Shards are installed one at a time, so a failure part
// way through leaves some files updated and others not; callers must treat the batch as
// possibly incomplete and rescan. No individual shard is ever left half-written.
// Empty strings and strings longer than the repository's MaxLength are dropped.
func (db *IdentifierDatabase) BulkIngest(batch FiletypeIdentifierMap) {
	db.BulkIngestExcept(batch, nil)
}

// BulkIngestExcept is BulkIngest, leaving alone every file for which skip returns true.
// skip runs under the write lock, so what it sees cannot change before the install; it
// must not call back into the database. Returns the number of shards installed.
func (db *IdentifierDatabase) BulkIngestExcept(batch FiletypeIdentifierMap, skip func(filetype, filepath string) bool) int {
	if len(batch) == 0 {
		return 0
	}

	type pending struct {
		filetype string
		filepath string
		shard    *FileShard
	}

	// Intern and build shards before taking the lock
	staged := make([]pending, 0, len(batch))
	for filetype, files := range batch {
		for filepath, identifiers := range files {
			staged = append(staged, pending{
				filetype: filetype,
				filepath: filepath,
				shard:    newFileShard(db.repository.InternAll(identifiers)),
			})
		}
	}

	installed := 0
	db.mu.Lock()
	for _, p := range staged {
		if skip != nil && skip(p.filetype, p.filepath) {
			continue
		}
		db.ingestFileLocked(p.filetype, p.filepath, p.shard)
		installed++
	}
	db.mu.Unlock()

	debug.LogIndexing("bulk ingest installed %d of %d file shards across %d filetypes\n", installed, len(staged), len(batch))
	return installed
}

// IngestFile replaces the identifiers stored for (filetype, filepath) with identifiers.
// This is a full resync of the file, not a merge. Empty strings and strings longer
// than the repository's MaxLength are dropped.
func (db *IdentifierDatabase) IngestFile(identifiers []string, filetype, filepath string) {
	shard := newFileShard(db.repository.InternAll(identifiers))

	db.mu.Lock()
	db.ingestFileLocked(filetype, filepath, shard)
	db.mu.Unlock()
}

// MergeFile adds identifiers to whatever is stored for (filetype, filepath). The current
// shard is not modified; a new shard holding the union is installed in its place.
func (db *IdentifierDatabase) MergeFile(identifiers []string, filetype, filepath string) {
	ids := db.repository.InternAll(identifiers)
	if len(ids) == 0 {
		return
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	files := db.fileShardsLocked(filetype)
	files[filepath] = files[filepath].union(ids)
}

// ClearFile drops every identifier stored for (filetype, filepath). Clearing a key that
// was never ingested is a no-op.
func (db *IdentifierDatabase) ClearFile(filetype, filepath string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	files, ok := db.filetypes[filetype]
	if !ok {
		return
	}
	if _, ok := files[filepath]; !ok {
		return
	}
	files[filepath] = emptyFileShard
}

// Query returns up to maxResults identifiers of filetype matching query, best first.
// Equal scores are ordered by identifier text. An unknown filetype or a non-positive
// maxResults yields an empty result. Query never modifies the database.
func (db *IdentifierDatabase) Query(query, filetype string, maxResults int) []Result {
	return db.QueryFunc(query, filetype, maxResults, nil)
}

// QueryFunc is Query restricted to identifiers for which keep returns true. keep is
// applied before ranking and truncation, so up to maxResults kept matches are returned
// whenever that many exist. It runs outside any lock.
func (db *IdentifierDatabase) QueryFunc(query, filetype string, maxResults int, keep func(*Identifier) bool) []Result {
	if maxResults <= 0 || db.scorer == nil {
		return nil
	}

	shards := db.snapshot(filetype)
	if len(shards) == 0 {
		return nil
	}

	// Dedup by identity before scoring: an identifier present in N files is scored once
	seen := make(map[*Identifier]struct{})
	var results []Result
	for _, shard := range shards {
		for _, id := range shard.identifiers {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if keep != nil && !keep(id) {
				continue
			}

			score, ok := db.scorer.Score(query, id)
			if !ok {
				continue
			}
			results = append(results, Result{Identifier: id, Score: score})
		}
	}

	slices.SortFunc(results, compareResults)
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func compareResults(a, b Result) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.Identifier.text, b.Identifier.text)
}

// snapshot copies the shard references of every file of filetype under the read lock
func (db *IdentifierDatabase) snapshot(filetype string) []*FileShard {
	db.mu.RLock()
	defer db.mu.RUnlock()

	files, ok := db.filetypes[filetype]
	if !ok {
		return nil
	}
	shards := make([]*FileShard, 0, len(files))
	for _, shard := range files {
		if shard.Len() > 0 {
			shards = append(shards, shard)
		}
	}
	return shards
}

// FileShard returns the shard currently installed for (filetype, filepath)
func (db *IdentifierDatabase) FileShard(filetype, filepath string) (*FileShard, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	files, ok := db.filetypes[filetype]
	if !ok {
		return nil, false
	}
	shard, ok := files[filepath]
	return shard, ok
}

// Filetypes returns the filetypes that have been written to, sorted
func (db *IdentifierDatabase) Filetypes() []string {
	db.mu.RLock()
	out := make([]string, 0, len(db.filetypes))
	for filetype := range db.filetypes {
		out = append(out, filetype)
	}
	db.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Filepaths returns the paths stored under filetype, cleared ones included, sorted
func (db *IdentifierDatabase) Filepaths(filetype string) []string {
	db.mu.RLock()
	files := db.filetypes[filetype]
	out := make([]string, 0, len(files))
	for path := range files {
		out = append(out, path)
	}
	db.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Stats returns structural counts for the database
func (db *IdentifierDatabase) Stats() DatabaseStats {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stats := DatabaseStats{
		Filetypes:   len(db.filetypes),
		Identifiers: db.repository.Len(),
	}
	for _, files := range db.filetypes {
		stats.Files += len(files)
		for _, shard := range files {
			stats.IdentifierRefs += shard.Len()
		}
	}
	return stats
}

// FiletypeStats describes the files stored under one filetype
type FiletypeStats struct {
	Files          int `json:"files"`
	IdentifierRefs int `json:"identifier_refs"`
}

// StatsByFiletype returns per-filetype counts keyed by filetype
func (db *IdentifierDatabase) StatsByFiletype() map[string]FiletypeStats {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make(map[string]FiletypeStats, len(db.filetypes))
	for filetype, files := range db.filetypes {
		var st FiletypeStats
		st.Files = len(files)
		for _, shard := range files {
			st.IdentifierRefs += shard.Len()
		}
		out[filetype] = st
	}
	return out
}

// fileShardsLocked returns the file map for filetype, creating it if needed.
// Caller must hold the write lock.
func (db *IdentifierDatabase) fileShardsLocked(filetype string) filepathToShards {
	files, ok := db.filetypes[filetype]
	if !ok {
		files = make(filepathToShards)
		db.filetypes[filetype] = files
	}
	return files
}

// ingestFileLocked installs shard for (filetype, filepath). Caller must hold the write lock.
func (db *IdentifierDatabase) ingestFileLocked(filetype, filepath string, shard *FileShard) {
	db.fileShardsLocked(filetype)[filepath] = shard
}
