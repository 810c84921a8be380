package core

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lcc/internal/types"
)

const repositoryShardCount = 64

type repositoryShard struct {
	mu     sync.RWMutex
	byText map[string]*Identifier
}

// CandidateRepository interns identifier strings into canonical *Identifier values.
// It owns every Identifier it hands out; callers keep non-owning references.
//
// The text -> identifier map is striped by xxhash so that ingests of unrelated files
// rarely contend on the same lock. Identifiers are never removed.
type CandidateRepository struct {
	shards    [repositoryShardCount]repositoryShard
	nextID    atomic.Uint32
	count     atomic.Int64
	maxLength int
}

// NewCandidateRepository creates a repository using the default identifier length limit
func NewCandidateRepository() *CandidateRepository {
	return NewCandidateRepositoryWithLimit(types.DefaultMaxIdentifierLength)
}

// NewCandidateRepositoryWithLimit creates a repository that refuses to intern strings
// longer than maxLength bytes. A non-positive limit disables the check.
func NewCandidateRepositoryWithLimit(maxLength int) *CandidateRepository {
	r := &CandidateRepository{maxLength: maxLength}
	for i := range r.shards {
		r.shards[i].byText = make(map[string]*Identifier)
	}
	return r
}

// Intern returns the canonical identifier for text, creating it on first sight.
// Empty strings and strings over the length limit are not interned and yield nil.
func (r *CandidateRepository) Intern(text string) *Identifier {
	if text == "" || (r.maxLength > 0 && len(text) > r.maxLength) {
		return nil
	}

	shard := &r.shards[xxhash.Sum64String(text)%repositoryShardCount]

	// Fast path: already interned
	shard.mu.RLock()
	if id, exists := shard.byText[text]; exists {
		shard.mu.RUnlock()
		return id
	}
	shard.mu.RUnlock()

	shard.mu.Lock()
	defer shard.mu.Unlock()

	// Double-check after acquiring write lock
	if id, exists := shard.byText[text]; exists {
		return id
	}

	// Clone so the identifier never pins a larger buffer (file contents, request bodies)
	owned := cloneString(text)
	id := newIdentifier(IdentifierID(r.nextID.Add(1)), owned)
	shard.byText[owned] = id
	r.count.Add(1)

	return id
}

// InternAll interns every string and returns the distinct identifiers in order of first
// appearance. Strings rejected by Intern are dropped.
func (r *CandidateRepository) InternAll(texts []string) []*Identifier {
	if len(texts) == 0 {
		return nil
	}

	out := make([]*Identifier, 0, len(texts))
	seen := make(map[*Identifier]struct{}, len(texts))
	for _, text := range texts {
		id := r.Intern(text)
		if id == nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Lookup returns the identifier for text without creating it
func (r *CandidateRepository) Lookup(text string) (*Identifier, bool) {
	shard := &r.shards[xxhash.Sum64String(text)%repositoryShardCount]
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	id, ok := shard.byText[text]
	return id, ok
}

// Len returns the number of distinct identifiers interned so far
func (r *CandidateRepository) Len() int {
	return int(r.count.Load())
}

// MaxLength returns the configured identifier length limit
func (r *CandidateRepository) MaxLength() int {
	return r.maxLength
}

func cloneString(s string) string {
	b := make([]byte, len(s))
	copy(b, s)
	return string(b)
}
