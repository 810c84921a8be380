package core

// FileShard is the immutable set of identifiers contributed by one (filetype, filepath).
// A shard is never modified after construction; content changes install a new shard,
// so a reader holding an old reference always sees a complete set.
type FileShard struct {
	identifiers []*Identifier
}

var emptyFileShard = &FileShard{}

// newFileShard builds a shard from ids, dropping nils and duplicate references
func newFileShard(ids []*Identifier) *FileShard {
	if len(ids) == 0 {
		return emptyFileShard
	}

	seen := make(map[*Identifier]struct{}, len(ids))
	unique := make([]*Identifier, 0, len(ids))
	for _, id := range ids {
		if id == nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return emptyFileShard
	}
	return &FileShard{identifiers: unique}
}

// union returns a new shard holding the identifiers of s followed by any of ids not
// already present. s itself is left untouched.
func (s *FileShard) union(ids []*Identifier) *FileShard {
	if s == nil || len(s.identifiers) == 0 {
		return newFileShard(ids)
	}
	merged := make([]*Identifier, 0, len(s.identifiers)+len(ids))
	merged = append(merged, s.identifiers...)
	merged = append(merged, ids...)
	return newFileShard(merged)
}

// Len returns the number of identifiers in the shard
func (s *FileShard) Len() int {
	if s == nil {
		return 0
	}
	return len(s.identifiers)
}

// Identifiers returns a copy of the shard's identifier references
func (s *FileShard) Identifiers() []*Identifier {
	if s == nil || len(s.identifiers) == 0 {
		return nil
	}
	out := make([]*Identifier, len(s.identifiers))
	copy(out, s.identifiers)
	return out
}

// Contains reports whether id is part of the shard
func (s *FileShard) Contains(id *Identifier) bool {
	if s == nil {
		return false
	}
	for _, candidate := range s.identifiers {
		if candidate == id {
			return true
		}
	}
	return false
}
