package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileShard_DedupsAndDropsNil(t *testing.T) {
	repo := NewCandidateRepository()
	a, b := repo.Intern("a"), repo.Intern("b")

	shard := newFileShard([]*Identifier{a, nil, b, a})
	require.Equal(t, 2, shard.Len())
	assert.True(t, shard.Contains(a))
	assert.True(t, shard.Contains(b))

	assert.Same(t, emptyFileShard, newFileShard(nil))
	assert.Same(t, emptyFileShard, newFileShard([]*Identifier{nil}))
}

func TestFileShard_UnionLeavesOriginalUntouched(t *testing.T) {
	repo := NewCandidateRepository()
	a, b, c := repo.Intern("a"), repo.Intern("b"), repo.Intern("c")

	original := newFileShard([]*Identifier{a, b})
	merged := original.union([]*Identifier{b, c})

	assert.Equal(t, 2, original.Len())
	assert.False(t, original.Contains(c))
	assert.Equal(t, 3, merged.Len())
	assert.Equal(t, []*Identifier{a, b, c}, merged.Identifiers())

	var missing *FileShard
	assert.Equal(t, 1, missing.union([]*Identifier{a}).Len())
}

func TestFileShard_IdentifiersReturnsCopy(t *testing.T) {
	repo := NewCandidateRepository()
	a, b := repo.Intern("a"), repo.Intern("b")
	shard := newFileShard([]*Identifier{a, b})

	ids := shard.Identifiers()
	ids[0] = b
	assert.Same(t, a, shard.Identifiers()[0])
}

func TestFileShard_NilSafe(t *testing.T) {
	var shard *FileShard
	assert.Equal(t, 0, shard.Len())
	assert.Nil(t, shard.Identifiers())
	assert.False(t, shard.Contains(nil))
}
