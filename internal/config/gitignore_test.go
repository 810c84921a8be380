package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGitignoreParser_BasicPatterns tests fundamental gitignore pattern matching
func TestGitignoreParser_BasicPatterns(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		path     string
		isDir    bool
		expected bool
	}{
		{"Simple file match", "README.md", "README.md", false, true},
		{"Simple file no match", "README.md", "main.js", false, false},
		{"Name matches at any depth", "README.md", "docs/README.md", false, true},
		{"Directory pattern matches directory", "node_modules/", "node_modules", true, true},
		{"Directory pattern matches files inside", "node_modules/", "node_modules/react/index.js", false, true},
		{"Directory pattern ignores same-named file", "build/", "build", false, false},
		{"Directory pattern no match outside", "node_modules/", "src/main.js", false, false},
		{"Anchored pattern match", "/build", "build", true, true},
		{"Anchored pattern no match subdirectory", "/build", "public/build", true, false},
		{"Middle slash anchors", "docs/generated", "docs/generated/api.go", false, true},
		{"Middle slash anchored no match", "docs/generated", "src/docs/generated", true, false},
		{"Wildcard pattern match", "*.min.js", "bundle.min.js", false, true},
		{"Wildcard pattern no match", "*.min.js", "bundle.js", false, false},
		{"Wildcard in subdirectory", "*.log", "logs/server/error.log", false, true},
		{"Double star pattern", "**/fixtures/*.json", "test/unit/fixtures/a.json", false, true},
		{"Question mark", "file?.txt", "file1.txt", false, true},
		{"Character class", "file[0-9].txt", "fileA.txt", false, false},
		{"Comment ignored", "# main.go", "main.go", false, false},
		{"Escaped hash", `\#notes`, "#notes", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gp := NewGitignoreParser()
			gp.AddPattern(tt.pattern)
			assert.Equal(t, tt.expected, gp.ShouldIgnore(tt.path, tt.isDir))
		})
	}
}

func TestGitignoreParser_Negation(t *testing.T) {
	gp := NewGitignoreParser()
	gp.AddPattern("*.log")
	gp.AddPattern("!keep.log")

	assert.True(t, gp.ShouldIgnore("debug.log", false))
	assert.False(t, gp.ShouldIgnore("keep.log", false))
	assert.False(t, gp.ShouldIgnore("sub/keep.log", false))

	// Order matters: a later pattern re-ignores
	gp.AddPattern("sub/keep.log")
	assert.True(t, gp.ShouldIgnore("sub/keep.log", false))
}

func TestGitignoreParser_EmptyPath(t *testing.T) {
	gp := NewGitignoreParser()
	gp.AddPattern("*")
	assert.False(t, gp.ShouldIgnore("", true))
	assert.False(t, gp.ShouldIgnore(".", true))
}

func TestGitignoreParser_LoadGitignore(t *testing.T) {
	root := t.TempDir()
	content := "# build output\ndist/\n\n*.tmp\n!important.tmp\r\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte(content), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "info"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "info", "exclude"), []byte("scratch/\n"), 0644))

	gp := NewGitignoreParser()
	require.NoError(t, gp.LoadGitignore(root))

	assert.Len(t, gp.Patterns(), 4)
	assert.True(t, gp.ShouldIgnore("dist/app.js", false))
	assert.True(t, gp.ShouldIgnore("a.tmp", false))
	assert.False(t, gp.ShouldIgnore("important.tmp", false))
	assert.True(t, gp.ShouldIgnore("scratch/notes.go", false))
	assert.False(t, gp.ShouldIgnore("src/main.go", false))
}

func TestGitignoreParser_LoadGitignoreMissing(t *testing.T) {
	gp := NewGitignoreParser()
	assert.NoError(t, gp.LoadGitignore(t.TempDir()))
	assert.Empty(t, gp.Patterns())
}

func TestGitignoreParser_GetExclusionPatterns(t *testing.T) {
	gp := NewGitignoreParser()
	gp.AddPattern("node_modules/")
	gp.AddPattern("/coverage")
	gp.AddPattern("*.pyc")
	gp.AddPattern("!keep.pyc")

	assert.Equal(t, []string{
		"**/node_modules/**",
		"coverage",
		"coverage/**",
		"**/*.pyc",
		"**/*.pyc/**",
	}, gp.GetExclusionPatterns())
}
