package config

import (
	"bufio"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignoreParser handles parsing and matching .gitignore files
type GitignoreParser struct {
	patterns []GitignorePattern
}

// GitignorePattern is one parsed .gitignore line. Glob is the doublestar form of
// the line: anchored patterns match from the root, others at any depth.
type GitignorePattern struct {
	Pattern   string
	Glob      string
	Negate    bool
	Directory bool
	Anchored  bool
}

// NewGitignoreParser creates a new gitignore parser
func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{
		patterns: make([]GitignorePattern, 0),
	}
}

// LoadGitignore loads patterns from rootPath/.gitignore and .git/info/exclude.
// Missing files are not an error.
func (gp *GitignoreParser) LoadGitignore(rootPath string) error {
	for _, name := range []string{filepath.Join(".git", "info", "exclude"), ".gitignore"} {
		file, err := os.Open(filepath.Join(rootPath, name))
		if err != nil {
			continue
		}
		err = gp.scanAndParsePatterns(file)
		file.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (gp *GitignoreParser) scanAndParsePatterns(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		gp.AddPattern(scanner.Text())
	}
	return scanner.Err()
}

// AddPattern parses a single .gitignore line; blank lines and comments are ignored
func (gp *GitignoreParser) AddPattern(line string) {
	if pattern, ok := parsePattern(line); ok {
		gp.patterns = append(gp.patterns, pattern)
	}
}

// Patterns returns the parsed patterns in file order
func (gp *GitignoreParser) Patterns() []GitignorePattern {
	return gp.patterns
}

func parsePattern(line string) (GitignorePattern, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return GitignorePattern{}, false
	}

	pattern := GitignorePattern{}
	if strings.HasPrefix(line, "!") {
		pattern.Negate = true
		line = line[1:]
	} else if strings.HasPrefix(line, `\`) {
		line = line[1:] // \# and \! escape a literal first character
	}

	if strings.HasSuffix(line, "/") {
		pattern.Directory = true
		line = strings.TrimRight(line, "/")
	}

	// A slash anywhere but the end anchors the pattern to the root
	if strings.Contains(line, "/") {
		pattern.Anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if line == "" {
		return GitignorePattern{}, false
	}

	pattern.Pattern = line
	if pattern.Anchored || strings.HasPrefix(line, "**/") {
		pattern.Glob = line
	} else {
		pattern.Glob = "**/" + line
	}
	return pattern, true
}

// ShouldIgnore reports whether the root-relative path is ignored. The last
// matching pattern wins, so a later negation re-includes a path.
func (gp *GitignoreParser) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = strings.TrimPrefix(filepath.ToSlash(relPath), "./")
	if relPath == "" || relPath == "." {
		return false
	}

	ignored := false
	for _, pattern := range gp.patterns {
		if pattern.matches(relPath, isDir) {
			ignored = !pattern.Negate
		}
	}
	return ignored
}

// matches checks the path itself and every parent directory, since ignoring a
// directory ignores everything below it
func (p GitignorePattern) matches(relPath string, isDir bool) bool {
	if (!p.Directory || isDir) && matchGlob(p.Glob, relPath) {
		return true
	}
	for dir := path.Dir(relPath); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if matchGlob(p.Glob, dir) {
			return true
		}
	}
	return false
}

func matchGlob(glob, name string) bool {
	matched, err := doublestar.Match(glob, name)
	return err == nil && matched
}

// GetExclusionPatterns returns the non-negated patterns as exclusion globs
// matching both the entry and anything beneath it
func (gp *GitignoreParser) GetExclusionPatterns() []string {
	var exclusions []string
	for _, pattern := range gp.patterns {
		if pattern.Negate {
			continue
		}
		if !pattern.Directory {
			exclusions = append(exclusions, pattern.Glob)
		}
		exclusions = append(exclusions, pattern.Glob+"/**")
	}
	return DeduplicatePatterns(exclusions)
}
