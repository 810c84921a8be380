// Package tags reads ctags-format tag files into identifier batches for the index.
package tags

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/lcc/internal/core"
	lccerrors "github.com/standardbeagle/lcc/internal/errors"
)

// maxLineLength bounds a single tag line; generated tags for minified code can be long
const maxLineLength = 1024 * 1024

// ctags language names that do not lowercase to the editor filetype
var languageFiletypes = map[string]string{
	"c++":              "cpp",
	"c#":               "cs",
	"csharp":           "cs",
	"objectivec":       "objc",
	"objective-c":      "objc",
	"emacslisp":        "lisp",
	"commonlisp":       "lisp",
	"golang":           "go",
	"makefile":         "make",
	"restructuredtext": "rst",
}

// FiletypeForLanguage maps a ctags "language:" value to a filetype
func FiletypeForLanguage(language string) string {
	key := strings.ToLower(strings.TrimSpace(language))
	if ft, ok := languageFiletypes[key]; ok {
		return ft
	}
	return key
}

// ParseTagsFile reads tag lines from r. Relative paths in the file are resolved
// against baseDir, normally the directory containing the tags file.
//
// Lines look like
//
//	name<TAB>path<TAB>address;"<TAB>kind<TAB>language:Lang
//
// Pseudo-tags (lines starting with "!_") and lines without a language field are
// skipped.
func ParseTagsFile(r io.Reader, baseDir string) (core.FiletypeIdentifierMap, error) {
	result := make(core.FiletypeIdentifierMap)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)
	for scanner.Scan() {
		name, path, filetype, ok := parseTagLine(scanner.Text())
		if !ok {
			continue
		}
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		path = filepath.Clean(path)

		files, exists := result[filetype]
		if !exists {
			files = make(core.FilepathToIdentifiers)
			result[filetype] = files
		}
		files[path] = append(files[path], name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}
	return result, nil
}

func parseTagLine(line string) (name, path, filetype string, ok bool) {
	if line == "" || strings.HasPrefix(line, "!_") {
		return "", "", "", false
	}

	fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
	if len(fields) < 3 || fields[0] == "" || fields[1] == "" {
		return "", "", "", false
	}

	for _, field := range fields[3:] {
		if lang, found := strings.CutPrefix(field, "language:"); found && lang != "" {
			return fields[0], fields[1], FiletypeForLanguage(lang), true
		}
	}
	return "", "", "", false
}

// LoadTagFiles reads every tags file in paths and merges the results. A file that
// cannot be read does not stop the others; all failures are returned together.
func LoadTagFiles(paths []string) (core.FiletypeIdentifierMap, error) {
	merged := make(core.FiletypeIdentifierMap)
	var errs []error

	for _, path := range paths {
		batch, err := loadTagFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		mergeInto(merged, batch)
	}

	return merged, lccerrors.NewMultiError(errs).ErrorOrNil()
}

func loadTagFile(path string) (core.FiletypeIdentifierMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, lccerrors.NewFileError("open", path, err)
	}
	defer f.Close()

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	batch, err := ParseTagsFile(f, filepath.Dir(absPath))
	if err != nil {
		return nil, lccerrors.NewFileError("read", path, err)
	}
	return batch, nil
}

func mergeInto(dst, src core.FiletypeIdentifierMap) {
	for filetype, files := range src {
		target, ok := dst[filetype]
		if !ok {
			target = make(core.FilepathToIdentifiers)
			dst[filetype] = target
		}
		for path, names := range files {
			target[path] = append(target[path], names...)
		}
	}
}
