package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFiletypeForPath(t *testing.T) {
	tests := map[string]string{
		"/src/main.go":           FiletypeGo,
		"lib/util.PY":            FiletypePython,
		"app/component.tsx":      FiletypeTypeScriptReact,
		"app/component.jsx":      FiletypeJavaScriptReact,
		"include/vector.hpp":     FiletypeCpp,
		"include/list.h":         FiletypeC,
		"Program.cs":             FiletypeCSharp,
		"build.zig":              FiletypeZig,
		"styles/site.css":        "css",
		"Makefile":               "make",
		"project/CMakeLists.txt": "cmake",
		"README":                 "",
		"image.png":              "",
	}
	for path, want := range tests {
		assert.Equal(t, want, FiletypeForPath(path), path)
	}
	assert.Contains(t, KnownExtensions(), ".go")
}

func TestExtractIdentifiersFromText(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, ExtractIdentifiersFromText("b a b c 42", ""))
	assert.Equal(t, []string{"naïve", "größe"}, ExtractIdentifiersFromText("naïve + größe", ""))
	assert.Nil(t, ExtractIdentifiersFromText("123 + 456", ""))
}

func TestIdentifierRegexForFiletype(t *testing.T) {
	tests := []struct {
		filetype string
		text     string
		want     []string
	}{
		{"css", "background-color: red; -webkit-box-shadow", []string{"background-color", "red", "-webkit-box-shadow"}},
		{"lisp", "(defun string-empty? (s))", []string{"defun", "string-empty?", "s"}},
		{"haskell", "let x' = foldl' f", []string{"let", "x'", "foldl'", "f"}},
		{"ruby", "list.empty? && save!", []string{"list", "empty?", "save!"}},
		{"r", "my.data <- read.csv(x)", []string{"my.data", "read.csv", "x"}},
		{"python", "foo-bar", []string{"foo", "bar"}},
	}
	for _, tt := range tests {
		t.Run(tt.filetype, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractIdentifiersFromText(tt.text, tt.filetype))
		})
	}
}

func TestRemoveCommentsAndStrings(t *testing.T) {
	tests := []struct {
		name     string
		filetype string
		in       string
		want     string
	}{
		{"line comment", "cpp", "a // b\nc", "a  \nc"},
		{"block comment keeps newlines", "cpp", "a /* x\ny */ b", "a \n b"},
		{"double quoted", "go", `x := "y // not a comment" + z`, "x :=   + z"},
		{"escaped quote", "c", `s = "a\"b"; t`, "s =  ; t"},
		{"hash comment", "python", "a # b\nc", "a  \nc"},
		{"hash inside string", "python", `s = "#nope" # yes`, "s =    "},
		{"triple quoted", "python", "x = \"\"\"doc\nstring\"\"\"\ny", "x = \n\ny"},
		{"lua", "lua", "a -- b\n--[[ c\n]] d", "a  \n\n d"},
		{"lisp", "lisp", "(a) ; b", "(a)  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoveCommentsAndStrings(tt.in, tt.filetype))
		})
	}
}

func TestIdentifierUnderCursor(t *testing.T) {
	line := "foo bar_baz(qux)"

	assert.Equal(t, "foo", IdentifierUnderCursor(line, 0, ""))
	assert.Equal(t, "foo", IdentifierUnderCursor(line, 2, ""))
	// Cursor on whitespace picks the next identifier
	assert.Equal(t, "bar_baz", IdentifierUnderCursor(line, 3, ""))
	assert.Equal(t, "bar_baz", IdentifierUnderCursor(line, 10, ""))
	assert.Equal(t, "qux", IdentifierUnderCursor(line, 11, ""))
	assert.Equal(t, "", IdentifierUnderCursor(line, 15, ""))
	assert.Equal(t, "", IdentifierUnderCursor(line, 100, ""))
	assert.Equal(t, "", IdentifierUnderCursor(line, -1, ""))
}

func TestQueryAtCursor(t *testing.T) {
	assert.Equal(t, "fooB", QueryAtCursor("x = fooB", 8, ""))
	assert.Equal(t, "fo", QueryAtCursor("x = fooB", 6, ""))
	assert.Equal(t, "", QueryAtCursor("foo.", 4, ""))
	assert.Equal(t, "", QueryAtCursor("foo", 0, ""))
	assert.Equal(t, "", QueryAtCursor("foo", 10, ""))
	assert.Equal(t, "margin-to", QueryAtCursor("  margin-to", 11, "css"))
}
