package indexing

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryDetector_IsBinaryByExtension(t *testing.T) {
	bd := NewBinaryDetector()

	tests := []struct {
		path   string
		binary bool
	}{
		{"/path/to/font.woff2", true},
		{"/path/to/image.png", true},
		{"/path/to/archive.zip", true},
		{"/path/to/library.so", true},
		{"/path/to/bytecode.pyc", true},
		{"/path/to/module.wasm", true},

		{"/path/to/source.go", false},
		{"/path/to/source.py", false},
		{"/path/to/image.svg", false}, // XML text
		{"/path/to/source.min.js", false},
		{"/path/to/Makefile", false},

		{"/path/to/image.PNG", true},
		{"/path/to/source.GO", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := bd.IsBinaryByExtension(tt.path)
			if got != tt.binary {
				t.Errorf("IsBinaryByExtension(%q) = %v, want %v", tt.path, got, tt.binary)
			}
		})
	}
}

func TestBinaryDetector_IsBinaryContent(t *testing.T) {
	bd := NewBinaryDetector()

	tests := []struct {
		name    string
		content []byte
		binary  bool
	}{
		{"PNG", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, true},
		{"ELF", []byte{0x7F, 0x45, 0x4C, 0x46, 0x02, 0x01}, true},
		{"gzip", []byte{0x1F, 0x8B, 0x08}, true},
		{"NUL bytes", append([]byte("package main\n"), 0, 0, 0), true},
		{"control characters", bytes.Repeat([]byte{0x01, 0x02, 'a'}, 50), true},
		{"Go source", []byte("package main\n\nfunc main() {}\n"), false},
		{"UTF-8 text", []byte("const grüße = \"héllo wörld\"\n"), false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.binary, bd.IsBinaryContent(tt.content))
		})
	}
}

func TestBinaryDetector_IsBinaryFile(t *testing.T) {
	dir := t.TempDir()
	bd := NewBinaryDetector()

	text := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(text, []byte("package main\n"), 0644))
	blob := filepath.Join(dir, "data.go")
	require.NoError(t, os.WriteFile(blob, []byte{0x7F, 0x45, 0x4C, 0x46, 0, 0, 0, 0}, 0644))

	isBin, err := bd.IsBinaryFile(text)
	require.NoError(t, err)
	assert.False(t, isBin)

	isBin, err = bd.IsBinaryFile(blob)
	require.NoError(t, err)
	assert.True(t, isBin, "content wins over a source extension")

	_, err = bd.IsBinaryFile(filepath.Join(dir, "missing.go"))
	assert.Error(t, err)
}
