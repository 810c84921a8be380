// Binary file detection for early rejection of files that hold no identifiers.
package indexing

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/lcc/internal/types"
)

// binaryExtensions lists extensions that are never worth reading
var binaryExtensions = map[string]struct{}{
	// Fonts
	".woff": {}, ".woff2": {}, ".ttf": {}, ".otf": {}, ".eot": {},
	// Images
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".ico": {},
	".webp": {}, ".tiff": {}, ".tif": {},
	// Archives
	".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".xz": {}, ".7z": {},
	".rar": {}, ".jar": {}, ".war": {},
	// Executables and objects
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".a": {}, ".o": {},
	".obj": {}, ".bin": {}, ".wasm": {},
	// Media
	".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wav": {}, ".flac": {}, ".ogg": {},
	// Office documents
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {},
	// Databases
	".db": {}, ".sqlite": {}, ".sqlite3": {},
	// Bytecode and pickles
	".pyc": {}, ".pyo": {}, ".class": {}, ".pickle": {}, ".pkl": {},
}

type signature struct {
	name   string
	prefix []byte
}

var binarySignatures = []signature{
	{"gzip", []byte{0x1F, 0x8B}},
	{"zip", []byte{0x50, 0x4B, 0x03, 0x04}},
	{"zip-empty", []byte{0x50, 0x4B, 0x05, 0x06}},
	{"png", []byte{0x89, 0x50, 0x4E, 0x47}},
	{"jpeg", []byte{0xFF, 0xD8, 0xFF}},
	{"gif", []byte{0x47, 0x49, 0x46, 0x38}},
	{"pdf", []byte{0x25, 0x50, 0x44, 0x46}},
	{"elf", []byte{0x7F, 0x45, 0x4C, 0x46}},
	{"pe", []byte{0x4D, 0x5A}},
	{"mach-o", []byte{0xCA, 0xFE, 0xBA, 0xBE}},
	{"woff", []byte{0x77, 0x4F, 0x46, 0x46}},
	{"woff2", []byte{0x77, 0x4F, 0x46, 0x32}},
	{"wasm", []byte{0x00, 0x61, 0x73, 0x6D}},
}

// BinaryDetector decides whether a file is binary from its extension or its
// leading bytes
type BinaryDetector struct {
	extensions map[string]struct{}
}

func NewBinaryDetector() *BinaryDetector {
	return &BinaryDetector{extensions: binaryExtensions}
}

// IsBinaryByExtension checks the file extension only; no I/O
func (bd *BinaryDetector) IsBinaryByExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	_, ok := bd.extensions[ext]
	return ok
}

// IsBinaryContent inspects the first types.BinaryPreCheckBytes of content for a
// known signature, NUL bytes or a high share of control characters
func (bd *BinaryDetector) IsBinaryContent(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	sample := content
	if len(sample) > types.BinaryPreCheckBytes {
		sample = sample[:types.BinaryPreCheckBytes]
	}

	for _, sig := range binarySignatures {
		if bytes.HasPrefix(sample, sig.prefix) {
			return true
		}
	}

	nulls, control := 0, 0
	for _, b := range sample {
		switch {
		case b == 0:
			nulls++
		case b < 0x20 && b != '\t' && b != '\n' && b != '\r' && b != '\f':
			control++
		}
	}
	// Bytes >= 0x80 are left alone so UTF-8 text is not misread as binary
	if nulls > len(sample)/100 {
		return true
	}
	return control > len(sample)*30/100
}

// IsBinaryFile reads only the leading bytes of path
func (bd *BinaryDetector) IsBinaryFile(path string) (bool, error) {
	if bd.IsBinaryByExtension(path) {
		return true, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, types.BinaryPreCheckBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	return bd.IsBinaryContent(buf[:n]), nil
}
