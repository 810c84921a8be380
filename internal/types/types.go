package types

// Common system-wide constants
const (
	// Identifier limits
	DefaultMaxIdentifierLength = 80 // Longest identifier the repository will intern (bytes)
	// Rationale: longer tokens are almost always generated data (hashes,
	// base64 blobs, minified code) and only dilute completion results.

	// Completion defaults
	DefaultMinNumChars   = 2  // Query characters required before identifier completion triggers
	DefaultMaxCandidates = 10 // Completion candidates returned per request

	// File size limits
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB per file - standard limit for indexing
	// Rationale: Prevents memory exhaustion from large
	// generated files while covering 99.9% of source files.

	// Performance limits
	DefaultMaxFileCount = 10000 // Maximum files to ingest in a single project scan
	// Rationale: Covers most application codebases while
	// preventing runaway scans of node_modules or vendor directories.

	// Binary detection
	BinaryPreCheckBytes = 512 // Number of leading bytes inspected for NUL when detecting binary files
)

// SyntaxFilepathPrefix prefixes the synthetic file path under which a filetype's syntax
// keywords are stored, so they rank alongside identifiers from real files.
const SyntaxFilepathPrefix = "syntax:"

// EventName names an editor event delivered to the completer
type EventName string

const (
	EventFileReadyToParse EventName = "FileReadyToParse"
	EventBufferUnload     EventName = "BufferUnload"
	EventInsertLeave      EventName = "InsertLeave"
	EventBufferVisit      EventName = "BufferVisit"
)
