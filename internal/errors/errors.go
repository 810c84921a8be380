package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// Error types for the lightning-code-completion system
type ErrorType string

const (
	// Indexing errors
	ErrorTypeIndexing ErrorType = "indexing"
	ErrorTypeParse    ErrorType = "parse"

	// Request errors
	ErrorTypeRequest ErrorType = "request"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeFileTooLarge ErrorType = "file_too_large"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeFileIO       ErrorType = "file_io"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// ErrIndexNotReady is returned while the startup scan is still populating the index
var ErrIndexNotReady = errors.New("index not ready")

// IndexingError represents an error while feeding identifiers into the index
type IndexingError struct {
	Type        ErrorType
	Filetype    string
	FilePath    string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewIndexingError creates a new indexing error with context
func NewIndexingError(op string, err error) *IndexingError {
	return &IndexingError{
		Type:       ErrorTypeIndexing,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithFile adds file information to the error
func (e *IndexingError) WithFile(filetype, path string) *IndexingError {
	e.Filetype = filetype
	e.FilePath = path
	return e
}

// WithRecoverable marks the error as recoverable
func (e *IndexingError) WithRecoverable(recoverable bool) *IndexingError {
	e.Recoverable = recoverable
	return e
}

// Error implements the error interface
func (e *IndexingError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *IndexingError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable checks if the error can be retried
func (e *IndexingError) IsRecoverable() bool {
	return e.Recoverable
}

// ParseError reports that identifiers could not be extracted with a filetype's grammar
type ParseError struct {
	Type       ErrorType
	Filetype   string
	Reason     string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a new parse error
func NewParseError(filetype, reason string, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		Filetype:   filetype,
		Reason:     reason,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("parse error for %s: %s: %v", e.Filetype, e.Reason, e.Underlying)
	}
	return fmt.Sprintf("parse error for %s: %s", e.Filetype, e.Reason)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// RequestError represents an invalid completion or event request
type RequestError struct {
	Type       ErrorType
	Field      string
	Reason     string
	Underlying error
}

// NewRequestError creates a new request error
func NewRequestError(field, reason string, err error) *RequestError {
	return &RequestError{
		Type:       ErrorTypeRequest,
		Field:      field,
		Reason:     reason,
		Underlying: err,
	}
}

// Error implements the error interface
func (e *RequestError) Error() string {
	msg := "invalid request"
	if e.Field != "" {
		msg = fmt.Sprintf("invalid request field %s", e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Underlying != nil {
		msg += fmt.Sprintf(": %v", e.Underlying)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *RequestError) Unwrap() error {
	return e.Underlying
}

// FileError represents a file-related error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error, classifying the underlying cause
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFileIO
	switch {
	case errors.Is(err, fs.ErrNotExist):
		errorType = ErrorTypeFileNotFound
	case errors.Is(err, fs.ErrPermission):
		errorType = ErrorTypePermission
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewFileTooLargeError reports a file skipped for exceeding the size limit
func NewFileTooLargeError(path string, size, limit int64) *FileError {
	return &FileError{
		Type:       ErrorTypeFileTooLarge,
		Path:       path,
		Operation:  "read",
		Underlying: fmt.Errorf("size %d exceeds limit %d", size, limit),
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrorOrNil returns nil when no errors were collected
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
