// Package errors provides custom error types for the modsync system.
// These errors enable programmatic error checking with errors.Is and
// errors.As across the catalog cache and the deployment synchronizer.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As and Join are re-exported so callers only need one errors import.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Common sentinel errors for the modsync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransport indicates a network fetch failed
	ErrTransport = errors.New("transport failure")

	// ErrFormat indicates decompression or parsing failed
	ErrFormat = errors.New("format error")

	// ErrCache indicates a persisted chunk could not be read or written
	ErrCache = errors.New("cache error")

	// ErrLock indicates a shared resource was used in an invalid state
	ErrLock = errors.New("lock error")

	// ErrFilesystem indicates a copy, delete or create failed
	ErrFilesystem = errors.New("filesystem error")

	// ErrIndex indicates the chunk index of a catalog could not be retrieved
	ErrIndex = errors.New("catalog index unavailable")

	// ErrDeployInProgress indicates another deployment to the same target is running
	ErrDeployInProgress = errors.New("deployment already in progress")
)

// TransportError represents a failed network fetch
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *TransportError) Is(target error) bool {
	if target == ErrTransport {
		return true
	}
	return e.StatusCode == 404 && target == ErrNotFound
}

// NewTransportError creates a new TransportError
func NewTransportError(url string, statusCode int, err error) *TransportError {
	return &TransportError{URL: url, StatusCode: statusCode, Err: err}
}

// FormatError represents a decompression or parse failure
type FormatError struct {
	Format string // "gzip", "json"
	Source string
	Err    error
}

// Error implements the error interface
func (e *FormatError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s decode of %s: %v", e.Format, e.Source, e.Err)
	}
	return fmt.Sprintf("%s decode: %v", e.Format, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// CacheError represents an unreadable or unwritable persisted chunk.
// The chunk store always downgrades it to a cache miss.
type CacheError struct {
	Key string
	Op  string // "read", "write", "decode"
	Err error
}

// Error implements the error interface
func (e *CacheError) Error() string {
	return fmt.Sprintf("chunk cache %s %s: %v", e.Op, e.Key, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *CacheError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *CacheError) Is(target error) bool {
	return target == ErrCache
}

// LockError represents use of a guarded resource in an invalid state
type LockError struct {
	Resource string
	Message  string
}

// Error implements the error interface
func (e *LockError) Error() string {
	return fmt.Sprintf("lock on %s: %s", e.Resource, e.Message)
}

// Is implements errors.Is support
func (e *LockError) Is(target error) bool {
	return target == ErrLock
}

// FilesystemError represents a failed filesystem mutation or read during deployment
type FilesystemError struct {
	Op   string // "copy", "remove", "mkdir", "read", "stat"
	Path string
	Err  error
}

// Error implements the error interface
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FilesystemError) Is(target error) bool {
	return target == ErrFilesystem
}

// IndexError represents a failure to retrieve a catalog's chunk index.
// No partial catalog is exposed when it occurs.
type IndexError struct {
	Catalog string
	Err     error
}

// Error implements the error interface
func (e *IndexError) Error() string {
	return fmt.Sprintf("chunk index for catalog %s: %v", e.Catalog, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IndexError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *IndexError) Is(target error) bool {
	return target == ErrIndex
}

// DeployError reports which deployment step failed
type DeployError struct {
	Step   string
	Target string
	Err    error
}

// Error implements the error interface
func (e *DeployError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("deploy to %s failed during %s: %v", e.Target, e.Step, e.Err)
	}
	return fmt.Sprintf("deploy failed during %s: %v", e.Step, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *DeployError) Unwrap() error {
	return e.Err
}

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsTransport checks if an error is a network fetch failure
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsFormat checks if an error is a decompression or parse failure
func IsFormat(err error) bool {
	return errors.Is(err, ErrFormat)
}

// IsFilesystem checks if an error is a filesystem failure
func IsFilesystem(err error) bool {
	return errors.Is(err, ErrFilesystem)
}

// IsIndex checks if an error is a chunk index failure
func IsIndex(err error) bool {
	return errors.Is(err, ErrIndex)
}

// Helper wrapping functions for common patterns

// WrapFS wraps an error as a FilesystemError
func WrapFS(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &FilesystemError{Op: op, Path: path, Err: err}
}

// WrapFormat wraps an error as a FormatError
func WrapFormat(format, source string, err error) error {
	if err == nil {
		return nil
	}
	return &FormatError{Format: format, Source: source, Err: err}
}

// WrapCache wraps an error as a CacheError
func WrapCache(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &CacheError{Op: op, Key: key, Err: err}
}

// WrapDeploy wraps an error as a DeployError for the given step
func WrapDeploy(step, target string, err error) error {
	if err == nil {
		return nil
	}
	return &DeployError{Step: step, Target: target, Err: err}
}
