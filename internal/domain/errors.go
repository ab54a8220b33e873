package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported operation")
	ErrInternal     = errors.New("internal error")
	ErrUnavailable  = errors.New("service unavailable")
)

// Specific errors.
var (
	ErrMalformedGeometry = fmt.Errorf("malformed geometry blob: %w", ErrInvalidInput)
	ErrUnsupportedDims   = fmt.Errorf("geometry with Z or M ordinates: %w", ErrUnsupported)
	ErrInvalidAuthority  = fmt.Errorf("authority: %w", ErrInvalidInput)
	ErrInvalidFormat     = fmt.Errorf("reference format: %w", ErrInvalidInput)
	ErrInvalidDimension  = fmt.Errorf("coordinate dimension: %w", ErrInvalidInput)
	ErrInvalidIfExists   = fmt.Errorf("if-exists mode: %w", ErrInvalidInput)
	ErrReferenceLookup   = fmt.Errorf("spatial reference lookup: %w", ErrUnavailable)
	ErrRelaxedSecurity   = fmt.Errorf("relaxed security required: %w", ErrUnsupported)
	ErrFileNotFound      = fmt.Errorf("file: %w", ErrNotFound)
	ErrTableNotFound     = fmt.Errorf("table: %w", ErrNotFound)
	ErrTableExists       = fmt.Errorf("table already exists: %w", ErrInvalidInput)
	ErrImportFailed      = fmt.Errorf("shapefile import: %w", ErrInternal)
	ErrExportFailed      = fmt.Errorf("shapefile export: %w", ErrInternal)
	ErrNotSpatial        = fmt.Errorf("not a spatial table: %w", ErrInvalidInput)
	ErrNoChange          = fmt.Errorf("no changes requested: %w", ErrInvalidInput)
	ErrSRIDNotFound      = fmt.Errorf("srid: %w", ErrNotFound)
	ErrUnknownTypeCode   = fmt.Errorf("geometry type code: %w", ErrUnsupported)
	ErrBundleNotFound    = fmt.Errorf("bundle: %w", ErrNotFound)
)

// LookupError represents a failure retrieving a spatial reference
// definition from the reference-definition service.
type LookupError struct {
	SRID      int    // Spatial reference identifier
	Authority string // Authority name (epsg, esri, sr-org)
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup failed for %s:%d: %v", e.Authority, e.SRID, e.Err)
}

// Unwrap returns the underlying error type.
func (e *LookupError) Unwrap() error {
	return ErrReferenceLookup
}

// ScriptError represents a failure partway through an alteration script.
// The rendered script is kept for manual recovery since completed
// statements are not rolled back.
type ScriptError struct {
	Table  string // Table being altered
	Script string // Fully rendered script text
	Err    error  // Underlying error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("alteration script failed for table %s: %v\n%s", e.Table, e.Err, e.Script)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}

// StorageError represents an error during storage operations.
type StorageError struct {
	Operation string // Operation that failed (download, list, etc.)
	Key       string // Object key
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error during %s for %s: %v",
			e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// QueryError represents an error during a query operation.
type QueryError struct {
	Table string // Table involved, if known
	Err   error  // Underlying error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("query error on table %s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("query error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string // Configuration field
	Message string // Error message
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidInput
}
