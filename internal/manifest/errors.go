package manifest

import (
	"errors"
	"fmt"
)

// Sentinel errors for the manifest package
var (
	// ErrFileNotFound indicates the manifest file does not exist
	ErrFileNotFound = errors.New("manifest file not found")

	// ErrInvalidFormat indicates the manifest is not valid structured data
	ErrInvalidFormat = errors.New("manifest must be valid JSON, YAML, TOML or HCL")

	// ErrUnsupportedExt is wrapped by the ParseError of a manifest whose
	// unrecognized extension made the loader fall back to JSON
	ErrUnsupportedExt = errors.New("unrecognized file extension, read as JSON (use .json, .yaml, .yml, .toml or .hcl)")

	// ErrNoShaders indicates the top-level "shaders" list is missing
	ErrNoShaders = errors.New(`manifest must contain a top-level "shaders" list`)

	ErrNotObject   = errors.New("expected an object")
	ErrNotSequence = errors.New("expected a sequence")
	ErrNotString   = errors.New("expected a string")
)

// ReadError reports a manifest that could not be read from disk
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read manifest %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ParseError reports manifest content that is not valid structured data.
// It matches both ErrInvalidFormat and the underlying decoder error.
type ParseError struct {
	Path   string
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s manifest %s: %v", e.Format, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to parse %s manifest: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrInvalidFormat, e.Err}
}

// SchemaError reports a structurally valid document whose content does not
// match the manifest schema. Index is the offending entry, or -1 when the
// problem is at document level.
type SchemaError struct {
	Index int
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	switch {
	case e.Index < 0 && e.Field == "":
		return fmt.Sprintf("invalid manifest: %v", e.Err)
	case e.Index < 0:
		return fmt.Sprintf("invalid manifest: %s: %v", e.Field, e.Err)
	case e.Field == "":
		return fmt.Sprintf("invalid manifest entry %d: %v", e.Index, e.Err)
	default:
		return fmt.Sprintf("invalid manifest entry %d: %s: %v", e.Index, e.Field, e.Err)
	}
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func newSchemaError(index int, field string, err error) *SchemaError {
	return &SchemaError{Index: index, Field: field, Err: err}
}
