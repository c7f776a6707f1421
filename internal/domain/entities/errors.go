package entities

import "fmt"

// NoInputFilesError means the corpus directory held no usable text files.
type NoInputFilesError struct {
	Dir     string
	Pattern string
}

func (e *NoInputFilesError) Error() string {
	return fmt.Sprintf("no input files matching %q in %s", e.Pattern, e.Dir)
}

// InconsistentDatasetError means a numbered corpus has gaps, duplicates or empty files.
type InconsistentDatasetError struct {
	Dir    string
	Reason string
}

func (e *InconsistentDatasetError) Error() string {
	return fmt.Sprintf("inconsistent dataset %s: %s", e.Dir, e.Reason)
}

// UnreadableFileError means a file could not be read or decoded as UTF-8 text.
type UnreadableFileError struct {
	Path string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("unreadable file %s: %v", e.Path, e.Err)
}

func (e *UnreadableFileError) Unwrap() error { return e.Err }

// AnnotationEngineError wraps any failure reported by the external engine.
type AnnotationEngineError struct {
	Engine string
	Err    error
}

func (e *AnnotationEngineError) Error() string {
	return fmt.Sprintf("annotation engine %s: %v", e.Engine, e.Err)
}

func (e *AnnotationEngineError) Unwrap() error { return e.Err }

// WriteError means the artifact could not be persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// MalformedLineError is a line that is not a valid comment, node or separator.
type MalformedLineError struct {
	Line       int
	FieldCount int
	Reason     string
}

func (e *MalformedLineError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d: expected 10 tab-separated fields, found %d", e.Line, e.FieldCount)
}

// MalformedIDError is an id column that is neither a word, range nor empty node id.
type MalformedIDError struct {
	Line  int
	RawID string
}

func (e *MalformedIDError) Error() string {
	return fmt.Sprintf("line %d: malformed id %q", e.Line, e.RawID)
}

// MalformedFeatureError is a broken FEATS, DEPS or MISC column.
type MalformedFeatureError struct {
	Line   int
	Field  string
	Raw    string
	Reason string
}

func (e *MalformedFeatureError) Error() string {
	return fmt.Sprintf("line %d: malformed %s %q: %s", e.Line, e.Field, e.Raw, e.Reason)
}
