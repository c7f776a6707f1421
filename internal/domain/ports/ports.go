// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

// CorpusLoader turns a directory of plain-text files into one ordered document.
type CorpusLoader interface {
	// Load reads every matching file directly inside dir.
	Load(ctx context.Context, dir string) (*entities.RawDocument, error)
}

// AnnotationEngine is the external morphological and syntactic analyzer.
// It is treated as a pure function from text to annotated sentences.
type AnnotationEngine interface {
	// Annotate analyzes the whole text in one call.
	Annotate(ctx context.Context, text string) ([]entities.Sentence, error)

	// Name identifies the engine in errors and logs.
	Name() string
}

// HealthChecker is implemented by engines that run as a separate service.
type HealthChecker interface {
	IsServiceHealthy(ctx context.Context) bool
}

// AnnotationWriter persists annotated sentences as an artifact.
type AnnotationWriter interface {
	Write(ctx context.Context, path string, sentences []entities.Sentence) error
}

// AnnotationReader re-reads an artifact from disk, independent of who produced it.
type AnnotationReader interface {
	ReadFile(ctx context.Context, path string) ([]entities.Sentence, error)
}

// ReportStore keeps the history of validation runs.
type ReportStore interface {
	// Save records a run.
	Save(ctx context.Context, run entities.ValidationRun) error

	// List returns the most recent runs first, at most limit of them.
	List(ctx context.Context, limit int) ([]entities.ValidationRun, error)

	// Close releases the store.
	Close() error
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	}
	return "unknown"
}
