// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
// They contain no framework code; adapters are injected.
package usecases

import (
	"context"
	"errors"

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/ports"
)

var errEngineUnavailable = errors.New("service is not healthy")

// AnnotateUseCase turns a corpus directory into an annotation artifact.
// Single Responsibility: Only the load, annotate, write flow.
type AnnotateUseCase struct {
	loader ports.CorpusLoader
	engine ports.AnnotationEngine
	writer ports.AnnotationWriter
}

// NewAnnotateUseCase creates an AnnotateUseCase with injected dependencies.
func NewAnnotateUseCase(
	loader ports.CorpusLoader,
	engine ports.AnnotationEngine,
	writer ports.AnnotationWriter,
) *AnnotateUseCase {
	return &AnnotateUseCase{
		loader: loader,
		engine: engine,
		writer: writer,
	}
}

// AnnotateResult describes a finished run.
type AnnotateResult struct {
	Files     int
	Sentences int
	Output    string
}

// Run loads dir, annotates the whole corpus in one engine call and writes out.
// Every failure is fatal and returned as is; nothing is retried.
func (uc *AnnotateUseCase) Run(ctx context.Context, dir, out string) (*AnnotateResult, error) {
	// 1. Load the corpus
	doc, err := uc.loader.Load(ctx, dir)
	if err != nil {
		return nil, err
	}

	// 2. Annotate via the engine port, after checking a remote engine is up
	if hc, ok := uc.engine.(ports.HealthChecker); ok && !hc.IsServiceHealthy(ctx) {
		return nil, &entities.AnnotationEngineError{Engine: uc.engine.Name(), Err: errEngineUnavailable}
	}
	sentences, err := uc.engine.Annotate(ctx, doc.Text())
	if err != nil {
		var engErr *entities.AnnotationEngineError
		if errors.As(err, &engErr) {
			return nil, err
		}
		return nil, &entities.AnnotationEngineError{Engine: uc.engine.Name(), Err: err}
	}

	// 3. Persist the artifact
	if err := uc.writer.Write(ctx, out, sentences); err != nil {
		var writeErr *entities.WriteError
		if errors.As(err, &writeErr) {
			return nil, err
		}
		return nil, &entities.WriteError{Path: out, Err: err}
	}

	return &AnnotateResult{
		Files:     len(doc.Segments),
		Sentences: len(sentences),
		Output:    out,
	}, nil
}
