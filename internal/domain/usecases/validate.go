package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/ports"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/validation"
)

// ValidateUseCase re-reads an artifact and checks it.
// Single Responsibility: Only validation and its history.
type ValidateUseCase struct {
	reader    ports.AnnotationReader
	validator *validation.Validator
	store     ports.ReportStore
	now       func() time.Time
	newID     func() string
}

// NewValidateUseCase creates a ValidateUseCase. store may be nil, in which case
// runs are not recorded.
func NewValidateUseCase(
	reader ports.AnnotationReader,
	validator *validation.Validator,
	store ports.ReportStore,
) *ValidateUseCase {
	return &ValidateUseCase{
		reader:    reader,
		validator: validator,
		store:     store,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// ValidateResult is the outcome of one validation run.
type ValidateResult struct {
	Run    entities.ValidationRun
	Report validation.Report
	Issues []entities.Issue
}

// ValidateFile parses the artifact at path and validates it. Read and parse
// failures are returned as errors; structural problems are in the result.
func (uc *ValidateUseCase) ValidateFile(ctx context.Context, path string) (*ValidateResult, error) {
	sentences, err := uc.reader.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return uc.Validate(ctx, path, sentences)
}

// Validate checks already parsed sentences; artifact only labels the run.
func (uc *ValidateUseCase) Validate(ctx context.Context, artifact string, sentences []entities.Sentence) (*ValidateResult, error) {
	issues, err := uc.validator.Validate(ctx, sentences)
	if err != nil {
		return nil, err
	}

	report := validation.Summarize(len(sentences), issues)
	report.UPOS = validation.TagFrequencies(sentences)
	result := &ValidateResult{
		Run:    report.Run(uc.newID(), artifact, uc.now().UTC()),
		Report: report,
		Issues: issues,
	}

	if uc.store != nil {
		if err := uc.store.Save(ctx, result.Run); err != nil {
			return nil, fmt.Errorf("saving validation run: %w", err)
		}
	}
	return result, nil
}

// History returns recorded runs, newest first.
func (uc *ValidateUseCase) History(ctx context.Context, limit int) ([]entities.ValidationRun, error) {
	if uc.store == nil {
		return nil, nil
	}
	return uc.store.List(ctx, limit)
}
