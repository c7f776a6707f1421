// Package writer persists annotated sentences as a CoNLL-U artifact.
// Clean Architecture: Adapter implementing ports.AnnotationWriter.
package writer

import (
	"bufio"
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/0xcro3dile/conllu-pipeline/internal/adapters/conllu"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

const tmpPrefix = ".conllu-tmp-"

// FileWriter writes artifacts atomically: a temp file in the destination
// directory is synced and then renamed over the destination.
type FileWriter struct {
	permFile os.FileMode
	permDir  os.FileMode
	bufSize  int
	logger   *zap.Logger
}

// NewFileWriter creates an atomic artifact writer.
func NewFileWriter(logger *zap.Logger) *FileWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileWriter{
		permFile: 0o644,
		permDir:  0o755,
		bufSize:  64 * 1024,
		logger:   logger,
	}
}

// Write serializes sentences to path. Any failure is a *entities.WriteError
// and leaves the destination untouched.
func (w *FileWriter) Write(ctx context.Context, path string, sentences []entities.Sentence) error {
	if err := ctx.Err(); err != nil {
		return &entities.WriteError{Path: path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(path), w.permDir); err != nil {
		return &entities.WriteError{Path: path, Err: err}
	}
	if err := w.writeAtomic(path, sentences); err != nil {
		return &entities.WriteError{Path: path, Err: err}
	}
	w.logger.Info("artifact written",
		zap.String("path", path),
		zap.Int("sentences", len(sentences)))
	return nil
}

func (w *FileWriter) writeAtomic(dest string, sentences []entities.Sentence) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, w.permFile)

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	bw := bufio.NewWriterSize(tmp, w.bufSize)
	if err := conllu.Encode(bw, sentences); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := osReplace(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// Best effort: persist the rename itself.
	_ = syncDir(dir)
	return nil
}
