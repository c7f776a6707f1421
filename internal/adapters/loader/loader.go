// Package loader provides corpus loading adapters.
// Clean Architecture: Adapter implementing ports.CorpusLoader.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

// DefaultPattern selects plain-text corpus files.
const DefaultPattern = "*.txt"

// TextLoader loads a single plain text file.
type TextLoader struct{}

// NewTextLoader creates a new text document loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads a UTF-8 text file, strips a byte order mark and normalizes to NFC.
func (l *TextLoader) Load(ctx context.Context, path string) (*entities.Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &entities.UnreadableFileError{Path: path, Err: err}
	}
	if !utf8.Valid(data) {
		return nil, &entities.UnreadableFileError{Path: path, Err: errors.New("content is not valid UTF-8")}
	}

	text, _, err := transform.Bytes(transform.Chain(xunicode.UTF8BOM.NewDecoder(), norm.NFC), data)
	if err != nil {
		return nil, &entities.UnreadableFileError{Path: path, Err: err}
	}

	return &entities.Segment{
		SourceName: filepath.Base(path),
		Content:    string(text),
	}, nil
}

// CorpusLoader reads every matching file directly inside a directory.
type CorpusLoader struct {
	pattern  string
	workers  int
	numbered bool
	text     *TextLoader
	logger   *zap.Logger
}

// NewCorpusLoader creates a loader. pattern is a glob on the file name
// (doublestar syntax); workers bounds concurrent reads.
func NewCorpusLoader(pattern string, workers int, logger *zap.Logger) *CorpusLoader {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CorpusLoader{
		pattern: pattern,
		workers: workers,
		text:    NewTextLoader(),
		logger:  logger,
	}
}

// Pattern returns the file name glob in use.
func (l *CorpusLoader) Pattern() string {
	return l.pattern
}

// RequireNumbering makes Load demand that every matching file name starts
// with a number, that the numbers run 1..N without gaps or repeats and that
// no file is empty. Violations are reported as *entities.InconsistentDatasetError.
func (l *CorpusLoader) RequireNumbering() *CorpusLoader {
	l.numbered = true
	return l
}

// Load returns the non-empty matching files as segments sorted by name.
// Files are read in parallel; the order never depends on completion order.
func (l *CorpusLoader) Load(ctx context.Context, dir string) (*entities.RawDocument, error) {
	names, err := l.matchingFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, &entities.NoInputFilesError{Dir: dir, Pattern: l.pattern}
	}
	if l.numbered {
		if err := checkNumbering(dir, names); err != nil {
			return nil, err
		}
	}

	loaded := make([]*entities.Segment, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, name := range names {
		g.Go(func() error {
			seg, err := l.text.Load(gctx, filepath.Join(dir, name))
			if err != nil {
				return err
			}
			loaded[i] = seg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := &entities.RawDocument{Segments: make([]entities.Segment, 0, len(loaded))}
	for _, seg := range loaded {
		if strings.TrimSpace(seg.Content) == "" {
			if l.numbered {
				return nil, &entities.InconsistentDatasetError{Dir: dir, Reason: "file " + seg.SourceName + " is empty"}
			}
			l.logger.Warn("skipping empty corpus file", zap.String("file", seg.SourceName))
			continue
		}
		doc.Segments = append(doc.Segments, *seg)
	}
	if len(doc.Segments) == 0 {
		return nil, &entities.NoInputFilesError{Dir: dir, Pattern: l.pattern}
	}

	l.logger.Info("corpus loaded",
		zap.String("dir", dir),
		zap.Int("files", len(doc.Segments)))
	return doc, nil
}

// matchingFiles lists regular files in dir whose name matches the pattern, sorted.
func (l *CorpusLoader) matchingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &entities.UnreadableFileError{Path: dir, Err: err}
	}

	var names []string
	for _, e := range entries {
		ok, err := doublestar.Match(l.pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("corpus pattern %q: %w", l.pattern, err)
		}
		if !ok {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, &entities.UnreadableFileError{Path: filepath.Join(dir, e.Name()), Err: err}
		}
		if !info.Mode().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// checkNumbering requires the leading numbers of names to be exactly 1..len(names).
func checkNumbering(dir string, names []string) error {
	owner := make(map[int]string, len(names))
	for _, name := range names {
		digits := len(name) - len(strings.TrimLeft(name, "0123456789"))
		n, err := strconv.Atoi(name[:digits])
		if digits == 0 || err != nil {
			return &entities.InconsistentDatasetError{Dir: dir, Reason: "file " + name + " has no leading number"}
		}
		if prev, dup := owner[n]; dup {
			return &entities.InconsistentDatasetError{Dir: dir, Reason: fmt.Sprintf("files %s and %s share number %d", prev, name, n)}
		}
		owner[n] = name
	}
	for n := 1; n <= len(names); n++ {
		if _, ok := owner[n]; !ok {
			return &entities.InconsistentDatasetError{Dir: dir, Reason: fmt.Sprintf("number %d is missing", n)}
		}
	}
	return nil
}
