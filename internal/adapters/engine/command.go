package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/conllu-pipeline/internal/adapters/conllu"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

// maxStderr bounds how much of the child's stderr ends up in an error message.
const maxStderr = 4096

// CommandEngine implements ports.AnnotationEngine by running a local analyzer,
// e.g. `udpipe --tokenize --tag --parse model.udpipe`. Text goes to stdin and
// CoNLL-U is read from stdout.
type CommandEngine struct {
	path    string
	args    []string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCommandEngine creates an engine running path with args.
func NewCommandEngine(path string, args []string, timeout time.Duration, logger *zap.Logger) *CommandEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandEngine{
		path:    path,
		args:    append([]string(nil), args...),
		timeout: timeout,
		logger:  logger,
	}
}

// Name identifies the engine by its executable.
func (e *CommandEngine) Name() string {
	return filepath.Base(e.path)
}

// Annotate runs the analyzer once over the whole text.
func (e *CommandEngine) Annotate(ctx context.Context, text string) ([]entities.Sentence, error) {
	if e.path == "" {
		return nil, errors.New("no analyzer command configured")
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.path, e.args...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("running %s: %w", e.Name(), ctxErr)
		}
		if msg := tail(stderr.String(), maxStderr); msg != "" {
			return nil, fmt.Errorf("running %s: %w: %s", e.Name(), err, msg)
		}
		return nil, fmt.Errorf("running %s: %w", e.Name(), err)
	}

	sentences, err := conllu.NewDecoder(&stdout, e.Name()+" output").Decode()
	if err != nil {
		return nil, fmt.Errorf("decoding CoNLL-U output: %w", err)
	}

	e.logger.Debug("command annotation done",
		zap.String("command", e.path),
		zap.Int("sentences", len(sentences)),
		zap.Duration("took", time.Since(start)))
	return sentences, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s
}
