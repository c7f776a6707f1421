// Package engine provides annotation engine adapters.
// Clean Architecture: Adapters implementing ports.AnnotationEngine.
// The analyzer itself is external; these only move text in and CoNLL-U out.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/conllu-pipeline/internal/adapters/conllu"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

// DefaultUDPipeURL is the public LINDAT UDPipe service.
const DefaultUDPipeURL = "https://lindat.mff.cuni.cz/services/udpipe/api"

// UDPipeEngine implements ports.AnnotationEngine using the UDPipe REST API.
type UDPipeEngine struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewUDPipeEngine creates a UDPipe client. An empty model lets the service pick
// its default; timeout <= 0 means no client-side limit beyond the context.
func NewUDPipeEngine(baseURL, model string, timeout time.Duration, logger *zap.Logger) *UDPipeEngine {
	if baseURL == "" {
		baseURL = DefaultUDPipeURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UDPipeEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Name identifies the engine.
func (e *UDPipeEngine) Name() string {
	return "udpipe"
}

// udpipeResponse is the UDPipe /process reply.
type udpipeResponse struct {
	Model  string `json:"model"`
	Result string `json:"result"`
}

// Annotate tokenizes, tags and parses text in a single request.
func (e *UDPipeEngine) Annotate(ctx context.Context, text string) ([]entities.Sentence, error) {
	form := url.Values{
		"data":      {text},
		"tokenizer": {""},
		"tagger":    {""},
		"parser":    {""},
		"output":    {"conllu"},
	}
	if e.model != "" {
		form.Set("model", e.model)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/process", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling UDPipe: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("UDPipe returned status %d: %s", resp.StatusCode, msg)
	}

	var result udpipeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if result.Result == "" {
		return nil, errors.New("UDPipe returned an empty result")
	}

	sentences, err := conllu.NewDecoder(strings.NewReader(result.Result), "udpipe response").Decode()
	if err != nil {
		return nil, fmt.Errorf("decoding CoNLL-U output: %w", err)
	}

	e.logger.Debug("udpipe annotation done",
		zap.String("model", result.Model),
		zap.Int("sentences", len(sentences)),
		zap.Duration("took", time.Since(start)))
	return sentences, nil
}

// IsServiceHealthy checks if the UDPipe service answers its model listing.
func (e *UDPipeEngine) IsServiceHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/models", nil)
	if err != nil {
		return false
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
