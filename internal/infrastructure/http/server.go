// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/0xcro3dile/conllu-pipeline/internal/adapters/conllu"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/usecases"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/validation"
)

// DefaultMaxBody caps the size of an uploaded artifact.
const DefaultMaxBody = 64 << 20

// Server is the HTTP server for the validation API.
type Server struct {
	validateUseCase *usecases.ValidateUseCase
	logger          *zap.Logger
	metrics         *metrics
	addr            string
	maxBody         int64
	maxConns        int
}

// NewServer creates a new HTTP server.
func NewServer(validateUC *usecases.ValidateUseCase, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		validateUseCase: validateUC,
		logger:          logger,
		metrics:         newMetrics(),
		addr:            addr,
		maxBody:         DefaultMaxBody,
	}
}

// SetMaxConns caps concurrently accepted connections; n <= 0 disables the cap.
func (s *Server) SetMaxConns(n int) {
	s.maxConns = n
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/validate", s.handleValidate)
	mux.HandleFunc("/api/reports", s.handleReports)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	return corsMiddleware(s.loggingMiddleware(mux))
}

// Start runs the HTTP server until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	if s.maxConns > 0 {
		ln = netutil.LimitListener(ln, s.maxConns)
	}

	s.logger.Info("validation server starting",
		zap.String("addr", ln.Addr().String()),
		zap.Int("max_conns", s.maxConns))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// validateResponse is the body of a successful validation.
type validateResponse struct {
	RunID  string            `json:"run_id"`
	Report validation.Report `json:"report"`
	Issues []entities.Issue  `json:"issues"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleValidate parses the request body as an artifact and validates it.
// The optional "name" query parameter labels the run.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}

	start := time.Now()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "artifact too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	sentences, err := conllu.NewDecoder(bytes.NewReader(data), name).Decode()
	if err != nil {
		s.metrics.invalid()
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	result, err := s.validateUseCase.Validate(r.Context(), name, sentences)
	if err != nil {
		s.logger.Error("validation failed", zap.String("artifact", name), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	s.metrics.observe(result.Report, time.Since(start).Seconds())

	issues := result.Issues
	if issues == nil {
		issues = []entities.Issue{}
	}
	writeJSON(w, http.StatusOK, validateResponse{
		RunID:  result.Run.ID,
		Report: result.Report,
		Issues: issues,
	})
}

// runResponse is one history entry.
type runResponse struct {
	ID         string                `json:"id"`
	Artifact   string                `json:"artifact"`
	CheckedAt  time.Time             `json:"checked_at"`
	Sentences  int                   `json:"sentences"`
	Errors     int                   `json:"errors"`
	Warnings   int                   `json:"warnings"`
	Pass       bool                  `json:"pass"`
	RuleCounts map[entities.Rule]int `json:"rule_counts"`
}

// handleReports lists recorded runs, newest first.
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	runs, err := s.validateUseCase.History(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing reports failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runResponse(run))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			return
		}
		next.ServeHTTP(w, r)
	})
}
