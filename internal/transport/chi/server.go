// Package chi exposes the document pipeline over HTTP.
package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/logger"
	"github.com/kailas-cloud/docdex/internal/metrics"
	"github.com/kailas-cloud/docdex/internal/usecase/pipeline"
)

const snippetMaxRunes = 300

// TextExtractor pulls plain text from an uploaded document stream.
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.ReadSeeker) (string, error)
}

// Searcher answers similarity queries against a named index.
type Searcher interface {
	Search(ctx context.Context, indexName, query string, topK int) ([]domain.SearchHit, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes pipeline and search requests.
type Server struct {
	pipeline  *pipeline.Service
	extractor TextExtractor
	search    Searcher
	health    []domain.HealthChecker

	maxUploadBytes int64
	defaultTopK    int
	maxTopK        int

	logger        *zap.Logger
	errorHandlers []errorHandler
}

// ServerConfig bundles the server collaborators and limits.
type ServerConfig struct {
	Pipeline  *pipeline.Service
	Extractor TextExtractor
	Search    Searcher
	Health    []domain.HealthChecker

	MaxUploadBytes int64
	DefaultTopK    int
	MaxTopK        int

	Logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		pipeline:       cfg.Pipeline,
		extractor:      cfg.Extractor,
		search:         cfg.Search,
		health:         cfg.Health,
		maxUploadBytes: cfg.MaxUploadBytes,
		defaultTopK:    cfg.DefaultTopK,
		maxTopK:        cfg.MaxTopK,
		logger:         cfg.Logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrCorruptDocument, http.StatusBadRequest, "corrupt_document"),
		sentinelHandler(domain.ErrEmptyDocument, http.StatusUnprocessableEntity, "empty_document"),
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, "index_not_found"),
		sentinelHandler(domain.ErrExtractionUnavailable, http.StatusBadGateway, "extraction_unavailable"),
		sentinelHandler(domain.ErrModelUnavailable, http.StatusBadGateway, "model_unavailable"),
	}
	return s
}

// Router builds the chi router with the standard middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.jsonRecoverer)
	r.Use(middleware.RequestID)
	r.Use(s.wideEventMiddleware)
	r.Use(metrics.Middleware())

	r.Post("/documents", s.UploadDocument)
	r.Post("/indexes/{name}/search", s.SearchIndex)
	r.Get("/healthz", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// jsonRecoverer returns JSON instead of a plain text stacktrace on panic.
func (s *Server) jsonRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				s.logger.Error("panic recovered",
					zap.Any("panic", rvr),
					zap.Stack("stacktrace"),
				)
				writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func (s *Server) wideEventMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := middleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}

		reqLogger := s.logger.With(zap.String("request_id", requestID))
		ctx := logger.ContextWithLogger(r.Context(), reqLogger)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		reqLogger.Info("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", r.RemoteAddr),
			zap.Int("response_bytes", ww.BytesWritten()),
		)
	})
}

// uploadResponse is the processed-document payload.
type uploadResponse struct {
	DocumentID string        `json:"document_id"`
	IndexName  string        `json:"index_name"`
	Category   string        `json:"category"`
	Confidence float64       `json:"confidence"`
	Source     string        `json:"source"`
	Fields     domain.Fields `json:"fields"`
}

// UploadDocument handles POST /documents. Expects a multipart form with a
// "file" part (PDF) and an optional "index_name" field.
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", `missing "file" part`)
		return
	}
	defer file.Close()

	// multipart.File is a ReadSeeker only for memory/disk-backed parts;
	// buffer explicitly so the PDF reader can seek.
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "read upload: "+err.Error())
		return
	}

	text, err := s.extractor.ExtractText(r.Context(), bytes.NewReader(data))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	result, err := s.pipeline.Process(r.Context(), header.Filename, text, r.FormValue("index_name"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	metrics.DocumentsProcessedTotal.
		WithLabelValues(string(result.Category), string(result.Source)).Inc()

	writeJSON(w, http.StatusCreated, uploadResponse{
		DocumentID: result.DocumentID,
		IndexName:  result.IndexName,
		Category:   string(result.Category),
		Confidence: result.Confidence,
		Source:     string(result.Source),
		Fields:     result.Fields,
	})
}

// searchRequest is the POST /indexes/{name}/search payload.
type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchHit struct {
	DocumentID string  `json:"document_id"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
	Rank       int     `json:"rank"`
}

type searchResponse struct {
	IndexName string      `json:"index_name"`
	Hits      []searchHit `json:"hits"`
	Total     int         `json:"total"`
}

// SearchIndex handles POST /indexes/{name}/search.
func (s *Server) SearchIndex(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "query is required")
		return
	}
	if req.TopK < 0 || req.TopK > s.maxTopK {
		writeError(w, http.StatusBadRequest, "validation_failed",
			fmt.Sprintf("top_k must be between 0 and %d (0 applies the default)", s.maxTopK))
		return
	}
	if req.TopK == 0 {
		req.TopK = s.defaultTopK
	}

	hits, err := s.search.Search(r.Context(), name, req.Query, req.TopK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]searchHit, len(hits))
	for i, h := range hits {
		items[i] = searchHit{
			DocumentID: h.DocumentID,
			Snippet:    snippet(h.Content),
			Score:      h.Score,
			Rank:       h.Rank,
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		IndexName: name,
		Hits:      items,
		Total:     len(items),
	})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.health))
	for i, hc := range s.health {
		key := fmt.Sprintf("check_%d", i)
		if named, ok := hc.(interface{ Name() string }); ok {
			key = named.Name()
		}
		if err := hc.HealthCheck(r.Context()); err != nil {
			checks[key] = "unhealthy"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[key] = "healthy"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// snippet truncates content for the search response.
func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetMaxRunes {
		return content
	}
	return string(runes[:snippetMaxRunes]) + "…"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrCorruptDocument,
		domain.ErrEmptyDocument,
		domain.ErrIndexNotFound,
		domain.ErrExtractionUnavailable,
		domain.ErrModelUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.FromContext(r.Context())
	l.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	l.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
