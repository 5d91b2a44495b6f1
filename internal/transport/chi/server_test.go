package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
	"github.com/kailas-cloud/docdex/internal/usecase/pipeline"
)

func TestMain(m *testing.M) {
	metrics.RegisterModelMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) ExtractText(_ context.Context, _ io.ReadSeeker) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

type mockClassifier struct {
	result domain.Classification
}

func (m *mockClassifier) Classify(_ context.Context, _ string) domain.Classification {
	return m.result
}

type mockFieldExtractor struct {
	fields domain.Fields
}

func (m *mockFieldExtractor) Extract(_ domain.Category, _ string) domain.Fields {
	return m.fields
}

type mockIndexer struct {
	err       error
	lastIndex string
}

func (m *mockIndexer) Add(_ context.Context, indexName, _, _ string) error {
	m.lastIndex = indexName
	return m.err
}

type mockSearcher struct {
	hits []domain.SearchHit
	err  error

	lastIndex string
	lastTopK  int
}

func (m *mockSearcher) Search(_ context.Context, indexName, _ string, topK int) ([]domain.SearchHit, error) {
	m.lastIndex = indexName
	m.lastTopK = topK
	return m.hits, m.err
}

type mockHealth struct {
	name string
	err  error
}

func (m *mockHealth) Name() string                        { return m.name }
func (m *mockHealth) HealthCheck(_ context.Context) error { return m.err }

func newTestServer(ex *mockExtractor, idx *mockIndexer, search *mockSearcher, health ...domain.HealthChecker) *Server {
	pipe := pipeline.New(
		&mockClassifier{result: domain.Classification{
			Category:   domain.CategoryInvoice,
			Confidence: 0.9,
			Source:     domain.SourceModel,
		}},
		&mockFieldExtractor{fields: domain.Fields{"invoice_number": "INV-1"}},
		idx,
	)
	return NewServer(ServerConfig{
		Pipeline:       pipe,
		Extractor:      ex,
		Search:         search,
		Health:         health,
		MaxUploadBytes: 1 << 20,
		DefaultTopK:    5,
		MaxTopK:        20,
		Logger:         zap.NewNop(),
	})
}

func multipartUpload(t *testing.T, filename, indexName string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(fw, "%PDF-1.7 fake body")
	if indexName != "" {
		if err := mw.WriteField("index_name", indexName); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

// --- Upload ---

func TestUploadDocument(t *testing.T) {
	idx := &mockIndexer{}
	srv := newTestServer(&mockExtractor{text: "Invoice #INV-1 total $10"}, idx, &mockSearcher{})
	router := srv.Router()

	body, contentType := multipartUpload(t, "inv.pdf", "invoices")
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, expected 201: %s", rec.Code, rec.Body.String())
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.DocumentID != "inv.pdf" {
		t.Errorf("document_id = %q, expected inv.pdf", resp.DocumentID)
	}
	if resp.IndexName != "invoices" {
		t.Errorf("index_name = %q, expected invoices", resp.IndexName)
	}
	if resp.Category != "Invoice" {
		t.Errorf("category = %q, expected Invoice", resp.Category)
	}
	if num, ok := resp.Fields.Str("invoice_number"); !ok || num != "INV-1" {
		t.Errorf("fields = %v, expected invoice_number INV-1", resp.Fields)
	}
	if idx.lastIndex != "invoices" {
		t.Errorf("indexer received index %q, expected invoices", idx.lastIndex)
	}
}

func TestUploadDocument_DefaultIndex(t *testing.T) {
	idx := &mockIndexer{}
	srv := newTestServer(&mockExtractor{text: "some text"}, idx, &mockSearcher{})
	router := srv.Router()

	body, contentType := multipartUpload(t, "doc.pdf", "")
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, expected 201: %s", rec.Code, rec.Body.String())
	}
	if idx.lastIndex != pipeline.DefaultIndexName {
		t.Errorf("indexer received index %q, expected %q", idx.lastIndex, pipeline.DefaultIndexName)
	}
}

func TestUploadDocument_MissingFile(t *testing.T) {
	srv := newTestServer(&mockExtractor{text: "x"}, &mockIndexer{}, &mockSearcher{})
	router := srv.Router()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("index_name", "invoices")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
}

func TestUploadDocument_CorruptPDF(t *testing.T) {
	srv := newTestServer(&mockExtractor{err: fmt.Errorf("open pdf: %w", domain.ErrCorruptDocument)},
		&mockIndexer{}, &mockSearcher{})
	router := srv.Router()

	body, contentType := multipartUpload(t, "broken.pdf", "")
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "corrupt_document") {
		t.Errorf("body %q missing corrupt_document code", rec.Body.String())
	}
}

func TestUploadDocument_EmbeddingOutage(t *testing.T) {
	idx := &mockIndexer{err: fmt.Errorf("embed: %w", domain.ErrExtractionUnavailable)}
	srv := newTestServer(&mockExtractor{text: "some text"}, idx, &mockSearcher{})
	router := srv.Router()

	body, contentType := multipartUpload(t, "doc.pdf", "")
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, expected 502: %s", rec.Code, rec.Body.String())
	}
}

// --- Search ---

func TestSearchIndex(t *testing.T) {
	search := &mockSearcher{hits: []domain.SearchHit{
		{DocumentID: "a.pdf", Content: "alpha content", Score: 0.92, Rank: 1},
		{DocumentID: "b.pdf", Content: "beta content", Score: 0.41, Rank: 2},
	}}
	srv := newTestServer(&mockExtractor{}, &mockIndexer{}, search)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/indexes/invoices/search",
		strings.NewReader(`{"query": "alpha", "top_k": 2}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200: %s", rec.Code, rec.Body.String())
	}
	if search.lastIndex != "invoices" {
		t.Errorf("search index = %q, expected invoices", search.lastIndex)
	}
	if search.lastTopK != 2 {
		t.Errorf("top_k = %d, expected 2", search.lastTopK)
	}

	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("total = %d, expected 2", resp.Total)
	}
	if resp.Hits[0].DocumentID != "a.pdf" || resp.Hits[0].Rank != 1 {
		t.Errorf("first hit = %+v, expected a.pdf rank 1", resp.Hits[0])
	}
}

func TestSearchIndex_DefaultTopK(t *testing.T) {
	search := &mockSearcher{}
	srv := newTestServer(&mockExtractor{}, &mockIndexer{}, search)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/indexes/docs/search",
		strings.NewReader(`{"query": "anything"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	if search.lastTopK != 5 {
		t.Errorf("top_k = %d, expected default 5", search.lastTopK)
	}
}

func TestSearchIndex_EmptyQuery(t *testing.T) {
	srv := newTestServer(&mockExtractor{}, &mockIndexer{}, &mockSearcher{})
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/indexes/docs/search",
		strings.NewReader(`{"top_k": 3}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
}

func TestSearchIndex_TopKTooLarge(t *testing.T) {
	srv := newTestServer(&mockExtractor{}, &mockIndexer{}, &mockSearcher{})
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/indexes/docs/search",
		strings.NewReader(`{"query": "q", "top_k": 1000}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
	// The message states the accepted range: 0 is valid and applies the default.
	if !strings.Contains(rec.Body.String(), "between 0 and 20") {
		t.Errorf("body = %s, expected range message covering 0", rec.Body.String())
	}
}

func TestSearchIndex_NegativeTopK(t *testing.T) {
	srv := newTestServer(&mockExtractor{}, &mockIndexer{}, &mockSearcher{})
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/indexes/docs/search",
		strings.NewReader(`{"query": "q", "top_k": -1}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
}

func TestSearchIndex_UnknownIndexIsEmpty(t *testing.T) {
	srv := newTestServer(&mockExtractor{}, &mockIndexer{}, &mockSearcher{hits: nil})
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/indexes/never-populated/search",
		strings.NewReader(`{"query": "q"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 0 || len(resp.Hits) != 0 {
		t.Errorf("expected empty result, got %+v", resp)
	}
}

// --- Health ---

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(&mockExtractor{}, &mockIndexer{}, &mockSearcher{},
		&mockHealth{name: "embedding"})
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"embedding":"healthy"`) {
		t.Errorf("body = %s, expected embedding healthy", rec.Body.String())
	}
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	srv := newTestServer(&mockExtractor{}, &mockIndexer{}, &mockSearcher{},
		&mockHealth{name: "embedding", err: fmt.Errorf("connection refused")})
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, expected 503", rec.Code)
	}
}

// --- Request ID ---

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(&mockExtractor{}, &mockIndexer{}, &mockSearcher{})
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}
}
