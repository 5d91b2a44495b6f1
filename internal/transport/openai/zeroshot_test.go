package openai

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		})
	}))
}

func TestZeroShotScorer_Score(t *testing.T) {
	server := chatServer(t, `{"Invoice": 0.7, "Resume": 0.1, "UtilityBill": 0.1, "Other": 0.1}`)
	defer server.Close()

	scorer := NewZeroShotScorer(&ScorerConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	scores, err := scorer.Score(context.Background(), "Invoice #42", domain.ScoringLabels())
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if len(scores) != 4 {
		t.Fatalf("expected 4 labels, got %d", len(scores))
	}
	if scores[domain.CategoryInvoice] != 0.7 {
		t.Errorf("Invoice score = %f, expected 0.7", scores[domain.CategoryInvoice])
	}

	var sum float64
	for _, v := range scores {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("scores sum to %f, expected 1", sum)
	}
}

func TestZeroShotScorer_NormalizesScores(t *testing.T) {
	// Model returned unnormalized mass and a negative value.
	server := chatServer(t, `{"Invoice": 3, "Resume": 1, "UtilityBill": -2, "Other": 0}`)
	defer server.Close()

	scorer := NewZeroShotScorer(&ScorerConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	scores, err := scorer.Score(context.Background(), "text", domain.ScoringLabels())
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if math.Abs(scores[domain.CategoryInvoice]-0.75) > 1e-9 {
		t.Errorf("Invoice score = %f, expected 0.75", scores[domain.CategoryInvoice])
	}
	if scores[domain.CategoryUtilityBill] != 0 {
		t.Errorf("negative score not clamped: %f", scores[domain.CategoryUtilityBill])
	}
}

func TestZeroShotScorer_MissingLabelsDefaultToZero(t *testing.T) {
	server := chatServer(t, `{"Invoice": 1}`)
	defer server.Close()

	scorer := NewZeroShotScorer(&ScorerConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	scores, err := scorer.Score(context.Background(), "text", domain.ScoringLabels())
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if scores[domain.CategoryInvoice] != 1 {
		t.Errorf("Invoice score = %f, expected 1", scores[domain.CategoryInvoice])
	}
	if scores[domain.CategoryResume] != 0 {
		t.Errorf("Resume score = %f, expected 0", scores[domain.CategoryResume])
	}
}

func TestZeroShotScorer_MalformedResponse(t *testing.T) {
	server := chatServer(t, `the document looks like an invoice`)
	defer server.Close()

	scorer := NewZeroShotScorer(&ScorerConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	_, err := scorer.Score(context.Background(), "text", domain.ScoringLabels())
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestZeroShotScorer_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "model overloaded", "type": "server_error"},
		})
	}))
	defer server.Close()

	scorer := NewZeroShotScorer(&ScorerConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	_, err := scorer.Score(context.Background(), "text", domain.ScoringLabels())
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestZeroShotScorer_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": []any{}})
	}))
	defer server.Close()

	scorer := NewZeroShotScorer(&ScorerConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	if err := scorer.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}

func TestZeroShotScorer_HealthCheckDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	scorer := NewZeroShotScorer(&ScorerConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	if err := scorer.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected error when the API is down")
	}
}

func TestZeroShotScorer_ZeroMass(t *testing.T) {
	server := chatServer(t, `{"Invoice": 0, "Resume": 0, "UtilityBill": 0, "Other": 0}`)
	defer server.Close()

	scorer := NewZeroShotScorer(&ScorerConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	_, err := scorer.Score(context.Background(), "text", domain.ScoringLabels())
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable for zero mass, got %v", err)
	}
}
