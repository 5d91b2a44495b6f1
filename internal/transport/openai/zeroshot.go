package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
)

const zeroShotSystemPrompt = `You are a document classifier. You receive a document text and a list of category labels. Respond with a JSON object mapping every label to a probability between 0 and 1. The probabilities must cover all labels and should sum to 1. Respond with the JSON object only, no prose.`

// ZeroShotScorer scores documents against category labels via chat completion.
type ZeroShotScorer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// ScorerConfig holds the zero-shot scorer settings.
type ScorerConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewZeroShotScorer creates a chat-based zero-shot scorer.
func NewZeroShotScorer(cfg *ScorerConfig) *ZeroShotScorer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &ZeroShotScorer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Score implements domain.Scorer. The returned map covers every requested
// label and is normalized to sum to 1.
func (s *ZeroShotScorer) Score(ctx context.Context, text string, labels []domain.Category) (map[domain.Category]float64, error) {
	names := make([]string, len(labels))
	for i, label := range labels {
		names[i] = string(label)
	}

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: zeroShotSystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Labels: %s\n\nDocument:\n%s",
					strings.Join(names, ", "), text),
			},
		},
	}

	start := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.ScoringRequestsTotal.WithLabelValues(s.model, "error").Inc()
		return nil, parseAPIError("scoring", err, domain.ErrModelUnavailable)
	}

	if len(resp.Choices) == 0 {
		metrics.ScoringRequestsTotal.WithLabelValues(s.model, "error").Inc()
		return nil, fmt.Errorf("empty scoring response: %w", domain.ErrModelUnavailable)
	}

	scores, err := parseScores(resp.Choices[0].Message.Content, labels)
	if err != nil {
		metrics.ScoringRequestsTotal.WithLabelValues(s.model, "error").Inc()
		return nil, err
	}

	metrics.ScoringRequestsTotal.WithLabelValues(s.model, "success").Inc()
	metrics.ScoringRequestDuration.WithLabelValues(s.model).Observe(duration.Seconds())

	return scores, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (s *ZeroShotScorer) HealthCheck(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseScores decodes the model's JSON object and normalizes it over the
// requested labels. Missing labels count as 0; negatives are clamped to 0.
func parseScores(content string, labels []domain.Category) (map[domain.Category]float64, error) {
	var raw map[string]float64
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("malformed scoring response: %w", domain.ErrModelUnavailable)
	}

	scores := make(map[domain.Category]float64, len(labels))
	var sum float64
	for _, label := range labels {
		v := raw[string(label)]
		if v < 0 {
			v = 0
		}
		scores[label] = v
		sum += v
	}
	if sum <= 0 {
		return nil, fmt.Errorf("scoring response has no mass over labels: %w", domain.ErrModelUnavailable)
	}
	for label := range scores {
		scores[label] /= sum
	}
	return scores, nil
}
