// Package classify implements hybrid document classification: a zero-shot
// model score fused with deterministic keyword evidence.
package classify

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/logger"
)

// minClassifiableRunes is the minimum amount of non-whitespace text worth
// sending to the model; anything shorter is Unclassifiable outright.
const minClassifiableRunes = 10

// maxScoringRunes bounds the text sample sent to the zero-shot scorer.
const maxScoringRunes = 2000

// Config holds fusion weights and thresholds.
type Config struct {
	// ModelWeight and RuleWeight combine the two score layers. ModelWeight
	// must be >= RuleWeight; config validation enforces this.
	ModelWeight float64
	RuleWeight  float64
	// ConfidenceFloor is the minimum fused score for a non-Unclassifiable label.
	ConfidenceFloor float64
	// RuleOverride is the rule score at which lexical evidence alone wins
	// against a disagreeing model.
	RuleOverride float64
	// Timeout bounds a single scorer call. Zero means no bound.
	Timeout time.Duration
}

// DefaultConfig returns the standard fusion parameters.
func DefaultConfig() Config {
	return Config{
		ModelWeight:     0.7,
		RuleWeight:      0.3,
		ConfidenceFloor: 0.35,
		RuleOverride:    0.6,
		Timeout:         30 * time.Second,
	}
}

// Service is the hybrid classifier.
type Service struct {
	scorer Scorer
	cfg    Config
}

// New creates a classification service. Zero config fields fall back to defaults.
func New(scorer Scorer, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.ModelWeight <= 0 {
		cfg.ModelWeight = def.ModelWeight
	}
	if cfg.RuleWeight <= 0 {
		cfg.RuleWeight = def.RuleWeight
	}
	if cfg.ConfidenceFloor <= 0 {
		cfg.ConfidenceFloor = def.ConfidenceFloor
	}
	if cfg.RuleOverride <= 0 {
		cfg.RuleOverride = def.RuleOverride
	}
	return &Service{scorer: scorer, cfg: cfg}
}

// Classify assigns one category to the document text.
//
// The model layer and the rule layer are scored independently, then fused with
// the configured weights. A rule score at or above the override threshold beats
// a disagreeing model outright. A fused winner below the confidence floor is
// demoted to Unclassifiable. Scorer failures degrade to rule-only scoring and
// are never surfaced as errors.
func (s *Service) Classify(ctx context.Context, text string) domain.Classification {
	if len([]rune(strings.TrimSpace(text))) < minClassifiableRunes {
		return domain.Classification{
			Category:   domain.CategoryUnclassifiable,
			Confidence: 0,
			Source:     domain.SourceRule,
		}
	}

	ruleScores := RuleScores(text)
	ruleTop, ruleBest := topRuleCategory(ruleScores)

	modelScores, err := s.score(ctx, text)
	if err != nil {
		logger.FromContext(ctx).Warn("zero-shot scorer unavailable, falling back to rules",
			zap.Error(err))
		return s.ruleOnly(ruleTop, ruleBest)
	}

	modelTop := topModelCategory(modelScores)

	// Authoritative lexical evidence overrides a disagreeing model.
	if ruleTop != modelTop && ruleBest >= s.cfg.RuleOverride {
		return domain.Classification{
			Category:   ruleTop,
			Confidence: ruleBest,
			Source:     domain.SourceRule,
		}
	}

	fused := make(map[domain.Category]float64, len(modelScores))
	for _, c := range domain.ScoringLabels() {
		fused[c] = s.cfg.ModelWeight*modelScores[c] + s.cfg.RuleWeight*ruleScores[c]
	}
	winner := fusedWinner(fused, ruleScores)

	source := domain.SourceHybrid
	if ruleBest > 0 && ruleTop == modelTop {
		source = domain.SourceModel
	}

	category := winner
	if fused[winner] < s.cfg.ConfidenceFloor {
		category = domain.CategoryUnclassifiable
	}

	return domain.Classification{
		Category:   category,
		Confidence: fused[winner],
		Source:     source,
	}
}

// score invokes the external scorer with the fixed label set, bounded by the
// configured timeout.
func (s *Service) score(ctx context.Context, text string) (map[domain.Category]float64, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	sample := text
	if runes := []rune(sample); len(runes) > maxScoringRunes {
		sample = string(runes[:maxScoringRunes])
	}
	return s.scorer.Score(ctx, sample, domain.ScoringLabels())
}

// ruleOnly is the degraded path when the scorer is unavailable. Only zero rule
// evidence yields Unclassifiable.
func (s *Service) ruleOnly(ruleTop domain.Category, ruleBest float64) domain.Classification {
	if ruleBest == 0 {
		return domain.Classification{
			Category:   domain.CategoryUnclassifiable,
			Confidence: 0,
			Source:     domain.SourceRule,
		}
	}
	return domain.Classification{
		Category:   ruleTop,
		Confidence: ruleBest,
		Source:     domain.SourceRule,
	}
}

// fusedWinner picks the highest fused score; ties prefer the category with the
// stronger rule score, then the fixed label order.
func fusedWinner(fused, ruleScores map[domain.Category]float64) domain.Category {
	labels := domain.ScoringLabels()
	winner := labels[0]
	for _, c := range labels[1:] {
		switch {
		case fused[c] > fused[winner]:
			winner = c
		case fused[c] == fused[winner] && ruleScores[c] > ruleScores[winner]:
			winner = c
		}
	}
	return winner
}

// topModelCategory returns the model's top label, ties broken by label order.
func topModelCategory(scores map[domain.Category]float64) domain.Category {
	labels := domain.ScoringLabels()
	top := labels[0]
	for _, c := range labels[1:] {
		if scores[c] > scores[top] {
			top = c
		}
	}
	return top
}
