package classify

import (
	"context"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Scorer is the zero-shot scoring contract. Returned scores cover every
// requested label and sum to 1.
type Scorer interface {
	Score(ctx context.Context, text string, labels []domain.Category) (map[domain.Category]float64, error)
}
