package pipeline

import (
	"context"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Classifier assigns a category to document text. Degradation inside the
// classifier (scorer outages) is not an error at this level.
type Classifier interface {
	Classify(ctx context.Context, text string) domain.Classification
}

// FieldExtractor dispatches category-specific structured extraction.
type FieldExtractor interface {
	Extract(category domain.Category, text string) domain.Fields
}

// Indexer appends document text to a named semantic index.
type Indexer interface {
	Add(ctx context.Context, indexName, documentID, text string) error
}
