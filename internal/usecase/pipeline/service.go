// Package pipeline sequences document ingestion: classification, field
// extraction, and semantic indexing.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/logger"
)

// DefaultIndexName is used when the caller does not name an index.
const DefaultIndexName = "default"

// Result is the merged outcome of one processed document.
type Result struct {
	DocumentID string
	IndexName  string
	Category   domain.Category
	Confidence float64
	Source     domain.Source
	Fields     domain.Fields
}

// Service orchestrates the ingestion pipeline.
type Service struct {
	classifier Classifier
	extractors FieldExtractor
	indexer    Indexer
}

// New creates a pipeline service.
func New(classifier Classifier, extractors FieldExtractor, indexer Indexer) *Service {
	return &Service{classifier: classifier, extractors: extractors, indexer: indexer}
}

// Process classifies text, extracts category-specific fields, and indexes the
// text under indexName. Extraction is skipped entirely for Unclassifiable
// documents: no fields are ever fabricated for them.
func (s *Service) Process(ctx context.Context, documentID, text, indexName string) (Result, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	cls := s.classifier.Classify(ctx, text)

	fields := domain.Fields{}
	if cls.Category != domain.CategoryUnclassifiable {
		fields = s.extractors.Extract(cls.Category, text)
	}

	if err := s.indexer.Add(ctx, indexName, documentID, text); err != nil {
		return Result{}, domain.NewStageError("indexing", indexName, documentID, err)
	}

	logger.FromContext(ctx).Info("document processed",
		zap.String("document_id", documentID),
		zap.String("index_name", indexName),
		zap.String("category", string(cls.Category)),
		zap.Float64("confidence", cls.Confidence),
		zap.String("source", string(cls.Source)),
		zap.Int("fields", len(fields)),
	)

	return Result{
		DocumentID: documentID,
		IndexName:  indexName,
		Category:   cls.Category,
		Confidence: cls.Confidence,
		Source:     cls.Source,
		Fields:     fields,
	}, nil
}
