package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptDocument signals an unreadable or unparseable PDF.
	ErrCorruptDocument = errors.New("corrupt document")
	// ErrModelUnavailable signals that the zero-shot scoring capability errored or timed out.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrExtractionUnavailable signals an embedding failure during add or search.
	ErrExtractionUnavailable = errors.New("extraction unavailable")
	// ErrIndexNotFound signals a missing index.
	ErrIndexNotFound = errors.New("index not found")
	// ErrEmptyDocument signals a PDF that yielded no text at all.
	ErrEmptyDocument = errors.New("empty document")
)

// StageError wraps a pipeline failure with enough context to diagnose it.
type StageError struct {
	Stage      string
	IndexName  string
	DocumentID string
	Err        error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed for document %q in index %q: %v",
		e.Stage, e.DocumentID, e.IndexName, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError creates a stage error.
func NewStageError(stage, indexName, documentID string, err error) error {
	return &StageError{Stage: stage, IndexName: indexName, DocumentID: documentID, Err: err}
}
