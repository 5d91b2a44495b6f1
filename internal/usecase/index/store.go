// Package index implements the per-name semantic index store: append-only
// named collections of embedded documents with brute-force cosine search.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Store owns every named index. Indexes are created lazily on first Add and
// survive restarts through the snapshot repository. Writers to one index are
// serialized; readers see either the pre- or post-write state. Distinct index
// names never contend.
type Store struct {
	repo  Repository
	embed domain.Embedder

	mu      sync.Mutex // guards the map itself, not index contents
	indexes map[string]*namedIndex
}

// namedIndex holds one index's entries. The i-th entry's Vector is the i-th
// stored vector; appends keep that correspondence, and nothing reorders.
type namedIndex struct {
	mu      sync.RWMutex
	entries []domain.IndexEntry
}

// NewStore creates an index store.
func NewStore(repo Repository, embed domain.Embedder) *Store {
	return &Store{
		repo:    repo,
		embed:   embed,
		indexes: make(map[string]*namedIndex),
	}
}

// LoadAll restores every persisted index. Called once on startup.
func (s *Store) LoadAll(ctx context.Context) error {
	names, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		snap, err := s.repo.Load(ctx, name)
		if err != nil {
			return fmt.Errorf("load index %q: %w", name, err)
		}
		s.indexes[name] = &namedIndex{entries: snap.Entries}
	}
	return nil
}

// Add embeds text and appends it to the named index, creating the index if
// absent. The snapshot is persisted before Add returns; on a persistence
// failure the in-memory index is left untouched.
func (s *Store) Add(ctx context.Context, indexName, documentID, text string) error {
	result, err := s.embed.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed document %q for index %q: %s: %w",
			documentID, indexName, err, domain.ErrExtractionUnavailable)
	}

	idx := s.index(indexName)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	entries := make([]domain.IndexEntry, len(idx.entries)+1)
	copy(entries, idx.entries)
	entries[len(entries)-1] = domain.IndexEntry{
		DocumentID: documentID,
		Content:    text,
		Vector:     result.Embedding,
	}

	snap := domain.IndexSnapshot{Name: indexName, Entries: entries}
	if err := s.repo.Save(ctx, snap); err != nil {
		return fmt.Errorf("persist index %q: %w", indexName, err)
	}

	idx.entries = entries
	return nil
}

// Search embeds the query and returns the topK most similar entries in
// strictly descending score order, ties broken by insertion order. A name
// that was never populated yields an empty result, not an error.
func (s *Store) Search(ctx context.Context, indexName, query string, topK int) ([]domain.SearchHit, error) {
	s.mu.Lock()
	idx, ok := s.indexes[indexName]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	result, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query for index %q: %s: %w",
			indexName, err, domain.ErrExtractionUnavailable)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]domain.SearchHit, len(idx.entries))
	for i, entry := range idx.entries {
		hits[i] = domain.SearchHit{
			DocumentID: entry.DocumentID,
			Content:    entry.Content,
			Score:      cosineSimilarity(result.Embedding, entry.Vector),
		}
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if topK > len(hits) {
		topK = len(hits)
	}
	if topK < 0 {
		topK = 0
	}
	hits = hits[:topK]
	for i := range hits {
		hits[i].Rank = i + 1
	}
	return hits, nil
}

// Count returns the number of entries in the named index, 0 if absent.
func (s *Store) Count(indexName string) int {
	s.mu.Lock()
	idx, ok := s.indexes[indexName]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// index returns the named index, creating it lazily.
func (s *Store) index(name string) *namedIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[name]
	if !ok {
		idx = &namedIndex{}
		s.indexes[name] = idx
	}
	return idx
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
