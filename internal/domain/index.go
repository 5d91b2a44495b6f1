package domain

// IndexEntry is one stored document within a named index. The i-th entry of an
// index always corresponds to the i-th stored vector; entries are never reordered.
type IndexEntry struct {
	DocumentID string
	Content    string
	Vector     []float32
}

// IndexSnapshot is the persistable state of one named index.
type IndexSnapshot struct {
	Name    string
	Entries []IndexEntry
}

// SearchHit is a single ranked similarity result. Ephemeral, computed per query.
type SearchHit struct {
	DocumentID string
	Content    string
	Score      float64
	Rank       int
}
