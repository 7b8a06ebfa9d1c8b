package result

// Result is a single search hit.
type Result struct {
	docID    string
	score    float64
	metadata map[string]any
}

// New creates a search result.
func New(docID string, score float64, metadata map[string]any) Result {
	return Result{docID: docID, score: score, metadata: metadata}
}

// DocID returns the document identifier.
func (r *Result) DocID() string { return r.docID }

// Score returns the relevance score. Cosine similarity for semantic
// results, BM25 for keyword results, fused RRF score for hybrid results.
func (r *Result) Score() float64 { return r.score }

// Metadata returns the metadata stored with the document.
func (r *Result) Metadata() map[string]any { return r.metadata }

// WithScore returns a copy of the result carrying a different score.
func (r *Result) WithScore(score float64) Result {
	return Result{docID: r.docID, score: score, metadata: r.metadata}
}
