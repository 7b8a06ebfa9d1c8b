package search

import (
	"github.com/kailas-cloud/schemedex/internal/domain/search/filter"
	"github.com/kailas-cloud/schemedex/internal/domain/search/result"
	"github.com/kailas-cloud/schemedex/internal/index"
)

// Engine is the retrieval engine contract, implemented by *index.Index.
// Implementations are not safe for concurrent use; the Service
// serializes access.
type Engine interface {
	Upsert(docID string, embedding []float32, metadata map[string]any) error
	BulkUpsert(docs []index.Document) error
	Search(queryEmbedding []float32, topK int, f filter.Filter) ([]result.Result, error)
	HybridSearch(queryText string, queryEmbedding []float32, topK int) ([]result.Result, error)
	KeywordSearch(queryText string, topK int) ([]result.Result, error)
	Size() int
	Dim() int
}

// Embedder vectorizes text. The same embedder must be used for documents
// and queries, or cosine similarity is meaningless.
type Embedder interface {
	Embed(text string) []float32
	Dim() int
}
