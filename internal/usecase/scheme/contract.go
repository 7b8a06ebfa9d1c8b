package scheme

import (
	"context"
	"time"

	"github.com/kailas-cloud/schemedex/internal/domain/search/result"
	"github.com/kailas-cloud/schemedex/internal/index"
)

// Searcher is the slice of the search service this usecase consumes.
type Searcher interface {
	Embed(text string) []float32
	BulkUpsert(ctx context.Context, docs []index.Document) error
	HybridSearch(ctx context.Context, queryText string, queryEmbedding []float32, topK int) ([]result.Result, error)
}

// ResultCache memoizes serialized search results.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
