// Package search exposes the retrieval engine to collaborators behind a
// single read-write lock: upserts take the write lock, queries the read
// lock. The engine itself is computation-only with no internal locking,
// and every query touches the whole corpus, so one coarse lock is the
// right granularity.
package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/schemedex/internal/domain"
	"github.com/kailas-cloud/schemedex/internal/domain/search/filter"
	"github.com/kailas-cloud/schemedex/internal/domain/search/mode"
	"github.com/kailas-cloud/schemedex/internal/domain/search/result"
	"github.com/kailas-cloud/schemedex/internal/index"
	"github.com/kailas-cloud/schemedex/internal/metrics"
)

// Service serializes access to the engine and adds logging and metrics.
type Service struct {
	mu     sync.RWMutex
	engine Engine
	embed  Embedder
	logger *zap.Logger
}

// New creates a search service.
func New(engine Engine, embed Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: engine, embed: embed, logger: logger}
}

// Upsert adds or overwrites a single document.
func (s *Service) Upsert(_ context.Context, docID string, embedding []float32, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.Upsert(docID, embedding, metadata); err != nil {
		return err
	}
	metrics.CorpusSize.Set(float64(s.engine.Size()))
	s.logger.Debug("indexed document", zap.String("doc_id", docID))
	return nil
}

// BulkUpsert indexes a batch of documents.
func (s *Service) BulkUpsert(_ context.Context, docs []index.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.BulkUpsert(docs); err != nil {
		return err
	}
	metrics.CorpusSize.Set(float64(s.engine.Size()))
	s.logger.Info("batch indexed",
		zap.Int("count", len(docs)), zap.Int("total", s.engine.Size()))
	return nil
}

// Search returns the topK most similar documents for a query embedding.
func (s *Service) Search(
	_ context.Context, queryEmbedding []float32, topK int, f filter.Filter,
) ([]result.Result, error) {
	if err := s.checkDim(queryEmbedding); err != nil {
		return nil, err
	}
	if s.rejectZeroNorm(queryEmbedding) {
		return []result.Result{}, nil
	}

	defer s.observe(mode.Semantic, time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Search(queryEmbedding, topK, f)
}

// HybridSearch fuses semantic and keyword rankings for a query.
func (s *Service) HybridSearch(
	_ context.Context, queryText string, queryEmbedding []float32, topK int,
) ([]result.Result, error) {
	if err := s.checkDim(queryEmbedding); err != nil {
		return nil, err
	}
	if s.rejectZeroNorm(queryEmbedding) {
		return []result.Result{}, nil
	}

	defer s.observe(mode.Hybrid, time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.HybridSearch(queryText, queryEmbedding, topK)
}

// KeywordSearch ranks documents by BM25 alone.
func (s *Service) KeywordSearch(_ context.Context, queryText string, topK int) ([]result.Result, error) {
	defer s.observe(mode.Keyword, time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.KeywordSearch(queryText, topK)
}

// SearchText embeds the query text and dispatches on mode. This is the
// entry point for callers that hold text rather than a vector.
func (s *Service) SearchText(
	ctx context.Context, m mode.Mode, queryText string, topK int, f filter.Filter,
) ([]result.Result, error) {
	switch m {
	case mode.Keyword:
		return s.KeywordSearch(ctx, queryText, topK)
	case mode.Semantic:
		return s.Search(ctx, s.embed.Embed(queryText), topK, f)
	default:
		return s.HybridSearch(ctx, queryText, s.embed.Embed(queryText), topK)
	}
}

// Embed exposes the shared text embedder (documents and queries must go
// through the same function).
func (s *Service) Embed(text string) []float32 { return s.embed.Embed(text) }

// CorpusSize returns the number of indexed documents.
func (s *Service) CorpusSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Size()
}

// EmbeddingDim returns the engine's vector dimensionality.
func (s *Service) EmbeddingDim() int { return s.engine.Dim() }

// checkDim fails loudly on malformed query embeddings before the
// zero-norm degradation can mask them.
func (s *Service) checkDim(queryEmbedding []float32) error {
	if len(queryEmbedding) != s.engine.Dim() {
		return fmt.Errorf("%w: got %d, want %d",
			domain.ErrDimensionMismatch, len(queryEmbedding), s.engine.Dim())
	}
	return nil
}

// rejectZeroNorm records the degenerate-query diagnostic. The query
// still yields an empty result, never an error.
func (s *Service) rejectZeroNorm(queryEmbedding []float32) bool {
	if !index.IsZeroNorm(queryEmbedding) {
		return false
	}
	metrics.ZeroNormQueriesTotal.Inc()
	s.logger.Warn("zero-norm query embedding, returning empty result")
	return true
}

func (s *Service) observe(m mode.Mode, start time.Time) {
	metrics.SearchesTotal.WithLabelValues(m.String()).Inc()
	metrics.SearchDuration.WithLabelValues(m.String()).Observe(time.Since(start).Seconds())
}
