// Package scheme implements scheme discovery on top of the retrieval
// engine: it owns the scheme catalog, converts schemes to searchable
// text and embeddings, answers natural-language queries via hybrid
// search with profile boosting, and memoizes results in the cache.
package scheme

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/schemedex/internal/domain"
	domscheme "github.com/kailas-cloud/schemedex/internal/domain/scheme"
	"github.com/kailas-cloud/schemedex/internal/index"
	"github.com/kailas-cloud/schemedex/internal/metrics"
)

// cacheTTL bounds how long memoized search results stay valid.
const cacheTTL = time.Hour

// Match is one enriched scheme search result.
type Match struct {
	SchemeID              string   `json:"scheme_id"`
	Name                  string   `json:"name"`
	NameTranslated        string   `json:"name_translated,omitempty"`
	Description           string   `json:"description"`
	DescriptionTranslated string   `json:"description_translated,omitempty"`
	Category              string   `json:"category"`
	Ministry              string   `json:"ministry"`
	Benefits              string   `json:"benefits"`
	ApplicationProcess    string   `json:"application_process"`
	DocumentsRequired     []string `json:"documents_required,omitempty"`
	Helpline              string   `json:"helpline,omitempty"`
	Website               string   `json:"website,omitempty"`
	Score                 float64  `json:"score"`
}

// Profile describes the querying user for relevance boosting.
type Profile struct {
	State      string `json:"state,omitempty"`
	Occupation string `json:"occupation,omitempty"`
	IsBPL      *bool  `json:"is_bpl,omitempty"`
}

// Service owns the scheme catalog and answers scheme queries.
type Service struct {
	mu      sync.RWMutex
	catalog map[string]domscheme.Scheme

	search Searcher
	cache  ResultCache
	logger *zap.Logger
}

// New creates a scheme search service. cache may be nil to disable
// result memoization.
func New(search Searcher, cache ResultCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog: make(map[string]domscheme.Scheme),
		search:  search,
		cache:   cache,
		logger:  logger,
	}
}

// Initialize indexes a collection of schemes. Each scheme's searchable
// text is embedded and batch-indexed together with its flat metadata.
func (s *Service) Initialize(ctx context.Context, schemes []domscheme.Scheme) error {
	if len(schemes) == 0 {
		s.logger.Warn("no schemes to index")
		return nil
	}

	docs := make([]index.Document, 0, len(schemes))
	for i := range schemes {
		sc := schemes[i]
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("validate scheme: %w", err)
		}
		docs = append(docs, index.Document{
			ID:        sc.ID,
			Embedding: s.search.Embed(sc.SearchText()),
			Metadata:  sc.Metadata(),
		})
	}

	if err := s.search.BulkUpsert(ctx, docs); err != nil {
		return fmt.Errorf("index schemes: %w", err)
	}

	s.mu.Lock()
	for i := range schemes {
		s.catalog[schemes[i].ID] = schemes[i]
	}
	s.mu.Unlock()

	s.logger.Info("scheme catalog initialized", zap.Int("scheme_count", len(schemes)))
	return nil
}

// SearchSchemes answers a natural-language query with a ranked list of
// enriched schemes. Results are memoized per (query, language, profile).
func (s *Service) SearchSchemes(
	ctx context.Context, query, language string, profile *Profile, topK int,
) ([]Match, error) {
	key := cacheKey(query, language, profile)

	if cached, ok := s.cachedMatches(ctx, key); ok {
		s.logger.Debug("scheme search cache hit", zap.String("query", query))
		return cached, nil
	}

	results, err := s.search.HybridSearch(ctx, query, s.search.Embed(query), topK)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}

	s.mu.RLock()
	matches := make([]Match, 0, len(results))
	for i := range results {
		sc, ok := s.catalog[results[i].DocID()]
		if !ok {
			continue
		}
		m := toMatch(&sc, results[i].Score(), language)
		if profile != nil {
			m.Score = boostScore(m.Score, &sc, profile)
		}
		matches = append(matches, m)
	}
	s.mu.RUnlock()

	// Re-sort after boosting; ties keep the fused order via scheme id.
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	s.storeMatches(ctx, key, matches)

	topScore := 0.0
	if len(matches) > 0 {
		topScore = matches[0].Score
	}
	s.logger.Info("scheme search",
		zap.String("query", query),
		zap.String("language", language),
		zap.Int("results", len(matches)),
		zap.Float64("top_score", topScore),
	)
	return matches, nil
}

// Scheme returns a single scheme by id.
func (s *Service) Scheme(id string) (domscheme.Scheme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.catalog[id]
	if !ok {
		return domscheme.Scheme{}, fmt.Errorf("%w: %s", domain.ErrSchemeNotFound, id)
	}
	return sc, nil
}

// SchemesByCategory returns every scheme in a category.
func (s *Service) SchemesByCategory(category domscheme.Category) []domscheme.Scheme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domscheme.Scheme
	for _, sc := range s.catalog {
		if sc.Category == category {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the catalog size.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.catalog)
}

func (s *Service) cachedMatches(ctx context.Context, key string) ([]Match, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.ResultCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	var matches []Match
	if err := json.Unmarshal(data, &matches); err != nil {
		metrics.ResultCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.ResultCacheTotal.WithLabelValues("hit").Inc()
	return matches, true
}

func (s *Service) storeMatches(ctx context.Context, key string, matches []Match) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(matches)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, cacheTTL); err != nil {
		s.logger.Warn("failed to cache search results", zap.Error(err))
	}
}

func toMatch(sc *domscheme.Scheme, score float64, language string) Match {
	m := Match{
		SchemeID:           sc.ID,
		Name:               sc.Name,
		Description:        sc.Description,
		Category:           string(sc.Category),
		Ministry:           sc.Ministry,
		Benefits:           sc.Benefits,
		ApplicationProcess: sc.ApplicationProcess,
		DocumentsRequired:  sc.DocumentsRequired,
		Helpline:           sc.Helpline,
		Website:            sc.Website,
		Score:              score,
	}
	if language != "" && language != "en" {
		m.NameTranslated = sc.NameTranslations[language]
		m.DescriptionTranslated = sc.DescriptionTranslations[language]
	}
	return m
}
