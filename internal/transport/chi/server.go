// Package chi exposes the retrieval engine and scheme discovery over
// HTTP on a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/schemedex/internal/domain"
	"github.com/kailas-cloud/schemedex/internal/domain/search/filter"
	"github.com/kailas-cloud/schemedex/internal/domain/search/mode"
	"github.com/kailas-cloud/schemedex/internal/domain/search/result"
	"github.com/kailas-cloud/schemedex/internal/index"
	healthuc "github.com/kailas-cloud/schemedex/internal/usecase/health"
	schemeuc "github.com/kailas-cloud/schemedex/internal/usecase/scheme"
	searchuc "github.com/kailas-cloud/schemedex/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Options bounds request parameters.
type Options struct {
	DefaultTopK  int
	MaxTopK      int
	MaxBatchSize int
}

// Server handles the HTTP API.
type Server struct {
	search        *searchuc.Service
	schemes       *schemeuc.Service
	health        *healthuc.Service
	answerer      AnswerComposer
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. answerer may be nil; /ask then
// responds 501.
func NewServer(
	search *searchuc.Service,
	schemes *schemeuc.Service,
	health *healthuc.Service,
	answerer AnswerComposer,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = 10
	}
	if opts.MaxTopK <= 0 {
		opts.MaxTopK = 100
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:   search,
		schemes:  schemes,
		health:   health,
		answerer: answerer,
		opts:     opts,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, codeDimensionMismatch),
		sentinelHandler(domain.ErrInvalidTopK, http.StatusBadRequest, codeInvalidTopK),
		sentinelHandler(domain.ErrEmptyBatch, http.StatusBadRequest, codeEmptyBatch),
		sentinelHandler(domain.ErrSchemeNotFound, http.StatusNotFound, codeSchemeNotFound),
		sentinelHandler(domain.ErrAnswerNotConfigured, http.StatusNotImplemented, codeAnswerNotConfigured),
		sentinelHandler(domain.ErrAnswerProviderError, http.StatusBadGateway, codeAnswerProviderError),
	}
	return s
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Put("/documents/{id}", s.UpsertDocument)
		r.Post("/documents:batch", s.BatchUpsert)
		r.Post("/search", s.Search)
		r.Post("/search/hybrid", s.HybridSearch)
		r.Post("/schemes/search", s.SearchSchemes)
		r.Get("/schemes/{id}", s.GetScheme)
		r.Post("/ask", s.Ask)
	})
	r.Get("/healthz", s.HealthCheck)
	r.Get("/stats", s.Stats)
	r.Get("/metrics", s.Metrics)
}

// UpsertDocument handles PUT /api/v1/documents/{id}.
func (s *Server) UpsertDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "document id is required")
		return
	}

	var req upsertDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	embedding, err := s.resolveEmbedding(req.Text, req.Embedding)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	if err := s.search.Upsert(r.Context(), id, embedding, req.Metadata); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, upsertDocumentResponse{
		DocID:      id,
		CorpusSize: s.search.CorpusSize(),
	})
}

// BatchUpsert handles POST /api/v1/documents:batch.
func (s *Server) BatchUpsert(w http.ResponseWriter, r *http.Request) {
	var req batchUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Documents) == 0 || len(req.Documents) > s.opts.MaxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmtCountBounds("documents", s.opts.MaxBatchSize))
		return
	}

	docs := make([]index.Document, 0, len(req.Documents))
	for _, item := range req.Documents {
		if item.ID == "" {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "document id is required")
			return
		}
		embedding, err := s.resolveEmbedding(item.Text, item.Embedding)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "document "+item.ID+": "+err.Error())
			return
		}
		docs = append(docs, index.Document{
			ID:        item.ID,
			Embedding: embedding,
			Metadata:  item.Metadata,
		})
	}

	if err := s.search.BulkUpsert(r.Context(), docs); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, batchUpsertResponse{
		Indexed:    len(docs),
		CorpusSize: s.search.CorpusSize(),
	})
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	topK, ok := s.resolveTopK(w, req.TopK)
	if !ok {
		return
	}

	m, err := mode.Parse(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	if len(req.Filter) > 0 && m != mode.Semantic {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"filter is only supported in semantic mode")
		return
	}

	f, err := filter.New(req.Filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	results, err := s.dispatchSearch(r, m, req, topK, f)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := resultsToItems(results)
	writeJSON(w, http.StatusOK, searchResponse{Results: items, Count: len(items)})
}

func (s *Server) dispatchSearch(
	r *http.Request, m mode.Mode, req searchRequest, topK int, f filter.Filter,
) ([]result.Result, error) {
	ctx := r.Context()
	switch m {
	case mode.Keyword:
		if req.Query == "" {
			return nil, errValidation("query is required for keyword search")
		}
		return s.search.KeywordSearch(ctx, req.Query, topK)
	case mode.Semantic:
		embedding := req.Embedding
		if len(embedding) == 0 {
			if req.Query == "" {
				return nil, errValidation("query or embedding is required")
			}
			embedding = s.search.Embed(req.Query)
		}
		return s.search.Search(ctx, embedding, topK, f)
	default:
		if req.Query == "" {
			return nil, errValidation("query is required for hybrid search")
		}
		embedding := req.Embedding
		if len(embedding) == 0 {
			embedding = s.search.Embed(req.Query)
		}
		return s.search.HybridSearch(ctx, req.Query, embedding, topK)
	}
}

// HybridSearch handles POST /api/v1/search/hybrid.
func (s *Server) HybridSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}

	topK, ok := s.resolveTopK(w, req.TopK)
	if !ok {
		return
	}

	embedding := req.Embedding
	if len(embedding) == 0 {
		embedding = s.search.Embed(req.Query)
	}

	results, err := s.search.HybridSearch(r.Context(), req.Query, embedding, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := resultsToItems(results)
	writeJSON(w, http.StatusOK, searchResponse{Results: items, Count: len(items)})
}

// SearchSchemes handles POST /api/v1/schemes/search.
func (s *Server) SearchSchemes(w http.ResponseWriter, r *http.Request) {
	var req schemeSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}

	topK, ok := s.resolveTopK(w, req.TopK)
	if !ok {
		return
	}

	matches, err := s.schemes.SearchSchemes(r.Context(), req.Query, req.Language, req.Profile, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, schemeSearchResponse{Schemes: matches, Count: len(matches)})
}

// GetScheme handles GET /api/v1/schemes/{id}.
func (s *Server) GetScheme(w http.ResponseWriter, r *http.Request) {
	sc, err := s.schemes.Scheme(chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// Ask handles POST /api/v1/ask: hybrid-retrieve schemes, then compose a
// grounded answer.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "question is required")
		return
	}
	if s.answerer == nil {
		s.handleDomainError(w, domain.ErrAnswerNotConfigured)
		return
	}

	topK, ok := s.resolveTopK(w, req.TopK)
	if !ok {
		return
	}

	matches, err := s.schemes.SearchSchemes(r.Context(), req.Question, req.Language, req.Profile, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	answer, err := s.answerer.Answer(r.Context(), req.Question, matches)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{Answer: answer, Schemes: matches})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		CorpusSize:   s.search.CorpusSize(),
		EmbeddingDim: s.search.EmbeddingDim(),
		SchemeCount:  s.schemes.Count(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// resolveEmbedding embeds text when no vector was supplied.
func (s *Server) resolveEmbedding(text string, embedding []float32) ([]float32, error) {
	if len(embedding) > 0 {
		return embedding, nil
	}
	if text == "" {
		return nil, errValidation("text or embedding is required")
	}
	return s.search.Embed(text), nil
}

// resolveTopK applies the default and upper bound. Writes the error
// response itself and returns ok=false when out of range.
func (s *Server) resolveTopK(w http.ResponseWriter, topK int) (int, bool) {
	if topK == 0 {
		return s.opts.DefaultTopK, true
	}
	if topK < 0 || topK > s.opts.MaxTopK {
		writeError(w, http.StatusBadRequest, codeInvalidTopK,
			fmtCountBounds("top_k", s.opts.MaxTopK))
		return 0, false
	}
	return topK, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDimensionMismatch,
		domain.ErrInvalidTopK,
		domain.ErrEmptyBatch,
		domain.ErrSchemeNotFound,
		domain.ErrAnswerNotConfigured,
		domain.ErrAnswerProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	var ve validationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, ve.Error())
		return
	}

	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
