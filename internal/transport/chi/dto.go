package chi

import (
	"github.com/kailas-cloud/schemedex/internal/domain/search/result"
	schemeuc "github.com/kailas-cloud/schemedex/internal/usecase/scheme"
)

// errorCode identifies a machine-readable error class.
type errorCode string

const (
	codeBadRequest          errorCode = "bad_request"
	codeValidationFailed    errorCode = "validation_failed"
	codeDimensionMismatch   errorCode = "dimension_mismatch"
	codeInvalidTopK         errorCode = "invalid_top_k"
	codeEmptyBatch          errorCode = "empty_batch"
	codeSchemeNotFound      errorCode = "scheme_not_found"
	codeAnswerNotConfigured errorCode = "answer_not_configured"
	codeAnswerProviderError errorCode = "answer_provider_error"
	codeInternalError       errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type upsertDocumentRequest struct {
	Text      string         `json:"text,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type upsertDocumentResponse struct {
	DocID      string `json:"doc_id"`
	CorpusSize int    `json:"corpus_size"`
}

type batchDocument struct {
	ID        string         `json:"id"`
	Text      string         `json:"text,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type batchUpsertRequest struct {
	Documents []batchDocument `json:"documents"`
}

type batchUpsertResponse struct {
	Indexed    int `json:"indexed"`
	CorpusSize int `json:"corpus_size"`
}

type searchRequest struct {
	Query     string         `json:"query,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
	Mode      string         `json:"mode,omitempty"`
	TopK      int            `json:"top_k,omitempty"`
	Filter    map[string]any `json:"filter,omitempty"`
}

type searchResultItem struct {
	DocID    string         `json:"doc_id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type searchResponse struct {
	Results []searchResultItem `json:"results"`
	Count   int                `json:"count"`
}

type schemeSearchRequest struct {
	Query    string            `json:"query"`
	Language string            `json:"language,omitempty"`
	Profile  *schemeuc.Profile `json:"profile,omitempty"`
	TopK     int               `json:"top_k,omitempty"`
}

type schemeSearchResponse struct {
	Schemes []schemeuc.Match `json:"schemes"`
	Count   int              `json:"count"`
}

type askRequest struct {
	Question string            `json:"question"`
	Language string            `json:"language,omitempty"`
	Profile  *schemeuc.Profile `json:"profile,omitempty"`
	TopK     int               `json:"top_k,omitempty"`
}

type askResponse struct {
	Answer  string           `json:"answer"`
	Schemes []schemeuc.Match `json:"schemes"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type statsResponse struct {
	CorpusSize   int `json:"corpus_size"`
	EmbeddingDim int `json:"embedding_dim"`
	SchemeCount  int `json:"scheme_count"`
}

func resultsToItems(results []result.Result) []searchResultItem {
	items := make([]searchResultItem, len(results))
	for i := range results {
		items[i] = searchResultItem{
			DocID:    results[i].DocID(),
			Score:    results[i].Score(),
			Metadata: results[i].Metadata(),
		}
	}
	return items
}
