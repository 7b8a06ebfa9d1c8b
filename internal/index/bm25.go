package index

import (
	"math"
	"strings"

	"github.com/kailas-cloud/schemedex/internal/embedding"
)

// BM25 parameters: k1 controls term-frequency saturation, b controls
// document-length normalization.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// stopwords is a small static English stopword set removed before
// keyword counting. Embedding tokenization keeps these words.
var stopwords = map[string]struct{}{}

func init() {
	const words = "a an the is are was were be been being " +
		"have has had do does did will would shall " +
		"should may might must can could am not no " +
		"nor so and but or if for of to in on " +
		"at by up as it its he she we they i " +
		"me my you your this that these those with " +
		"from what which who whom how all each every " +
		"any few more most other some such than too " +
		"very just also about over after before"
	for _, w := range strings.Fields(words) {
		stopwords[w] = struct{}{}
	}
}

// KeywordTokenize tokenizes text for BM25: the shared base tokenizer
// (lowercase, whitespace split, edge punctuation stripped, length <= 1
// dropped) with stopwords removed. No n-grams.
func KeywordTokenize(text string) []string {
	base := embedding.Tokenize(text)
	tokens := base[:0]
	for _, tok := range base {
		if _, skip := stopwords[tok]; !skip {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// searchableKeys are the metadata fields whose text feeds the keyword index.
var searchableKeys = []string{"name", "description", "benefits", "category", "ministry"}

// buildTermFreqs builds a term-frequency map over a document's
// searchable text fields, including custom eligibility criteria.
func buildTermFreqs(metadata map[string]any) map[string]int {
	var parts []string
	for _, key := range searchableKeys {
		if val, ok := metadata[key].(string); ok {
			parts = append(parts, val)
		}
	}
	if elig, ok := metadata["eligibility"].(map[string]any); ok {
		if criteria, ok := elig["custom_criteria"].([]any); ok {
			for _, c := range criteria {
				if s, ok := c.(string); ok {
					parts = append(parts, s)
				}
			}
		}
	}

	freq := make(map[string]int)
	for _, tok := range KeywordTokenize(strings.Join(parts, " ")) {
		freq[tok]++
	}
	return freq
}

// recomputeStats rebuilds the IDF table and average document length from
// the current corpus. Called after every mutation so queries never see
// stale statistics.
func (ix *Index) recomputeStats() {
	n := ix.Size()
	if n == 0 {
		ix.avgDocLen = 0
		ix.idf = make(map[string]float64)
		return
	}

	total := 0
	for _, dl := range ix.docLengths {
		total += dl
	}
	ix.avgDocLen = float64(total) / float64(n)

	// df(t) = number of rows in the postings list for t.
	idf := make(map[string]float64, len(ix.postings))
	for token, byRow := range ix.postings {
		df := float64(len(byRow))
		idf[token] = math.Log((float64(n)-df+0.5)/(df+0.5) + 1.0)
	}
	ix.idf = idf
}

// BM25Scores scores every document against the query tokens, returning
// one score per row (0 for documents sharing no tokens with the query,
// and for every document when the query has no recognized tokens).
//
// Scoring walks the inverted postings lists, so only documents
// containing at least one query token are touched.
func (ix *Index) BM25Scores(queryTokens []string) []float64 {
	scores := make([]float64, ix.Size())
	if len(queryTokens) == 0 || ix.Size() == 0 {
		return scores
	}

	avgdl := ix.avgDocLen
	if avgdl <= 0 {
		avgdl = 1
	}

	seen := make(map[string]struct{}, len(queryTokens))
	for _, token := range queryTokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}

		idf := ix.idf[token]
		if idf <= 0 {
			continue
		}
		for row, tf := range ix.postings[token] {
			dl := float64(ix.docLengths[row])
			num := float64(tf) * (bm25K1 + 1.0)
			den := float64(tf) + bm25K1*(1.0-bm25B+bm25B*dl/avgdl)
			scores[row] += idf * (num / den)
		}
	}
	return scores
}
