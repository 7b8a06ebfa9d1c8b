package index

import (
	"sort"

	"github.com/kailas-cloud/schemedex/internal/domain"
	"github.com/kailas-cloud/schemedex/internal/domain/search/result"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from
// Cormack et al. 2009). It down-weights rank differences far from the top.
const rrfK = 60

// HybridSearch fuses the semantic and keyword rankings via Reciprocal
// Rank Fusion: each document is ranked 1..n within both orderings over
// the full corpus, and its fused score is
//
//	1/(rrfK + rank_semantic) + 1/(rrfK + rank_keyword)
//
// Rank-based fusion needs no calibration between the incomparable score
// scales, and unlike Search it never excludes a document for a low raw
// similarity — strong keyword relevance alone can surface a result.
func (ix *Index) HybridSearch(queryText string, queryEmbedding []float32, topK int) ([]result.Result, error) {
	if err := ix.checkDim(queryEmbedding); err != nil {
		return nil, err
	}
	if topK < 1 {
		return nil, domain.ErrInvalidTopK
	}
	if ix.Size() == 0 || IsZeroNorm(queryEmbedding) {
		return []result.Result{}, nil
	}

	semantic := ix.cosineScores(queryEmbedding)
	keyword := ix.BM25Scores(KeywordTokenize(queryText))

	semRanks := ix.ranks(semantic)
	kwRanks := ix.ranks(keyword)

	fused := make([]float64, ix.Size())
	for row := range fused {
		fused[row] = 1.0/float64(rrfK+semRanks[row]) + 1.0/float64(rrfK+kwRanks[row])
	}

	top := ix.selectTop(min(topK, ix.Size()), ix.byScore(fused))

	results := make([]result.Result, 0, len(top))
	for _, row := range top {
		results = append(results, result.New(ix.ids[row], fused[row], ix.metadata[row]))
	}
	return results, nil
}

// KeywordSearch ranks documents by BM25 alone, excluding zero scores.
func (ix *Index) KeywordSearch(queryText string, topK int) ([]result.Result, error) {
	if topK < 1 {
		return nil, domain.ErrInvalidTopK
	}
	if ix.Size() == 0 {
		return []result.Result{}, nil
	}

	scores := ix.BM25Scores(KeywordTokenize(queryText))
	top := ix.selectTop(min(topK, ix.Size()), ix.byScore(scores))

	results := make([]result.Result, 0, len(top))
	for _, row := range top {
		if scores[row] <= 0 {
			continue
		}
		results = append(results, result.New(ix.ids[row], scores[row], ix.metadata[row]))
	}
	return results, nil
}

// ranks assigns each row its 1-indexed rank under descending score,
// ascending doc_id on ties.
func (ix *Index) ranks(scores []float64) []int {
	order := make([]int, ix.Size())
	for i := range order {
		order[i] = i
	}
	better := ix.byScore(scores)
	sort.Slice(order, func(i, j int) bool { return better(order[i], order[j]) })

	ranks := make([]int, ix.Size())
	for pos, row := range order {
		ranks[row] = pos + 1
	}
	return ranks
}
