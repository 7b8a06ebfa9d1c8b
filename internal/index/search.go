package index

import (
	"math"

	"github.com/kailas-cloud/schemedex/internal/domain"
	"github.com/kailas-cloud/schemedex/internal/domain/search/filter"
	"github.com/kailas-cloud/schemedex/internal/domain/search/result"
)

// zeroNormEps is the threshold below which a vector norm counts as zero.
const zeroNormEps = 1e-10

// Search returns the topK documents most similar to the query embedding,
// ordered by descending cosine similarity (ascending doc_id on ties).
//
// The whole corpus is always scored; filters zero out non-matching
// documents after scoring so behavior is uniform regardless of filter
// selectivity. Documents with a final score <= 0 are excluded even if
// that leaves fewer than topK results. A zero-norm query degrades to an
// empty result, never an error.
func (ix *Index) Search(queryEmbedding []float32, topK int, f filter.Filter) ([]result.Result, error) {
	if err := ix.checkDim(queryEmbedding); err != nil {
		return nil, err
	}
	if topK < 1 {
		return nil, domain.ErrInvalidTopK
	}
	if ix.Size() == 0 || IsZeroNorm(queryEmbedding) {
		return []result.Result{}, nil
	}

	scores := ix.cosineScores(queryEmbedding)

	if !f.IsEmpty() {
		for row := range scores {
			if !f.Matches(ix.metadata[row]) {
				scores[row] = 0
			}
		}
	}

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

// cosineScores computes the dot product of the unit query vector against
// every stored vector. Stored vectors are renormalized defensively even
// though they were normalized at store time.
func (ix *Index) cosineScores(queryEmbedding []float32) []float64 {
	query := make([]float64, ix.dim)
	var qnorm float64
	for i, v := range queryEmbedding {
		query[i] = float64(v)
		qnorm += float64(v) * float64(v)
	}
	qnorm = math.Sqrt(qnorm)
	if qnorm < zeroNormEps {
		qnorm = 1
	}

	scores := make([]float64, ix.Size())
	for row := range scores {
		vec := ix.vectors[row*ix.dim : (row+1)*ix.dim]
		var dot, norm float64
		for i, v := range vec {
			dot += float64(v) * query[i]
			norm += float64(v) * float64(v)
		}
		norm = math.Sqrt(norm)
		if norm < zeroNormEps {
			norm = zeroNormEps
		}
		scores[row] = dot / (norm * qnorm)
	}
	return scores
}

// byScore orders rows by descending score, breaking ties by ascending
// doc_id so repeated identical queries return identical results.
func (ix *Index) byScore(scores []float64) func(a, b int) bool {
	return func(a, b int) bool {
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return ix.ids[a] < ix.ids[b]
	}
}

// copyNormalized writes the L2-normalized src into dst. A zero-norm
// vector is copied unchanged.
func copyNormalized(dst, src []float32) {
	var sum float64
	for _, v := range src {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm < zeroNormEps {
		copy(dst, src)
		return
	}
	for i, v := range src {
		dst[i] = float32(float64(v) / norm)
	}
}

// IsZeroNorm reports whether a vector's L2 norm is effectively zero.
func IsZeroNorm(vec []float32) bool {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum) < zeroNormEps
}
