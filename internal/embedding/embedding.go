// Package embedding implements deterministic hash-based text embeddings.
//
// Vectors are produced by feature hashing over unigrams and bigrams with
// the signed hash trick: a primary hash selects the target component, a
// second salted hash selects the sign, which cancels systematic bias from
// hash collisions. No model, no network call — identical text always
// yields an identical vector, which is what makes document and query
// vectors comparable under cosine similarity.
package embedding

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode/utf8"
)

// DefaultDim is the default embedding dimensionality.
const DefaultDim = 768

// edgeCutset is the punctuation stripped from token edges.
const edgeCutset = ".,;:!?\"'()[]{}/-"

// signSalt is appended to an n-gram before the secondary (sign) hash so
// the two hashes are independent.
const signSalt = "_sign"

// Generator converts text to fixed-dimension dense vectors.
type Generator struct {
	dim int
}

// New creates a Generator with the given dimensionality.
func New(dim int) (*Generator, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	return &Generator{dim: dim}, nil
}

// Dim returns the embedding dimensionality.
func (g *Generator) Dim() int { return g.dim }

// Embed converts text to an L2-normalized vector of length Dim.
// Empty or all-discarded text yields the zero vector, never an error.
func (g *Generator) Embed(text string) []float32 {
	vec := make([]float64, g.dim)

	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return toFloat32(vec)
	}

	accumulate := func(ngram string) {
		idx := hashString(ngram) % uint64(g.dim)
		sign := 1.0
		if hashString(ngram+signSalt)&1 == 1 {
			sign = -1.0
		}
		vec[idx] += sign
	}

	for _, tok := range tokens {
		accumulate(tok)
	}
	for i := 0; i < len(tokens)-1; i++ {
		accumulate(tokens[i] + "_" + tokens[i+1])
	}

	normalize(vec)
	return toFloat32(vec)
}

// Tokenize lowercases, splits on whitespace, strips punctuation from token
// edges and discards tokens of length <= 1 rune. Shared by the embedder
// and the keyword indexer so both sides see the same token stream.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, w := range fields {
		cleaned := strings.Trim(w, edgeCutset)
		if utf8.RuneCountInString(cleaned) > 1 {
			tokens = append(tokens, cleaned)
		}
	}
	return tokens
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm < 1e-10 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
