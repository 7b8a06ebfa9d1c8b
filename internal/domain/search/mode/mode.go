// Package mode defines the supported search modes.
package mode

import "fmt"

// Mode selects the ranking signal used for a search.
type Mode string

const (
	// Semantic ranks by cosine similarity of embeddings.
	Semantic Mode = "semantic"
	// Keyword ranks by BM25 lexical relevance.
	Keyword Mode = "keyword"
	// Hybrid fuses semantic and keyword rankings via RRF.
	Hybrid Mode = "hybrid"
)

// Parse validates and converts a string to a Mode. Empty defaults to Hybrid.
func Parse(s string) (Mode, error) {
	switch Mode(s) {
	case Semantic, Keyword, Hybrid:
		return Mode(s), nil
	case "":
		return Hybrid, nil
	default:
		return "", fmt.Errorf("unknown search mode %q", s)
	}
}

func (m Mode) String() string { return string(m) }
