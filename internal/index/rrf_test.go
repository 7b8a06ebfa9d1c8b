package index

import (
	"testing"

	"github.com/kailas-cloud/schemedex/internal/embedding"
)

func TestHybridSearch_EmptyCorpus(t *testing.T) {
	ix := mustIndex(t, 3)
	results, err := ix.HybridSearch("farmer", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results = %+v, want empty", results)
	}
}

func TestHybridSearch_ZeroNormQuery(t *testing.T) {
	ix := mustIndex(t, 3)
	if err := ix.Upsert("a", []float32{1, 0, 0}, meta("farmer", "")); err != nil {
		t.Fatal(err)
	}
	results, err := ix.HybridSearch("farmer", []float32{0, 0, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results = %+v, want empty", results)
	}
}

func TestHybridSearch_BothSignalsDominate(t *testing.T) {
	ix := mustIndex(t, 3)
	docs := []Document{
		// Matches the query vector but shares no keywords.
		{ID: "semantic-only", Embedding: []float32{1, 0, 0},
			Metadata: meta("pension yojana", "old age pension support")},
		// Matches some keywords but is far in vector space.
		{ID: "keyword-only", Embedding: []float32{0, 0, 1},
			Metadata: meta("farmer help", "farmer assistance program")},
		// Best keyword match and near the query vector.
		{ID: "both", Embedding: []float32{0.9, 0.1, 0},
			Metadata: meta("farmer subsidy", "farmer subsidy for kisan families")},
	}
	if err := ix.BulkUpsert(docs); err != nil {
		t.Fatal(err)
	}

	results, err := ix.HybridSearch("farmer subsidy", []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 (hybrid keeps low-similarity docs)", len(results))
	}
	if results[0].DocID() != "both" {
		t.Errorf("top result = %s, want the both-signal document", results[0].DocID())
	}
}

func TestHybridSearch_KeywordOnlyDocSurfaces(t *testing.T) {
	ix := mustIndex(t, 3)
	docs := []Document{
		{ID: "near", Embedding: []float32{1, 0, 0}, Metadata: meta("pension", "old age pension")},
		// Orthogonal to the query: plain Search would exclude it, hybrid must not.
		{ID: "ortho", Embedding: []float32{0, 1, 0}, Metadata: meta("farmer", "kisan farmer subsidy")},
	}
	if err := ix.BulkUpsert(docs); err != nil {
		t.Fatal(err)
	}

	results, err := ix.HybridSearch("farmer subsidy", []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, r := range results {
		if r.DocID() == "ortho" {
			found = true
		}
	}
	if !found {
		t.Error("keyword-relevant orthogonal document missing from hybrid results")
	}
}

func TestHybridSearch_FusedScoreRange(t *testing.T) {
	ix := mustIndex(t, 2)
	if err := ix.Upsert("a", []float32{1, 0}, meta("farmer", "")); err != nil {
		t.Fatal(err)
	}

	results, err := ix.HybridSearch("farmer", []float32{1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatal("expected one result")
	}
	// Rank 1 in both lists: 1/61 + 1/61.
	want := 2.0 / 61.0
	if diff := results[0].Score() - want; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("fused score = %v, want %v", results[0].Score(), want)
	}
}

func TestKeywordSearch(t *testing.T) {
	ix := mustIndex(t, 2)
	docs := []Document{
		{ID: "a", Embedding: []float32{1, 0}, Metadata: meta("farmer subsidy", "kisan farmer")},
		{ID: "b", Embedding: []float32{0, 1}, Metadata: meta("hospital", "health insurance")},
	}
	if err := ix.BulkUpsert(docs); err != nil {
		t.Fatal(err)
	}

	results, err := ix.KeywordSearch("farmer", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].DocID() != "a" {
		t.Fatalf("results = %+v, want only the matching document", results)
	}
}

// End-to-end scenario over the real embedder: the scheme matching both
// signals must rank first with strictly higher semantic and keyword
// scores than the other scheme.
func TestHybridSearch_EndToEnd(t *testing.T) {
	gen, err := embedding.New(embedding.DefaultDim)
	if err != nil {
		t.Fatal(err)
	}
	ix := mustIndex(t, embedding.DefaultDim)

	docs := []Document{
		{
			ID:        "pm-kisan",
			Embedding: gen.Embed("farmer kisan agriculture subsidy"),
			Metadata:  meta("pm kisan", "farmer kisan agriculture subsidy"),
		},
		{
			ID:        "ayushman",
			Embedding: gen.Embed("health hospital insurance"),
			Metadata:  meta("ayushman", "health hospital insurance"),
		},
	}
	if err := ix.BulkUpsert(docs); err != nil {
		t.Fatal(err)
	}

	query := "farmer kisan"
	queryVec := gen.Embed(query)

	sem := ix.cosineScores(queryVec)
	kw := ix.BM25Scores(KeywordTokenize(query))
	if sem[0] <= sem[1] {
		t.Errorf("semantic score pm-kisan %v not above ayushman %v", sem[0], sem[1])
	}
	if kw[0] <= kw[1] {
		t.Errorf("bm25 score pm-kisan %v not above ayushman %v", kw[0], kw[1])
	}

	results, err := ix.HybridSearch(query, queryVec, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].DocID() != "pm-kisan" {
		t.Fatalf("results = %+v, want pm-kisan first", results)
	}
}
