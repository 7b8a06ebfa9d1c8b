package index

import (
	"math"
	"testing"

	"github.com/kailas-cloud/schemedex/internal/domain"
	"github.com/kailas-cloud/schemedex/internal/domain/search/filter"
)

func mustFilter(t *testing.T, fields map[string]any) filter.Filter {
	t.Helper()
	f, err := filter.New(fields)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestSearch_EmptyCorpus(t *testing.T) {
	ix := mustIndex(t, 3)
	results, err := ix.Search([]float32{1, 0, 0}, 5, filter.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results = %+v, want empty", results)
	}
}

func TestSearch_SelfMatch(t *testing.T) {
	ix := mustIndex(t, 4)
	vec := []float32{0.3, -0.2, 0.9, 0.1}
	if err := ix.Upsert("x", vec, meta("x", "")); err != nil {
		t.Fatal(err)
	}

	results, err := ix.Search(vec, 1, filter.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].DocID() != "x" {
		t.Fatalf("results = %+v, want self match", results)
	}
	if math.Abs(results[0].Score()-1.0) > 1e-4 {
		t.Errorf("score = %v, want ~1.0", results[0].Score())
	}
}

func TestSearch_OrthogonalExcluded(t *testing.T) {
	ix := mustIndex(t, 3)
	if err := ix.Upsert("a", []float32{1, 0, 0}, meta("a", "")); err != nil {
		t.Fatal(err)
	}

	// Orthogonal query: cosine is 0, which is <= 0 and excluded.
	results, err := ix.Search([]float32{0, 1, 0}, 1, filter.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results = %+v, want empty (score <= 0 excluded)", results)
	}

	// Opposed query scores negative and is excluded too.
	results, err = ix.Search([]float32{-1, 0, 0}, 1, filter.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results = %+v, want empty for negative similarity", results)
	}
}

func TestSearch_ZeroNormQuery(t *testing.T) {
	ix := mustIndex(t, 3)
	if err := ix.Upsert("a", []float32{1, 0, 0}, meta("a", "")); err != nil {
		t.Fatal(err)
	}

	results, err := ix.Search([]float32{0, 0, 0}, 5, filter.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results = %+v, want empty for zero-norm query", results)
	}
}

func TestSearch_InvalidTopK(t *testing.T) {
	ix := mustIndex(t, 3)
	if _, err := ix.Search([]float32{1, 0, 0}, 0, filter.Filter{}); err != domain.ErrInvalidTopK {
		t.Errorf("err = %v, want ErrInvalidTopK", err)
	}
}

func TestSearch_DimensionMismatch(t *testing.T) {
	ix := mustIndex(t, 3)
	if _, err := ix.Search([]float32{1, 0}, 1, filter.Filter{}); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestSearch_OrderedDescendingWithTieBreak(t *testing.T) {
	ix := mustIndex(t, 2)
	docs := []Document{
		{ID: "far", Embedding: []float32{0.1, 1}, Metadata: meta("far", "")},
		{ID: "near", Embedding: []float32{1, 0.1}, Metadata: meta("near", "")},
		// Two identical vectors: tie broken by ascending doc_id.
		{ID: "tie-b", Embedding: []float32{1, 0.5}, Metadata: meta("tie-b", "")},
		{ID: "tie-a", Embedding: []float32{1, 0.5}, Metadata: meta("tie-a", "")},
	}
	if err := ix.BulkUpsert(docs); err != nil {
		t.Fatal(err)
	}

	results, err := ix.Search([]float32{1, 0}, 10, filter.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score() > results[i-1].Score() {
			t.Errorf("results not descending at %d: %v > %v", i, results[i].Score(), results[i-1].Score())
		}
	}
	// near > tie-a == tie-b > far
	wantOrder := []string{"near", "tie-a", "tie-b", "far"}
	for i, want := range wantOrder {
		if results[i].DocID() != want {
			t.Errorf("position %d = %s, want %s", i, results[i].DocID(), want)
		}
	}
}

func TestSearch_PartialSelectionMatchesFullSort(t *testing.T) {
	ix := mustIndex(t, 8)
	gen := func(seed int) []float32 {
		vec := make([]float32, 8)
		for i := range vec {
			seed = seed*1103515245 + 12345
			vec[i] = float32((seed>>16)%1000) / 1000.0
		}
		return vec
	}
	docs := make([]Document, 50)
	for i := range docs {
		docs[i] = Document{
			ID:        "doc-" + string(rune('a'+i/26)) + string(rune('a'+i%26)),
			Embedding: gen(i + 1),
			Metadata:  meta("d", ""),
		}
	}
	if err := ix.BulkUpsert(docs); err != nil {
		t.Fatal(err)
	}

	query := gen(99)
	full, err := ix.Search(query, 50, filter.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	partial, err := ix.Search(query, 7, filter.Filter{})
	if err != nil {
		t.Fatal(err)
	}

	if len(partial) > 7 {
		t.Fatalf("got %d results, want <= 7", len(partial))
	}
	for i := range partial {
		if partial[i].DocID() != full[i].DocID() {
			t.Errorf("position %d: partial %s != full %s", i, partial[i].DocID(), full[i].DocID())
		}
	}
}

func TestSearch_FilterCorrectness(t *testing.T) {
	ix := mustIndex(t, 2)
	docs := []Document{
		{ID: "pm-kisan", Embedding: []float32{1, 0.2}, Metadata: map[string]any{
			"name": "pm kisan", "category": "agriculture", "state": nil,
		}},
		{ID: "ayushman", Embedding: []float32{1, 0.1}, Metadata: map[string]any{
			"name": "ayushman", "category": "health", "state": "bihar",
		}},
		{ID: "fasal-bima", Embedding: []float32{1, 0.3}, Metadata: map[string]any{
			"name": "fasal bima", "category": "agriculture", "state": "punjab",
		}},
	}
	if err := ix.BulkUpsert(docs); err != nil {
		t.Fatal(err)
	}
	query := []float32{1, 0.15}

	results, err := ix.Search(query, 10, mustFilter(t, map[string]any{"category": "agriculture"}))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Metadata()["category"] != "agriculture" {
			t.Errorf("non-agriculture result %s leaked through filter", r.DocID())
		}
	}

	// nil filter value matches absent-or-nil fields (central schemes).
	results, err = ix.Search(query, 10, mustFilter(t, map[string]any{"state": nil}))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].DocID() != "pm-kisan" {
		t.Fatalf("nil-state filter results = %+v, want only pm-kisan", results)
	}

	// All fields must match (logical AND).
	results, err = ix.Search(query, 10, mustFilter(t, map[string]any{
		"category": "agriculture", "state": "punjab",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].DocID() != "fasal-bima" {
		t.Fatalf("AND filter results = %+v, want only fasal-bima", results)
	}
}
