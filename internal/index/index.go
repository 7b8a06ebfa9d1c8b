// Package index implements the in-process hybrid retrieval index:
// brute-force cosine similarity over an arena of normalized vectors,
// BM25 keyword scoring with incrementally maintained statistics, and
// Reciprocal Rank Fusion of the two rankings.
//
// The index is a single mutable unit with no internal locking. Callers
// that share an Index across goroutines must serialize access externally
// (the search usecase wraps it in one RWMutex). All operations are
// CPU-bound and run to completion; there is no cancellation.
package index

import (
	"fmt"

	"github.com/kailas-cloud/schemedex/internal/domain"
)

// Index stores per-document vectors, metadata and term statistics.
//
// The vector arena is a single row-major float32 buffer growing
// geometrically; rows for existing ids are overwritten in place. The
// rows map, ids slice and all per-row slices stay in lock-step — there
// is no tombstone state and no delete path (corpus shrinking means a
// full rebuild).
type Index struct {
	dim int

	vectors    []float32        // row-major arena, len = rows*dim
	metadata   []map[string]any // per row
	termFreqs  []map[string]int // per row
	docLengths []int            // per row, token count
	ids        []string         // row -> doc_id
	rows       map[string]int   // doc_id -> row

	postings  map[string]map[int]int // token -> row -> tf
	idf       map[string]float64     // recomputed after every mutation
	avgDocLen float64
}

// New creates an empty index for vectors of the given dimensionality.
func New(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	return &Index{
		dim:      dim,
		rows:     make(map[string]int),
		postings: make(map[string]map[int]int),
		idf:      make(map[string]float64),
	}, nil
}

// Size returns the number of indexed documents.
func (ix *Index) Size() int { return len(ix.ids) }

// Dim returns the vector dimensionality.
func (ix *Index) Dim() int { return ix.dim }

// Document is one item of a bulk upsert.
type Document struct {
	ID        string
	Embedding []float32
	Metadata  map[string]any
}

// Upsert adds a document or overwrites an existing one in place.
// The vector is L2-normalized at store time. Term statistics and IDF
// are recomputed before returning, so queries never see stale values.
func (ix *Index) Upsert(docID string, embedding []float32, metadata map[string]any) error {
	if err := ix.checkDim(embedding); err != nil {
		return err
	}
	ix.apply(docID, embedding, metadata)
	ix.recomputeStats()
	return nil
}

// BulkUpsert indexes a batch of documents. The final state is identical
// to calling Upsert once per document in order; the arena is pre-sized
// once for the batch and statistics are recomputed once at the end.
func (ix *Index) BulkUpsert(docs []Document) error {
	if len(docs) == 0 {
		return domain.ErrEmptyBatch
	}
	for i := range docs {
		if err := ix.checkDim(docs[i].Embedding); err != nil {
			return fmt.Errorf("document %q: %w", docs[i].ID, err)
		}
	}

	ix.grow(countNew(ix.rows, docs))
	for i := range docs {
		ix.apply(docs[i].ID, docs[i].Embedding, docs[i].Metadata)
	}
	ix.recomputeStats()
	return nil
}

// Metadata returns the stored metadata for a document id.
func (ix *Index) Metadata(docID string) (map[string]any, bool) {
	row, ok := ix.rows[docID]
	if !ok {
		return nil, false
	}
	return ix.metadata[row], true
}

func (ix *Index) checkDim(embedding []float32) error {
	if len(embedding) != ix.dim {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(embedding), ix.dim)
	}
	return nil
}

// apply writes a document into the arena without touching corpus-wide
// statistics. Callers must recomputeStats before answering queries.
func (ix *Index) apply(docID string, embedding []float32, metadata map[string]any) {
	row, exists := ix.rows[docID]
	if !exists {
		row = len(ix.ids)
		ix.rows[docID] = row
		ix.ids = append(ix.ids, docID)
		ix.vectors = append(ix.vectors, embedding...)
		ix.metadata = append(ix.metadata, nil)
		ix.termFreqs = append(ix.termFreqs, nil)
		ix.docLengths = append(ix.docLengths, 0)
	}

	copyNormalized(ix.vectors[row*ix.dim:(row+1)*ix.dim], embedding)
	ix.metadata[row] = metadata

	ix.removePostings(row)
	tf := buildTermFreqs(metadata)
	ix.termFreqs[row] = tf
	length := 0
	for token, count := range tf {
		length += count
		byRow := ix.postings[token]
		if byRow == nil {
			byRow = make(map[int]int)
			ix.postings[token] = byRow
		}
		byRow[row] = count
	}
	ix.docLengths[row] = length
}

// removePostings drops a row's tokens from the inverted index before an
// in-place overwrite.
func (ix *Index) removePostings(row int) {
	for token := range ix.termFreqs[row] {
		byRow := ix.postings[token]
		delete(byRow, row)
		if len(byRow) == 0 {
			delete(ix.postings, token)
		}
	}
}

// grow reserves arena capacity for n additional rows.
func (ix *Index) grow(n int) {
	if n == 0 {
		return
	}
	need := len(ix.vectors) + n*ix.dim
	if cap(ix.vectors) < need {
		buf := make([]float32, len(ix.vectors), need)
		copy(buf, ix.vectors)
		ix.vectors = buf
	}
	ix.metadata = growSlice(ix.metadata, n)
	ix.termFreqs = growSlice(ix.termFreqs, n)
	ix.docLengths = growSlice(ix.docLengths, n)
	ix.ids = growSlice(ix.ids, n)
}

func growSlice[T any](s []T, n int) []T {
	if cap(s)-len(s) >= n {
		return s
	}
	out := make([]T, len(s), len(s)+n)
	copy(out, s)
	return out
}

// countNew counts batch items that will occupy new rows, deduplicated
// within the batch itself.
func countNew(rows map[string]int, docs []Document) int {
	seen := make(map[string]bool, len(docs))
	n := 0
	for i := range docs {
		id := docs[i].ID
		if _, ok := rows[id]; ok || seen[id] {
			continue
		}
		seen[id] = true
		n++
	}
	return n
}
