package index

import "sort"

// selectTop returns the k best rows under the better ordering, sorted
// best-first. Quickselect partitions the row permutation in O(n)
// expected time, then only the selected k rows are sorted — O(n + k log k)
// instead of sorting the whole corpus.
//
// better must be a strict total order (ties broken by doc_id upstream),
// which makes the output independent of pivot choice.
func (ix *Index) selectTop(k int, better func(a, b int) bool) []int {
	n := ix.Size()
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}

	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}

	if k < n {
		quickselect(rows, k, better)
	}
	top := rows[:k]
	sort.Slice(top, func(i, j int) bool { return better(top[i], top[j]) })
	return top
}

// quickselect partitions rows so that the k best elements occupy
// rows[:k] in arbitrary order.
func quickselect(rows []int, k int, better func(a, b int) bool) {
	lo, hi := 0, len(rows)-1
	for lo < hi {
		p := partition(rows, lo, hi, better)
		switch {
		case p == k-1:
			return
		case p < k-1:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

// partition uses a median-of-three pivot to avoid quadratic behavior on
// already-ordered score runs.
func partition(rows []int, lo, hi int, better func(a, b int) bool) int {
	mid := lo + (hi-lo)/2
	if better(rows[mid], rows[lo]) {
		rows[lo], rows[mid] = rows[mid], rows[lo]
	}
	if better(rows[hi], rows[lo]) {
		rows[lo], rows[hi] = rows[hi], rows[lo]
	}
	if better(rows[hi], rows[mid]) {
		rows[mid], rows[hi] = rows[hi], rows[mid]
	}
	rows[mid], rows[hi] = rows[hi], rows[mid]
	pivot := rows[hi]

	i := lo
	for j := lo; j < hi; j++ {
		if better(rows[j], pivot) {
			rows[i], rows[j] = rows[j], rows[i]
			i++
		}
	}
	rows[i], rows[hi] = rows[hi], rows[i]
	return i
}
