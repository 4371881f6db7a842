package util

// Batch splits elements into consecutive slices of at most batchSize elements.
// The returned slices share memory with elements.
func Batch[T any](elements []T, batchSize int) [][]T {
	if batchSize <= 0 || len(elements) == 0 {
		return nil
	}
	batches := make([][]T, 0, (len(elements)+batchSize-1)/batchSize)
	for start := 0; start < len(elements); start += batchSize {
		end := start + batchSize
		if end > len(elements) {
			end = len(elements)
		}
		batches = append(batches, elements[start:end])
	}
	return batches
}

// Unique returns the distinct elements of s in order of first appearance.
func Unique[T comparable](s []T) []T {
	seen := make(map[T]bool, len(s))
	out := make([]T, 0, len(s))
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
