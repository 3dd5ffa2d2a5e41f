package services

// Chunk splits items into consecutive slices of at most size elements.
// The chunks share the backing array of items.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for low := 0; low < len(items); low += size {
		high := min(low+size, len(items))
		chunks = append(chunks, items[low:high])
	}
	return chunks
}
