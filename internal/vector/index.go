// Package vector provides the per-query vector index and nearest-neighbor search.
package vector

import "context"

// Index stores fixed-dimension vectors in insertion order and supports
// k-nearest-neighbor search by squared Euclidean distance. An Index is built
// fresh from the full corpus immediately before each query and discarded
// afterwards; positions returned by Search refer to insertion order, which by
// construction equals corpus order.
type Index interface {
	Add(ctx context.Context, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	Size() int
	Close() error
}

// Result is a single nearest-neighbor hit. Position is the vector's insertion
// position; Distance is squared Euclidean (smaller is more similar).
type Result struct {
	Position int
	Distance float64
}
