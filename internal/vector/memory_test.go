package vector

import (
	"context"
	"testing"
)

func TestMemoryIndex_AddSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
	}
	if err := idx.Add(ctx, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Position != 0 {
		t.Errorf("top result should be position 0, got %d", results[0].Position)
	}
	if results[1].Position != 2 {
		t.Errorf("second result should be position 2, got %d", results[1].Position)
	}
	if results[0].Distance > results[1].Distance {
		t.Errorf("distances not ascending: %f > %f", results[0].Distance, results[1].Distance)
	}
}

func TestMemoryIndex_AscendingDistance(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, [][]float32{{3, 0}, {1, 0}, {2, 0}})

	results, err := idx.Search(ctx, []float32{0, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 0}
	for i, r := range results {
		if r.Position != want[i] {
			t.Errorf("result %d: position=%d want %d", i, r.Position, want[i])
		}
	}
}

func TestMemoryIndex_TiesKeepInsertionOrder(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	// Positions 1 and 2 are equidistant from the query; position order must win.
	_ = idx.Add(ctx, [][]float32{{5, 5}, {1, 0}, {0, 1}, {-1, 0}})

	results, err := idx.Search(ctx, []float32{0, 0}, 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 3, 0}
	for i, r := range results {
		if r.Position != want[i] {
			t.Errorf("result %d: position=%d want %d", i, r.Position, want[i])
		}
	}
}

func TestMemoryIndex_KLargerThanSize(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, [][]float32{{1, 0}, {0, 1}})

	results, err := idx.Search(ctx, []float32{0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestMemoryIndex_DimensionMismatch(t *testing.T) {
	idx, _ := NewMemoryIndex(3)
	ctx := context.Background()
	if err := idx.Add(ctx, [][]float32{{1, 0}}); err == nil {
		t.Error("expected error adding 2-dim vector to 3-dim index")
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 1); err == nil {
		t.Error("expected error searching with 2-dim query in 3-dim index")
	}
}

func TestMemoryIndex_EmptySearch(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	results, err := idx.Search(context.Background(), []float32{0, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
