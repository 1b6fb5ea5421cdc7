// Package embedding provides text embedding via the Gemini API or a local ONNX model.
package embedding

import "context"

// Embedder produces vector embeddings for text. Corpus pages and queries must
// go through the same Embedder instance so the output scale is consistent
// between the two encoding passes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
