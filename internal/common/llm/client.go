// internal/common/llm/client.go

// Package llm defines the embedding and language-model collaborator
// contracts consumed by the matching engine and the narrative synthesizer.
package llm

import "context"

// Completer is the language-model collaborator. Used for both candidate
// re-ranking and narrative synthesis.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a vector for nearest-neighbor retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
