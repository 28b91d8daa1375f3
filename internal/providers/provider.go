// internal/providers/provider.go

// Package providers defines the interfaces the engine uses to talk to
// embedding and language-model collaborators, regardless of the underlying
// implementation (e.g., Ollama).
package providers

import "context"

// ChatRequest bundles one language-model round trip. ImagePaths is only used
// by the image-captioning path; text-only callers leave it empty.
type ChatRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	ImagePaths   []string
}

// Embedder converts free text into a fixed-length numeric vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChatProvider sends a system+user prompt pair to a language model and
// returns the generated text.
type ChatProvider interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}
