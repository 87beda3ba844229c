// Package embed wraps the embedding model. Vectors come back L2-normalized
// so the store can treat cosine similarity and dot product as the same
// thing.
package embed

import (
	"context"
	"fmt"
	"math"

	"github.com/tmc/langchaingo/llms/ollama"

	"sitechat/internal/types"
)

type Embedder struct {
	config types.EmbedderConfig
	llm    *ollama.LLM
}

func NewWithConfig(config types.EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "all-minilm"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Dimension == 0 {
		config.Dimension = 384
	}

	llm, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding model: %w", err)
	}

	return &Embedder{
		config: config,
		llm:    llm,
	}, nil
}

// Embed returns the unit-length embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	embeddings, err := e.llm.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding model returned no vectors")
	}

	vector := embeddings[0]
	if len(vector) != e.config.Dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d",
			len(vector), e.config.Dimension)
	}

	return Normalize(vector)
}

func (e *Embedder) Dimension() int {
	return e.config.Dimension
}

// Normalize scales vec to unit L2 norm. A zero vector has no direction and
// is rejected.
func Normalize(vec []float32) ([]float32, error) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return nil, fmt.Errorf("cannot normalize zero vector")
	}

	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out, nil
}
