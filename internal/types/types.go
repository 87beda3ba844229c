package types

import (
	"context"
	"time"

	"sitechat/internal/models"
)

// Core interfaces. Every remote collaborator sits behind one of these so
// the pipeline and the answer engine can be tested without the services.

// Crawler fetches a bounded set of pages starting from a seed URL.
type Crawler interface {
	Crawl(ctx context.Context, url string) ([]models.Document, error)
}

// Embedder turns text into a fixed-dimension unit vector. Implementations
// must normalize: the store assumes cosine similarity over unit vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// VectorStore is the similarity index. Upsert overwrites on id conflict.
type VectorStore interface {
	EnsureReady(ctx context.Context) error
	Upsert(ctx context.Context, rec models.Record) error
	Query(ctx context.Context, embedding []float32, topK int) ([]models.Match, error)
	Close()
}

// Generator wraps a remote text-generation model.
type Generator interface {
	Generate(ctx context.Context, system, prompt string, maxTokens int, temperature float64) (string, error)
}

type CrawlerConfig struct {
	APIURL             string
	APIKey             string
	MaxPages           int
	MaxDepth           int
	AllowBackwardLinks bool
	CacheMaxAge        time.Duration
	PollInterval       time.Duration
	Timeout            time.Duration
}

type EmbedderConfig struct {
	Model     string
	BaseURL   string
	Dimension int
}

type GeneratorConfig struct {
	Provider    string // openai, gemini or ollama
	Model       string
	BaseURL     string
	APIKey      string
	MaxTokens   int
	Temperature float64
}

type StoreConfig struct {
	URL       string
	TableName string
	VectorDim int
}

type EngineConfig struct {
	TopK            int
	MinScore        float64
	MinContentChars int
	MaxContextChars int
	MaxContextDocs  int
	MaxTokens       int
	Temperature     *float64 // nil means default; 0 is a valid setting
}
