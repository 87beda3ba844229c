// Package mock provides function-field test doubles for the core
// interfaces.
package mock

import (
	"context"

	"sitechat/internal/models"
)

type Crawler struct {
	CrawlFn    func(ctx context.Context, url string) ([]models.Document, error)
	CrawlCalls int
}

func (c *Crawler) Crawl(ctx context.Context, url string) ([]models.Document, error) {
	c.CrawlCalls++
	return c.CrawlFn(ctx, url)
}

type Embedder struct {
	EmbedFn    func(ctx context.Context, text string) ([]float32, error)
	Dim        int
	EmbedCalls int
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.EmbedCalls++
	return e.EmbedFn(ctx, text)
}

func (e *Embedder) Dimension() int {
	if e.Dim == 0 {
		return 384
	}
	return e.Dim
}

type VectorStore struct {
	EnsureReadyFn func(ctx context.Context) error
	UpsertFn      func(ctx context.Context, rec models.Record) error
	QueryFn       func(ctx context.Context, embedding []float32, topK int) ([]models.Match, error)
	UpsertCalls   int
	QueryCalls    int
}

func (s *VectorStore) EnsureReady(ctx context.Context) error {
	if s.EnsureReadyFn == nil {
		return nil
	}
	return s.EnsureReadyFn(ctx)
}

func (s *VectorStore) Upsert(ctx context.Context, rec models.Record) error {
	s.UpsertCalls++
	return s.UpsertFn(ctx, rec)
}

func (s *VectorStore) Query(ctx context.Context, embedding []float32, topK int) ([]models.Match, error) {
	s.QueryCalls++
	return s.QueryFn(ctx, embedding, topK)
}

func (s *VectorStore) Close() {}

type Generator struct {
	GenerateFn    func(ctx context.Context, system, prompt string, maxTokens int, temperature float64) (string, error)
	GenerateCalls int
	LastSystem    string
	LastPrompt    string
}

func (g *Generator) Generate(ctx context.Context, system, prompt string, maxTokens int, temperature float64) (string, error) {
	g.GenerateCalls++
	g.LastSystem = system
	g.LastPrompt = prompt
	return g.GenerateFn(ctx, system, prompt, maxTokens, temperature)
}
