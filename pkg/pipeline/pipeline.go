// Package pipeline coordinates crawling, content filtering, embedding and
// indexing for a list of seed URLs. Seeds are processed sequentially so
// progress accounting stays deterministic and the crawl service is not
// hammered; individual failures are recorded and skipped, never fatal.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"sitechat/internal/models"
	"sitechat/internal/types"
	"sitechat/pkg/processor"
)

type Pipeline struct {
	crawler  types.Crawler
	embedder types.Embedder
	store    types.VectorStore
	proc     processor.Processor
	status   *Status
	logger   *slog.Logger
}

func New(crawler types.Crawler, embedder types.Embedder, store types.VectorStore, status *Status, proc processor.Processor) *Pipeline {
	return &Pipeline{
		crawler:  crawler,
		embedder: embedder,
		store:    store,
		proc:     proc,
		status:   status,
		logger:   slog.Default(),
	}
}

// Status returns the shared progress state this pipeline writes to.
func (p *Pipeline) Status() *Status {
	return p.status
}

// Run ingests seedURLs and returns the number of successfully indexed
// documents. It fails fast with ErrIngestInProgress when another run holds
// the status; otherwise the only error case is a fatal setup failure.
func (p *Pipeline) Run(ctx context.Context, seedURLs []string) (int, error) {
	if !p.status.TryBegin(len(seedURLs)) {
		return 0, ErrIngestInProgress
	}
	return p.run(ctx, seedURLs)
}

// run does the work after the status has been claimed.
func (p *Pipeline) run(ctx context.Context, seedURLs []string) (int, error) {
	if err := p.store.EnsureReady(ctx); err != nil {
		err = fmt.Errorf("vector store not ready: %w", err)
		p.status.Fail(fmt.Sprintf("Fatal error: %v", err))
		return 0, err
	}

	successful := 0

	for i, seedURL := range seedURLs {
		p.logger.Info("crawling seed URL", "url", seedURL)

		docs, err := p.crawler.Crawl(ctx, seedURL)
		if err != nil {
			// Crawl failures are non-fatal; record and move on
			p.status.AppendError(fmt.Sprintf("Error crawling %s: %v", seedURL, err))
			p.status.SetProcessedURLs(i + 1)
			p.logger.Warn("crawl failed", "url", seedURL, "error", err)
			continue
		}

		p.logger.Info("crawl finished", "url", seedURL, "documents", len(docs))

		for docIdx, doc := range docs {
			indexed, err := p.processDocument(ctx, doc, docIdx)
			if err != nil {
				p.status.AppendError(fmt.Sprintf("Error processing document %d from %s: %v", docIdx, seedURL, err))
				p.logger.Warn("document failed", "seed", seedURL, "index", docIdx, "error", err)
				continue
			}
			if indexed {
				successful++
				p.status.IncSuccessfulDocs()
			}
		}

		p.status.SetProcessedURLs(i + 1)
	}

	p.status.Finish()
	p.logger.Info("ingestion finished", "indexed", successful)
	return successful, nil
}

// processDocument filters, embeds and upserts one crawled document. The
// bool result distinguishes an indexed document from one the content
// filter silently excluded.
func (p *Pipeline) processDocument(ctx context.Context, doc models.Document, docIdx int) (bool, error) {
	url := doc.SourceURL
	if url == "" {
		url = fmt.Sprintf("doc_%d", docIdx)
	}

	content := p.proc.Clean(doc.Content)
	if !p.proc.Valid(content) {
		// Too short to be useful; silently excluded
		p.logger.Debug("skipping short content", "url", url)
		return false, nil
	}

	embedding, err := p.embedder.Embed(ctx, content)
	if err != nil {
		return false, fmt.Errorf("embedding failed: %w", err)
	}

	rec := models.Record{
		ID:        RecordID(url, docIdx),
		Embedding: embedding,
		Metadata: models.RecordMetadata{
			URL:            url,
			ContentPreview: p.proc.Preview(content),
			FullContent:    content,
		},
	}

	if err := p.store.Upsert(ctx, rec); err != nil {
		return false, fmt.Errorf("upsert failed: %w", err)
	}

	p.logger.Info("indexed document", "id", rec.ID, "url", url)
	return true, nil
}
