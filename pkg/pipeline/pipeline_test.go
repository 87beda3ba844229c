package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitechat/internal/mock"
	"sitechat/internal/models"
	"sitechat/pkg/pipeline"
	"sitechat/pkg/processor"
)

func unitEmbedding() []float32 {
	vec := make([]float32, 384)
	vec[0] = 1
	return vec
}

func newTestPipeline(crawler *mock.Crawler, store *mock.VectorStore) (*pipeline.Pipeline, *pipeline.Status) {
	status := pipeline.NewStatus()
	embedder := &mock.Embedder{
		EmbedFn: func(ctx context.Context, text string) ([]float32, error) {
			return unitEmbedding(), nil
		},
	}
	p := pipeline.New(crawler, embedder, store, status, processor.NewWithConfig(processor.ProcessorConfig{}))
	return p, status
}

func TestRunIndexesDocuments(t *testing.T) {
	crawler := &mock.Crawler{
		CrawlFn: func(ctx context.Context, url string) ([]models.Document, error) {
			return []models.Document{
				{SourceURL: "https://example.com/page1", Content: strings.Repeat("A", 60)},
			}, nil
		},
	}

	var upserted []models.Record
	store := &mock.VectorStore{
		UpsertFn: func(ctx context.Context, rec models.Record) error {
			upserted = append(upserted, rec)
			return nil
		},
	}

	p, status := newTestPipeline(crawler, store)

	indexed, err := p.Run(context.Background(), []string{"https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, indexed)

	require.Len(t, upserted, 1)
	rec := upserted[0]
	assert.Equal(t, pipeline.RecordID("https://example.com/page1", 0), rec.ID)
	assert.Equal(t, "https://example.com/page1", rec.Metadata.URL)
	assert.Equal(t, strings.Repeat("A", 60), rec.Metadata.FullContent)
	assert.Len(t, rec.Embedding, 384)

	snap := status.Snapshot()
	assert.False(t, snap.InProgress)
	assert.True(t, snap.Completed)
	assert.Equal(t, 1, snap.TotalURLs)
	assert.Equal(t, 1, snap.ProcessedURLs)
	assert.Equal(t, 1, snap.SuccessfulDocs)
	assert.Empty(t, snap.Errors)
}

func TestRunSkipsShortContent(t *testing.T) {
	crawler := &mock.Crawler{
		CrawlFn: func(ctx context.Context, url string) ([]models.Document, error) {
			return []models.Document{
				{SourceURL: "https://example.com/short", Content: "   too short   "},
				{SourceURL: "https://example.com/long", Content: strings.Repeat("B", 80)},
			}, nil
		},
	}
	store := &mock.VectorStore{
		UpsertFn: func(ctx context.Context, rec models.Record) error { return nil },
	}

	p, status := newTestPipeline(crawler, store)

	indexed, err := p.Run(context.Background(), []string{"https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, indexed)
	assert.Equal(t, 1, store.UpsertCalls)

	// Skipping is silent: no error recorded
	snap := status.Snapshot()
	assert.Equal(t, 1, snap.SuccessfulDocs)
	assert.Empty(t, snap.Errors)
}

func TestRunCrawlErrorIsNonFatal(t *testing.T) {
	crawler := &mock.Crawler{
		CrawlFn: func(ctx context.Context, url string) ([]models.Document, error) {
			if url == "https://bad.example.com" {
				return nil, errors.New("connection refused")
			}
			return []models.Document{
				{SourceURL: url + "/page", Content: strings.Repeat("C", 70)},
			}, nil
		},
	}
	store := &mock.VectorStore{
		UpsertFn: func(ctx context.Context, rec models.Record) error { return nil },
	}

	p, status := newTestPipeline(crawler, store)

	indexed, err := p.Run(context.Background(),
		[]string{"https://bad.example.com", "https://good.example.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, indexed)

	snap := status.Snapshot()
	assert.True(t, snap.Completed)
	assert.False(t, snap.InProgress)
	assert.Equal(t, 2, snap.ProcessedURLs)
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, "Error crawling https://bad.example.com: connection refused", snap.Errors[0])
}

func TestRunDocumentErrorIsNonFatal(t *testing.T) {
	crawler := &mock.Crawler{
		CrawlFn: func(ctx context.Context, url string) ([]models.Document, error) {
			return []models.Document{
				{SourceURL: "https://example.com/a", Content: strings.Repeat("D", 60)},
				{SourceURL: "https://example.com/b", Content: strings.Repeat("E", 60)},
			}, nil
		},
	}
	store := &mock.VectorStore{
		UpsertFn: func(ctx context.Context, rec models.Record) error {
			if rec.Metadata.URL == "https://example.com/a" {
				return errors.New("index unavailable")
			}
			return nil
		},
	}

	p, status := newTestPipeline(crawler, store)

	indexed, err := p.Run(context.Background(), []string{"https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, indexed)

	snap := status.Snapshot()
	assert.Equal(t, 1, snap.SuccessfulDocs)
	require.Len(t, snap.Errors, 1)
	assert.Contains(t, snap.Errors[0], "Error processing document 0 from https://example.com")
	assert.Contains(t, snap.Errors[0], "index unavailable")
}

func TestRunFallsBackToPositionalURL(t *testing.T) {
	crawler := &mock.Crawler{
		CrawlFn: func(ctx context.Context, url string) ([]models.Document, error) {
			return []models.Document{
				{SourceURL: "", Content: strings.Repeat("F", 60)},
			}, nil
		},
	}

	var upserted models.Record
	store := &mock.VectorStore{
		UpsertFn: func(ctx context.Context, rec models.Record) error {
			upserted = rec
			return nil
		},
	}

	p, _ := newTestPipeline(crawler, store)

	_, err := p.Run(context.Background(), []string{"https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "doc_0", upserted.Metadata.URL)
}

func TestRunFatalSetupError(t *testing.T) {
	store := &mock.VectorStore{
		EnsureReadyFn: func(ctx context.Context) error {
			return errors.New("auth failure")
		},
		UpsertFn: func(ctx context.Context, rec models.Record) error { return nil },
	}
	crawler := &mock.Crawler{
		CrawlFn: func(ctx context.Context, url string) ([]models.Document, error) {
			return nil, nil
		},
	}

	p, status := newTestPipeline(crawler, store)

	_, err := p.Run(context.Background(), []string{"https://example.com"})
	require.Error(t, err)

	snap := status.Snapshot()
	assert.False(t, snap.InProgress)
	assert.False(t, snap.Completed)
	require.Len(t, snap.Errors, 1)
	assert.Contains(t, snap.Errors[0], "Fatal error:")
	assert.Contains(t, snap.Errors[0], "auth failure")
	assert.Zero(t, crawler.CrawlCalls)
}

func TestRunnerRejectsConcurrentStart(t *testing.T) {
	release := make(chan struct{})
	crawler := &mock.Crawler{
		CrawlFn: func(ctx context.Context, url string) ([]models.Document, error) {
			<-release
			return nil, nil
		},
	}
	store := &mock.VectorStore{
		UpsertFn: func(ctx context.Context, rec models.Record) error { return nil },
	}

	p, status := newTestPipeline(crawler, store)
	runner := pipeline.NewRunner(p)

	require.NoError(t, runner.Start(context.Background(), []string{"https://example.com", "https://example.org"}))

	// Wait until the background run is inside the crawler
	require.Eventually(t, func() bool {
		return status.InProgress()
	}, time.Second, time.Millisecond)

	err := runner.Start(context.Background(), []string{"https://other.example.com"})
	assert.ErrorIs(t, err, pipeline.ErrIngestInProgress)

	// The rejected start must not disturb the in-flight run's accounting
	snap := status.Snapshot()
	assert.Equal(t, 2, snap.TotalURLs)
	assert.True(t, snap.InProgress)

	close(release)
	require.Eventually(t, func() bool {
		return status.Completed()
	}, time.Second, time.Millisecond)

	snap = status.Snapshot()
	assert.Equal(t, 2, snap.ProcessedURLs)
	assert.False(t, snap.InProgress)
}

func TestRunnerRequiresSeeds(t *testing.T) {
	p, _ := newTestPipeline(&mock.Crawler{}, &mock.VectorStore{})
	runner := pipeline.NewRunner(p)

	err := runner.Start(context.Background(), nil)
	assert.Error(t, err)
}

func TestRecordIDStableAndBucketed(t *testing.T) {
	id1 := pipeline.RecordID("https://example.com/page", 0)
	id2 := pipeline.RecordID("https://example.com/page", 0)
	assert.Equal(t, id1, id2)

	assert.NotEqual(t, id1, pipeline.RecordID("https://example.com/page", 1))

	var bucket int
	var pos int
	_, err := fmt.Sscanf(id1, "doc_%d_%d", &bucket, &pos)
	require.NoError(t, err)
	assert.Less(t, bucket, 100000)
	assert.GreaterOrEqual(t, bucket, 0)
	assert.Equal(t, 0, pos)
}

func TestStatusResetNoopWhileInProgress(t *testing.T) {
	status := pipeline.NewStatus()
	require.True(t, status.TryBegin(3))

	status.Reset()
	snap := status.Snapshot()
	assert.True(t, snap.InProgress)
	assert.Equal(t, 3, snap.TotalURLs)

	status.Finish()
	status.Reset()
	snap = status.Snapshot()
	assert.False(t, snap.Completed)
	assert.Zero(t, snap.TotalURLs)
}
