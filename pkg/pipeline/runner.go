package pipeline

import (
	"context"
	"errors"
	"log/slog"
)

// ErrIngestInProgress is returned when a run is requested while another is
// still active. Callers are expected to surface it, not queue behind it.
var ErrIngestInProgress = errors.New("ingestion already in progress")

// Runner executes at most one ingestion at a time in the background. A
// started run cannot be cancelled; it either finishes or the process does.
type Runner struct {
	pipeline *Pipeline
	logger   *slog.Logger
}

func NewRunner(p *Pipeline) *Runner {
	return &Runner{
		pipeline: p,
		logger:   slog.Default(),
	}
}

// Start claims the status and launches the run in the background, so the
// caller returns immediately. It fails fast with ErrIngestInProgress
// without touching the in-flight run's state.
func (r *Runner) Start(ctx context.Context, seedURLs []string) error {
	if len(seedURLs) == 0 {
		return errors.New("no seed URLs to ingest")
	}

	if !r.pipeline.status.TryBegin(len(seedURLs)) {
		return ErrIngestInProgress
	}

	go func() {
		indexed, err := r.pipeline.run(ctx, seedURLs)
		if err != nil {
			r.logger.Error("ingestion failed", "error", err)
			return
		}
		r.logger.Info("background ingestion complete", "indexed", indexed)
	}()

	return nil
}

// Status exposes the progress state for polling.
func (r *Runner) Status() *Status {
	return r.pipeline.Status()
}
