package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"opslens/internal/retrieval"
)

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, dimension int) error
	UpsertBatch(ctx context.Context, name string, docs []retrieval.Document) error
}

type Tracker interface {
	Load() (map[string]bool, error)
	MarkIngested(file string) error
}

// RunResult summarizes one loader run.
type RunResult struct {
	FilesIngested int `json:"files_ingested"`
	FilesSkipped  int `json:"files_skipped"`
	FilesFailed   int `json:"files_failed"`
	Documents     int `json:"documents"`
}

// Loader embeds and upserts source-file records into a collection in fixed
// size batches, pacing batch starts against provider rate limits. A file is
// marked ingested only after every one of its documents has been upserted;
// idempotence is file-granular, so a file that fails mid-run is reprocessed
// whole on the next run and may duplicate batches that already succeeded.
type Loader struct {
	embedder   Embedder
	store      VectorStore
	tracker    Tracker
	batchSize  int
	pause      time.Duration
	vectorSize int
}

func NewLoader(e Embedder, s VectorStore, t Tracker, batchSize int, pause time.Duration, vectorSize int) *Loader {
	return &Loader{
		embedder:   e,
		store:      s,
		tracker:    t,
		batchSize:  batchSize,
		pause:      pause,
		vectorSize: vectorSize,
	}
}

// Run ingests every file matching pattern that is not yet tracked. Files are
// processed strictly sequentially; a parse or provider failure skips the file
// (it stays untracked and is retried on the next run) and the run continues.
func (l *Loader) Run(ctx context.Context, collection, pattern string, parse ParseFunc) (RunResult, error) {
	var res RunResult

	if err := l.store.EnsureCollection(ctx, collection, l.vectorSize); err != nil {
		return res, fmt.Errorf("ensure collection %s: %w", collection, err)
	}

	ingested, err := l.tracker.Load()
	if err != nil {
		return res, err
	}

	files, err := filepath.Glob(pattern)
	if err != nil {
		return res, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(files) == 0 {
		slog.WarnContext(ctx, "no source files found", "pattern", pattern)
		return res, nil
	}

	limiter := newBatchLimiter(l.pause)

	for _, file := range files {
		if ingested[file] {
			slog.InfoContext(ctx, "skipping already ingested file", "file", file)
			res.FilesSkipped++
			continue
		}

		slog.InfoContext(ctx, "ingesting file", "file", file, "collection", collection)

		data, err := os.ReadFile(file) // #nosec G304 -- paths come from the configured data directory glob
		if err != nil {
			slog.ErrorContext(ctx, "failed to read file", "file", file, "error", err)
			res.FilesFailed++
			continue
		}

		docs, err := parse(data)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse file", "file", file, "error", err)
			res.FilesFailed++
			continue
		}

		if err := l.ingestFile(ctx, limiter, collection, docs); err != nil {
			slog.ErrorContext(ctx, "failed to ingest file", "file", file, "error", err)
			res.FilesFailed++
			continue
		}

		// Only now is the file durably marked; a crash before this point
		// re-ingests it on the next run.
		if err := l.tracker.MarkIngested(file); err != nil {
			return res, fmt.Errorf("mark ingested %s: %w", file, err)
		}

		res.FilesIngested++
		res.Documents += len(docs)
		slog.InfoContext(ctx, "file ingested", "file", file, "documents", len(docs))
	}

	return res, nil
}

// ingestFile embeds and upserts the documents in order, one batch call per
// ceil(len(docs)/batchSize) slice. The first failing batch aborts the file.
func (l *Loader) ingestFile(ctx context.Context, limiter *rate.Limiter, collection string, docs []retrieval.Document) error {
	for start := 0; start < len(docs); start += l.batchSize {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		end := min(start+l.batchSize, len(docs))
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Text
		}

		vectors, err := l.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(batch))
		}
		for i := range batch {
			batch[i].Vector = vectors[i]
		}

		if err := l.store.UpsertBatch(ctx, collection, batch); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}

		slog.InfoContext(ctx, "batch ingested", "collection", collection, "batch_size", len(batch))
	}
	return nil
}

// newBatchLimiter paces batch starts at one per pause interval. The pacing is
// backpressure against provider rate limits, not a correctness mechanism.
func newBatchLimiter(pause time.Duration) *rate.Limiter {
	if pause <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(pause), 1)
}
