package retrieval

import (
	"context"
	"fmt"
	"log/slog"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Searcher interface {
	Search(ctx context.Context, collection string, vector []float32, k int) ([]Match, error)
}

// ThresholdRetriever wraps a nearest-neighbor search against one collection
// and drops every candidate scoring below the configured threshold. It holds
// no mutable state, so concurrent Retrieve calls are independent.
type ThresholdRetriever struct {
	embedder   Embedder
	store      Searcher
	collection string
	k          int
	threshold  float32
}

func NewThresholdRetriever(e Embedder, s Searcher, collection string, k int, threshold float32) *ThresholdRetriever {
	return &ThresholdRetriever{
		embedder:   e,
		store:      s,
		collection: collection,
		k:          k,
		threshold:  threshold,
	}
}

// Retrieve returns the top-k candidates for the query that score at or above
// the threshold, in the store's score-descending order. An empty result is an
// expected outcome, not an error.
func (r *ThresholdRetriever) Retrieve(ctx context.Context, query string) ([]Match, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := r.store.Search(ctx, r.collection, vec, r.k)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.collection, err)
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= r.threshold {
			matches = append(matches, c)
		}
	}

	if len(matches) == 0 {
		slog.InfoContext(ctx, "no matches passed threshold", "collection", r.collection, "threshold", r.threshold, "candidates", len(candidates))
	}

	return matches, nil
}
