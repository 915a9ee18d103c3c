package retrieval

import (
	"context"
	"log/slog"
	"time"

	"tubequery/internal/logger"
)

// Filter narrows a vector query to specific videos or a whole source.
type Filter struct {
	VideoIDs []string
	SourceID string
}

type SearchOptions struct {
	VideoIDs []string
	SourceID string
	TopK     *int
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]Match, error)
}

// Service embeds a question, queries the vector store and ranks the raw
// matches into an ordered, deduplicated context for answer synthesis.
type Service struct {
	embedder Embedder
	store    VectorStore
	ranker   *Ranker
	topK     int
	logger   *QueryLogger
}

func NewService(e Embedder, s VectorStore, r *Ranker, topK int, l *QueryLogger) *Service {
	if topK <= 0 {
		topK = 5
	}
	if r == nil {
		r = NewRanker(0, 0)
	}
	return &Service{embedder: e, store: s, ranker: r, topK: topK, logger: l}
}

func (s *Service) Search(ctx context.Context, question string, opts *SearchOptions) ([]Match, error) {
	start := time.Now()

	topK := s.topK
	var filter Filter
	if opts != nil {
		if opts.TopK != nil && *opts.TopK > 0 {
			topK = *opts.TopK
		}
		filter.VideoIDs = opts.VideoIDs
		filter.SourceID = opts.SourceID
	}

	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		slog.ErrorContext(ctx, "query embedding failed", "error", err)
		return nil, err
	}

	matches, err := s.store.Query(ctx, vec, filter, topK)
	if err != nil {
		slog.ErrorContext(ctx, "vector search failed", "error", err)
		return nil, err
	}

	ranked := s.ranker.Rank(matches)

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:         question,
			NumMatches:    len(matches),
			NumRanked:     len(ranked),
			TopK:          topK,
			Duration:      time.Since(start),
			CorrelationID: logger.GetCorrelationID(ctx),
		})
	}

	slog.InfoContext(ctx, "search complete", "matches", len(matches), "ranked", len(ranked))
	return ranked, nil
}
