package listing

import (
	"context"
	"fmt"
)

// defaultThreshold is the minimum cosine similarity for a semantic match.
const defaultThreshold = 0.45

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Service struct {
	repo     Repository
	embedder Embedder
}

func NewService(repo Repository, embedder Embedder) *Service {
	return &Service{repo: repo, embedder: embedder}
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Listing, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Get(ctx context.Context, id string) (*Listing, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Search(ctx context.Context, q SearchQuery) ([]Listing, error) {
	return s.repo.Search(ctx, q)
}

// SemanticSearch embeds the query text and returns listings above the
// similarity threshold, best match first.
func (s *Service) SemanticSearch(ctx context.Context, query string, threshold float64, limit, offset int) ([]Listing, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = defaultThreshold
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return s.repo.SemanticSearch(ctx, vector, threshold, limit, offset)
}
