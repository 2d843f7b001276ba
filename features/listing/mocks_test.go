package listing_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mlsight/features/listing"
)

type MockRepository struct{ mock.Mock }

func (m *MockRepository) List(ctx context.Context, limit, offset int) ([]listing.Listing, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.Listing), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, id string) (*listing.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Listing), args.Error(1)
}

func (m *MockRepository) Search(ctx context.Context, q listing.SearchQuery) ([]listing.Listing, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.Listing), args.Error(1)
}

func (m *MockRepository) SemanticSearch(ctx context.Context, vector []float32, threshold float64, limit, offset int) ([]listing.Listing, error) {
	args := m.Called(ctx, vector, threshold, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.Listing), args.Error(1)
}

func (m *MockRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}
