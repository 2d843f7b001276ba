package listing_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlsight/features/listing"
	"mlsight/internal/adapter/pgvector"
	"mlsight/internal/testutils"
)

func TestListingRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	store := pgvector.NewStore(s.DB)
	repo := listing.NewPostgresRepo(s.DB)
	ctx := context.Background()

	unitVector := func(axis int) []float32 {
		v := make([]float32, 1536)
		v[axis] = 1
		return v
	}

	require.NoError(t, store.SaveRecord(ctx, pgvector.Record{
		ID:        "req-1",
		Data:      json.RawMessage(`{"mls_number":"W1111111","listing_address":{"street_address":"12 King St W"}}`),
		Content:   "Client remarks: downtown condo",
		Embedding: unitVector(0),
	}))
	require.NoError(t, store.SaveRecord(ctx, pgvector.Record{
		ID:        "req-2",
		Data:      json.RawMessage(`{"mls_number":"C2222222","listing_address":{"street_address":"99 Lakeshore Blvd"}}`),
		Content:   "Client remarks: lakeside bungalow",
		Embedding: unitVector(1),
	}))

	// Attribute search
	byAddress, err := repo.Search(ctx, listing.SearchQuery{Address: "king st"})
	require.NoError(t, err)
	require.Len(t, byAddress, 1)
	assert.Equal(t, "req-1", byAddress[0].ID)

	byMLS, err := repo.Search(ctx, listing.SearchQuery{MLSNumber: "C2222222"})
	require.NoError(t, err)
	require.Len(t, byMLS, 1)
	assert.Equal(t, "req-2", byMLS[0].ID)

	// Get
	got, err := repo.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "req-1", got.ID)

	// Semantic search: the query vector matches req-2 exactly, req-1 not at all
	matches, err := repo.SemanticSearch(ctx, unitVector(1), 0.45, 10, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "req-2", matches[0].ID)
	require.NotNil(t, matches[0].Cossim)
	assert.InDelta(t, 1.0, *matches[0].Cossim, 1e-6)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
