package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlsight/internal/app"
	"mlsight/internal/config"
	"mlsight/internal/testutils"
)

type staticEmbedder struct{ dim int }

func (e *staticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, e.dim)
	v[0] = 1
	return v, nil
}

func TestSmoke_Wiring(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping smoke test in short mode")
	}

	// 1. Start Infrastructure
	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	// 2. Wire the app against it
	cfg := &config.Config{
		ResolverStrategy:  config.StrategyRequeue,
		EmbeddingDim:      1536,
		ServerPort:        8081,
		WorkerConcurrency: 1,
	}
	a, err := app.New(cfg, suite.DB, suite.NSQ, &staticEmbedder{dim: 1536})
	require.NoError(t, err)

	srv := httptest.NewServer(a.Handler)
	defer srv.Close()

	// 3. Health and read endpoints respond against the migrated schema
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/listings")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
