package stats_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mlsight/features/stats"
)

type MockListingRepo struct{ mock.Mock }

func (m *MockListingRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestHandler_GetStats(t *testing.T) {
	repo := new(MockListingRepo)
	repo.On("Count", mock.Anything).Return(12, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	stats.NewHandler(repo).GetStats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"listings":12}}`, rec.Body.String())
}

func TestHandler_GetStatsCountFailure(t *testing.T) {
	repo := new(MockListingRepo)
	repo.On("Count", mock.Anything).Return(0, errors.New("db down"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	stats.NewHandler(repo).GetStats(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}
