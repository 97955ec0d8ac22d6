package stats_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"opslens/features/stats"
)

type MockRunRepo struct {
	mock.Mock
}

func (m *MockRunRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockDocumentCounter struct {
	mock.Mock
}

func (m *MockDocumentCounter) Count(ctx context.Context, collection string) (int, error) {
	args := m.Called(ctx, collection)
	return args.Int(0), args.Error(1)
}

func TestHandler_GetStats(t *testing.T) {
	runs := new(MockRunRepo)
	docs := new(MockDocumentCounter)
	h := stats.NewHandler(runs, docs, "aks_logs", "tickets")

	runs.On("Count", mock.Anything).Return(4, nil)
	docs.On("Count", mock.Anything, "aks_logs").Return(120, nil)
	docs.On("Count", mock.Anything, "tickets").Return(9, nil)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()

	h.GetStats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data stats.StatsResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 4, resp.Data.Runs)
	assert.Equal(t, 120, resp.Data.LogDocs)
	assert.Equal(t, 9, resp.Data.TicketDocs)
}

func TestHandler_GetStats_CounterError(t *testing.T) {
	runs := new(MockRunRepo)
	docs := new(MockDocumentCounter)
	h := stats.NewHandler(runs, docs, "aks_logs", "tickets")

	runs.On("Count", mock.Anything).Return(0, nil)
	docs.On("Count", mock.Anything, "aks_logs").Return(0, errors.New("weaviate unreachable"))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()

	h.GetStats(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Error map[string]string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "INTERNAL_ERROR", resp.Error["code"])
}

func TestHandler_GetStats_RunCountError(t *testing.T) {
	runs := new(MockRunRepo)
	docs := new(MockDocumentCounter)
	h := stats.NewHandler(runs, docs, "aks_logs", "tickets")

	runs.On("Count", mock.Anything).Return(0, errors.New("db down"))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()

	h.GetStats(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	docs.AssertNotCalled(t, "Count")
}
