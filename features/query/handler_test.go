package query_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"opslens/features/query"
	"opslens/internal/agent"
)

type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) Answer(ctx context.Context, question string) (string, []agent.TraceEvent, error) {
	args := m.Called(ctx, question)
	var trace []agent.TraceEvent
	if args.Get(1) != nil {
		trace = args.Get(1).([]agent.TraceEvent)
	}
	return args.String(0), trace, args.Error(2)
}

func TestHandler_Query(t *testing.T) {
	orch := new(MockOrchestrator)
	h := query.NewHandler(orch)

	trace := []agent.TraceEvent{
		{Type: agent.EventToolCall, Tool: "search_logs", Input: "checkout errors"},
		{Type: agent.EventFinish, Output: "Two pods crashed in checkout."},
	}
	orch.On("Answer", mock.Anything, "what went wrong in checkout?").
		Return("Two pods crashed in checkout.", trace, nil)

	body := bytes.NewBufferString(`{"question":"what went wrong in checkout?"}`)
	req := httptest.NewRequest(http.MethodPost, "/query", body)
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Answer string             `json:"answer"`
			Trace  []agent.TraceEvent `json:"trace"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Two pods crashed in checkout.", resp.Data.Answer)
	require.Len(t, resp.Data.Trace, 2)
	assert.Equal(t, "search_logs", resp.Data.Trace[0].Tool)
}

func TestHandler_Query_EmptyQuestion(t *testing.T) {
	orch := new(MockOrchestrator)
	h := query.NewHandler(orch)

	body := bytes.NewBufferString(`{"question":""}`)
	req := httptest.NewRequest(http.MethodPost, "/query", body)
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	orch.AssertNotCalled(t, "Answer")

	var resp struct {
		Error map[string]string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error["code"])
}

func TestHandler_Query_InvalidJSON(t *testing.T) {
	orch := new(MockOrchestrator)
	h := query.NewHandler(orch)

	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Query_OrchestratorError(t *testing.T) {
	orch := new(MockOrchestrator)
	h := query.NewHandler(orch)

	orch.On("Answer", mock.Anything, "why?").Return("", nil, errors.New("model unavailable"))

	body := bytes.NewBufferString(`{"question":"why?"}`)
	req := httptest.NewRequest(http.MethodPost, "/query", body)
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_Query_EmptyTraceSerializesAsArray(t *testing.T) {
	orch := new(MockOrchestrator)
	h := query.NewHandler(orch)

	orch.On("Answer", mock.Anything, "anything new?").
		Return("No logs or system tickets found for your query.", nil, nil)

	body := bytes.NewBufferString(`{"question":"anything new?"}`)
	req := httptest.NewRequest(http.MethodPost, "/query", body)
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"trace":[]`)
}
