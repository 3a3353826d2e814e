package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/adaptiverag/log"
	"github.com/smallnest/adaptiverag/retriever"
	memorystore "github.com/smallnest/adaptiverag/store/memory"
	"github.com/smallnest/adaptiverag/tool"
	"github.com/smallnest/adaptiverag/workflow"
)

// stubModel routes every question to the vectorstore and grades everything
// as acceptable.
type stubModel struct {
	answer string
}

func (m *stubModel) Chat(context.Context, string, string) (string, error) {
	return m.answer, nil
}

func (m *stubModel) ChatStructured(_ context.Context, system string, _ string) (string, error) {
	if strings.Contains(system, "routing a user question") {
		return `{"datasource": "vectorstore"}`, nil
	}
	return `{"binary_score": "yes", "explanation": "ok"}`, nil
}

type stubSearch struct{}

func (stubSearch) Search(context.Context, string, int) (*tool.SearchResult, error) {
	return &tool.SearchResult{Content: "web content", Sources: []string{"https://example.com"}}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	kb := retriever.NewStaticRetriever([]retriever.Document{
		{Content: "a vector index maps embeddings to documents"},
	}, 0)

	engine, err := workflow.NewEngine(&stubModel{answer: "a vector index maps embeddings"}, stubSearch{},
		workflow.WithRetriever(kb),
		workflow.WithCheckpointStore(memorystore.NewCheckpointStore()),
		workflow.WithEngineLogger(&log.NoOpLogger{}),
	)
	require.NoError(t, err)

	return New(engine, "127.0.0.1:0", WithLogger(&log.NoOpLogger{}))
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestChat(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s.Handler(), "/api/chat", `{"question": "what is a vector index", "session_id": "s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a vector index maps embeddings", resp.Answer)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, 1, resp.LoopStep)
}

func TestChat_Validation(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	cases := []struct {
		name string
		body string
	}{
		{"empty question", `{"question": ""}`},
		{"question too long", `{"question": "` + strings.Repeat("q", 2001) + `"}`},
		{"max retries too high", `{"question": "hi", "max_retries": 9}`},
		{"negative max retries", `{"question": "hi", "max_retries": -1}`},
		{"malformed body", `{"question": `},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h, "/api/chat", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestChatStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat/stream", "application/json",
		strings.NewReader(`{"question": "what is a vector index", "include_sources": true, "include_workflow": true}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var events []string
	buf := make([]byte, 64*1024)
	var body strings.Builder
	for {
		n, readErr := resp.Body.Read(buf)
		body.Write(buf[:n])
		if readErr != nil {
			break
		}
	}
	for _, line := range strings.Split(body.String(), "\n") {
		if strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimPrefix(line, "event: "))
		}
	}

	require.NotEmpty(t, events)
	assert.Equal(t, "start", events[0])
	assert.Equal(t, "done", events[len(events)-1])
	assert.Contains(t, events, "documents")
	assert.Contains(t, events, "chunk")
	assert.Contains(t, events, "workflow_step")
}

func TestHistory(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := postJSON(t, h, "/api/chat", `{"question": "what is a vector index", "session_id": "hist-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history?session_id=hist-1", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID string                  `json:"session_id"`
		Steps     []workflow.HistoryEntry `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hist-1", resp.SessionID)
	require.NotEmpty(t, resp.Steps)
	assert.Equal(t, 0, resp.Steps[0].Step)
	assert.Equal(t, "a vector index maps embeddings", resp.Steps[len(resp.Steps)-1].State.Generation)
}

func TestHistory_RequiresSessionID(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
