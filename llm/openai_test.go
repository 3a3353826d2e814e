package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeOpenAI(t *testing.T, handler func(req map[string]any) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		content := handler(req)
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestNewOpenAIModel_RequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewOpenAIModel()
	assert.Error(t, err)
}

func TestChat(t *testing.T) {
	srv := newFakeOpenAI(t, func(req map[string]any) string {
		assert.Equal(t, "test-model", req["model"])
		assert.Nil(t, req["response_format"])

		msgs := req["messages"].([]any)
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
		assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
		return "hello there"
	})
	defer srv.Close()

	model, err := NewOpenAIModel(
		WithAPIKey("test-key"),
		WithBaseURL(srv.URL+"/v1"),
		WithModel("test-model"),
	)
	require.NoError(t, err)

	reply, err := model.Chat(context.Background(), "be brief", "say hello")
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)
}

func TestChatStructured_SetsJSONMode(t *testing.T) {
	srv := newFakeOpenAI(t, func(req map[string]any) string {
		format, ok := req["response_format"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "json_object", format["type"])
		return `{"binary_score": "yes"}`
	})
	defer srv.Close()

	model, err := NewOpenAIModel(
		WithAPIKey("test-key"),
		WithBaseURL(srv.URL+"/v1"),
	)
	require.NoError(t, err)

	reply, err := model.ChatStructured(context.Background(), "grade", "doc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"binary_score": "yes"}`, reply)
}

func TestChat_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	model, err := NewOpenAIModel(
		WithAPIKey("test-key"),
		WithBaseURL(srv.URL+"/v1"),
	)
	require.NoError(t, err)

	_, err = model.Chat(context.Background(), "sys", "user")
	assert.Error(t, err)
}
