package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rainytroy/May-Quote-sub001/pkg/config"
	"github.com/Rainytroy/May-Quote-sub001/pkg/llm"
)

type capturedRequest struct {
	Model          string  `json:"model"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float64 `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const okBody = `{"id":"c1","object":"chat.completion","model":"gpt-test","choices":[{"index":0,"message":{"role":"assistant","content":"{\"adminInputs\":{}}"},"finish_reason":"stop"}]}`

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Chat(t *testing.T) {
	var got capturedRequest
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okBody))
	})

	client := NewClient(config.ModelDef{
		APIKey:      "test-key",
		ModelName:   "gpt-test",
		BaseURL:     srv.URL + "/v1",
		MaxTokens:   500,
		Temperature: 0.3,
	})

	out, err := client.Chat(context.Background(), llm.ChatRequest{
		Model:     "alias-ignored",
		MaxTokens: 900,
		Format:    "json_object",
		Messages:  []llm.Message{llm.SystemMessage("sys"), llm.UserMessage("build a form")},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"adminInputs":{}}`, out)
	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, 900, got.MaxTokens)
	assert.InDelta(t, 0.3, got.Temperature, 1e-6)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "build a form", got.Messages[1].Content)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		w.Write([]byte(okBody))
	})

	client := NewClient(config.ModelDef{APIKey: "k", ModelName: "m", BaseURL: srv.URL, RetryAttempts: 2})
	client.policy.WithBackoff(time.Millisecond)

	out, err := client.Chat(context.Background(), llm.ChatRequest{Messages: []llm.Message{llm.UserMessage("x")}})

	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	client := NewClient(config.ModelDef{APIKey: "k", ModelName: "m", BaseURL: srv.URL, RetryAttempts: 3})

	_, err := client.Chat(context.Background(), llm.ChatRequest{Messages: []llm.Message{llm.UserMessage("x")}})

	require.Error(t, err)
	assert.ErrorContains(t, err, "bad key")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_EmptyChoices(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	})

	client := NewClient(config.ModelDef{APIKey: "k", ModelName: "m", BaseURL: srv.URL})
	_, err := client.Chat(context.Background(), llm.ChatRequest{Messages: []llm.Message{llm.UserMessage("x")}})

	assert.ErrorContains(t, err, "no choices in response")
}
