package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGenerator_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "solar-pro2", req.Model)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
		assert.Equal(t, "user text", req.Messages[1].Content)

		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "chatcmpl-1",
			Model: req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: `{"summary":"ok"}`},
				FinishReason: "stop",
			}},
		})
	}))
	defer server.Close()

	gen, err := NewGenerator(GeneratorConfig{Provider: "upstage", APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	defer gen.Close()
	assert.Equal(t, "solar-pro2", gen.Model())

	out, err := gen.Complete(context.Background(), Prompt{System: "sys", User: "user text"})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, out)
}

func TestOpenAIGenerator_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(GeneratorConfig{APIKey: "k", BaseURL: server.URL, Model: "m"})
	require.NoError(t, err)

	_, err = gen.Complete(context.Background(), Prompt{User: "x"})
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, http.StatusInternalServerError, genErr.StatusCode)
	assert.True(t, IsRetryable(err))
}

func TestOpenAIGenerator_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "x"})
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(GeneratorConfig{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = gen.Complete(context.Background(), Prompt{User: "x"})
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.False(t, genErr.Retryable())
}

func TestAnthropicGenerator_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sys", req.System)
		require.Len(t, req.Messages, 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"summary\":"},{"type":"text","text":"\"ok\"}"}]}`))
	}))
	defer server.Close()

	gen, err := NewGenerator(GeneratorConfig{Provider: "anthropic", APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	out, err := gen.Complete(context.Background(), Prompt{System: "sys", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, out)
}

func TestAnthropicGenerator_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"type":"rate_limit_error","message":"slow down"}}`, true},
		{"bad request", http.StatusBadRequest, `{"error":{"type":"invalid_request_error","message":"bad"}}`, false},
		{"explicit error", http.StatusOK, `{"error":{"type":"overloaded_error","message":"busy"}}`, false},
		{"empty content", http.StatusOK, `{"content":[]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			gen, err := NewAnthropicGenerator(GeneratorConfig{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = gen.Complete(context.Background(), Prompt{User: "u"})
			var genErr *GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, tt.retryable, genErr.Retryable())
		})
	}
}

func TestNewGenerator_Validation(t *testing.T) {
	_, err := NewGenerator(GeneratorConfig{Provider: "upstage"})
	assert.Error(t, err, "missing API key")

	_, err = NewGenerator(GeneratorConfig{Provider: "nope", APIKey: "k"})
	assert.Error(t, err)
}
