package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cafe-calorie/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroqClient_GenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req groqRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, groqModel, req.Model)
		assert.Equal(t, "hello", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama","choices":[{"message":{"role":"assistant","content":"{}"}}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`))
	}))
	defer srv.Close()

	c := NewGroqClient("secret")
	c.url = srv.URL

	resp, err := c.GenerateContent(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "{}", resp.Content)
	assert.Equal(t, TokenUsage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4, Model: "llama"}, resp.Usage)
}

func TestGroqClient_Errors(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewGroqClient("k")
		c.url = srv.URL
		_, err := c.GenerateContent(context.Background(), "x")
		assert.ErrorContains(t, err, "status=429")
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		c := NewGroqClient("k")
		c.url = srv.URL
		_, err := c.GenerateContent(context.Background(), "x")
		assert.ErrorContains(t, err, "no content generated")
	})
}

func TestNewTextGenerator(t *testing.T) {
	_, err := NewTextGenerator(context.Background(), &config.Config{LLMProvider: "groq"})
	assert.EqualError(t, err, "GROQ_API_KEY environment variable not set")

	gen, err := NewTextGenerator(context.Background(), &config.Config{LLMProvider: "groq", GroqAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &groqClient{}, gen)
}
