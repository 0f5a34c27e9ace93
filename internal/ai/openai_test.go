package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/devvibe-backend/internal/config"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newFakeAPI(t *testing.T, status int, body string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_Complete(t *testing.T) {
	var seen chatRequest
	srv := newFakeAPI(t, http.StatusOK,
		`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Go is great."},"finish_reason":"stop"}]}`,
		&seen)

	c := NewOpenAI(config.AIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: srv.URL})
	answer, err := c.Complete(context.Background(), "Why Go?")
	require.NoError(t, err)

	assert.Equal(t, "Go is great.", answer)
	assert.Equal(t, "gpt-4o-mini", seen.Model)
	assert.InDelta(t, Temperature, seen.Temperature, 0.001)
	assert.Equal(t, MaxTokens, seen.MaxTokens)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, SystemPrompt, seen.Messages[0].Content)
	assert.Equal(t, "user", seen.Messages[1].Role)
	assert.Equal(t, "Why Go?", seen.Messages[1].Content)
}

func TestOpenAI_NoChoices(t *testing.T) {
	srv := newFakeAPI(t, http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[]}`, nil)

	c := NewOpenAI(config.AIConfig{APIKey: "sk-test", BaseURL: srv.URL})
	answer, err := c.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "", answer)
	assert.Equal(t, "gpt-4o-mini", c.Model())
}

func TestOpenAI_UpstreamError(t *testing.T) {
	srv := newFakeAPI(t, http.StatusTooManyRequests,
		`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`, nil)

	c := NewOpenAI(config.AIConfig{APIKey: "sk-test", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), "hi")
	assert.ErrorContains(t, err, "Rate limit reached")
}
