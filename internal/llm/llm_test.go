package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/findash/internal/common"
)

var fastRetry = common.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
	Multiplier:   2,
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:   "openai",
			config: Config{Provider: "openai", APIKey: "key"},
		},
		{
			name:   "anthropic with rate limit",
			config: Config{Provider: "Anthropic", APIKey: "key", RateLimit: 10},
		},
		{
			name:    "missing API key",
			config:  Config{Provider: "openai"},
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "unknown provider",
			config:  Config{Provider: "oracle", APIKey: "key"},
			wantErr: common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.config)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, "gpt-4o-mini", DefaultModel("openai"))
	assert.Contains(t, DefaultModel("anthropic"), "claude")
	assert.Contains(t, DefaultModel("GEMINI"), "gemini")
}

func TestOpenAIClient_Analyze(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  You spent 1,200 on food.  "}}]}`))
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), Config{
		Provider: ProviderOpenAI,
		APIKey:   "test-key",
		BaseURL:  server.URL + "/",
		Model:    "gpt-test",
	})
	require.NoError(t, err)

	answer, err := client.Analyze(context.Background(), "How much on food?", "Be brief.")
	require.NoError(t, err)
	assert.Equal(t, "You spent 1,200 on food.", answer)

	assert.Equal(t, "gpt-test", received["model"])
	messages, ok := received["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	system, ok := messages[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "system", system["role"])
	assert.Equal(t, "Be brief.", system["content"])
}

func TestAnthropicClient_Analyze(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Net worth is "},{"type":"text","text":"53,250 TWD."}]}`))
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), Config{Provider: ProviderAnthropic, APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	answer, err := client.Analyze(context.Background(), "Net worth?", "You are an assistant.")
	require.NoError(t, err)
	assert.Equal(t, "Net worth is 53,250 TWD.", answer)
	assert.Equal(t, "You are an assistant.", received["system"])
	assert.Equal(t, DefaultModel(ProviderAnthropic), received["model"])
}

func TestAnalyze_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), Config{Provider: ProviderOpenAI, APIKey: "k", BaseURL: server.URL, Retry: fastRetry})
	require.NoError(t, err)

	answer, err := client.Analyze(context.Background(), "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestAnalyze_ClientErrorsAreNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), Config{Provider: ProviderAnthropic, APIKey: "bad", BaseURL: server.URL, Retry: fastRetry})
	require.NoError(t, err)

	_, err = client.Analyze(context.Background(), "hi", "")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestAnalyze_EmptyAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), Config{Provider: ProviderOpenAI, APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Analyze(context.Background(), "hi", "")
	assert.ErrorContains(t, err, "no completion choices")
}

func TestRateLimiter_Reserve(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2)
	rl.now = func() time.Time { return now }
	rl.lastRefill = now

	assert.Zero(t, rl.reserve())
	assert.Zero(t, rl.reserve())

	// Two per minute refills one token every 30 seconds.
	assert.Equal(t, 30*time.Second, rl.reserve())

	now = now.Add(31 * time.Second)
	assert.Zero(t, rl.reserve())
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := newRateLimiter(1)
	require.NoError(t, rl.wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.wait(ctx), context.DeadlineExceeded)
}

func TestMockClient(t *testing.T) {
	m := NewMockClient("answer")
	got, err := m.Analyze(context.Background(), "q", "sys")
	require.NoError(t, err)
	assert.Equal(t, "answer", got)

	m.Err = errors.New("down")
	_, err = m.Analyze(context.Background(), "q2", "sys")
	require.Error(t, err)
	assert.Equal(t, []Call{{Prompt: "q", SystemPrompt: "sys"}, {Prompt: "q2", SystemPrompt: "sys"}}, m.Calls())
}
