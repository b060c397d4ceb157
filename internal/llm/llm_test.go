package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []CallEvent
}

func (o *recordingObserver) OnCallComplete(_ context.Context, e CallEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func testClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) (Completer, *recordingObserver) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		Provider:   ProviderOpenAI,
		APIKey:     "sk-test",
		BaseURL:    srv.URL,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	obs := &recordingObserver{}
	c, err := New(context.Background(), cfg, obs)
	require.NoError(t, err)
	return c, obs
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
}

func TestOpenAI_Complete(t *testing.T) {
	c, obs := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, DefaultSystemPrompt, req.Messages[0].Content)
		assert.Equal(t, "hello", req.Messages[1].Content)
		assert.Equal(t, "user-1", req.User)

		reply(w, "Hi! What would you like to work on?")
	})

	resp, err := c.Complete(context.Background(), Request{Prompt: "hello", ThreadID: "t", UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "Hi! What would you like to work on?", resp.Text)
	assert.Equal(t, "gpt-4o-mini", resp.Model)

	require.Len(t, obs.events, 1)
	assert.True(t, obs.events[0].Success)
	assert.Equal(t, 1, obs.events[0].Attempts)
}

func TestOpenAI_SystemOverride(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Reply in JSON", req.Messages[0].Content)
		reply(w, "[]")
	})

	_, err := c.Complete(context.Background(), Request{Prompt: "x", System: "Reply in JSON"})
	require.NoError(t, err)
}

func TestOpenAI_UnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, obs := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	})

	_, err := c.Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.EqualValues(t, 1, calls.Load())

	require.Len(t, obs.events, 1)
	assert.Equal(t, "UNAUTHORIZED", obs.events[0].ErrorCode)
}

func TestOpenAI_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		reply(w, "third time lucky")
	})

	resp, err := c.Complete(context.Background(), Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", resp.Text)
	assert.EqualValues(t, 3, calls.Load())
}

func TestOpenAI_RetryExhausted(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, func(cfg *Config) { cfg.MaxRetries = 1 })

	_, err := c.Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrRetryExhausted)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.EqualValues(t, 2, calls.Load())
}

func TestOpenAI_EmptyResponse(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, "  ")
	})

	_, err := c.Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAI_Timeout(t *testing.T) {
	c, obs := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, func(cfg *Config) { cfg.Timeout = 50 * time.Millisecond })

	_, err := c.Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrTimeout)
	require.Len(t, obs.events, 1)
	assert.Equal(t, "TIMEOUT", obs.events[0].ErrorCode)
}

func TestOpenAI_Unavailable(t *testing.T) {
	c, err := New(context.Background(), Config{
		Provider:   ProviderOpenAI,
		APIKey:     "sk-test",
		BaseURL:    "http://127.0.0.1:1",
		RetryDelay: time.Millisecond,
	}, nil)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNew(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: ProviderNone}, nil)
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = New(context.Background(), Config{}, nil)
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = New(context.Background(), Config{Provider: "bogus"}, nil)
	assert.Error(t, err)

	for _, provider := range []string{ProviderOpenAI, ProviderGemini} {
		c, err := New(context.Background(), Config{Provider: provider}, nil)
		require.NoError(t, err)
		_, err = c.Complete(context.Background(), Request{Prompt: "x"})
		assert.ErrorIs(t, err, ErrMissingAPIKey, provider)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Provider: ProviderGemini, MaxRetries: -1}.withDefaults()
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Timeout)

	assert.Equal(t, "gpt-4o-mini", Config{Provider: ProviderOpenAI}.withDefaults().Model)
}

func TestStatusError(t *testing.T) {
	assert.ErrorIs(t, &StatusError{Code: http.StatusForbidden}, ErrUnauthorized)
	assert.NotErrorIs(t, &StatusError{Code: http.StatusBadRequest}, ErrUnauthorized)
	assert.True(t, retryable(&StatusError{Code: http.StatusTooManyRequests}))
	assert.False(t, retryable(&StatusError{Code: http.StatusBadRequest}))
}
