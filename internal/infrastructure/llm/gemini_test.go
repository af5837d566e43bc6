package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/compia/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const okBody = `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"summary\":\"ok\"}"}]},"finishReason":"STOP"}]}`

func newTestClient(t *testing.T, handler http.HandlerFunc, retries uint64) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewGeminiClient(context.Background(), config.LLMConfig{
		APIKey:     "test-key",
		Model:      "gemini-test",
		Timeout:    5 * time.Second,
		MaxRetries: retries,
	}, zaptest.NewLogger(t), WithBaseURL(srv.URL))
	require.NoError(t, err)
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), config.LLMConfig{}, nil)
	assert.Error(t, err)
}

func TestGeminiClient_GenerateJSON(t *testing.T) {
	var captured map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, okBody)
	}, 0)

	out, err := c.GenerateJSON(context.Background(), Request{
		SystemPrompt: "Você é um assistente de inspeções",
		Prompt:       "Gere a ata",
		Audio:        []byte("RIFF"),
		MimeType:     "audio/webm",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, out)
	assert.Equal(t, "gemini-test", c.Model())

	raw, _ := json.Marshal(captured)
	assert.Contains(t, string(raw), `"responseMimeType":"application/json"`)
	assert.Contains(t, string(raw), `"mimeType":"audio/webm"`)
	assert.Contains(t, string(raw), "Você é um assistente de inspeções")
}

func TestGeminiClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
			return
		}
		_, _ = io.WriteString(w, okBody)
	}, 3)

	out, err := c.GenerateJSON(context.Background(), Request{Prompt: "ping"})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGeminiClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"bad audio","status":"INVALID_ARGUMENT"}}`)
	}, 3)

	_, err := c.GenerateJSON(context.Background(), Request{Prompt: "ping"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad audio")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGeminiClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, 2)

	_, err := c.GenerateJSON(context.Background(), Request{Prompt: "ping"})
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGeminiClient_EmptyRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no call expected")
	}, 0)

	_, err := c.GenerateJSON(context.Background(), Request{})
	assert.Error(t, err)
}
