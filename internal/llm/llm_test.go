package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"luvv/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginTag(t *testing.T) {
	tests := []struct {
		driver string
		model  string
		want   string
	}{
		{DriverGemini, "gemini-2.5-flash", "gemini-2.5-flash"},
		{DriverGroq, "llama-3.1-8b-instant", "groq-llama-3.1-8b"},
		{DriverOpenRouter, "meta-llama/llama-3.1-8b-instruct", "openrouter-llama-3.1-8b"},
		{DriverVolcengine, "doubao-1-5-lite-32k-250115", "volcengine-doubao-1-5-lite-32k-250115"},
		{DriverGroq, "", "groq"},
	}
	for _, tt := range tests {
		if got := originTag(tt.driver, tt.model); got != tt.want {
			t.Fatalf("originTag(%q, %q) = %q, want %q", tt.driver, tt.model, got, tt.want)
		}
	}
}

func TestProviderErrorRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *ProviderError
		want bool
	}{
		{"network", &ProviderError{Kind: ErrorKindNetwork}, true},
		{"timeout", &ProviderError{Kind: ErrorKindTimeout}, true},
		{"empty", &ProviderError{Kind: ErrorKindEmpty}, true},
		{"config", &ProviderError{Kind: ErrorKindConfig}, false},
		{"server error", &ProviderError{Kind: ErrorKindStatus, StatusCode: 502}, true},
		{"rate limited", &ProviderError{Kind: ErrorKindStatus, StatusCode: 429}, true},
		{"unauthorised", &ProviderError{Kind: ErrorKindStatus, StatusCode: 401}, false},
		{"bad request", &ProviderError{Kind: ErrorKindStatus, StatusCode: 400}, false},
	}
	for _, tt := range tests {
		if got := tt.err.Retryable(); got != tt.want {
			t.Fatalf("%s: Retryable() = %v, want %v", tt.name, got, tt.want)
		}
	}
	if IsRetryable(errors.New("plain")) {
		t.Fatal("plain errors must not be retryable")
	}
}

func TestClassifyTransportErrorTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	perr := classifyTransportError(ctx, "groq-llama-3.1-8b", ctx.Err())
	assert.Equal(t, ErrorKindTimeout, perr.Kind)
	assert.ErrorIs(t, perr, context.DeadlineExceeded)
}

func newChatServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func chatCompletionBody(content string) string {
	payload := map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "llama-3.1-8b-instant",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestOpenAICompatibleGenerate(t *testing.T) {
	var seen map[string]any
	srv := newChatServer(t, http.StatusOK, chatCompletionBody(`{"messages":["a","b","c"]}`), &seen)

	provider, err := NewOpenAICompatible(DriverGroq, "key", "llama-3.1-8b-instant", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "groq-llama-3.1-8b", provider.ID())
	assert.Equal(t, DriverGroq, provider.Name())

	text, err := provider.Generate(context.Background(), Prompt{System: "be kind", User: "write"})
	require.NoError(t, err)
	assert.Equal(t, `{"messages":["a","b","c"]}`, text)

	require.NotNil(t, seen)
	assert.Equal(t, "llama-3.1-8b-instant", seen["model"])
	format, _ := seen["response_format"].(map[string]any)
	assert.Equal(t, "json_object", format["type"])
	messages, _ := seen["messages"].([]any)
	assert.Len(t, messages, 2)
}

func TestOpenAICompatibleStatusError(t *testing.T) {
	srv := newChatServer(t, http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`, nil)

	provider, err := NewOpenAICompatible(DriverOpenRouter, "key", "meta-llama/llama-3.1-8b-instruct", srv.URL)
	require.NoError(t, err)

	_, err = provider.Generate(context.Background(), Prompt{User: "write"})
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrorKindStatus, perr.Kind)
	assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	assert.True(t, perr.Retryable())
}

func TestOpenAICompatibleEmptyContent(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, chatCompletionBody("   "), nil)

	provider, err := NewOpenAICompatible(DriverGroq, "key", "llama-3.1-8b-instant", srv.URL)
	require.NoError(t, err)

	_, err = provider.Generate(context.Background(), Prompt{User: "write"})
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrorKindEmpty, perr.Kind)
}

func TestGeminiGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"messages\":[\"x\"]}"}]}}]}`))
	}))
	defer srv.Close()

	provider, err := NewGemini("key", "", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", provider.ID())

	text, err := provider.Generate(context.Background(), Prompt{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, `{"messages":["x"]}`, text)
}

func TestBuildVolcengineMessages(t *testing.T) {
	messages := buildVolcengineMessages(Prompt{System: "sys", User: "usr"})
	require.Len(t, messages, 2)
	assert.Equal(t, "sys", *messages[0].Content.StringValue)
	assert.Equal(t, "usr", *messages[1].Content.StringValue)

	onlyUser := buildVolcengineMessages(Prompt{User: "usr"})
	assert.Len(t, onlyUser, 1)
}

func TestNewProvidersSkipsMissingKeys(t *testing.T) {
	cfg := config.Config{
		ProviderOrder: []string{DriverGemini, DriverGroq, DriverOpenRouter},
		GroqAPIKey:    "groq-key",
		GroqModel:     "llama-3.1-8b-instant",
		GroqBaseURL:   "http://127.0.0.1:1",
	}
	providers, err := NewProviders(cfg)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "groq-llama-3.1-8b", providers[0].ID())

	cfg.ProviderOrder = []string{"unknown"}
	_, err = NewProviders(cfg)
	assert.Error(t, err)
}
