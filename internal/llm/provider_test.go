package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duyhunghd6/repo-analyzer/internal/config"
)

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

func fakeOpenAI(t *testing.T, reply string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerate(t *testing.T) {
	var req chatRequest
	srv := fakeOpenAI(t, "It parses files.", &req)

	p, err := NewOpenAIProvider(config.LLMConfig{OpenAIAPIKey: "test-key", BaseURL: srv.URL, Model: "test-model"})
	require.NoError(t, err)

	out, err := p.Generate(context.Background(), []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "what does it do?"},
	}, WithTemperature(0.1), WithMaxTokens(50))
	require.NoError(t, err)

	assert.Equal(t, "It parses files.", out)
	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, RoleSystem, req.Messages[0].Role)
	assert.Equal(t, "what does it do?", req.Messages[1].Content)
}

func TestOpenAIGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(config.LLMConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.ErrorContains(t, err, "openai completion")
}

func TestNewProviderSelection(t *testing.T) {
	t.Setenv("REPO_ANALYZER_DEBUG_PROMPT_DIR", "")

	tests := []struct {
		name    string
		cfg     config.LLMConfig
		want    string
		wantErr error
	}{
		{"nothing configured", config.LLMConfig{}, "", ErrNoProvider},
		{"explicit none", config.LLMConfig{Provider: "none", OpenAIAPIKey: "k"}, "", ErrNoProvider},
		{"auto openai", config.LLMConfig{OpenAIAPIKey: "k", AnthropicAPIKey: "a"}, "openai", nil},
		{"auto anthropic", config.LLMConfig{AnthropicAPIKey: "a"}, "anthropic", nil},
		{"compatible server without key", config.LLMConfig{BaseURL: "http://localhost:11434/v1"}, "openai", nil},
		{"explicit anthropic without key", config.LLMConfig{Provider: "anthropic", OpenAIAPIKey: "k"}, "", ErrNoProvider},
		{"explicit google without key", config.LLMConfig{Provider: "google"}, "", ErrNoProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "err = %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}

	_, err := NewProvider(config.LLMConfig{Provider: "mystery"})
	assert.ErrorContains(t, err, "unknown LLM provider")
}

func TestDebugProviderDumpsCalls(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	t.Setenv("REPO_ANALYZER_DEBUG_PROMPT_DIR", dir)
	srv := fakeOpenAI(t, "ok", nil)

	p, err := NewProvider(config.LLMConfig{OpenAIAPIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = p.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSplitSystem(t *testing.T) {
	system, turns := splitSystem([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "q"},
		{Role: RoleSystem, Content: "b"},
	})
	assert.Equal(t, "a\n\nb", system)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "q"}}, turns)
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), config.LLMConfig{TimeoutSecs: 3})
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(3*time.Second), deadline, time.Second)

	ctx, cancel = withTimeout(context.Background(), config.LLMConfig{})
	defer cancel()
	deadline, ok = ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(120*time.Second), deadline, time.Second)

	parent, stop := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer stop()
	ctx, cancel = withTimeout(parent, config.LLMConfig{TimeoutSecs: 60})
	defer cancel()
	deadline, _ = ctx.Deadline()
	parentDeadline, _ := parent.Deadline()
	assert.Equal(t, parentDeadline, deadline)
}

func TestGoogleProviderIsCloser(t *testing.T) {
	assert.Implements(t, (*io.Closer)(nil), new(GoogleProvider))
}
