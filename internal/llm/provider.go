package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/duyhunghd6/repo-analyzer/internal/config"
)

// ErrNoProvider is returned when no language model is configured. Callers
// answer with the deterministic summarizer instead.
var ErrNoProvider = errors.New("no LLM provider configured")

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerateOptions tunes a single call.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// Option overrides a provider default for one call.
type Option func(*GenerateOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(o *GenerateOptions) { o.Temperature = t }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(o *GenerateOptions) { o.MaxTokens = n }
}

// Provider is a chat-completion backend.
type Provider interface {
	Generate(ctx context.Context, messages []Message, opts ...Option) (string, error)
	Name() string
}

// Default model per provider.
const (
	DefaultOpenAIModel    = "gpt-4o"
	DefaultGoogleModel    = "gemini-1.5-flash"
	DefaultAnthropicModel = "claude-3-5-sonnet-latest"
)

// NewProvider builds the configured provider. With an empty provider name
// the first backend with an API key wins, in the order OpenAI, Google,
// Anthropic. "none" or a missing key yields ErrNoProvider.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	name := cfg.Provider
	if name == "" {
		name = detect(cfg)
	}

	var (
		p   Provider
		err error
	)
	switch name {
	case "", "none":
		return nil, ErrNoProvider
	case "openai", "openai-compatible":
		p, err = NewOpenAIProvider(cfg)
	case "google", "gemini":
		p, err = NewGoogleProvider(cfg)
	case "anthropic", "claude":
		p, err = NewAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if dir := os.Getenv("REPO_ANALYZER_DEBUG_PROMPT_DIR"); dir != "" {
		p = &debugProvider{next: p, dir: dir}
	}
	log.Printf("[llm] using %s provider", p.Name())
	return p, nil
}

func detect(cfg config.LLMConfig) string {
	switch {
	case cfg.OpenAIAPIKey != "":
		return "openai"
	case cfg.GoogleAPIKey != "":
		return "google"
	case cfg.AnthropicAPIKey != "":
		return "anthropic"
	case cfg.APIKey != "" || cfg.BaseURL != "":
		return "openai"
	}
	return ""
}

// apiKey prefers the generic key over the provider-specific one.
func apiKey(cfg config.LLMConfig, specific string) string {
	if cfg.APIKey != "" {
		return cfg.APIKey
	}
	return specific
}

func defaultOptions(cfg config.LLMConfig, opts []Option) *GenerateOptions {
	o := &GenerateOptions{
		Temperature: float32(cfg.Temperature),
		MaxTokens:   cfg.MaxTokens,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// withTimeout bounds ctx by the configured request timeout, for clients
// that take no per-request HTTP timeout.
func withTimeout(ctx context.Context, cfg config.LLMConfig) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout(cfg))
}

func timeout(cfg config.LLMConfig) time.Duration {
	if cfg.TimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(cfg.TimeoutSecs) * time.Second
}

// splitSystem separates the system prompt from the conversation turns.
func splitSystem(messages []Message) (string, []Message) {
	var system string
	turns := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
