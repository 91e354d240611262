package llm

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/duyhunghd6/repo-analyzer/internal/config"
)

// OpenAIProvider talks to the OpenAI chat API or any compatible server.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	cfg    config.LLMConfig
}

// NewOpenAIProvider creates an OpenAI provider. A custom base URL selects
// an OpenAI-compatible server, which may not need a key.
func NewOpenAIProvider(cfg config.LLMConfig) (*OpenAIProvider, error) {
	key := apiKey(cfg, cfg.OpenAIAPIKey)
	if key == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai: %w (set OPENAI_API_KEY)", ErrNoProvider)
	}

	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout(cfg)}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		cfg:    cfg,
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Generate sends one chat completion request and returns the first choice.
func (p *OpenAIProvider) Generate(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	o := defaultOptions(p.cfg, opts)

	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		Temperature: o.Temperature,
		MaxTokens:   o.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
