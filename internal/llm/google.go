package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/duyhunghd6/repo-analyzer/internal/config"
)

// GoogleProvider talks to the Gemini API.
type GoogleProvider struct {
	client *genai.Client
	model  string
	cfg    config.LLMConfig
}

// NewGoogleProvider creates a Gemini provider.
func NewGoogleProvider(cfg config.LLMConfig) (*GoogleProvider, error) {
	key := apiKey(cfg, cfg.GoogleAPIKey)
	if key == "" {
		return nil, fmt.Errorf("google: %w (set GOOGLE_API_KEY or GEMINI_API_KEY)", ErrNoProvider)
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("create Google AI client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGoogleModel
	}
	return &GoogleProvider{client: client, model: model, cfg: cfg}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

// Generate replays earlier turns as chat history and sends the last user
// turn. The system prompt is prepended to the first user turn.
func (p *GoogleProvider) Generate(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	ctx, cancel := withTimeout(ctx, p.cfg)
	defer cancel()

	o := defaultOptions(p.cfg, opts)
	system, turns := splitSystem(messages)

	last := -1
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			last = i
			break
		}
	}
	if last < 0 {
		return "", fmt.Errorf("google generate: no user message")
	}

	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(o.Temperature)
	if o.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(o.MaxTokens))
	}

	cs := model.StartChat()
	for i, m := range turns[:last] {
		content, role := m.Content, "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		if i == 0 && system != "" {
			content = system + "\n\n" + content
			system = ""
		}
		cs.History = append(cs.History, &genai.Content{
			Parts: []genai.Part{genai.Text(content)},
			Role:  role,
		})
	}

	prompt := turns[last].Content
	if system != "" {
		prompt = system + "\n\n" + prompt
	}

	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("google generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("google generate: no response candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close releases the underlying client.
func (p *GoogleProvider) Close() error {
	return p.client.Close()
}
