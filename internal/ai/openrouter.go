package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

type openrouterConfig struct {
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	HTTPReferer string `json:"http_referer"`
	XTitle      string `json:"x_title"`
}

// openrouterProvider talks to the OpenAI compatible chat completions
// endpoint that OpenRouter exposes.
type openrouterProvider struct {
	client *openai.Client
}

func (p *openrouterProvider) Name() string {
	return "openrouter"
}

func (p *openrouterProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	if p.client == nil {
		return "", ErrUnavailable
	}
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openrouter response has no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func createOpenRouterFactory(args interface{}) (IAIProvider, error) {
	cfg := &openrouterConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	provider := &openrouterProvider{}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return provider, nil
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithBaseURL(baseURL)}
	if referer := strings.TrimSpace(cfg.HTTPReferer); referer != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", referer))
	}
	if title := strings.TrimSpace(cfg.XTitle); title != "" {
		opts = append(opts, option.WithHeader("X-Title", title))
	}
	client := openai.NewClient(opts...)
	provider.client = &client
	return provider, nil
}

func init() {
	Register("openrouter", createOpenRouterFactory)
}
