package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const defaultMaxOutputTokens = 1500

type openAIConfig struct {
	APIKey          string `json:"api_key"`
	BaseURL         string `json:"base_url"`
	MaxOutputTokens int64  `json:"max_output_tokens"`
	Instructions    string `json:"instructions"`
}

type openAIProvider struct {
	client       *openai.Client
	maxOutput    int64
	instructions string
}

func newOpenAIClient(cfg *openAIConfig) *openai.Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	client := openai.NewClient(opts...)
	return &client
}

func (p *openAIProvider) Name() string {
	return "openai"
}

func (p *openAIProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	if p.client == nil {
		return "", ErrUnavailable
	}
	params := responses.ResponseNewParams{
		Model:           model,
		MaxOutputTokens: openai.Int(p.maxOutput),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if p.instructions != "" {
		params.Instructions = openai.String(p.instructions)
	}
	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.OutputText()), nil
}

type openAIEmbedProvider struct {
	client *openai.Client
}

func (p *openAIEmbedProvider) Name() string {
	return "openai"
}

func (p *openAIEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	if p.client == nil {
		return nil, ErrUnavailable
	}
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai response has no embeddings")
	}
	values := resp.Data[0].Embedding
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}

func createOpenAIFactory(args interface{}) (IAIProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	provider := &openAIProvider{
		maxOutput:    cfg.MaxOutputTokens,
		instructions: strings.TrimSpace(cfg.Instructions),
	}
	if provider.maxOutput <= 0 {
		provider.maxOutput = defaultMaxOutputTokens
	}
	if strings.TrimSpace(cfg.APIKey) != "" {
		provider.client = newOpenAIClient(cfg)
	}
	return provider, nil
}

func createOpenAIEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	provider := &openAIEmbedProvider{}
	if strings.TrimSpace(cfg.APIKey) != "" {
		provider.client = newOpenAIClient(cfg)
	}
	return provider, nil
}

func init() {
	Register("openai", createOpenAIFactory)
	RegisterEmbed("openai", createOpenAIEmbedFactory)
}
