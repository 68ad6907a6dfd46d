package ai

import (
	"fmt"

	"github.com/xxxsen/unmask/internal/config"
)

func providerArgs(data interface{}, fallback interface{}) interface{} {
	if data != nil {
		return data
	}
	return fallback
}

// BuildGenerator assembles the primary generator and its fallbacks from cfg,
// each wrapped with the transient-failure retry policy.
func BuildGenerator(cfg config.AIConfig) (IGenerator, error) {
	entries := make([]GeneratorEntry, 0, 1+len(cfg.Fallback))
	specs := append([]config.AIProviderConfig{{Provider: cfg.Provider, Model: cfg.Model, Data: cfg.Data}}, cfg.Fallback...)
	for i, spec := range specs {
		if spec.Provider == "" {
			continue
		}
		provider, err := NewProvider(spec.Provider, providerArgs(spec.Data, cfg.Data))
		if err != nil {
			return nil, fmt.Errorf("init ai provider #%d: %w", i, err)
		}
		entries = append(entries, GeneratorEntry{
			Name:      provider.Name() + ":" + spec.Model,
			Generator: WithGenerateRetry(NewGenerator(provider, spec.Model), DefaultRetryPolicy()),
		})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("ai.provider is required")
	}
	return NewGroupGenerator(entries), nil
}

// BuildEmbedder mirrors BuildGenerator for the embedding providers.
// The embedding provider defaults to the generation provider.
func BuildEmbedder(cfg config.AIConfig) (IEmbedder, error) {
	primary := config.AIProviderConfig{Provider: cfg.EmbedProvider, Model: cfg.EmbedModel, Data: cfg.Data}
	if primary.Provider == "" {
		primary.Provider = cfg.Provider
	}
	entries := make([]EmbedderEntry, 0, 1+len(cfg.EmbedFallback))
	specs := append([]config.AIProviderConfig{primary}, cfg.EmbedFallback...)
	for i, spec := range specs {
		if spec.Provider == "" {
			continue
		}
		provider, err := NewEmbedProvider(spec.Provider, providerArgs(spec.Data, cfg.Data))
		if err != nil {
			return nil, fmt.Errorf("init ai embed provider #%d: %w", i, err)
		}
		entries = append(entries, EmbedderEntry{
			Name:     provider.Name() + ":" + spec.Model,
			Embedder: WithEmbedRetry(NewEmbedder(provider, spec.Model), DefaultRetryPolicy()),
		})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("ai.embed_provider is required")
	}
	return NewGroupEmbedder(entries), nil
}
