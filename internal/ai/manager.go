package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type ManagerConfig struct {
	Timeout       int
	MaxInputChars int
	TaskType      string
}

// Manager owns the prompts sent to the generator and the embedding calls
// made on behalf of the pipeline.
type Manager struct {
	generator IGenerator
	embedder  IEmbedder
	cfg       ManagerConfig
}

func NewManager(generator IGenerator, embedder IEmbedder, cfg ManagerConfig) *Manager {
	return &Manager{
		generator: generator,
		embedder:  embedder,
		cfg:       cfg,
	}
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured: %w", ErrUnavailable)
	}
	if taskType == "" {
		taskType = m.cfg.TaskType
	}
	return m.embedder.Embed(ctx, m.clip(text), taskType)
}

// Insights asks the generator for an analysis of query grounded on the
// rendered conversation context.
func (m *Manager) Insights(ctx context.Context, query string, contextText string) (string, error) {
	if m.generator == nil {
		return "", fmt.Errorf("generator not configured: %w", ErrUnavailable)
	}
	prompt := fmt.Sprintf(`As a relationship intelligence AI analyzing text message data, provide insights for: "%s"

RELEVANT CONVERSATION HISTORY:
%s

Instructions:
1. Identify specific patterns and trends
2. Provide concrete examples from the conversations
3. Offer actionable insights for relationship growth
4. Be empathetic but direct
5. Focus on both challenges and strengths

Format your response with clear sections for Patterns, Examples, and Recommendations.`, query, m.clip(contextText))
	return m.generateText(ctx, m.generator, prompt)
}

func (m *Manager) generateText(ctx context.Context, gen IGenerator, prompt string) (string, error) {
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

func (m *Manager) clip(text string) string {
	if m.cfg.MaxInputChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= m.cfg.MaxInputChars {
		return text
	}
	return string(runes[:m.cfg.MaxInputChars])
}

func (m *Manager) MaxInputChars() int {
	return m.cfg.MaxInputChars
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}
