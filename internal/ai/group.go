package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type GeneratorEntry struct {
	Name      string
	Generator IGenerator
}

type EmbedderEntry struct {
	Name     string
	Embedder IEmbedder
}

// groupGenerator tries each entry in order and returns the first success.
type groupGenerator struct {
	items []GeneratorEntry
}

func NewGroupGenerator(items []GeneratorEntry) IGenerator {
	if len(items) == 0 {
		return nil
	}
	if len(items) == 1 {
		return items[0].Generator
	}
	return &groupGenerator{items: items}
}

func (g *groupGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var errs []error
	for i, item := range g.items {
		if item.Generator == nil {
			continue
		}
		res, err := item.Generator.Generate(ctx, prompt)
		if err == nil {
			return res, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", item.Name, err))
		if ctx.Err() != nil {
			break
		}
		logutil.GetLogger(ctx).Warn("generator failed, trying next",
			zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("generator not configured: %w", ErrUnavailable)
	}
	return "", errors.Join(errs...)
}

// groupEmbedder falls back across embedders. Every entry must produce
// vectors in the same space, so groups are built from one model family.
type groupEmbedder struct {
	items []EmbedderEntry
}

func NewGroupEmbedder(items []EmbedderEntry) IEmbedder {
	if len(items) == 0 {
		return nil
	}
	if len(items) == 1 {
		return items[0].Embedder
	}
	return &groupEmbedder{items: items}
}

func (g *groupEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	var errs []error
	for i, item := range g.items {
		if item.Embedder == nil {
			continue
		}
		res, err := item.Embedder.Embed(ctx, text, taskType)
		if err == nil {
			return res, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", item.Name, err))
		if ctx.Err() != nil {
			break
		}
		logutil.GetLogger(ctx).Warn("embedder failed, trying next",
			zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("embedder not configured: %w", ErrUnavailable)
	}
	return nil, errors.Join(errs...)
}

func (g *groupEmbedder) ModelName() string {
	names := make([]string, 0, len(g.items))
	for _, item := range g.items {
		if item.Embedder == nil {
			continue
		}
		names = append(names, item.Embedder.ModelName())
	}
	return strings.Join(names, "|")
}
