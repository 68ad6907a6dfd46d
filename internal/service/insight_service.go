package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"go.uber.org/zap"

	"github.com/xxxsen/unmask/internal/ai"
	"github.com/xxxsen/unmask/internal/model"
	appErr "github.com/xxxsen/unmask/internal/pkg/errors"
	"github.com/xxxsen/unmask/internal/retrieval"
	"github.com/xxxsen/unmask/internal/vectorindex"
)

const (
	RenderHTML    = "html"
	topMatchCount = 3
	maxTopK       = 100
)

type QueryFilters struct {
	ContextType model.ContextType `json:"context_type"`
}

type QueryRequest struct {
	Query   string       `json:"query"`
	TopK    int          `json:"top_k"`
	Filters QueryFilters `json:"filters"`
	Render  string       `json:"render"`
}

type QueryResult struct {
	Query        string                   `json:"query"`
	ContextCount int                      `json:"context_count"`
	Insights     string                   `json:"insights"`
	HTML         string                   `json:"html,omitempty"`
	TopMatches   []retrieval.ContextEntry `json:"top_matches"`
}

type insightGenerator interface {
	Insights(ctx context.Context, query string, contextText string) (string, error)
}

type InsightService struct {
	embedder  textEmbedder
	generator insightGenerator
	index     vectorindex.Index
	chunks    retrieval.ChunkReader
	topK      int
	cache     InsightCache
	markdown  goldmark.Markdown
}

func NewInsightService(embedder textEmbedder, generator insightGenerator, index vectorindex.Index,
	chunks retrieval.ChunkReader, topK int, cache InsightCache) *InsightService {
	if topK <= 0 {
		topK = 10
	}
	return &InsightService{
		embedder:  embedder,
		generator: generator,
		index:     index,
		chunks:    chunks,
		topK:      topK,
		cache:     cache,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Query retrieves the chunks nearest to the question and asks the generator
// for insights over them. Generation failures degrade to a fixed message;
// retrieval failures are returned.
func (s *InsightService) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, fmt.Errorf("query is required: %w", appErr.ErrInvalid)
	}
	if req.TopK <= 0 {
		req.TopK = s.topK
	}
	req.TopK = min(req.TopK, maxTopK)
	key := cacheKey(req)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}
	logger := logutil.GetLogger(ctx).With(zap.Int("top_k", req.TopK), zap.String("context_type", string(req.Filters.ContextType)))

	vec, err := s.embedder.Embed(ctx, req.Query, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := s.index.Query(ctx, vec, req.TopK, model.VectorFilter{ContextType: req.Filters.ContextType})
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	entries, err := retrieval.Reconstruct(ctx, s.chunks, matches)
	if err != nil {
		return nil, err
	}

	insights, err := s.generator.Insights(ctx, req.Query, retrieval.RenderContext(entries))
	generated := err == nil
	if err != nil {
		logger.Warn("generate insights failed, using fallback", zap.Error(err))
		insights = retrieval.FallbackInsight
	}
	out := &QueryResult{
		Query:        req.Query,
		ContextCount: len(entries),
		Insights:     insights,
		TopMatches:   entries[:min(topMatchCount, len(entries))],
	}
	if req.Render == RenderHTML {
		html, err := s.renderHTML(insights)
		if err != nil {
			return nil, fmt.Errorf("render insights: %w", err)
		}
		out.HTML = html
	}
	logger.Info("query finished", zap.Int("matches", len(matches)), zap.Bool("generated", generated))
	if s.cache != nil && generated {
		s.cache.Set(ctx, key, out)
	}
	return out, nil
}

func (s *InsightService) renderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func cacheKey(req QueryRequest) string {
	return fmt.Sprintf("%d|%s|%s|%s", req.TopK, req.Filters.ContextType, req.Render, req.Query)
}
