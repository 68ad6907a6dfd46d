package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/unmask/internal/ai"
	"github.com/xxxsen/unmask/internal/model"
	appErr "github.com/xxxsen/unmask/internal/pkg/errors"
	"github.com/xxxsen/unmask/internal/retrieval"
	"github.com/xxxsen/unmask/internal/vectorindex"
)

func newInsightFixture(t *testing.T, gen *fakeGenerator, cache InsightCache) (*InsightService, *fakeEmbedder) {
	t.Helper()
	index := vectorindex.NewMemory(3)
	records := []model.VectorRecord{
		{ID: "chunk_1", Values: []float32{1, 0, 0}, Metadata: model.ChunkMetadata{Date: "2024-03-01", ContextType: model.ContextPlanning, EmotionalIntensity: 2}},
		{ID: "chunk_2", Values: []float32{0, 1, 0}, Metadata: model.ChunkMetadata{Date: "2024-03-02", ContextType: model.ContextIntimate, EmotionalIntensity: 8}},
		{ID: "chunk_3", Values: []float32{0, 0, 1}, Metadata: model.ChunkMetadata{Date: "2024-03-03", ContextType: model.ContextPlanning, EmotionalIntensity: 1}},
	}
	require.NoError(t, index.Upsert(context.Background(), records))
	chunks := &fakeChunks{stored: []model.Chunk{
		{ID: "chunk_1", Text: "Date: 2024-03-01\nConversation:\nSam: dinner at 7?"},
		{ID: "chunk_2", Text: "Date: 2024-03-02\nConversation:\nSam: love you"},
	}}
	emb := &fakeEmbedder{}
	return NewInsightService(emb, gen, index, chunks, 10, cache), emb
}

func TestInsightQuery(t *testing.T) {
	gen := &fakeGenerator{out: "## Patterns\n\n- frequent planning"}
	svc, emb := newInsightFixture(t, gen, nil)
	out, err := svc.Query(context.Background(), QueryRequest{Query: "  how do we plan?  ", Render: RenderHTML})
	require.NoError(t, err)
	require.Equal(t, "how do we plan?", out.Query)
	require.Equal(t, 3, out.ContextCount)
	require.Equal(t, gen.out, out.Insights)
	require.Contains(t, out.HTML, "<h2")
	require.Contains(t, out.HTML, "<li>frequent planning</li>")
	require.Len(t, out.TopMatches, 3)
	require.Equal(t, 1, emb.tasks[ai.TaskRetrievalQuery])

	missing := 0
	for _, e := range out.TopMatches {
		if !e.Found {
			missing++
			require.Equal(t, retrieval.ChunkNotFound, e.Conversation)
		}
	}
	require.Equal(t, 1, missing)
	require.Contains(t, gen.context, "Sam: love you")
	require.Contains(t, gen.context, retrieval.ChunkNotFound)
}

func TestInsightQueryFilter(t *testing.T) {
	svc, _ := newInsightFixture(t, &fakeGenerator{out: "ok"}, nil)
	out, err := svc.Query(context.Background(), QueryRequest{Query: "plans", TopK: 1, Filters: QueryFilters{ContextType: model.ContextIntimate}})
	require.NoError(t, err)
	require.Equal(t, 1, out.ContextCount)
	require.Equal(t, "chunk_2", out.TopMatches[0].ID)
	require.Empty(t, out.HTML)
}

func TestInsightQueryFallback(t *testing.T) {
	cache := NewLRUInsightCache(8, time.Minute)
	svc, _ := newInsightFixture(t, &fakeGenerator{err: errBoom}, cache)
	out, err := svc.Query(context.Background(), QueryRequest{Query: "anything"})
	require.NoError(t, err)
	require.Equal(t, retrieval.FallbackInsight, out.Insights)
	_, ok := cache.Get(context.Background(), cacheKey(QueryRequest{Query: "anything", TopK: 10}))
	require.False(t, ok)
}

func TestInsightQueryCached(t *testing.T) {
	cache := NewLRUInsightCache(8, time.Minute)
	svc, emb := newInsightFixture(t, &fakeGenerator{out: "insight"}, cache)
	first, err := svc.Query(context.Background(), QueryRequest{Query: "again"})
	require.NoError(t, err)
	second, err := svc.Query(context.Background(), QueryRequest{Query: "again"})
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, emb.calls)
}

func TestInsightQueryErrors(t *testing.T) {
	svc, emb := newInsightFixture(t, &fakeGenerator{out: "x"}, nil)
	_, err := svc.Query(context.Background(), QueryRequest{Query: "   "})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	emb.always = errBoom
	_, err = svc.Query(context.Background(), QueryRequest{Query: "q"})
	require.ErrorIs(t, err, errBoom)
}
