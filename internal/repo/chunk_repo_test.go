package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/unmask/internal/model"
	appErr "github.com/xxxsen/unmask/internal/pkg/errors"
	"github.com/xxxsen/unmask/internal/repo"
	"github.com/xxxsen/unmask/internal/testutil"
)

func testChunk(seq int, ctxType model.ContextType, ids ...int64) model.Chunk {
	return model.Chunk{
		ID:                 "chunk_" + string(rune('0'+seq)),
		Seq:                seq,
		MessageIDs:         ids,
		SpanStart:          base,
		SpanEnd:            base.Add(time.Minute),
		ContextType:        ctxType,
		EmotionalIntensity: 4,
		PrimarySender:      "Alex",
		HasAttachment:      seq%2 == 0,
		Text:               "Date: 2024-03-01\nConversation:\nAlex: hi",
	}
}

func TestChunkRepoReplaceAll(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	chunks := repo.NewChunkRepo(db)

	stale, err := chunks.ReplaceAll(ctx, []model.Chunk{
		testChunk(0, model.ContextWork, 1, 2),
		testChunk(1, model.ContextSupport, 3),
		testChunk(2, model.ContextWork, 4),
	})
	require.NoError(t, err)
	require.Empty(t, stale)

	stale, err = chunks.ReplaceAll(ctx, []model.Chunk{testChunk(0, model.ContextWork, 1, 2, 3)})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"chunk_1", "chunk_2"}, stale)

	count, err := chunks.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	got, err := chunks.Get(ctx, "chunk_0")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, got.MessageIDs)
	require.Equal(t, model.ContextWork, got.ContextType)
	require.True(t, got.HasAttachment)
	require.True(t, base.Equal(got.SpanStart))

	_, err = chunks.Get(ctx, "chunk_9")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestChunkRepoGetByIDsAndList(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	chunks := repo.NewChunkRepo(db)
	_, err := chunks.ReplaceAll(ctx, []model.Chunk{
		testChunk(0, model.ContextWork, 1),
		testChunk(1, model.ContextSupport, 2),
		testChunk(2, model.ContextWork, 3),
	})
	require.NoError(t, err)

	got, err := chunks.GetByIDs(ctx, []string{"chunk_2", "missing", "chunk_0"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "chunk_0", got[0].ID)
	require.Equal(t, "chunk_2", got[1].ID)

	empty, err := chunks.GetByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)

	work, err := chunks.List(ctx, model.ContextWork, 0, 0)
	require.NoError(t, err)
	require.Len(t, work, 2)

	page, err := chunks.List(ctx, "", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "chunk_1", page[0].ID)
}

func TestChunkRepoDuplicateID(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	_, err := repo.NewChunkRepo(db).ReplaceAll(context.Background(), []model.Chunk{
		testChunk(0, model.ContextWork, 1),
		testChunk(0, model.ContextWork, 2),
	})
	require.ErrorIs(t, err, appErr.ErrConflict)
}
