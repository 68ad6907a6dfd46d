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

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func seedMessages(t *testing.T, messages *repo.MessageRepo, texts ...string) []model.Message {
	t.Helper()
	msgs := make([]model.Message, 0, len(texts))
	for i, text := range texts {
		msgs = append(msgs, model.Message{
			ID:        int64(i + 1),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Sender:    []string{"Alex", ""}[i%2],
			Direction: []model.Direction{model.DirectionIncoming, model.DirectionOutgoing}[i%2],
			Text:      text,
			Ctime:     base.Unix(),
		})
	}
	n, err := messages.InsertBatch(context.Background(), msgs)
	require.NoError(t, err)
	require.Equal(t, len(msgs), n)
	return msgs
}

func TestMessageRepoInsertAndList(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	messages := repo.NewMessageRepo(db)
	ctx := context.Background()

	seeded := seedMessages(t, messages, "hello", "hi there", "how was work")

	n, err := messages.InsertBatch(ctx, seeded[:1])
	require.NoError(t, err)
	require.Equal(t, 0, n)

	list, err := messages.List(ctx, repo.MessageFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, m := range list {
		require.Equal(t, seeded[i].ID, m.ID)
		require.True(t, seeded[i].Timestamp.Equal(m.Timestamp))
		require.Equal(t, seeded[i].Text, m.Text)
		require.Equal(t, seeded[i].Direction, m.Direction)
	}

	limited, err := messages.List(ctx, repo.MessageFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)

	ranged, err := messages.List(ctx, repo.MessageFilter{From: base.Add(time.Minute)})
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	require.Equal(t, int64(2), ranged[0].ID)

	maxID, err := messages.MaxID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), maxID)
}

func TestMessageRepoPageAndGet(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	messages := repo.NewMessageRepo(db)
	ctx := context.Background()
	seedMessages(t, messages, "work today", "dinner later", "work again", "ok")

	items, total, err := messages.Page(ctx, "", 2, 2)
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
	require.Len(t, items, 2)
	require.Equal(t, int64(3), items[0].ID)

	items, total, err = messages.Page(ctx, "work", 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 2)

	m, err := messages.Get(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "dinner later", m.Text)

	_, err = messages.Get(ctx, 99)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
