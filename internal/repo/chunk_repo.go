package repo

import (
	"context"
	"encoding/json"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/unmask/internal/model"
	appErr "github.com/xxxsen/unmask/internal/pkg/errors"
	"github.com/xxxsen/unmask/internal/pkg/timeutil"
)

var chunkColumns = []string{
	"id", "seq", "text", "span_start", "span_end", "context_type",
	"emotional_intensity", "primary_sender", "message_count", "has_attachment", "message_ids", "ctime",
}

type ChunkRepo struct {
	db *sqlx.DB
}

func NewChunkRepo(db *sqlx.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceAll makes chunks the complete stored set and returns the ids that
// existed before but are no longer present.
func (r *ChunkRepo) ReplaceAll(ctx context.Context, chunks []model.Chunk) ([]string, error) {
	keep := make(map[string]struct{}, len(chunks))
	rows := make([]map[string]interface{}, 0, len(chunks))
	now := timeutil.NowUnix()
	for _, c := range chunks {
		keep[c.ID] = struct{}{}
		ids := c.MessageIDs
		if len(ids) == 0 {
			ids = make([]int64, 0, len(c.Messages))
			for _, m := range c.Messages {
				ids = append(ids, m.ID)
			}
		}
		blob, err := json.Marshal(ids)
		if err != nil {
			return nil, err
		}
		rows = append(rows, map[string]interface{}{
			"id":                  c.ID,
			"seq":                 c.Seq,
			"text":                c.Text,
			"span_start":          c.SpanStart.Unix(),
			"span_end":            c.SpanEnd.Unix(),
			"context_type":        string(c.ContextType),
			"emotional_intensity": c.EmotionalIntensity,
			"primary_sender":      c.PrimarySender,
			"message_count":       c.MessageCount(),
			"has_attachment":      boolToInt(c.HasAttachment),
			"message_ids":         string(blob),
			"ctime":               now,
		})
	}
	var stale []string
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		existing, err := listChunkIDs(ctx, tx)
		if err != nil {
			return err
		}
		for _, id := range existing {
			if _, ok := keep[id]; !ok {
				stale = append(stale, id)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
			return err
		}
		const batch = 200
		for start := 0; start < len(rows); start += batch {
			end := min(start+batch, len(rows))
			sqlStr, args, err := builder.BuildInsert("chunks", rows[start:end])
			if err != nil {
				return err
			}
			sqlStr, args = finalize(tx, sqlStr, args)
			if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
				return mapErr(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stale, nil
}

func listChunkIDs(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryxContext(ctx, "SELECT id FROM chunks")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ChunkRepo) Get(ctx context.Context, id string) (*model.Chunk, error) {
	items, err := r.query(ctx, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

// GetByIDs returns the chunks that exist among ids, in storage order.
// Missing ids are silently absent from the result.
func (r *ChunkRepo) GetByIDs(ctx context.Context, ids []string) ([]model.Chunk, error) {
	if len(ids) == 0 {
		return []model.Chunk{}, nil
	}
	in := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		in = append(in, id)
	}
	return r.query(ctx, map[string]interface{}{"id in": in, "_orderby": "seq asc"})
}

func (r *ChunkRepo) List(ctx context.Context, contextType model.ContextType, limit, offset int) ([]model.Chunk, error) {
	where := map[string]interface{}{"_orderby": "seq asc"}
	if contextType != "" {
		where["context_type"] = string(contextType)
	}
	if limit > 0 {
		if offset < 0 {
			offset = 0
		}
		where["_limit"] = []uint{uint(offset), uint(limit)}
	}
	return r.query(ctx, where)
}

func (r *ChunkRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowxContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}

func (r *ChunkRepo) query(ctx context.Context, where map[string]interface{}) ([]model.Chunk, error) {
	sqlStr, args, err := builder.BuildSelect("chunks", where, chunkColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = finalize(r.db, sqlStr, args)
	rows, err := r.db.QueryxContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Chunk, 0)
	for rows.Next() {
		var c model.Chunk
		var start, end int64
		var contextType, ids string
		var hasAttachment int
		if err := rows.Scan(&c.ID, &c.Seq, &c.Text, &start, &end, &contextType,
			&c.EmotionalIntensity, &c.PrimarySender, new(int), &hasAttachment, &ids, &c.Ctime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ids), &c.MessageIDs); err != nil {
			return nil, err
		}
		c.SpanStart = timeutil.FromUnix(start)
		c.SpanEnd = timeutil.FromUnix(end)
		c.ContextType = model.ContextType(contextType)
		c.HasAttachment = hasAttachment != 0
		items = append(items, c)
	}
	return items, rows.Err()
}
