package repo

import (
	"context"
	"encoding/json"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pkg/timeutil"
)

// ChunkVectorRepo keeps chunk vectors as JSON blobs for drivers without a
// native vector type.
type ChunkVectorRepo struct {
	db *sqlx.DB
}

func NewChunkVectorRepo(db *sqlx.DB) *ChunkVectorRepo {
	return &ChunkVectorRepo{db: db}
}

func (r *ChunkVectorRepo) Upsert(ctx context.Context, records []model.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	const query = `
		INSERT INTO chunk_vectors (id, context_type, metadata, embedding, mtime)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			context_type = EXCLUDED.context_type,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			mtime = EXCLUDED.mtime
	`
	now := timeutil.NowUnix()
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, rec := range records {
			meta, err := json.Marshal(rec.Metadata)
			if err != nil {
				return err
			}
			vec, err := json.Marshal(rec.Values)
			if err != nil {
				return err
			}
			sqlStr, args := finalize(tx, query, []interface{}{
				rec.ID, string(rec.Metadata.ContextType), string(meta), string(vec), now,
			})
			if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns every stored vector matching filter.
func (r *ChunkVectorRepo) List(ctx context.Context, filter model.VectorFilter) ([]model.VectorRecord, error) {
	where := map[string]interface{}{}
	if filter.ContextType != "" {
		where["context_type"] = string(filter.ContextType)
	}
	sqlStr, args, err := builder.BuildSelect("chunk_vectors", where, []string{"id", "metadata", "embedding"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = finalize(r.db, sqlStr, args)
	rows, err := r.db.QueryxContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.VectorRecord, 0)
	for rows.Next() {
		var rec model.VectorRecord
		var meta, vec string
		if err := rows.Scan(&rec.ID, &meta, &vec); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &rec.Metadata); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(vec), &rec.Values); err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (r *ChunkVectorRepo) Delete(ctx context.Context, ids []string) error {
	return deleteByIDs(ctx, r.db, "chunk_vectors", ids)
}

func deleteByIDs(ctx context.Context, db *sqlx.DB, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	in := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		in = append(in, id)
	}
	sqlStr, args, err := builder.BuildDelete(table, map[string]interface{}{"id in": in})
	if err != nil {
		return err
	}
	sqlStr, args = finalize(db, sqlStr, args)
	_, err = db.ExecContext(ctx, sqlStr, args...)
	return err
}
