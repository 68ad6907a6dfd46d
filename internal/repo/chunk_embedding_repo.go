package repo

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pkg/timeutil"
)

// ChunkEmbeddingRepo stores chunk vectors in a pgvector column and lets
// postgres rank them by cosine distance.
type ChunkEmbeddingRepo struct {
	db *sqlx.DB
}

func NewChunkEmbeddingRepo(db *sqlx.DB) *ChunkEmbeddingRepo {
	return &ChunkEmbeddingRepo{db: db}
}

func (r *ChunkEmbeddingRepo) Upsert(ctx context.Context, records []model.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	const query = `
		INSERT INTO chunk_embeddings (id, context_type, metadata, embedding, mtime)
		VALUES ($1, $2, $3, $4, $5)
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
			if _, err := tx.ExecContext(ctx, query,
				rec.ID, string(rec.Metadata.ContextType), string(meta), pgvector.NewVector(rec.Values), now,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// Nearest returns up to topK records ordered by cosine similarity, best first.
func (r *ChunkEmbeddingRepo) Nearest(ctx context.Context, vec []float32, topK int, filter model.VectorFilter) ([]model.VectorMatch, error) {
	query := `SELECT id, metadata, 1 - (embedding <=> $1) AS score FROM chunk_embeddings`
	args := []interface{}{pgvector.NewVector(vec)}
	if filter.ContextType != "" {
		query += ` WHERE context_type = $2`
		args = append(args, string(filter.ContextType))
	}
	query += ` ORDER BY embedding <=> $1, id LIMIT ` + strconv.Itoa(topK)
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.VectorMatch, 0, topK)
	for rows.Next() {
		var m model.VectorMatch
		var meta string
		if err := rows.Scan(&m.ID, &meta, &m.Score); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &m.Metadata); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *ChunkEmbeddingRepo) Delete(ctx context.Context, ids []string) error {
	return deleteByIDs(ctx, r.db, "chunk_embeddings", ids)
}
