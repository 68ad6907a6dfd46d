package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pkg/dbutil"
)

// EmbeddingCacheRepo stores embeddings keyed by (model, task, content hash).
// Postgres keeps them in a pgvector column, sqlite as a JSON array.
type EmbeddingCacheRepo struct {
	db *sqlx.DB
}

func NewEmbeddingCacheRepo(db *sqlx.DB) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db}
}

func (r *EmbeddingCacheRepo) isPostgres() bool {
	return r.db.DriverName() == dbutil.DriverPostgres
}

func (r *EmbeddingCacheRepo) Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error) {
	const query = `
		SELECT embedding
		FROM embedding_cache
		WHERE model_name = ? AND task_type = ? AND content_hash = ?
	`
	sqlStr, args := finalize(r.db, query, []interface{}{modelName, taskType, contentHash})
	row := r.db.QueryRowxContext(ctx, sqlStr, args...)
	if r.isPostgres() {
		var embedding pgvector.Vector
		if err := row.Scan(&embedding); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, false, nil
			}
			return nil, false, err
		}
		return embedding.Slice(), true, nil
	}
	var blob string
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var embedding []float32
	if err := json.Unmarshal([]byte(blob), &embedding); err != nil {
		return nil, false, err
	}
	return embedding, true, nil
}

func (r *EmbeddingCacheRepo) Save(ctx context.Context, item *model.CachedEmbedding) error {
	const query = `
		INSERT INTO embedding_cache (model_name, task_type, content_hash, embedding, ctime)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (model_name, task_type, content_hash) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`
	var embedding interface{}
	if r.isPostgres() {
		embedding = pgvector.NewVector(item.Values)
	} else {
		blob, err := json.Marshal(item.Values)
		if err != nil {
			return err
		}
		embedding = string(blob)
	}
	sqlStr, args := finalize(r.db, query, []interface{}{
		item.Model,
		item.TaskType,
		item.Hash,
		embedding,
		item.CreatedAt,
	})
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *EmbeddingCacheRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	sqlStr, args := finalize(r.db, `DELETE FROM embedding_cache WHERE ctime < ?`, []interface{}{cutoff})
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
