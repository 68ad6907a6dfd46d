package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/unmask/internal/config"
	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/repo"
)

var ErrDimension = errors.New("vector dimension mismatch")

// Index is the nearest-neighbour store the pipeline writes chunk vectors to.
type Index interface {
	Upsert(ctx context.Context, records []model.VectorRecord) error
	Query(ctx context.Context, vec []float32, topK int, filter model.VectorFilter) ([]model.VectorMatch, error)
	Delete(ctx context.Context, ids []string) error
}

func New(cfg config.VectorIndexConfig, db *sqlx.DB) (Index, error) {
	switch cfg.Type {
	case "memory":
		return NewMemory(cfg.Dimensions), nil
	case "", "sql":
		return NewSQL(repo.NewChunkVectorRepo(db), cfg.Dimensions), nil
	case "pgvector":
		return NewPGVector(repo.NewChunkEmbeddingRepo(db), cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("vector index type not supported: %s", cfg.Type)
	}
}

func checkDims(dims int, vec []float32) error {
	if dims > 0 && len(vec) != dims {
		return fmt.Errorf("got %d values, want %d: %w", len(vec), dims, ErrDimension)
	}
	if len(vec) == 0 {
		return fmt.Errorf("empty vector: %w", ErrDimension)
	}
	return nil
}

func checkRecords(dims int, records []model.VectorRecord) error {
	for _, rec := range records {
		if err := checkDims(dims, rec.Values); err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
	}
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rank scores every candidate against vec and keeps the best topK,
// breaking score ties by id so results are stable.
func rank(vec []float32, candidates []model.VectorRecord, topK int, filter model.VectorFilter) []model.VectorMatch {
	matches := make([]model.VectorMatch, 0, len(candidates))
	for _, rec := range candidates {
		if filter.ContextType != "" && rec.Metadata.ContextType != filter.ContextType {
			continue
		}
		matches = append(matches, model.VectorMatch{
			ID:       rec.ID,
			Score:    cosineSimilarity(vec, rec.Values),
			Metadata: rec.Metadata,
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}
