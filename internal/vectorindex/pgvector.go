package vectorindex

import (
	"context"

	"github.com/xxxsen/unmask/internal/model"
)

type nearestStore interface {
	Upsert(ctx context.Context, records []model.VectorRecord) error
	Nearest(ctx context.Context, vec []float32, topK int, filter model.VectorFilter) ([]model.VectorMatch, error)
	Delete(ctx context.Context, ids []string) error
}

// PGVector delegates ranking to postgres through the pgvector extension.
type PGVector struct {
	store nearestStore
	dims  int
}

func NewPGVector(store nearestStore, dims int) *PGVector {
	return &PGVector{store: store, dims: dims}
}

func (p *PGVector) Upsert(ctx context.Context, records []model.VectorRecord) error {
	if err := checkRecords(p.dims, records); err != nil {
		return err
	}
	return p.store.Upsert(ctx, records)
}

func (p *PGVector) Query(ctx context.Context, vec []float32, topK int, filter model.VectorFilter) ([]model.VectorMatch, error) {
	if err := checkDims(p.dims, vec); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []model.VectorMatch{}, nil
	}
	return p.store.Nearest(ctx, vec, topK, filter)
}

func (p *PGVector) Delete(ctx context.Context, ids []string) error {
	return p.store.Delete(ctx, ids)
}
