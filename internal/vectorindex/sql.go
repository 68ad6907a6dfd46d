package vectorindex

import (
	"context"

	"github.com/xxxsen/unmask/internal/model"
)

type vectorStore interface {
	Upsert(ctx context.Context, records []model.VectorRecord) error
	List(ctx context.Context, filter model.VectorFilter) ([]model.VectorRecord, error)
	Delete(ctx context.Context, ids []string) error
}

// SQL persists vectors in the relational store and ranks them in process.
type SQL struct {
	store vectorStore
	dims  int
}

func NewSQL(store vectorStore, dims int) *SQL {
	return &SQL{store: store, dims: dims}
}

func (s *SQL) Upsert(ctx context.Context, records []model.VectorRecord) error {
	if err := checkRecords(s.dims, records); err != nil {
		return err
	}
	return s.store.Upsert(ctx, records)
}

func (s *SQL) Query(ctx context.Context, vec []float32, topK int, filter model.VectorFilter) ([]model.VectorMatch, error) {
	if err := checkDims(s.dims, vec); err != nil {
		return nil, err
	}
	candidates, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return rank(vec, candidates, topK, filter), nil
}

func (s *SQL) Delete(ctx context.Context, ids []string) error {
	return s.store.Delete(ctx, ids)
}
