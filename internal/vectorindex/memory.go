package vectorindex

import (
	"context"
	"sync"

	"github.com/xxxsen/unmask/internal/model"
)

// Memory is a brute-force in-process index, suited to tests and small logs.
type Memory struct {
	mu      sync.RWMutex
	dims    int
	records map[string]model.VectorRecord
}

func NewMemory(dims int) *Memory {
	return &Memory{dims: dims, records: make(map[string]model.VectorRecord)}
}

func (m *Memory) Upsert(_ context.Context, records []model.VectorRecord) error {
	if err := checkRecords(m.dims, records); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		values := make([]float32, len(rec.Values))
		copy(values, rec.Values)
		rec.Values = values
		m.records[rec.ID] = rec
	}
	return nil
}

func (m *Memory) Query(_ context.Context, vec []float32, topK int, filter model.VectorFilter) ([]model.VectorMatch, error) {
	if err := checkDims(m.dims, vec); err != nil {
		return nil, err
	}
	m.mu.RLock()
	candidates := make([]model.VectorRecord, 0, len(m.records))
	for _, rec := range m.records {
		candidates = append(candidates, rec)
	}
	m.mu.RUnlock()
	return rank(vec, candidates, topK, filter), nil
}

func (m *Memory) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.records, id)
	}
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
