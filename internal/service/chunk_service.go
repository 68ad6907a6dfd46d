package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/unmask/internal/model"
	appErr "github.com/xxxsen/unmask/internal/pkg/errors"
)

const maxChunkLookup = 100

type chunkGetter interface {
	Get(ctx context.Context, id string) (*model.Chunk, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Chunk, error)
}

type ChunkLookup struct {
	Chunks  []model.Chunk `json:"chunks"`
	Missing []string      `json:"missing"`
}

type ChunkService struct {
	chunks chunkGetter
}

func NewChunkService(chunks chunkGetter) *ChunkService {
	return &ChunkService{chunks: chunks}
}

func (s *ChunkService) Get(ctx context.Context, id string) (*model.Chunk, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("chunk id is required: %w", appErr.ErrInvalid)
	}
	return s.chunks.Get(ctx, id)
}

// GetMany returns the chunks in request order. Unknown ids are listed in
// Missing instead of failing the lookup.
func (s *ChunkService) GetMany(ctx context.Context, ids []string) (*ChunkLookup, error) {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	if len(uniq) == 0 {
		return nil, fmt.Errorf("ids are required: %w", appErr.ErrInvalid)
	}
	if len(uniq) > maxChunkLookup {
		return nil, fmt.Errorf("at most %d ids per lookup: %w", maxChunkLookup, appErr.ErrInvalid)
	}
	found, err := s.chunks.GetByIDs(ctx, uniq)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Chunk, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	out := &ChunkLookup{Chunks: make([]model.Chunk, 0, len(found)), Missing: []string{}}
	for _, id := range uniq {
		if c, ok := byID[id]; ok {
			out.Chunks = append(out.Chunks, c)
			continue
		}
		out.Missing = append(out.Missing, id)
	}
	return out, nil
}
