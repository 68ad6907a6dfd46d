package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/unmask/internal/model"
)

const (
	ChunkNotFound   = "Chunk not found"
	FallbackInsight = "Unable to generate insights at this time. Please try again."
	entrySeparator  = "\n\n---\n\n"
)

type ChunkReader interface {
	GetByIDs(ctx context.Context, ids []string) ([]model.Chunk, error)
}

type ContextEntry struct {
	ID                 string            `json:"id"`
	Similarity         float64           `json:"similarity"`
	Date               string            `json:"date"`
	Sender             string            `json:"sender"`
	ContextType        model.ContextType `json:"context_type"`
	EmotionalIntensity int               `json:"emotional_intensity"`
	Conversation       string            `json:"conversation"`
	Found              bool              `json:"found"`
}

// Assemble pairs each match with its stored chunk text, keeping match order.
// Matches without a stored chunk get the ChunkNotFound placeholder.
func Assemble(matches []model.VectorMatch, chunks []model.Chunk) []ContextEntry {
	byID := make(map[string]*model.Chunk, len(chunks))
	for i := range chunks {
		byID[chunks[i].ID] = &chunks[i]
	}
	out := make([]ContextEntry, 0, len(matches))
	for _, m := range matches {
		entry := ContextEntry{
			ID:                 m.ID,
			Similarity:         m.Score,
			Date:               m.Metadata.Date,
			Sender:             m.Metadata.Sender,
			ContextType:        m.Metadata.ContextType,
			EmotionalIntensity: m.Metadata.EmotionalIntensity,
			Conversation:       ChunkNotFound,
		}
		if c, ok := byID[m.ID]; ok {
			entry.Conversation = c.Text
			entry.Found = true
		}
		out = append(out, entry)
	}
	return out
}

// Reconstruct loads the chunks referenced by matches and assembles them.
func Reconstruct(ctx context.Context, reader ChunkReader, matches []model.VectorMatch) ([]ContextEntry, error) {
	if len(matches) == 0 {
		return []ContextEntry{}, nil
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	chunks, err := reader.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	return Assemble(matches, chunks), nil
}

// RenderContext formats entries as the prompt context block.
func RenderContext(entries []ContextEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("Date: %s | Type: %s | Intensity: %d/10\n%s",
			e.Date, e.ContextType, e.EmotionalIntensity, e.Conversation))
	}
	return strings.Join(parts, entrySeparator)
}
