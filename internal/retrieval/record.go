package retrieval

import (
	"time"

	"github.com/xxxsen/unmask/internal/chunk"
	"github.com/xxxsen/unmask/internal/model"
)

func Metadata(c *model.Chunk) model.ChunkMetadata {
	return model.ChunkMetadata{
		Timestamp:          c.SpanStart.Format(time.RFC3339),
		Sender:             c.PrimarySender,
		Date:               c.SpanStart.Format(chunk.DateLayout),
		ContextType:        c.ContextType,
		EmotionalIntensity: c.EmotionalIntensity,
		MessageCount:       c.MessageCount(),
		HasAttachment:      c.HasAttachment,
	}
}

// ToRecord converts an annotated chunk into its vector index upsert form.
// Values are left empty for the caller to fill with the embedding.
func ToRecord(c *model.Chunk) model.VectorRecord {
	return model.VectorRecord{
		ID:       c.ID,
		Text:     c.Text,
		Metadata: Metadata(c),
	}
}

func ToRecords(chunks []model.Chunk) []model.VectorRecord {
	out := make([]model.VectorRecord, 0, len(chunks))
	for i := range chunks {
		out = append(out, ToRecord(&chunks[i]))
	}
	return out
}
