package model

type ChunkMetadata struct {
	Timestamp          string      `json:"timestamp"`
	Sender             string      `json:"sender"`
	Date               string      `json:"date"`
	ContextType        ContextType `json:"context_type"`
	EmotionalIntensity int         `json:"emotional_intensity"`
	MessageCount       int         `json:"message_count"`
	HasAttachment      bool        `json:"has_attachment"`
}

// VectorRecord is the upsert unit handed to a vector index.
type VectorRecord struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Values   []float32     `json:"values,omitempty"`
	Metadata ChunkMetadata `json:"metadata"`
}

type VectorMatch struct {
	ID       string        `json:"id"`
	Score    float64       `json:"score"`
	Metadata ChunkMetadata `json:"metadata"`
}

type VectorFilter struct {
	ContextType ContextType `json:"context_type,omitempty"`
}

// CachedEmbedding is one row of the persistent embedding cache. Hash is the
// sha256 of the embedded text, CreatedAt a unix timestamp used for expiry.
type CachedEmbedding struct {
	Model     string    `json:"model"`
	TaskType  string    `json:"task_type"`
	Hash      string    `json:"hash"`
	Values    []float32 `json:"values"`
	CreatedAt int64     `json:"created_at"`
}
