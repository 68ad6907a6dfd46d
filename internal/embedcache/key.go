package embedcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key identifies one cached embedding. Vectors from different models or
// task types never share a slot.
type Key struct {
	Model    string
	TaskType string
	Hash     string
}

func NewKey(modelName, taskType, text string) Key {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	sum := sha256.Sum256([]byte(text))
	return Key{Model: modelName, TaskType: taskType, Hash: hex.EncodeToString(sum[:])}
}

func (k Key) String() string {
	return "embed:" + k.Model + ":" + k.TaskType + ":" + k.Hash
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
