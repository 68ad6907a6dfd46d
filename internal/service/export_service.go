package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/unmask/internal/filestore"
	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/retrieval"
)

const exportPageSize = 500

type chunkLister interface {
	List(ctx context.Context, contextType model.ContextType, limit, offset int) ([]model.Chunk, error)
}

type ExportResult struct {
	Key    string `json:"key"`
	Chunks int    `json:"chunks"`
	Bytes  int64  `json:"bytes"`
}

type ExportService struct {
	chunks chunkLister
	files  filestore.Store
}

func NewExportService(chunks chunkLister, files filestore.Store) *ExportService {
	return &ExportService{chunks: chunks, files: files}
}

// ExportChunks writes every stored chunk as one vector record per line.
// An empty key picks a timestamped name under exports/.
func (s *ExportService) ExportChunks(ctx context.Context, key string) (*ExportResult, error) {
	if strings.TrimSpace(key) == "" {
		key = "exports/chunks-" + time.Now().UTC().Format("20060102-150405") + ".jsonl"
	}
	key, err := filestore.CleanKey(key)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	total := 0
	for offset := 0; ; offset += exportPageSize {
		page, err := s.chunks.List(ctx, "", exportPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list chunks: %w", err)
		}
		for i := range page {
			if err := enc.Encode(retrieval.ToRecord(&page[i])); err != nil {
				return nil, fmt.Errorf("encode chunk %s: %w", page[i].ID, err)
			}
		}
		total += len(page)
		if len(page) < exportPageSize {
			break
		}
	}
	size := int64(buf.Len())
	if err := s.files.Save(ctx, key, bytes.NewReader(buf.Bytes()), size); err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}
	logutil.GetLogger(ctx).Info("chunk export finished", zap.String("key", key), zap.Int("chunks", total), zap.Int64("bytes", size))
	return &ExportResult{Key: key, Chunks: total, Bytes: size}, nil
}
