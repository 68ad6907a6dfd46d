package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xxxsen/unmask/internal/ai"
	"github.com/xxxsen/unmask/internal/chunk"
	"github.com/xxxsen/unmask/internal/model"
	appErr "github.com/xxxsen/unmask/internal/pkg/errors"
	"github.com/xxxsen/unmask/internal/pkg/timeutil"
	"github.com/xxxsen/unmask/internal/repo"
	"github.com/xxxsen/unmask/internal/retrieval"
	"github.com/xxxsen/unmask/internal/vectorindex"
)

const StageVectorize = "vectorize"

type chunkSink interface {
	ReplaceAll(ctx context.Context, chunks []model.Chunk) ([]string, error)
}

type textEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

type VectorizeConfig struct {
	MessageLimit int
	BatchSize    int
	Concurrency  int
	Segment      chunk.Options
	Retry        RetryConfig
}

type VectorizeService struct {
	messages  messageSource
	chunks    chunkSink
	annotator *chunk.Annotator
	embedder  textEmbedder
	index     vectorindex.Index
	cfg       VectorizeConfig
}

func NewVectorizeService(messages messageSource, chunks chunkSink, annotator *chunk.Annotator,
	embedder textEmbedder, index vectorindex.Index, cfg VectorizeConfig) *VectorizeService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &VectorizeService{
		messages:  messages,
		chunks:    chunks,
		annotator: annotator,
		embedder:  embedder,
		index:     index,
		cfg:       cfg,
	}
}

// Vectorize rebuilds the chunk set from the message feed and indexes one
// embedding per chunk. Batches that fail after retries are reported and
// skipped; the chunk set itself is always fully replaced first.
func (s *VectorizeService) Vectorize(ctx context.Context) (*model.RunReport, error) {
	report := newReport(StageVectorize)
	logger := logutil.GetLogger(ctx).With(zap.String("run_id", report.RunID), zap.String("stage", StageVectorize))

	msgs, err := s.messages.List(ctx, repo.MessageFilter{Limit: s.cfg.MessageLimit})
	if err != nil {
		return report, fmt.Errorf("load messages: %w", err)
	}
	if len(msgs) == 0 {
		return report, appErr.ErrNoMessages
	}
	report.TotalMessages = len(msgs)

	chunks, err := chunk.Segment(msgs, s.cfg.Segment)
	if err != nil {
		return report, err
	}
	chunks = s.annotator.AnnotateAll(chunks)
	report.TotalChunks = len(chunks)
	logger.Info("vectorize started", zap.Int("messages", len(msgs)), zap.Int("chunks", len(chunks)))

	stale, err := s.chunks.ReplaceAll(ctx, chunks)
	if err != nil {
		return report, fmt.Errorf("store chunks: %w", err)
	}
	if len(stale) > 0 {
		if err := s.index.Delete(ctx, stale); err != nil {
			return report, fmt.Errorf("prune stale vectors: %w", err)
		}
		logger.Info("stale vectors pruned", zap.Int("count", len(stale)))
	}

	records := retrieval.ToRecords(chunks)
	var errs []error
	for _, sp := range spans(len(records), s.cfg.BatchSize) {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		batch := records[sp.start:sp.end]
		attempts, err := s.cfg.Retry.run(ctx, func(ctx context.Context) error {
			return s.indexBatch(ctx, batch)
		})
		if err != nil {
			batchErr := &BatchError{Stage: StageVectorize, Batch: sp.index, Start: sp.start, End: sp.end, Attempts: attempts, Err: err}
			logger.Error("vectorize batch failed", zap.Int("batch", sp.index), zap.Int("attempts", attempts), zap.Error(err))
			report.FailedBatches = append(report.FailedBatches, batchErr.failure())
			errs = append(errs, batchErr)
			if errors.Is(err, ai.ErrUnavailable) {
				break
			}
			continue
		}
		report.VectorizedChunks += len(batch)
		report.TotalProcessed += len(batch)
	}
	report.FinishedAt = timeutil.NowUnix()
	logger.Info("vectorize finished",
		zap.Int("total_chunks", report.TotalChunks),
		zap.Int("vectorized_chunks", report.VectorizedChunks),
		zap.Int("failed_batches", len(report.FailedBatches)))
	return report, errors.Join(errs...)
}

// indexBatch embeds the batch concurrently and upserts it as a unit.
func (s *VectorizeService) indexBatch(ctx context.Context, batch []model.VectorRecord) error {
	vectors := make([][]float32, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range batch {
		g.Go(func() error {
			vec, err := s.embedder.Embed(gctx, batch[i].Text, ai.TaskRetrievalDocument)
			if err != nil {
				return fmt.Errorf("embed %s: %w", batch[i].ID, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	out := make([]model.VectorRecord, len(batch))
	for i, rec := range batch {
		rec.Values = vectors[i]
		out[i] = rec
	}
	return s.index.Upsert(ctx, out)
}
