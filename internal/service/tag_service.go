package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/unmask/internal/classify"
	"github.com/xxxsen/unmask/internal/model"
	appErr "github.com/xxxsen/unmask/internal/pkg/errors"
	"github.com/xxxsen/unmask/internal/pkg/timeutil"
	"github.com/xxxsen/unmask/internal/repo"
)

const StageTagging = "tagging"

type messageSource interface {
	List(ctx context.Context, filter repo.MessageFilter) ([]model.Message, error)
}

type tagStore interface {
	ReplaceBatch(ctx context.Context, batch []repo.TaggedMessage) error
	Search(ctx context.Context, q model.TagQuery) ([]model.TagHit, error)
}

type TagConfig struct {
	BatchSize int
	Workers   int
	Retry     RetryConfig
}

type TagService struct {
	messages messageSource
	tags     tagStore
	engine   *classify.Engine
	cfg      TagConfig
}

func NewTagService(messages messageSource, tags tagStore, engine *classify.Engine, cfg TagConfig) *TagService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &TagService{messages: messages, tags: tags, engine: engine, cfg: cfg}
}

// TagAll classifies the whole feed batch by batch. Each batch is persisted
// atomically and retried as a unit; a batch that keeps failing is reported
// and the run moves on, so the report always carries partial progress.
func (s *TagService) TagAll(ctx context.Context) (*model.RunReport, error) {
	report := newReport(StageTagging)
	logger := logutil.GetLogger(ctx).With(zap.String("run_id", report.RunID), zap.String("stage", StageTagging))
	msgs, err := s.messages.List(ctx, repo.MessageFilter{})
	if err != nil {
		return report, fmt.Errorf("load messages: %w", err)
	}
	report.TotalMessages = len(msgs)
	logger.Info("tagging started", zap.Int("messages", len(msgs)), zap.Int("batch_size", s.cfg.BatchSize))

	var errs []error
	for _, sp := range spans(len(msgs), s.cfg.BatchSize) {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		batch := msgs[sp.start:sp.end]
		results, err := s.engine.ClassifyAll(ctx, batch, s.cfg.Workers)
		if err != nil {
			errs = append(errs, err)
			break
		}
		items := make([]repo.TaggedMessage, 0, len(batch))
		tagged := 0
		for i, m := range batch {
			items = append(items, repo.TaggedMessage{MessageID: m.ID, Tags: results[i]})
			if len(results[i]) > 0 {
				tagged++
			}
		}
		attempts, err := s.cfg.Retry.run(ctx, func(ctx context.Context) error {
			return s.tags.ReplaceBatch(ctx, items)
		})
		if err != nil {
			batchErr := &BatchError{Stage: StageTagging, Batch: sp.index, Start: sp.start, End: sp.end, Attempts: attempts, Err: err}
			logger.Error("tag batch failed", zap.Int("batch", sp.index), zap.Int("attempts", attempts), zap.Error(err))
			report.FailedBatches = append(report.FailedBatches, batchErr.failure())
			errs = append(errs, batchErr)
			continue
		}
		report.TotalProcessed += len(batch)
		report.TaggedMessages += tagged
	}
	report.FinishedAt = timeutil.NowUnix()
	logger.Info("tagging finished",
		zap.Int("total_processed", report.TotalProcessed),
		zap.Int("tagged_messages", report.TaggedMessages),
		zap.Int("failed_batches", len(report.FailedBatches)))
	return report, errors.Join(errs...)
}

// Search returns tagged messages newest first.
func (s *TagService) Search(ctx context.Context, q model.TagQuery) ([]model.TagHit, error) {
	if q.MinIntensity < 0 || q.MinIntensity > 10 {
		return nil, fmt.Errorf("min_intensity must be within [0,10]: %w", appErr.ErrInvalid)
	}
	if q.Limit < 0 {
		return nil, fmt.Errorf("limit must not be negative: %w", appErr.ErrInvalid)
	}
	if q.Limit > 1000 {
		q.Limit = 1000
	}
	return s.tags.Search(ctx, q)
}
