package job

import (
	"context"
	"errors"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/unmask/internal/model"
	appErr "github.com/xxxsen/unmask/internal/pkg/errors"
)

type tagger interface {
	TagAll(ctx context.Context) (*model.RunReport, error)
}

type vectorizer interface {
	Vectorize(ctx context.Context) (*model.RunReport, error)
}

type TagMessagesJob struct {
	tags tagger
}

func NewTagMessagesJob(tags tagger) *TagMessagesJob {
	return &TagMessagesJob{tags: tags}
}

func (j *TagMessagesJob) Name() string {
	return "tag_messages"
}

func (j *TagMessagesJob) Run(ctx context.Context) error {
	report, err := j.tags.TagAll(ctx)
	logReport(ctx, report)
	return err
}

type VectorizeChunksJob struct {
	vectors vectorizer
}

func NewVectorizeChunksJob(vectors vectorizer) *VectorizeChunksJob {
	return &VectorizeChunksJob{vectors: vectors}
}

func (j *VectorizeChunksJob) Name() string {
	return "vectorize_chunks"
}

// Run treats an empty feed as nothing to do.
func (j *VectorizeChunksJob) Run(ctx context.Context) error {
	report, err := j.vectors.Vectorize(ctx)
	if errors.Is(err, appErr.ErrNoMessages) {
		return nil
	}
	logReport(ctx, report)
	return err
}

func logReport(ctx context.Context, report *model.RunReport) {
	if report == nil {
		return
	}
	logutil.GetLogger(ctx).Info("run report",
		zap.String("run_id", report.RunID),
		zap.String("stage", report.Stage),
		zap.Int("total_processed", report.TotalProcessed),
		zap.Int("failed_batches", len(report.FailedBatches)))
}
