package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/unmask/internal/config"
	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pkg/timeutil"
)

// BatchError is a batch that still failed after every retry.
type BatchError struct {
	Stage    string
	Batch    int
	Start    int
	End      int
	Attempts int
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s batch %d [%d,%d) failed after %d attempts: %v", e.Stage, e.Batch, e.Start, e.End, e.Attempts, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

func (e *BatchError) failure() model.BatchFailure {
	return model.BatchFailure{
		Batch:    e.Batch,
		Start:    e.Start,
		End:      e.End,
		Attempts: e.Attempts,
		Error:    e.Err.Error(),
	}
}

type RetryConfig struct {
	Attempts int
	Backoff  []time.Duration
}

func RetryFromPipeline(p config.PipelineConfig) RetryConfig {
	backoff := make([]time.Duration, 0, len(p.RetryBackoffMS))
	for _, ms := range p.RetryBackoffMS {
		backoff = append(backoff, time.Duration(ms)*time.Millisecond)
	}
	return RetryConfig{Attempts: p.RetryAttempts, Backoff: backoff}
}

func (r RetryConfig) wait(attempt int) time.Duration {
	if len(r.Backoff) == 0 {
		return 0
	}
	if attempt >= len(r.Backoff) {
		return r.Backoff[len(r.Backoff)-1]
	}
	return r.Backoff[attempt]
}

// run calls fn until it succeeds, attempts are exhausted or ctx ends.
// It returns the number of attempts made.
func (r RetryConfig) run(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	attempts := max(r.Attempts, 1)
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return i + 1, nil
		}
		if ctx.Err() != nil || i == attempts-1 {
			return i + 1, err
		}
		logutil.GetLogger(ctx).Warn("batch attempt failed", zap.Int("attempt", i+1), zap.Error(err))
		if d := r.wait(i); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return i + 1, err
			case <-timer.C:
			}
		}
	}
	return attempts, err
}

type span struct {
	index int
	start int
	end   int
}

func spans(total, size int) []span {
	if size <= 0 {
		size = total
	}
	out := make([]span, 0, (total+max(size, 1)-1)/max(size, 1))
	for i, start := 0, 0; start < total; i, start = i+1, start+size {
		out = append(out, span{index: i, start: start, end: min(start+size, total)})
	}
	return out
}

func newReport(stage string) *model.RunReport {
	return &model.RunReport{
		RunID:     uuid.NewString(),
		Stage:     stage,
		StartedAt: timeutil.NowUnix(),
	}
}
