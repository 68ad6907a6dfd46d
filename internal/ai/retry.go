package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// RetryPolicy holds the waits applied between attempts. The number of
// attempts is one more than the length of the matching wait table.
type RetryPolicy struct {
	RateLimitWaits   []time.Duration
	ServerErrorWaits []time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		RateLimitWaits:   []time.Duration{5 * time.Second, 20 * time.Second},
		ServerErrorWaits: []time.Duration{2 * time.Second, 10 * time.Second},
	}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "resource_exhausted")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

// waitFor returns the pause before the next attempt, or false when err is
// permanent or the wait table for its class is exhausted.
func (p RetryPolicy) waitFor(err error, attempt int) (time.Duration, bool) {
	if errors.Is(err, ErrUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var waits []time.Duration
	switch {
	case isRateLimitError(err):
		waits = p.RateLimitWaits
	case isServerError(err):
		waits = p.ServerErrorWaits
	default:
		return 0, false
	}
	if attempt >= len(waits) {
		return 0, false
	}
	return waits[attempt], true
}

func callWithRetry[T any](ctx context.Context, policy RetryPolicy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		wait, ok := policy.waitFor(err, attempt)
		if !ok {
			return res, err
		}
		logutil.GetLogger(ctx).Warn("ai call failed, retrying",
			zap.String("op", op), zap.Int("attempt", attempt+1), zap.Duration("wait", wait), zap.Error(err))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return res, ctx.Err()
		case <-timer.C:
		}
	}
}

type retryGenerator struct {
	next   IGenerator
	policy RetryPolicy
}

// WithGenerateRetry retries transient rate limit and server failures of g.
func WithGenerateRetry(g IGenerator, policy RetryPolicy) IGenerator {
	return &retryGenerator{next: g, policy: policy}
}

func (r *retryGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return callWithRetry(ctx, r.policy, "generate", func(ctx context.Context) (string, error) {
		return r.next.Generate(ctx, prompt)
	})
}

type retryEmbedder struct {
	next   IEmbedder
	policy RetryPolicy
}

func WithEmbedRetry(e IEmbedder, policy RetryPolicy) IEmbedder {
	return &retryEmbedder{next: e, policy: policy}
}

func (r *retryEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return callWithRetry(ctx, r.policy, "embed", func(ctx context.Context) ([]float32, error) {
		return r.next.Embed(ctx, text, taskType)
	})
}

func (r *retryEmbedder) ModelName() string {
	return r.next.ModelName()
}
