package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/unmask/internal/config"
)

func TestSpans(t *testing.T) {
	tests := []struct {
		name  string
		total int
		size  int
		want  []span
	}{
		{name: "empty", total: 0, size: 10, want: []span{}},
		{name: "exact", total: 4, size: 2, want: []span{{0, 0, 2}, {1, 2, 4}}},
		{name: "remainder", total: 5, size: 2, want: []span{{0, 0, 2}, {1, 2, 4}, {2, 4, 5}}},
		{name: "single batch when size unset", total: 3, size: 0, want: []span{{0, 0, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, spans(tt.total, tt.size))
		})
	}
}

func TestRetryConfigRun(t *testing.T) {
	ctx := context.Background()
	r := RetryConfig{Attempts: 3}

	calls := 0
	attempts, err := r.run(ctx, func(context.Context) error {
		calls++
		if calls < 2 {
			return errBoom
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, attempts)

	attempts, err = r.run(ctx, func(context.Context) error { return errBoom })
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, 3, attempts)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	attempts, err = RetryConfig{Attempts: 5, Backoff: []time.Duration{time.Hour}}.run(cctx, func(context.Context) error { return errBoom })
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, 1, attempts)
}

func TestRetryFromPipeline(t *testing.T) {
	r := RetryFromPipeline(config.PipelineConfig{RetryAttempts: 2, RetryBackoffMS: []int{10, 20}})
	require.Equal(t, 2, r.Attempts)
	require.Equal(t, 10*time.Millisecond, r.wait(0))
	require.Equal(t, 20*time.Millisecond, r.wait(1))
	require.Equal(t, 20*time.Millisecond, r.wait(7))
}

func TestBatchErrorUnwrap(t *testing.T) {
	err := &BatchError{Stage: StageTagging, Batch: 1, Start: 2, End: 4, Attempts: 3, Err: errBoom}
	require.ErrorIs(t, err, errBoom)
	require.Contains(t, err.Error(), "tagging batch 1 [2,4)")
	require.Equal(t, "boom", err.failure().Error)
}
