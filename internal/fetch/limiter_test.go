package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter_UnlimitedWhenRPSNonPositive(t *testing.T) {
	t.Parallel()

	l := NewLimiter(LimiterConfig{DefaultRPS: 0})
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(ctx, "https://www.google.com/search"))
	}
}

func TestLimiter_PerDomainIsolation(t *testing.T) {
	t.Parallel()

	l := NewLimiter(LimiterConfig{DefaultRPS: 0.001, DefaultBurst: 1})
	ctx := context.Background()

	// Each domain gets its own bucket with a full burst.
	require.NoError(t, l.Wait(ctx, "https://www.google.com/search"))
	require.NoError(t, l.Wait(ctx, "https://shopping.google.ca/search"))
	require.NoError(t, l.Wait(ctx, "https://example.com/page"))
}

func TestLimiter_ContextCanceled(t *testing.T) {
	t.Parallel()

	l := NewLimiter(LimiterConfig{DefaultRPS: 0.001, DefaultBurst: 1})
	require.NoError(t, l.Wait(context.Background(), "https://www.google.com/search"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, "https://www.google.com/search")
	require.Error(t, err)
}

func TestLimiter_UnparseableURLUsesSharedBucket(t *testing.T) {
	t.Parallel()

	l := NewLimiter(LimiterConfig{DefaultRPS: 0.001, DefaultBurst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "not a url"))

	// Second hostless URL shares the same bucket, which is now drained.
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	require.Error(t, l.Wait(waitCtx, "also-not-a-url"))
}
