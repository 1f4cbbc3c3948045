package crawl_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter(t *testing.T) {
	t.Parallel()

	t.Run("implements sitecrawl.Limiter interface", func(t *testing.T) {
		t.Parallel()
		var _ sitecrawl.Limiter = crawl.NewLimiter(time.Second)
	})

	t.Run("allows immediate first request", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewLimiter(time.Second)

		start := time.Now()
		err := limiter.Wait(context.Background())
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Less(t, elapsed, 50*time.Millisecond, "first request should be immediate")
	})

	t.Run("spaces consecutive requests by the delay", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewLimiter(100 * time.Millisecond)

		start := time.Now()
		for range 3 {
			require.NoError(t, limiter.Wait(context.Background()))
		}
		elapsed := time.Since(start)

		assert.GreaterOrEqual(t, elapsed, 180*time.Millisecond, "three requests need two delays")
	})

	t.Run("zero delay never waits", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewLimiter(0)

		start := time.Now()
		for range 100 {
			require.NoError(t, limiter.Wait(context.Background()))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
		assert.Equal(t, time.Duration(0), limiter.Delay())
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewLimiter(time.Second)
		require.NoError(t, limiter.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := limiter.Wait(ctx)
		assert.Error(t, err, "should fail when context times out")
	})

	t.Run("is shared across goroutines", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewLimiter(20 * time.Millisecond)

		var wg sync.WaitGroup
		var completed atomic.Int32

		start := time.Now()
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := limiter.Wait(context.Background()); err == nil {
					completed.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(5), completed.Load(), "all requests should complete")
		assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond, "five requests need four delays")
	})
}

func TestLimiter_SetDelay(t *testing.T) {
	t.Parallel()

	t.Run("spaces the next request from the previous one", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewLimiter(0)
		require.NoError(t, limiter.Wait(context.Background()))
		previous := time.Now()

		limiter.SetDelay(100 * time.Millisecond)
		require.NoError(t, limiter.Wait(context.Background()))

		assert.GreaterOrEqual(t, time.Since(previous), 95*time.Millisecond)
		assert.Equal(t, 100*time.Millisecond, limiter.Delay())
	})

	t.Run("raising the delay lengthens the pending gap", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewLimiter(20 * time.Millisecond)
		require.NoError(t, limiter.Wait(context.Background()))
		previous := time.Now()

		limiter.SetDelay(150 * time.Millisecond)
		require.NoError(t, limiter.Wait(context.Background()))

		assert.GreaterOrEqual(t, time.Since(previous), 145*time.Millisecond)
	})

	t.Run("keeps the first request immediate", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewLimiter(0)
		limiter.SetDelay(time.Second)

		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background()))

		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})
}

func TestEffectiveDelay(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3*time.Second, crawl.EffectiveDelay(3*time.Second, 0))
	assert.Equal(t, 10*time.Second, crawl.EffectiveDelay(3*time.Second, 10*time.Second))
	assert.Equal(t, 3*time.Second, crawl.EffectiveDelay(3*time.Second, time.Second))
}
