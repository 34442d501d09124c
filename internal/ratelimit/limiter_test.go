package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tickr/pkg/core"
)

func TestLimiter_New(t *testing.T) {
	limiter := New(10, time.Second)

	assert.NotNil(t, limiter)
	assert.Equal(t, 0, limiter.Metrics().MarketBuckets)
}

func TestLimiter_Allow(t *testing.T) {
	limiter := New(5, time.Second)

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow(core.MarketUS), "request %d should be allowed", i+1)
	}

	assert.False(t, limiter.Allow(core.MarketUS), "request 6 should be blocked")
}

func TestLimiter_MarketBucketsAreIndependent(t *testing.T) {
	limiter := New(10, time.Second)
	limiter.SetMarketLimit(core.MarketNSE, 2, time.Second)

	assert.True(t, limiter.Allow(core.MarketNSE))
	assert.True(t, limiter.Allow(core.MarketNSE))
	assert.False(t, limiter.Allow(core.MarketNSE), "nse bucket should be exhausted")

	assert.True(t, limiter.Allow(core.MarketUS), "us bucket should be unaffected")
	assert.True(t, limiter.Allow(core.MarketBSE), "bse bucket should be unaffected")
}

func TestLimiter_DeniedBucketReturnsGlobalToken(t *testing.T) {
	limiter := New(3, time.Minute)
	limiter.SetMarketLimit(core.MarketBSE, 1, time.Minute)

	assert.True(t, limiter.Allow(core.MarketBSE))
	assert.False(t, limiter.Allow(core.MarketBSE))
	assert.False(t, limiter.Allow(core.MarketBSE))

	assert.True(t, limiter.Allow(core.MarketUS))
	assert.True(t, limiter.Allow(core.MarketUS))
	assert.False(t, limiter.Allow(core.MarketUS), "global limit should now be exhausted")
}

func TestLimiter_UnknownMarketUsesGlobalOnly(t *testing.T) {
	limiter := New(2, time.Second)

	assert.True(t, limiter.Allow(core.MarketUnknown))
	assert.True(t, limiter.Allow(core.MarketUnknown))
	assert.False(t, limiter.Allow(core.MarketUnknown))
	assert.Equal(t, 0, limiter.Metrics().MarketBuckets)
}

func TestLimiter_Wait(t *testing.T) {
	limiter := New(5, 100*time.Millisecond)

	for i := 0; i < 5; i++ {
		err := limiter.Wait(context.Background(), core.MarketNSE)
		assert.NoError(t, err)
	}
}

func TestLimiter_Wait_ContextCancellation(t *testing.T) {
	limiter := New(1, time.Second)

	err := limiter.Wait(context.Background(), core.MarketUS)
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = limiter.Wait(ctx, core.MarketUS)
	assert.Error(t, err)
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := New(100, time.Second)

	var wg sync.WaitGroup
	results := make(chan bool, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- limiter.Allow(core.Markets()[i%3])
		}(i)
	}

	wg.Wait()
	close(results)

	allowed := 0
	for ok := range results {
		if ok {
			allowed++
		}
	}

	assert.LessOrEqual(t, allowed, 100, "should not allow more than 100 requests")
	assert.Equal(t, 3, limiter.Metrics().MarketBuckets)
}

func TestLimiter_Metrics(t *testing.T) {
	limiter := New(1, time.Minute)

	limiter.Allow(core.MarketUS)
	limiter.Allow(core.MarketUS)

	m := limiter.Metrics()
	assert.Equal(t, int64(2), m.TotalRequests)
	assert.Equal(t, int64(1), m.AllowedRequests)
	assert.Equal(t, int64(1), m.DeniedRequests)
	assert.Equal(t, 1, m.MarketBuckets)
}
