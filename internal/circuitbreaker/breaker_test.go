package circuitbreaker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(fail, success int, timeout time.Duration) (*Breaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)}
	b := New(Config{FailThreshold: fail, SuccessThreshold: success, Timeout: timeout})
	b.now = clock.Now
	return b, clock
}

func TestState_String(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  string
	}{
		{"closed", StateClosed, "CLOSED"},
		{"open", StateOpen, "OPEN"},
		{"half_open", StateHalfOpen, "HALF_OPEN"},
		{"unknown", State(9), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestBreaker_New(t *testing.T) {
	b := New(Config{})

	require.NotNil(t, b)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 1, b.config.FailThreshold)
	assert.Equal(t, 1, b.config.SuccessThreshold)
}

func TestBreaker_TripsAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, 2, time.Second)

	b.Record(false)
	b.Record(false)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 2, b.Failures())

	b.Record(false)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b, _ := newTestBreaker(3, 1, time.Second)

	b.Record(false)
	b.Record(false)
	b.Record(true)
	b.Record(false)

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 1, b.Failures())
}

func TestBreaker_HalfOpenAfterTimeout(t *testing.T) {
	b, clock := newTestBreaker(1, 2, 30*time.Second)

	b.Record(false)
	require.Equal(t, StateOpen, b.State())

	clock.Advance(29 * time.Second)
	assert.False(t, b.Allow())

	clock.Advance(time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b, clock := newTestBreaker(1, 2, time.Second)

	b.Record(false)
	clock.Advance(time.Second)
	require.True(t, b.Allow())

	b.Record(true)
	assert.Equal(t, StateHalfOpen, b.State())

	b.Record(true)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(1, 2, time.Second)

	b.Record(false)
	clock.Advance(time.Second)
	require.True(t, b.Allow())

	b.Record(false)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_Reset(t *testing.T) {
	b, _ := newTestBreaker(1, 1, time.Hour)

	b.Record(false)
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.Failures())
	assert.True(t, b.Allow())
}

func TestBreaker_Metrics(t *testing.T) {
	b, _ := newTestBreaker(2, 1, time.Hour)

	b.Allow()
	b.Record(true)
	b.Allow()
	b.Record(false)
	b.Allow()
	b.Record(false)
	b.Allow()

	m := b.Metrics()
	assert.Equal(t, int64(4), m.TotalRequests)
	assert.Equal(t, int64(1), m.RejectedRequests)
	assert.Equal(t, int64(1), m.SuccessRequests)
	assert.Equal(t, int64(2), m.FailedRequests)
	assert.Equal(t, int32(1), m.StateChanges)
	assert.Equal(t, "OPEN", m.CurrentState)
}

func TestBreaker_Concurrent(t *testing.T) {
	b := New(Config{FailThreshold: 1000, SuccessThreshold: 1, Timeout: time.Second})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if b.Allow() {
				b.Record(i%2 == 0)
			}
		}(i)
	}
	wg.Wait()

	m := b.Metrics()
	assert.Equal(t, int64(50), m.TotalRequests)
	assert.Equal(t, int64(50), m.SuccessRequests+m.FailedRequests)
}
