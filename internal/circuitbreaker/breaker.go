// Package circuitbreaker stops a session from hammering a provider that keeps
// failing. It trips open after consecutive failures and probes again after a
// cool-down.
package circuitbreaker

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the breaker position.
type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config sets the trip and recovery thresholds.
type Config struct {
	FailThreshold    int           `json:"fail_threshold" validate:"min=1"`
	SuccessThreshold int           `json:"success_threshold" validate:"min=1"`
	Timeout          time.Duration `json:"timeout" validate:"min=0"`
}

// Breaker is safe for concurrent use.
type Breaker struct {
	mu        sync.Mutex
	config    Config
	state     State
	failures  int
	successes int
	openedAt  time.Time
	now       func() time.Time
	logger    zerolog.Logger
	metrics   MetricsSnapshot
}

// New returns a closed breaker. Non-positive thresholds are treated as 1.
func New(config Config) *Breaker {
	if config.FailThreshold < 1 {
		config.FailThreshold = 1
	}
	if config.SuccessThreshold < 1 {
		config.SuccessThreshold = 1
	}
	return &Breaker{
		config: config,
		state:  StateClosed,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
}

// WithLogger attaches a logger that records state transitions.
func (b *Breaker) WithLogger(logger zerolog.Logger) *Breaker {
	b.mu.Lock()
	b.logger = logger
	b.mu.Unlock()
	return b
}

// Allow reports whether a request may proceed. An open breaker whose
// timeout has elapsed moves to half-open and lets the probe through.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.metrics.TotalRequests++

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.config.Timeout {
			b.transition(StateHalfOpen)
			return true
		}
		b.metrics.RejectedRequests++
		return false
	}
	return false
}

// Record feeds the outcome of an allowed request back into the breaker.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.metrics.SuccessRequests++
	} else {
		b.metrics.FailedRequests++
	}

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.config.FailThreshold {
			b.trip()
		}
	case StateHalfOpen:
		if !success {
			b.trip()
			return
		}
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transition(StateClosed)
		}
	case StateOpen:
		// A late result from a request admitted before the trip.
	}
}

func (b *Breaker) trip() {
	b.openedAt = b.now()
	b.transition(StateOpen)
}

func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	b.logger.Debug().
		Str("from", b.state.String()).
		Str("to", to.String()).
		Int("failures", b.failures).
		Msg("circuit breaker state change")

	b.state = to
	b.failures = 0
	b.successes = 0
	b.metrics.StateChanges++
}

// State returns the current position without advancing it.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset closes the breaker and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
	b.failures = 0
	b.successes = 0
}

// Failures returns consecutive failures recorded while closed.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Metrics returns a copy of the breaker counters.
func (b *Breaker) Metrics() MetricsSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	snapshot := b.metrics
	snapshot.CurrentState = b.state.String()
	return snapshot
}

// MetricsSnapshot is a point-in-time view of breaker activity.
type MetricsSnapshot struct {
	TotalRequests    int64
	RejectedRequests int64
	SuccessRequests  int64
	FailedRequests   int64
	StateChanges     int32
	CurrentState     string
}
