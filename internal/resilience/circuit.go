package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrCircuitOpen is returned when a fetch is rejected because the
// provider's circuit is open. It classifies as an HTTP error kind and is
// not retried within the same analysis.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// CircuitState is the state of a provider's breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker is a per-provider circuit breaker. After FailureThreshold
// consecutive transient failures the circuit opens and fetches fail fast
// until ResetTimeout elapses, at which point a single probe is allowed.
type Breaker struct {
	failureThreshold int
	resetTimeout     time.Duration

	mu                  sync.Mutex
	state               CircuitState
	consecutiveFailures int
	lastFailure         time.Time
}

// NewBreaker creates a closed breaker. Non-positive arguments fall back
// to 5 failures / 30s.
func NewBreaker(failureThreshold int, resetTimeout time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &Breaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
	}
}

// Allow reports whether a fetch may proceed, transitioning open circuits
// to half-open once the reset timeout has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitClosed, CircuitHalfOpen:
		return true
	case CircuitOpen:
		if time.Since(b.lastFailure) >= b.resetTimeout {
			b.state = CircuitHalfOpen
			return true
		}
		return false
	}
	return true
}

// Record updates the breaker with a fetch outcome. Only transient errors
// count toward the threshold; a parse error says nothing about provider
// health.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.consecutiveFailures = 0
		b.state = CircuitClosed
		return
	}
	if !IsTransient(err) {
		return
	}

	b.consecutiveFailures++
	b.lastFailure = time.Now()
	if b.state == CircuitHalfOpen || b.consecutiveFailures >= b.failureThreshold {
		b.state = CircuitOpen
	}
}

// State returns the current state.
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
