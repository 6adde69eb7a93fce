package market

import (
	"sync"
	"time"

	"finterm/internal/errors"
)

// CircuitState represents the state of the provider circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"    // Normal operation
	CircuitOpen     CircuitState = "OPEN"      // Failing, rejecting requests
	CircuitHalfOpen CircuitState = "HALF_OPEN" // Testing if the provider recovered
)

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	// FailureThreshold is the number of failures before opening the circuit
	FailureThreshold int
	// SuccessThreshold is the number of successes in half-open state to close
	SuccessThreshold int
	// Cooldown is how long to wait before transitioning from open to half-open
	Cooldown time.Duration
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

// Breaker guards the market-data provider against a flapping upstream.
// A run of failed fetches opens the circuit; requests are rejected
// until the cooldown passes, then probed in half-open state.
type Breaker struct {
	config BreakerConfig

	mu              sync.Mutex
	state           CircuitState
	failures        int
	successes       int
	lastFailureTime time.Time
}

// NewBreaker creates a new circuit breaker.
func NewBreaker(config BreakerConfig) *Breaker {
	return &Breaker{
		config: config,
		state:  CircuitClosed,
	}
}

// Allow reports whether a request may proceed, transitioning open
// circuits to half-open after the cooldown.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitOpen:
		if time.Since(b.lastFailureTime) > b.config.Cooldown {
			b.transitionTo(CircuitHalfOpen)
			return nil
		}
		return errors.ErrCircuitOpen
	default:
		return nil
	}
}

// RecordSuccess records a successful fetch.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transitionTo(CircuitClosed)
		}
	case CircuitClosed:
		b.failures = 0
	}
}

// RecordFailure records a failed fetch.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailureTime = time.Now()

	switch b.state {
	case CircuitClosed:
		b.failures++
		if b.failures >= b.config.FailureThreshold {
			b.transitionTo(CircuitOpen)
		}
	case CircuitHalfOpen:
		// Any failure in half-open goes back to open
		b.transitionTo(CircuitOpen)
	}
}

func (b *Breaker) transitionTo(state CircuitState) {
	b.state = state
	b.failures = 0
	b.successes = 0
}

// State returns the current circuit state.
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
