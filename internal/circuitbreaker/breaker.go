package circuitbreaker

import (
	"sync"
	"time"
)

// State is one of CLOSED, OPEN, or HALF_OPEN.
type State int

const (
	StateClosed   State = iota // Normal operation, all calls permitted
	StateOpen                  // Partner failing/slow, calls rejected fast
	StateHalfOpen               // Bounded probes decide CLOSED vs OPEN
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

// Config holds the sliding-window breaker parameters from spec §4.2.
type Config struct {
	WindowSize                int
	MinimumCalls              int
	FailureRateThreshold      float64 // 0..1
	SlowCallRateThreshold     float64 // 0..1
	SlowCallDurationThreshold time.Duration
	OpenStateDuration         time.Duration
	PermittedHalfOpenCalls    int
	EvictionQuietPeriod       time.Duration
	SweepInterval             time.Duration
}

// DefaultConfig returns the parameters listed in spec §4.2.
func DefaultConfig() Config {
	return Config{
		WindowSize:                10,
		MinimumCalls:              5,
		FailureRateThreshold:      0.5,
		SlowCallRateThreshold:     0.5,
		SlowCallDurationThreshold: 2 * time.Second,
		OpenStateDuration:         10 * time.Second,
		PermittedHalfOpenCalls:    3,
		EvictionQuietPeriod:       24 * time.Hour,
		SweepInterval:             1 * time.Hour,
	}
}

type slot struct {
	filled bool
	failed bool
	slow   bool
}

// CircuitBreaker is a count-based sliding-window breaker for one partner.
// It tracks the last WindowSize outcomes in a ring buffer and trips to OPEN
// once either the failure rate or the slow-call rate crosses its threshold.
type CircuitBreaker struct {
	mutex  sync.Mutex
	config Config

	state    State
	openedAt time.Time
	window   []slot
	next     int // index the next recorded outcome will occupy
	filled   int // number of populated slots, capped at WindowSize

	halfOpenIssued int
	halfOpenDone   int
	halfOpenBad    int
}

// New creates a breaker in the CLOSED state with cfg.
func New(cfg Config) *CircuitBreaker {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 10
	}
	return &CircuitBreaker{
		config: cfg,
		state:  StateClosed,
		window: make([]slot, cfg.WindowSize),
	}
}

// Allow reports whether a call may proceed, transitioning OPEN -> HALF_OPEN
// once the open-state duration has elapsed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.allowLocked()
}

func (cb *CircuitBreaker) allowLocked() bool {
	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.openedAt) < cb.config.OpenStateDuration {
			return false
		}
		cb.state = StateHalfOpen
		cb.halfOpenIssued = 0
		cb.halfOpenDone = 0
		cb.halfOpenBad = 0
		fallthrough
	case StateHalfOpen:
		if cb.halfOpenIssued >= cb.config.PermittedHalfOpenCalls {
			return false
		}
		cb.halfOpenIssued++
		return true
	default:
		return true
	}
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// RecordSuccess records a call that completed without a transport error. A
// success whose duration meets or exceeds the slow-call threshold still
// counts toward the slow-call rate.
func (cb *CircuitBreaker) RecordSuccess(duration time.Duration) {
	cb.record(slot{filled: true, failed: false, slow: duration >= cb.config.SlowCallDurationThreshold})
}

// RecordFailure records an I/O error, timeout, or unhandled fault.
func (cb *CircuitBreaker) RecordFailure(duration time.Duration, _ error) {
	cb.record(slot{filled: true, failed: true, slow: duration >= cb.config.SlowCallDurationThreshold})
}

func (cb *CircuitBreaker) record(s slot) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.halfOpenDone++
		if s.failed || s.slow {
			cb.halfOpenBad++
		}
		if cb.halfOpenDone >= cb.config.PermittedHalfOpenCalls {
			if cb.halfOpenBad > 0 {
				cb.trip()
			} else {
				cb.resetToClosed()
			}
		}
		return
	case StateOpen:
		// An outcome racing a concurrent re-open (the breaker tripped again
		// before this call's result arrived) is dropped, so it does not
		// perturb the window while the breaker is OPEN.
		return
	}

	cb.pushWindow(s)

	if cb.filled >= cb.config.MinimumCalls {
		failureRate, slowRate := cb.ratesLocked()
		if failureRate >= cb.config.FailureRateThreshold || slowRate >= cb.config.SlowCallRateThreshold {
			cb.trip()
		}
	}
}

func (cb *CircuitBreaker) pushWindow(s slot) {
	cb.window[cb.next] = s
	cb.next = (cb.next + 1) % len(cb.window)
	if cb.filled < len(cb.window) {
		cb.filled++
	}
}

func (cb *CircuitBreaker) ratesLocked() (failureRate, slowRate float64) {
	if cb.filled == 0 {
		return 0, 0
	}
	var failures, slows int
	for _, s := range cb.window {
		if !s.filled {
			continue
		}
		if s.failed {
			failures++
		}
		if s.slow {
			slows++
		}
	}
	return float64(failures) / float64(cb.filled), float64(slows) / float64(cb.filled)
}

func (cb *CircuitBreaker) trip() {
	cb.state = StateOpen
	cb.openedAt = time.Now()
}

func (cb *CircuitBreaker) resetToClosed() {
	cb.state = StateClosed
	cb.next = 0
	cb.filled = 0
	cb.window = make([]slot, len(cb.window))
	cb.halfOpenIssued = 0
	cb.halfOpenDone = 0
	cb.halfOpenBad = 0
}
