// Package circuitbreaker implements a per-partner circuit breaker that
// isolates failing or slow partners and prevents hub-wide latency
// amplification.
//
// Each breaker tracks a count-based sliding window over the last 10 calls.
// It has three states:
//
//   - CLOSED: normal operation, calls pass through
//   - OPEN: partner failing/slow, calls rejected fast
//   - HALF_OPEN: a bounded number of probe calls decide recovery
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(circuitbreaker.DefaultConfig())
//	permit, ok := registry.Acquire("partner-a")
//	if !ok {
//	    // breaker open, synthesize a CIRCUIT_BREAKER_OPEN response
//	}
//	// ... perform the call ...
//	permit.RecordSuccess(elapsed)
//	// or: permit.RecordFailure(elapsed, err)
package circuitbreaker
