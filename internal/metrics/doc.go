// Package metrics provides real-time metrics collection for the broadcast
// gateway.
//
// It uses a channel-based event pipeline to asynchronously collect metrics
// about:
//   - Per-partner request outcomes (success, error, timeout, circuit-breaker-open)
//   - Per-partner circuit breaker bookkeeping (breaker_success, breaker_failure)
//   - Response times (average and P95)
//   - Broadcast-level outcomes (winner found, no winner, total time)
//
// The collector runs in a dedicated goroutine and processes events without
// blocking the request path. Events are sent via a buffered channel with
// non-blocking semantics to prevent performance degradation under load.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	// Emit events during request handling
//	collector.EventChannel() <- metrics.MetricEvent{
//		Type:     metrics.EventPartnerSuccess,
//		Partner:  "partner-a",
//		Duration: 150 * time.Millisecond,
//	}
//
//	// Get metrics snapshot
//	snapshot := collector.Snapshot()
//
// The package provides thread-safe metrics storage using sync.RWMutex and
// supports graceful shutdown with event draining to prevent data loss.
package metrics
