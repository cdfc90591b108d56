// Package broadcast implements spec.md §4.4: fan one UID out to every
// active partner under a fixed global deadline and return the first
// business success, or an aggregated failure report if none arrives in
// time.
//
// Grounded in the teacher's internal/loadbalancer (a mutex-guarded
// orchestration object wrapping a pluggable policy) generalized from
// "pick one backend" to "race every partner and keep the first winner,"
// and in internal/metrics.Collector's buffered-event-channel pattern for
// reporting outcomes without blocking the hot path. Per-partner sends run
// on the shared workerpool.Pool rather than one goroutine per call, so a
// broadcast with many partners cannot itself exhaust system resources.
package broadcast
