package metrics

import (
	"context"
	"log/slog"
	"time"
)

// EventType identifies what a MetricEvent reports.
type EventType string

const (
	EventPartnerSuccess     EventType = "partner_success"
	EventPartnerError       EventType = "partner_error"
	EventPartnerTimeout     EventType = "partner_timeout"
	EventCircuitBreakerOpen EventType = "circuit_breaker_open"
	EventBreakerSuccess     EventType = "breaker_success"
	EventBreakerFailure     EventType = "breaker_failure"
	EventBroadcastCompleted EventType = "broadcast_completed"
)

// MetricEvent is one observation emitted onto the collector's channel.
type MetricEvent struct {
	Type      EventType
	Timestamp time.Time
	Partner   string
	Duration  time.Duration
	Won       bool // for EventBroadcastCompleted: whether any partner won
}

// Collector consumes MetricEvent values off a buffered channel in its own
// goroutine, keeping the request path non-blocking.
type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

// NewCollector creates a Collector with the given channel buffer size.
func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// EventChannel returns the send-only side of the event channel.
func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

// Start launches the collector's processing goroutine. It returns
// immediately; the goroutine exits once ctx is done, after draining any
// events still buffered.
func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("metrics collector started")
	defer c.logger.Info("metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventPartnerSuccess:
		c.metrics.RecordPartnerOutcome(event.Partner, "success", event.Duration)
	case EventPartnerError:
		c.metrics.RecordPartnerOutcome(event.Partner, "error", event.Duration)
	case EventPartnerTimeout:
		c.metrics.RecordPartnerOutcome(event.Partner, "timeout", event.Duration)
	case EventCircuitBreakerOpen:
		c.metrics.RecordPartnerOutcome(event.Partner, "circuit_breaker_open", event.Duration)
	case EventBreakerSuccess:
		c.metrics.RecordBreakerOutcome(event.Partner, true)
	case EventBreakerFailure:
		c.metrics.RecordBreakerOutcome(event.Partner, false)
	case EventBroadcastCompleted:
		c.metrics.RecordBroadcast(event.Duration, event.Won)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

// Snapshot returns the current metrics snapshot.
func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
