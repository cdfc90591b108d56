package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/metrics"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/partner"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/partnerclient"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/workerpool"
)

const DefaultDeadline = 5 * time.Second

// PartnerSource supplies the active partner snapshot a broadcast fans out
// to. partnercache.Cache satisfies this.
type PartnerSource interface {
	ActivePartners() []partner.Record
}

// Sender dispatches a single start-charging call to one partner.
// partnerclient.Client satisfies this.
type Sender interface {
	SendStartCharging(ctx context.Context, p partner.Record, uid string) partnerclient.Response
}

// Orchestrator fans a single UID out to every active partner under a fixed
// global deadline and returns the first business success, or an
// aggregated failure report. See spec.md §4.4.
type Orchestrator struct {
	partners PartnerSource
	sender   Sender
	pool     *workerpool.Pool
	deadline time.Duration
	events   chan<- metrics.MetricEvent
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an Orchestrator. events may be nil.
func New(partners PartnerSource, sender Sender, pool *workerpool.Pool, deadline time.Duration, events chan<- metrics.MetricEvent, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		partners: partners,
		sender:   sender,
		pool:     pool,
		deadline: deadline,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// BroadcastStartCharging runs the full algorithm from spec §4.4: snapshot,
// fan out, race to first success, and assemble the report. It never
// returns an error — every failure mode is represented in the returned
// Report (spec §7, "Propagation policy").
func (o *Orchestrator) BroadcastStartCharging(ctx context.Context, uid string) Report {
	start := o.now()

	partners := o.partners.ActivePartners()
	if len(partners) == 0 {
		return Report{
			Success:     false,
			Message:     "No active partners available",
			TotalTimeMs: o.elapsedMs(start),
		}
	}

	deadlineAt := start.Add(o.deadline)
	broadcastCtx, cancel := context.WithDeadline(ctx, deadlineAt)
	defer cancel()

	total := len(partners)
	completions := make(chan partnerclient.Response, total)

	for _, p := range partners {
		p := p
		o.pool.Submit(func() {
			completions <- o.sender.SendStartCharging(broadcastCtx, p, uid)
		})
	}

	collected := make([]partnerclient.Response, 0, total)
	var firstSuccess *partnerclient.Response

	deadlineTimer := time.NewTimer(time.Until(deadlineAt))
	defer deadlineTimer.Stop()

receiveLoop:
	for len(collected) < total {
		select {
		case resp := <-completions:
			collected = append(collected, resp)
			if resp.Success && firstSuccess == nil {
				winner := resp
				firstSuccess = &winner
				break receiveLoop
			}
		case <-deadlineTimer.C:
			break receiveLoop
		}
	}

	cancel() // releases every still-outstanding send; late completions are never observed.

	totalTimeMs := o.elapsedMs(start)
	report := o.buildReport(firstSuccess, collected, totalTimeMs)
	o.emit(firstSuccess != nil, totalTimeMs)
	return report
}

func (o *Orchestrator) buildReport(firstSuccess *partnerclient.Response, collected []partnerclient.Response, totalTimeMs int64) Report {
	if firstSuccess != nil {
		return Report{
			Success:           true,
			Message:           fmt.Sprintf("Charging started successfully with partner %s", firstSuccess.PartnerID),
			RespondingPartner: firstSuccess.PartnerID,
			PartnerResponses:  collected,
			TotalTimeMs:       totalTimeMs,
		}
	}

	success, timeouts, errors := tally(collected)
	return Report{
		Success: false,
		Message: fmt.Sprintf("No partner accepted the charging request. %d partners responded (%d success, %d timeouts, %d errors)",
			len(collected), success, timeouts, errors),
		PartnerResponses: collected,
		TotalTimeMs:      totalTimeMs,
	}
}

func (o *Orchestrator) elapsedMs(start time.Time) int64 {
	return o.now().Sub(start).Milliseconds()
}

func (o *Orchestrator) emit(won bool, duration int64) {
	if o.events == nil {
		return
	}
	event := metrics.MetricEvent{
		Type:      metrics.EventBroadcastCompleted,
		Timestamp: o.now(),
		Duration:  time.Duration(duration) * time.Millisecond,
		Won:       won,
	}
	select {
	case o.events <- event:
	default:
		if o.logger != nil {
			o.logger.Warn("metrics event dropped: channel full", slog.String("event", string(metrics.EventBroadcastCompleted)))
		}
	}
}
