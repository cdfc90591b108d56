package partnerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/circuitbreaker"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/metrics"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/partner"
)

// Client dispatches a start-charging request to a single partner, protected
// by that partner's circuit breaker.
type Client struct {
	httpClient *http.Client
	breakers   *circuitbreaker.Registry
	events     chan<- metrics.MetricEvent
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Client. events may be nil, in which case metrics are not
// emitted.
func New(breakers *circuitbreaker.Registry, events chan<- metrics.MetricEvent, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		breakers:   breakers,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// SendStartCharging performs the full per-call algorithm from spec §4.3:
// acquire a breaker permit, build and dispatch the request, interpret the
// response, and report the outcome back to the breaker. ctx governs
// cancellation; the partner's own TimeoutMs further bounds the call.
func (c *Client) SendStartCharging(ctx context.Context, p partner.Record, uid string) Response {
	permit, ok := c.breakers.Acquire(p.ID)
	if !ok {
		c.emit(metrics.EventCircuitBreakerOpen, p.ID, 0)
		return circuitBreakerOpenResponse(p.ID)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.Timeout())
	defer cancel()

	start := c.now()
	resp, err := c.doRequest(callCtx, p, uid)
	elapsed := c.now().Sub(start)

	if err != nil {
		permit.RecordFailure(elapsed, err)
		c.emit(metrics.EventBreakerFailure, p.ID, elapsed)

		errText := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			errText = "timeout: " + errText
		}
		timeout := strings.Contains(strings.ToLower(errText), "timeout")
		if timeout {
			c.emit(metrics.EventPartnerTimeout, p.ID, elapsed)
		} else {
			c.emit(metrics.EventPartnerError, p.ID, elapsed)
		}

		c.logger.Warn("partner request failed",
			slog.String("partner_id", p.ID), slog.Any("error", err),
			slog.Duration("elapsed", elapsed), slog.Bool("timeout", timeout))

		return Response{
			PartnerID:      p.ID,
			Success:        false,
			Status:         statusError,
			Message:        errText,
			ResponseTimeMs: elapsed.Milliseconds(),
			Timeout:        timeout,
		}
	}

	permit.RecordSuccess(elapsed)
	c.emit(metrics.EventBreakerSuccess, p.ID, elapsed)

	status := extractFieldValue(p.ResponseStatusPath, resp)
	message := extractFieldValue(p.ResponseMessagePath, resp)
	success := isSuccessResponse(p.SuccessStatusPattern, normalizeExtracted(status))

	if success {
		c.emit(metrics.EventPartnerSuccess, p.ID, elapsed)
	} else {
		c.emit(metrics.EventPartnerError, p.ID, elapsed)
	}

	c.logger.Debug("partner request completed",
		slog.String("partner_id", p.ID), slog.String("status", status),
		slog.Bool("success", success), slog.Duration("elapsed", elapsed))

	return Response{
		PartnerID:      p.ID,
		Success:        success,
		Status:         status,
		Message:        message,
		ResponseTimeMs: elapsed.Milliseconds(),
		Timeout:        false,
	}
}

// normalizeExtracted maps the "N/A" sentinel back to empty so
// isSuccessResponse's null-status rule applies uniformly.
func normalizeExtracted(status string) string {
	if status == extractNotApplicable {
		return ""
	}
	return status
}

func (c *Client) doRequest(ctx context.Context, p partner.Record, uid string) (map[string]any, error) {
	body, contentType := buildBody(p, uid, c.now())
	headers := buildHeaders(p, contentType, c.logger)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.RequestURL(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = headers

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpStatusError{code: resp.StatusCode, body: string(raw)}
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func (c *Client) emit(t metrics.EventType, partnerID string, d time.Duration) {
	if c.events == nil {
		return
	}
	select {
	case c.events <- metrics.MetricEvent{Type: t, Partner: partnerID, Duration: d, Timestamp: c.now()}:
	default:
		c.logger.Warn("metrics event dropped: channel full", slog.String("partner_id", partnerID))
	}
}

type httpStatusError struct {
	code int
	body string
}

func (e *httpStatusError) Error() string {
	return http.StatusText(e.code) + ": " + e.body
}
