package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/broadcast"
)

// BroadcastFunc is the one call this handler needs. *broadcast.Orchestrator's
// BroadcastStartCharging method satisfies it directly.
type BroadcastFunc func(ctx context.Context, uid string) broadcast.Report

type startChargingRequest struct {
	UID string `json:"uid"`
}

func (r startChargingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UID, validation.Required),
	)
}

type healthResponse struct {
	Status string `json:"status"`
}

// Handler serves the broadcast gateway's inbound HTTP surface:
// POST /api/v1/broadcast/start-charging and GET /api/v1/broadcast/health,
// mirroring the Java source's BroadcastController 1:1.
type Handler struct {
	logger *slog.Logger
	mux    *http.ServeMux
}

// New builds the routed handler around orchestrate.
func New(orchestrate BroadcastFunc, logger *slog.Logger) *Handler {
	h := &Handler{logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("POST /api/v1/broadcast/start-charging", h.startCharging(orchestrate))
	h.mux.HandleFunc("GET /api/v1/broadcast/health", h.health)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "UP"})
}

func (h *Handler) startCharging(orchestrate BroadcastFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)

		var req startChargingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn("malformed start-charging request", slog.String("client", clientIP))
			h.writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		req.UID = strings.TrimSpace(req.UID)
		if err := req.Validate(); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.logger.Info("broadcasting start-charging request",
			slog.String("client", clientIP), slog.String("uid", req.UID))

		report := orchestrate(r.Context(), req.UID)

		status := http.StatusOK
		if !report.Success {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, report)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// extractClientIP mirrors the teacher's internal/handler helper, kept for
// access logging (spec.md is silent on inbound logging fields, so the
// teacher's own convention fills the gap).
func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}
