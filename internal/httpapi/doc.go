// Package httpapi is the thin inbound HTTP surface the orchestrator is
// reached through. spec.md treats this boundary as an external
// collaborator out of scope, but a complete repo still ships one, the way
// the teacher ships internal/handler behind internal/httpserver.Server.
//
// Routes mirror the Java source's BroadcastController 1:1:
//
//	POST /api/v1/broadcast/start-charging   {"uid": "..."}
//	GET  /api/v1/broadcast/health
//
// Request validation uses go-ozzo/ozzo-validation/v4, already a teacher
// dependency (httpserver.validateHost, config validation), to enforce the
// non-empty uid the Java source enforces with @NotBlank.
package httpapi
