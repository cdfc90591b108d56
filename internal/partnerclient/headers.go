package partnerclient

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/partner"
)

// buildHeaders builds the outbound header set for p: content-type for the
// request format, then authentication, then custom headers — each layer
// overwriting a prior header with the same name (case-insensitive, since
// http.Header canonicalizes names).
func buildHeaders(p partner.Record, contentType string, logger *slog.Logger) http.Header {
	h := make(http.Header)
	h.Set("Content-Type", contentType)
	h.Set("Accept", "application/json")

	switch p.AuthenticationType {
	case partner.AuthAPIKey:
		h.Set("X-API-Key", p.APIKey)
	case partner.AuthBearer:
		h.Set("Authorization", "Bearer "+p.APIKey)
	case partner.AuthBasic:
		user, password, ok := p.BasicCredentials()
		if !ok {
			logger.Warn("invalid BASIC auth format for partner, skipping auth header",
				slog.String("partner_id", p.ID))
			break
		}
		token := base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
		h.Set("Authorization", "Basic "+token)
	case partner.AuthNone:
		// no auth header
	}

	for name, value := range p.CustomHeaders {
		if existing := h.Get(name); existing != "" {
			logger.Warn("custom header collides with a previously set header, overwriting",
				slog.String("partner_id", p.ID), slog.String("header", name))
		}
		h.Set(name, value)
	}

	return h
}
