package partnerclient

import (
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/partner"
)

var _ = Describe("buildHeaders", func() {
	silentLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))

	It("sets content-type and accept", func() {
		p := partner.Record{AuthenticationType: partner.AuthNone}
		h := buildHeaders(p, "application/json", silentLogger)
		Expect(h.Get("Content-Type")).To(Equal("application/json"))
		Expect(h.Get("Accept")).To(Equal("application/json"))
	})

	It("sets X-API-Key for API_KEY auth", func() {
		p := partner.Record{AuthenticationType: partner.AuthAPIKey, APIKey: "secret"}
		h := buildHeaders(p, "application/json", silentLogger)
		Expect(h.Get("X-API-Key")).To(Equal("secret"))
	})

	It("sets a bearer Authorization header for BEARER auth", func() {
		p := partner.Record{AuthenticationType: partner.AuthBearer, APIKey: "tok"}
		h := buildHeaders(p, "application/json", silentLogger)
		Expect(h.Get("Authorization")).To(Equal("Bearer tok"))
	})

	It("sets a basic Authorization header for BASIC auth", func() {
		p := partner.Record{AuthenticationType: partner.AuthBasic, APIKey: "user:pass"}
		h := buildHeaders(p, "application/json", silentLogger)
		Expect(h.Get("Authorization")).To(Equal("Basic dXNlcjpwYXNz"))
	})

	It("skips the auth header when BASIC api_key has no separator", func() {
		p := partner.Record{AuthenticationType: partner.AuthBasic, APIKey: "no-colon"}
		h := buildHeaders(p, "application/json", silentLogger)
		Expect(h.Get("Authorization")).To(Equal(""))
	})

	It("overwrites a prior header with a same-named custom header", func() {
		p := partner.Record{
			AuthenticationType: partner.AuthAPIKey,
			APIKey:             "secret",
			CustomHeaders:      map[string]string{"X-API-Key": "overridden"},
		}
		h := buildHeaders(p, "application/json", silentLogger)
		Expect(h.Get("X-API-Key")).To(Equal("overridden"))
	})

	It("merges custom headers that don't collide", func() {
		p := partner.Record{
			AuthenticationType: partner.AuthNone,
			CustomHeaders:      map[string]string{"X-Partner-Region": "eu-west"},
		}
		h := buildHeaders(p, "application/json", silentLogger)
		Expect(h.Get("X-Partner-Region")).To(Equal("eu-west"))
	})
})
