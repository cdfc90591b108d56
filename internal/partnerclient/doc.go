// Package partnerclient transforms a (partner, uid) pair into a single HTTP
// exchange protected by the partner's circuit breaker, with partner-specific
// request shaping (JSON/XML/FORM_DATA body, auth scheme, custom headers) and
// response interpretation (dot-path status/message extraction, success
// pattern matching). It is the Go analogue of the source system's
// PartnerHttpClient, built on net/http and circuitbreaker.Registry instead
// of WebClient and resilience4j.
package partnerclient
