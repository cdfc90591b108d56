// Package partner defines the partner (charge point operator) record and
// the enumerations that describe how the gateway talks to it: request
// format, authentication scheme, and the fields used to build and
// interpret the outbound HTTP exchange.
package partner
