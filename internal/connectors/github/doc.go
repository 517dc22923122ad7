// Package github adapts the go-github client to the catalog's RemoteClient
// port. It owns authentication (per-owner token with system fallback),
// proactive and reactive rate limiting, a circuit breaker over the API
// host, and the classification of failures into the NotFound/Transient
// taxonomy the services retry against.
package github
