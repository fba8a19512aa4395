// Package limiter provides the in-process token-bucket throttle used on the
// login path.
//
// Buckets are keyed by normalized email and, optionally, client IP. Idle
// buckets are pruned lazily on the next call, so no background goroutine is
// needed.
//
// # What this package must NOT do
//
//   - Import authcore (to avoid import cycles).
//   - Distinguish known from unknown identities; every key is throttled alike.
package limiter
