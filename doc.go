// Package authcore is the authentication and session-rotation core of a
// multi-role platform. It verifies email and secret credentials, issues
// short-lived access tokens paired with long-lived refresh tokens, keeps a
// one-way hash of the current refresh token per principal, rotates it on
// every refresh and gates requests through a frozen role to capability
// table.
//
// Engine methods are safe for concurrent use after [Builder.Build].
//
// # Sessions
//
// A principal has at most one live session: login replaces it, refresh
// rotates it and logout clears it. With SessionConfig.KeyByDevice the
// session is keyed by principal and device instead. Rotation is a
// compare-and-swap on the stored hash, so when one refresh token is
// presented concurrently exactly one caller gets a new pair and the rest get
// [ErrSessionRevoked].
//
// # Access tokens after logout
//
// Access tokens are verified without storage round-trips. Logout ends the
// refresh chain but an access token issued before it stays valid until it
// expires. JWTConfig.AccessTTL is the upper bound on that window; keep it in
// minutes.
//
// # Storage
//
// The engine never owns principal records. Callers supply a
// [PrincipalProvider] and a refresh-hash store: session.RedisStore, or
// store/pgstore which implements both.
//
// # Authorization
//
// [Engine.Authorize] is a pure lookup that denies unknown roles and unknown
// capabilities. [Engine.Require] combines access validation with the lookup
// and returns [ErrPermissionDenied] on denial.
package authcore
