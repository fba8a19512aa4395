// Package middleware adapts authcore access validation and capability checks
// to net/http and gin.
//
// [Guard] and [GinGuard] read the Authorization: Bearer header, validate the
// access token through the engine and attach the claims to the request.
// [Require] and [GinRequire] then check one capability against the role
// claim. Failures answer 401 or 403 with a fixed body; the engine's error is
// never echoed.
//
// Guards never touch session storage, so an access token stays accepted
// until it expires even after logout.
package middleware
