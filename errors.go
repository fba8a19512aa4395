package authcore

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication is returned by Login for an unknown email or a wrong
	// secret. The two cases are indistinguishable by error and message.
	ErrAuthentication = errors.New("invalid email or password")
	// ErrTokenInvalid is returned for tokens with a bad signature, wrong kind,
	// missing claims, or an expired lifetime.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrSessionRevoked is returned by Refresh when the presented refresh token
	// is well-formed but no longer the current one for its subject: the
	// session was rotated, logged out, or lost a concurrent refresh race.
	ErrSessionRevoked = errors.New("session revoked")
	// ErrStorageUnavailable wraps failures of the principal provider or the
	// refresh-hash store. Callers may retry; the engine never does.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrPermissionDenied is returned by Require when the caller's role lacks
	// the capability. Authorize itself only returns a bool.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrEngineNotReady is returned by methods on an Engine not built through
	// Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrLoginRateLimited is returned when login throttling rejects an attempt.
	ErrLoginRateLimited = errors.New("login rate limited")

	// ErrPrincipalNotFound is returned by providers for an unknown email or ID.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrPrincipalExists is returned by creators for a duplicate email.
	ErrPrincipalExists = errors.New("principal already exists")
	// ErrRoleUnknown is returned when a role is not in the role table.
	ErrRoleUnknown = errors.New("unknown role")
	// ErrInvalidRequest is returned for empty or malformed inputs.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotSupported is returned when the configured provider does not
	// implement an optional interface the operation needs.
	ErrNotSupported = errors.New("operation not supported by provider")
)

func storageError(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
