package flows

import (
	"context"
	"time"
)

// Principal is the flow-local view of a stored principal.
type Principal struct {
	ID             string
	Email          string
	CredentialHash string
	Role           string
}

// TokenPair is the flow-local issued pair.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RefreshClaims is the subset of a verified refresh token the refresh flow
// needs.
type RefreshClaims struct {
	PrincipalID string
	DeviceID    string
}

// SessionStore is the refresh-hash store as seen by the flows.
type SessionStore interface {
	Record(ctx context.Context, subject, hash string) error
	Load(ctx context.Context, subject string) (string, bool, error)
	CompareAndSwap(ctx context.Context, subject, expected, next string) (bool, error)
	Invalidate(ctx context.Context, subject string) error
}

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Login    LoginDeps
	Refresh  RefreshDeps
	Logout   LogoutDeps
	Register RegisterDeps
	Role     RoleDeps
}
