package flows

import "context"

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Subject      func(principalID, deviceID string) string
	SessionStore SessionStore
}

// RunLogout clears the stored hash. Clearing an absent session succeeds.
func RunLogout(ctx context.Context, principalID, deviceID string, deps LogoutDeps) error {
	return deps.SessionStore.Invalidate(ctx, deps.Subject(principalID, deviceID))
}
