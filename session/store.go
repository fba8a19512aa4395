package session

import (
	"context"
	"errors"
	"strconv"
)

// ErrStoreUnavailable marks failures of the backing store. Implementations
// wrap their driver errors with it so callers can tell a storage outage apart
// from a missing session.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Store persists at most one refresh-token hash per subject. A subject is a
// principal ID, or a principal/device pair built with [Subject] when the
// store reports [DeviceScoped].
//
// Implementations must make CompareAndSwap atomic per subject: of any number
// of concurrent swaps from the same expected value, at most one succeeds.
type Store interface {
	// Record overwrites the stored hash for subject.
	Record(ctx context.Context, subject, hash string) error
	// Load returns the stored hash. found is false when no session exists.
	Load(ctx context.Context, subject string) (hash string, found bool, err error)
	// CompareAndSwap replaces the stored hash with next only if it still
	// equals expected.
	CompareAndSwap(ctx context.Context, subject, expected, next string) (bool, error)
	// Invalidate clears the stored hash. Clearing an absent session is not
	// an error.
	Invalidate(ctx context.Context, subject string) error
}

// DeviceScoped is implemented by stores that accept composite subjects and
// can therefore hold one session per (principal, device).
type DeviceScoped interface {
	DeviceScoped() bool
}

// Pinger is implemented by stores that can report their own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Subject returns the store key for a principal and device. The principal ID
// is length-prefixed, so no (principal, device) pair can produce the key of
// another pair whatever characters either ID contains. An empty deviceID is a
// distinct device of its own.
func Subject(principalID, deviceID string) string {
	return strconv.Itoa(len(principalID)) + ":" + principalID + "|" + deviceID
}
