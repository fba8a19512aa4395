package flows

import (
	"context"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureDecode
	RefreshFailureLookup
	RefreshFailurePrincipalGone
	RefreshFailureLoad
	RefreshFailureNoSession
	RefreshFailureMismatch
	RefreshFailureIssue
	RefreshFailureHash
	RefreshFailureSwap
	RefreshFailureSwapLost
)

// Revoked reports whether the failure means the presented refresh token is
// no longer the current one for its subject.
func (k RefreshFailureKind) Revoked() bool {
	switch k {
	case RefreshFailurePrincipalGone, RefreshFailureNoSession, RefreshFailureMismatch, RefreshFailureSwapLost:
		return true
	}
	return false
}

// Storage reports whether the failure came from a persistence collaborator.
func (k RefreshFailureKind) Storage() bool {
	switch k {
	case RefreshFailureLookup, RefreshFailureLoad, RefreshFailureSwap:
		return true
	}
	return false
}

// RefreshResult carries either the issued token pair or failure metadata.
type RefreshResult struct {
	Failure     RefreshFailureKind
	Err         error
	PrincipalID string
	DeviceID    string
	Role        string
	Pair        TokenPair
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	ParseRefresh func(token string) (RefreshClaims, error)
	// FindByID returns found=false when the principal no longer exists.
	FindByID      func(ctx context.Context, principalID string) (Principal, bool, error)
	Subject       func(principalID, deviceID string) string
	VerifyRefresh func(token, hash string) (bool, error)
	HashRefresh   func(token string) (string, error)
	IssuePair     func(principalID, role, deviceID string) (TokenPair, error)
	SessionStore  SessionStore
	Warn          func(string, ...any)
}

// RunRefresh rotates a refresh token. The role is re-read from the principal
// so role changes take effect at the next refresh. The final compare-and-swap
// on the exact stored hash string guarantees a single winner when the same
// token is presented concurrently.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}

	claims, err := deps.ParseRefresh(refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureDecode, Err: err}
	}
	res := RefreshResult{PrincipalID: claims.PrincipalID, DeviceID: claims.DeviceID}

	p, found, err := deps.FindByID(ctx, claims.PrincipalID)
	if err != nil {
		res.Failure, res.Err = RefreshFailureLookup, err
		return res
	}
	if !found {
		res.Failure = RefreshFailurePrincipalGone
		return res
	}
	res.Role = p.Role

	subject := deps.Subject(claims.PrincipalID, claims.DeviceID)
	stored, found, err := deps.SessionStore.Load(ctx, subject)
	if err != nil {
		res.Failure, res.Err = RefreshFailureLoad, err
		return res
	}
	if !found {
		res.Failure = RefreshFailureNoSession
		return res
	}

	ok, err := deps.VerifyRefresh(refreshToken, stored)
	if err != nil {
		deps.Warn("authcore: stored refresh hash unreadable")
	}
	if !ok || err != nil {
		res.Failure, res.Err = RefreshFailureMismatch, err
		return res
	}

	pair, err := deps.IssuePair(p.ID, p.Role, claims.DeviceID)
	if err != nil {
		res.Failure, res.Err = RefreshFailureIssue, err
		return res
	}
	next, err := deps.HashRefresh(pair.RefreshToken)
	if err != nil {
		res.Failure, res.Err = RefreshFailureHash, err
		return res
	}

	swapped, err := deps.SessionStore.CompareAndSwap(ctx, subject, stored, next)
	if err != nil {
		res.Failure, res.Err = RefreshFailureSwap, err
		return res
	}
	if !swapped {
		res.Failure = RefreshFailureSwapLost
		return res
	}

	res.Pair = pair
	return res
}
