package flows

import (
	"context"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureRateLimited
	LoginFailureLookup
	LoginFailureCredentials
	LoginFailureIssue
	LoginFailureHash
	LoginFailureRecord
)

// LoginResult carries either the issued pair or failure metadata.
type LoginResult struct {
	Failure     LoginFailureKind
	Err         error
	PrincipalID string
	Role        string
	Upgraded    bool
	Pair        TokenPair
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	// CheckRate is consulted before any lookup so throttling looks the same
	// for known and unknown emails.
	CheckRate func(ctx context.Context, email string) error
	ResetRate func(ctx context.Context, email string)

	// FindByEmail returns found=false for an unknown email.
	FindByEmail func(ctx context.Context, email string) (Principal, bool, error)

	VerifyCredential func(secret, hash string) (bool, error)
	// DummyHash is verified when the email is unknown so both paths cost the
	// same hash computation.
	DummyHash string

	UpgradeOnLogin       bool
	NeedsUpgrade         func(hash string) bool
	HashCredential       func(secret string) (string, error)
	UpdateCredentialHash func(ctx context.Context, principalID, hash string) error

	DeviceID     func(ctx context.Context) string
	Subject      func(principalID, deviceID string) string
	IssuePair    func(principalID, role, deviceID string) (TokenPair, error)
	HashRefresh  func(token string) (string, error)
	SessionStore SessionStore

	Warn func(string, ...any)
}

// RunLogin verifies the credential, issues a fresh pair and records the hash
// of the new refresh token, replacing any previous session for the subject.
func RunLogin(ctx context.Context, email, secret string, deps LoginDeps) LoginResult {
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}

	if deps.CheckRate != nil {
		if err := deps.CheckRate(ctx, email); err != nil {
			return LoginResult{Failure: LoginFailureRateLimited, Err: err}
		}
	}

	p, found, err := deps.FindByEmail(ctx, email)
	if err != nil {
		return LoginResult{Failure: LoginFailureLookup, Err: err}
	}

	hash := deps.DummyHash
	if found {
		hash = p.CredentialHash
	}
	ok, err := deps.VerifyCredential(secret, hash)
	if err != nil && found {
		deps.Warn("authcore: stored credential hash unreadable")
	}
	if !found || !ok || err != nil {
		return LoginResult{Failure: LoginFailureCredentials, Err: err, PrincipalID: p.ID}
	}

	if deps.ResetRate != nil {
		deps.ResetRate(ctx, email)
	}

	upgraded := false
	if deps.UpgradeOnLogin && deps.NeedsUpgrade != nil && deps.NeedsUpgrade(p.CredentialHash) {
		upgraded = upgradeCredential(ctx, p.ID, secret, deps)
	}

	deviceID := ""
	if deps.DeviceID != nil {
		deviceID = deps.DeviceID(ctx)
	}

	pair, err := deps.IssuePair(p.ID, p.Role, deviceID)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, PrincipalID: p.ID, Role: p.Role}
	}
	refreshHash, err := deps.HashRefresh(pair.RefreshToken)
	if err != nil {
		return LoginResult{Failure: LoginFailureHash, Err: err, PrincipalID: p.ID, Role: p.Role}
	}
	if err := deps.SessionStore.Record(ctx, deps.Subject(p.ID, deviceID), refreshHash); err != nil {
		return LoginResult{Failure: LoginFailureRecord, Err: err, PrincipalID: p.ID, Role: p.Role}
	}

	return LoginResult{
		Failure:     LoginFailureNone,
		PrincipalID: p.ID,
		Role:        p.Role,
		Upgraded:    upgraded,
		Pair:        pair,
	}
}

// upgradeCredential rehashes with the current parameters. Failures are
// logged and never fail the login.
func upgradeCredential(ctx context.Context, principalID, secret string, deps LoginDeps) bool {
	if deps.HashCredential == nil || deps.UpdateCredentialHash == nil {
		return false
	}
	next, err := deps.HashCredential(secret)
	if err != nil {
		deps.Warn("authcore: credential rehash failed")
		return false
	}
	if err := deps.UpdateCredentialHash(ctx, principalID, next); err != nil {
		deps.Warn("authcore: credential hash update failed")
		return false
	}
	return true
}
