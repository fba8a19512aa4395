package authcore

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/jwt"
)

// buildFlows wires the engine's collaborators into the flow layer. It runs
// once at Build; the result is immutable.
func (e *Engine) buildFlows() flows.Service {
	issuePair := func(principalID, role, deviceID string) (flows.TokenPair, error) {
		p, err := e.jwtManager.IssuePair(principalID, role, deviceID)
		if err != nil {
			return flows.TokenPair{}, err
		}
		return flows.TokenPair{
			AccessToken:      p.AccessToken,
			RefreshToken:     p.RefreshToken,
			AccessExpiresAt:  p.AccessExpiresAt,
			RefreshExpiresAt: p.RefreshExpiresAt,
		}, nil
	}
	findByEmail := func(ctx context.Context, email string) (flows.Principal, bool, error) {
		p, err := e.provider.FindByEmail(ctx, email)
		if errors.Is(err, ErrPrincipalNotFound) {
			return flows.Principal{}, false, nil
		}
		if err != nil {
			return flows.Principal{}, false, err
		}
		return flowPrincipal(p), true, nil
	}
	findByID := func(ctx context.Context, id string) (flows.Principal, bool, error) {
		p, err := e.provider.FindByID(ctx, id)
		if errors.Is(err, ErrPrincipalNotFound) {
			return flows.Principal{}, false, nil
		}
		if err != nil {
			return flows.Principal{}, false, err
		}
		return flowPrincipal(p), true, nil
	}
	deviceID := func(ctx context.Context) string {
		if !e.config.Session.KeyByDevice {
			return ""
		}
		return deviceIDFromContext(ctx)
	}
	needsUpgrade := func(hash string) bool {
		up, err := e.hasher.NeedsUpgrade(hash)
		return err == nil && up
	}
	validRole := func(role string) bool {
		return e.policy.HasRole(role)
	}

	deps := flows.Deps{
		Login: flows.LoginDeps{
			CheckRate:            e.checkLoginRate,
			ResetRate:            e.resetLoginRate,
			FindByEmail:          findByEmail,
			VerifyCredential:     e.hasher.Verify,
			DummyHash:            e.dummyHash,
			UpgradeOnLogin:       e.config.Password.UpgradeOnLogin,
			NeedsUpgrade:         needsUpgrade,
			HashCredential:       e.hasher.Hash,
			UpdateCredentialHash: e.provider.UpdateCredentialHash,
			DeviceID:             deviceID,
			Subject:              e.subject,
			IssuePair:            issuePair,
			HashRefresh:          e.argon.Hash,
			SessionStore:         e.sessionStore,
			Warn:                 e.warn,
		},
		Refresh: flows.RefreshDeps{
			ParseRefresh: func(token string) (flows.RefreshClaims, error) {
				c, err := e.jwtManager.ParseRefresh(token)
				if err != nil {
					return flows.RefreshClaims{}, err
				}
				return refreshClaims(c, e.config.Session.KeyByDevice), nil
			},
			FindByID:      findByID,
			Subject:       e.subject,
			VerifyRefresh: e.argon.Verify,
			HashRefresh:   e.argon.Hash,
			IssuePair:     issuePair,
			SessionStore:  e.sessionStore,
			Warn:          e.warn,
		},
		Logout: flows.LogoutDeps{
			Subject:      e.subject,
			SessionStore: e.sessionStore,
		},
		Register: flows.RegisterDeps{
			DefaultRole:    e.config.Permission.DefaultRole,
			ValidRole:      validRole,
			HashCredential: e.hasher.Hash,
			Exists:         ErrPrincipalExists,
		},
		Role: flows.RoleDeps{
			ValidRole: validRole,
			NotFound:  ErrPrincipalNotFound,
		},
	}

	if e.creator != nil {
		deps.Register.CreatePrincipal = func(ctx context.Context, email, hash, role string) (flows.Principal, error) {
			p, err := e.creator.CreatePrincipal(ctx, email, hash, role)
			if err != nil {
				return flows.Principal{}, err
			}
			return flowPrincipal(p), nil
		}
	}
	if e.roleUpdater != nil {
		deps.Role.UpdateRole = e.roleUpdater.UpdateRole
	}
	if e.config.Session.RevokeOnRoleChange {
		deps.Role.RevokeSession = func(ctx context.Context, principalID string) error {
			return e.sessionStore.Invalidate(ctx, principalID)
		}
	}

	return flows.New(deps)
}

// checkLoginRate applies the per-email bucket and, with EnableIPThrottle,
// the per-IP bucket. Both are consumed before the principal lookup.
func (e *Engine) checkLoginRate(ctx context.Context, email string) error {
	if e.loginLimiter == nil {
		return nil
	}
	keys := []string{"email:" + email}
	if e.config.Security.EnableIPThrottle {
		if ip := clientIPFromContext(ctx); ip != "" {
			keys = append(keys, "ip:"+ip)
		}
	}
	return e.loginLimiter.Allow(keys...)
}

func (e *Engine) resetLoginRate(_ context.Context, email string) {
	if e.loginLimiter == nil {
		return
	}
	e.loginLimiter.Reset("email:" + email)
}

func refreshClaims(c *jwt.Claims, keyByDevice bool) flows.RefreshClaims {
	rc := flows.RefreshClaims{PrincipalID: c.Subject}
	if keyByDevice {
		rc.DeviceID = c.DeviceID
	}
	return rc
}
