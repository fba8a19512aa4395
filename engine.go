package authcore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MrEthical07/authcore/internal"
	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/internal/limiter"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/permission"
	"github.com/MrEthical07/authcore/session"
)

// Engine authenticates principals, rotates refresh tokens and evaluates
// capabilities. Build one with [Builder]; all methods are safe for
// concurrent use.
type Engine struct {
	config       Config
	policy       *permission.Policy
	sessionStore session.Store
	provider     PrincipalProvider
	creator      PrincipalCreator
	roleUpdater  RoleUpdater
	argon        *password.Argon2
	hasher       *password.Multi
	dummyHash    string
	jwtManager   *jwt.Manager
	loginLimiter *limiter.Limiter
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	flows        flows.Service
	now          func() time.Time
}

// Close flushes pending audit events. The session store and provider are
// owned by the caller and are not closed.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped due to a full
// buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine's counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AccessTTL is the configured access-token lifetime, which bounds how long a
// token stays usable after logout.
func (e *Engine) AccessTTL() time.Duration {
	if e == nil || e.jwtManager == nil {
		return 0
	}
	return e.jwtManager.AccessTTL()
}

// RefreshTTL is the configured refresh-token lifetime and the longest a
// session can go without rotating.
func (e *Engine) RefreshTTL() time.Duration {
	if e == nil || e.jwtManager == nil {
		return 0
	}
	return e.jwtManager.RefreshTTL()
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

// Login authenticates email and secret and starts a session, replacing any
// previous session for the principal (or for the device when sessions are
// keyed by device). Unknown email and wrong secret both return
// [ErrAuthentication].
func (e *Engine) Login(ctx context.Context, email, secret string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricLoginLatency, start)

	email = internal.NormalizeEmail(email)
	res := e.flows.Login(ctx, email, secret)

	switch res.Failure {
	case flows.LoginFailureNone:
		e.metricInc(MetricLoginSuccess)
		e.metricInc(MetricSessionCreated)
		if res.Upgraded {
			e.metricInc(MetricCredentialUpgraded)
			e.emitAudit(ctx, AuditCredentialUpgrade, true, res.PrincipalID, nil, nil)
		}
		e.emitAudit(ctx, AuditLoginSuccess, true, res.PrincipalID, nil, nil)
		return tokenPair(res.Pair), nil
	case flows.LoginFailureRateLimited:
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, AuditLoginRateLimited, false, "", ErrLoginRateLimited, func() map[string]string {
			return map[string]string{"email": email}
		})
		return TokenPair{}, ErrLoginRateLimited
	case flows.LoginFailureCredentials:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLoginFailure, false, res.PrincipalID, ErrAuthentication, func() map[string]string {
			return map[string]string{"email": email}
		})
		return TokenPair{}, ErrAuthentication
	case flows.LoginFailureLookup, flows.LoginFailureRecord:
		e.metricInc(MetricLoginFailure)
		e.metricInc(MetricStorageFailure)
		e.emitAudit(ctx, AuditLoginFailure, false, res.PrincipalID, ErrStorageUnavailable, nil)
		return TokenPair{}, storageError(res.Err)
	default:
		e.metricInc(MetricLoginFailure)
		return TokenPair{}, fmt.Errorf("issue session: %w", res.Err)
	}
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// unusable afterwards. Of several concurrent refreshes with the same token
// exactly one succeeds; the rest get [ErrSessionRevoked].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricRefreshLatency, start)

	res := e.flows.Refresh(ctx, refreshToken)
	if res.Failure == flows.RefreshFailureNone {
		e.metricInc(MetricRefreshSuccess)
		e.metricInc(MetricSessionRotated)
		e.emitAudit(withDevice(ctx, res.DeviceID), AuditRefreshSuccess, true, res.PrincipalID, nil, nil)
		return tokenPair(res.Pair), nil
	}

	e.metricInc(MetricRefreshFailure)
	switch {
	case res.Failure == flows.RefreshFailureDecode:
		e.emitAudit(ctx, AuditRefreshFailure, false, "", ErrTokenInvalid, nil)
		return TokenPair{}, ErrTokenInvalid
	case res.Failure.Revoked():
		e.metricInc(MetricRefreshRevoked)
		e.emitAudit(withDevice(ctx, res.DeviceID), AuditRefreshRevoked, false, res.PrincipalID, ErrSessionRevoked, nil)
		return TokenPair{}, ErrSessionRevoked
	case res.Failure.Storage():
		e.metricInc(MetricStorageFailure)
		e.emitAudit(ctx, AuditRefreshFailure, false, res.PrincipalID, ErrStorageUnavailable, nil)
		return TokenPair{}, storageError(res.Err)
	default:
		return TokenPair{}, fmt.Errorf("rotate session: %w", res.Err)
	}
}

// Logout ends the principal's session. With KeyByDevice the device from
// ctx selects which session ends. Logging out without a session succeeds.
//
// Access tokens already issued stay valid until they expire; the exposure
// window is bounded by JWTConfig.AccessTTL.
func (e *Engine) Logout(ctx context.Context, principalID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	deviceID := ""
	if e.config.Session.KeyByDevice {
		deviceID = deviceIDFromContext(ctx)
	}
	if err := e.flows.Logout(ctx, principalID, deviceID); err != nil {
		e.metricInc(MetricStorageFailure)
		return storageError(err)
	}
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, AuditLogout, true, principalID, nil, nil)
	return nil
}

// ValidateAccess verifies an access token's signature, kind and lifetime.
// It does not consult storage.
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (*Claims, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricValidateLatency, start)

	c, err := e.jwtManager.ParseAccess(accessToken)
	if err != nil {
		e.metricInc(MetricAccessRejected)
		return nil, ErrTokenInvalid
	}
	return claimsFrom(c), nil
}

// Authorize reports whether role grants capability. Unknown roles and
// capabilities are denied.
func (e *Engine) Authorize(role, capability string) bool {
	if e == nil {
		return false
	}
	return e.policy.Authorize(role, capability)
}

// Roles lists the roles of the frozen role table in sorted order.
func (e *Engine) Roles() []string {
	if e == nil {
		return nil
	}
	return e.policy.Roles()
}

// Capabilities lists what role is granted. Unknown roles get nil.
func (e *Engine) Capabilities(role string) []string {
	if e == nil {
		return nil
	}
	return e.policy.Capabilities(role)
}

// Ping checks the session store when it implements [session.Pinger]. Stores
// without a health check are assumed reachable.
func (e *Engine) Ping(ctx context.Context) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	pinger, ok := e.sessionStore.(session.Pinger)
	if !ok {
		return nil
	}
	if err := pinger.Ping(ctx); err != nil {
		e.metricInc(MetricStorageFailure)
		return storageError(err)
	}
	return nil
}

// AuthorizeClaims is Authorize applied to the role claim of a validated
// access token.
func (e *Engine) AuthorizeClaims(claims *Claims, capability string) bool {
	if claims == nil {
		return false
	}
	return e.Authorize(claims.Role, capability)
}

// Require validates accessToken and checks capability in one call. It
// returns [ErrTokenInvalid] or [ErrPermissionDenied]; neither says which
// capability was missing.
func (e *Engine) Require(ctx context.Context, accessToken, capability string) (*Claims, error) {
	claims, err := e.ValidateAccess(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if !e.AuthorizeClaims(claims, capability) {
		e.metricInc(MetricPermissionDenied)
		e.emitAudit(withDevice(ctx, claims.DeviceID), AuditPermissionDenied, false, claims.PrincipalID, ErrPermissionDenied, func() map[string]string {
			return map[string]string{"role": claims.Role, "capability": capability}
		})
		return nil, ErrPermissionDenied
	}
	return claims, nil
}

// Register hashes secret and creates a principal through the provider's
// [PrincipalCreator]. An empty role means PermissionConfig.DefaultRole.
func (e *Engine) Register(ctx context.Context, email, secret, role string) (Principal, error) {
	if !e.ready() {
		return Principal{}, ErrEngineNotReady
	}
	if e.creator == nil {
		return Principal{}, ErrNotSupported
	}

	res := e.flows.Register(ctx, internal.NormalizeEmail(email), secret, role)
	if res.Failure == flows.RegisterFailureNone {
		e.metricInc(MetricRegisterSuccess)
		e.emitAudit(ctx, AuditRegister, true, res.Principal.ID, nil, func() map[string]string {
			return map[string]string{"role": res.Principal.Role}
		})
		return principalFrom(res.Principal), nil
	}

	e.metricInc(MetricRegisterFailure)
	switch res.Failure {
	case flows.RegisterFailureInvalid:
		return Principal{}, ErrInvalidRequest
	case flows.RegisterFailureRole:
		return Principal{}, ErrRoleUnknown
	case flows.RegisterFailureExists:
		return Principal{}, ErrPrincipalExists
	case flows.RegisterFailureHash:
		if errors.Is(res.Err, password.ErrSecretTooShort) {
			return Principal{}, fmt.Errorf("%w: %v", ErrInvalidRequest, res.Err)
		}
		return Principal{}, fmt.Errorf("hash credential: %w", res.Err)
	default:
		e.metricInc(MetricStorageFailure)
		return Principal{}, storageError(res.Err)
	}
}

// SetRole changes a principal's role through the provider's [RoleUpdater].
// The next refresh issues tokens carrying the new role; with
// SessionConfig.RevokeOnRoleChange the session is ended instead.
func (e *Engine) SetRole(ctx context.Context, principalID, role string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if e.roleUpdater == nil {
		return ErrNotSupported
	}

	kind, err := e.flows.SetRole(ctx, principalID, role)
	switch kind {
	case flows.RoleFailureNone:
		e.metricInc(MetricRoleChanged)
		e.emitAudit(ctx, AuditRoleChanged, true, principalID, nil, func() map[string]string {
			return map[string]string{"role": role}
		})
		return nil
	case flows.RoleFailureUnknownRole:
		return ErrRoleUnknown
	case flows.RoleFailureNotFound:
		return ErrPrincipalNotFound
	default:
		e.metricInc(MetricStorageFailure)
		return storageError(err)
	}
}

func (e *Engine) subject(principalID, deviceID string) string {
	if !e.config.Session.KeyByDevice {
		return principalID
	}
	return session.Subject(principalID, deviceID)
}

func (e *Engine) warn(format string, args ...any) {
	log.Printf(format, args...)
}

func tokenPair(p flows.TokenPair) TokenPair {
	return TokenPair{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}

func claimsFrom(c *jwt.Claims) *Claims {
	out := &Claims{
		PrincipalID: c.Subject,
		Role:        c.Role,
		DeviceID:    c.DeviceID,
		TokenID:     c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

func principalFrom(p flows.Principal) Principal {
	return Principal{
		ID:             p.ID,
		Email:          p.Email,
		CredentialHash: p.CredentialHash,
		Role:           p.Role,
	}
}

func flowPrincipal(p Principal) flows.Principal {
	return flows.Principal{
		ID:             p.ID,
		Email:          p.Email,
		CredentialHash: p.CredentialHash,
		Role:           p.Role,
	}
}
