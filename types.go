package authcore

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
)

// Principal is an authenticatable identity. The engine reads CredentialHash
// and Role; it never writes the credential except through
// PrincipalProvider.UpdateCredentialHash after a hash upgrade.
type Principal struct {
	ID             string
	Email          string
	CredentialHash string
	Role           string
}

// PrincipalProvider is the interface callers implement to connect the
// engine to their principal storage. Lookups of unknown principals must
// return [ErrPrincipalNotFound]; any other error is treated as a storage
// failure.
type PrincipalProvider interface {
	FindByEmail(ctx context.Context, email string) (Principal, error)
	FindByID(ctx context.Context, id string) (Principal, error)
	UpdateCredentialHash(ctx context.Context, id, hash string) error
}

// PrincipalCreator is an optional provider extension used by
// [Engine.Register]. A duplicate email must return [ErrPrincipalExists].
type PrincipalCreator interface {
	CreatePrincipal(ctx context.Context, email, credentialHash, role string) (Principal, error)
}

// RoleUpdater is an optional provider extension used by [Engine.SetRole].
type RoleUpdater interface {
	UpdateRole(ctx context.Context, id, role string) error
}

// TokenPair is an access and refresh token issued together.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Claims is the verified content of an access token.
type Claims struct {
	PrincipalID string
	Role        string
	DeviceID    string
	TokenID     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Audit event types.
const (
	AuditLoginSuccess      = internalaudit.EventLoginSuccess
	AuditLoginFailure      = internalaudit.EventLoginFailure
	AuditLoginRateLimited  = internalaudit.EventLoginRateLimited
	AuditCredentialUpgrade = internalaudit.EventCredentialUpgrade
	AuditRefreshSuccess    = internalaudit.EventRefreshSuccess
	AuditRefreshFailure    = internalaudit.EventRefreshFailure
	AuditRefreshRevoked    = internalaudit.EventRefreshRevoked
	AuditLogout            = internalaudit.EventLogout
	AuditRegister          = internalaudit.EventRegister
	AuditRoleChanged       = internalaudit.EventRoleChanged
	AuditPermissionDenied  = internalaudit.EventPermissionDenied
)
