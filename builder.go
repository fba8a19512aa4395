package authcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/internal"
	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/limiter"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/permission"
	"github.com/MrEthical07/authcore/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  session.Store

	roles map[string][]string

	provider  PrincipalProvider
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis stores refresh-token hashes in Redis under
// SessionConfig.RedisPrefix. Ignored when WithSessionStore is also used.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore sets a custom refresh-hash store, e.g. store/pgstore.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithRoles sets the role to capability table. The table is copied into an
// immutable policy at Build.
func (b *Builder) WithRoles(r map[string][]string) *Builder {
	b.roles = r
	return b
}

// WithPolicyFile takes roles, lifetimes and the default role from a loaded
// policy file. Call it after WithConfig.
func (b *Builder) WithPolicyFile(pf *PolicyFile) *Builder {
	if pf == nil {
		return b
	}
	pf.Apply(&b.config)
	b.roles = pf.Roles
	return b
}

// WithPrincipalProvider sets the principal lookup. If it also implements
// [PrincipalCreator] or [RoleUpdater], Register and SetRole become available.
func (b *Builder) WithPrincipalProvider(p PrincipalProvider) *Builder {
	b.provider = p
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides the wall clock used for token timestamps and audit
// events.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and returns a ready [Engine].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.provider == nil {
		return nil, errors.New("principal provider required")
	}
	if len(b.roles) == 0 {
		return nil, errors.New("roles must be provided")
	}

	// -------- SESSION STORE --------
	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("session store or redis client required")
		}
		store = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix, cfg.JWT.RefreshTTL)
	}
	if cfg.Session.KeyByDevice {
		ds, ok := store.(session.DeviceScoped)
		if !ok || !ds.DeviceScoped() {
			return nil, errors.New("Session KeyByDevice requires a device-scoped session store")
		}
	}

	// -------- PERMISSION POLICY --------
	policy, err := permission.NewPolicy(permission.NewRegistry(), b.roles)
	if err != nil {
		return nil, err
	}
	if cfg.Permission.DefaultRole != "" && !policy.HasRole(cfg.Permission.DefaultRole) {
		return nil, errors.New("Permission DefaultRole does not exist in role table")
	}

	// -------- HASHING --------
	argon, err := password.NewArgon2(password.Config{
		Memory:         cfg.Password.Memory,
		Time:           cfg.Password.Time,
		Parallelism:    cfg.Password.Parallelism,
		SaltLength:     cfg.Password.SaltLength,
		KeyLength:      cfg.Password.KeyLength,
		MinSecretBytes: cfg.Password.MinSecretBytes,
	})
	if err != nil {
		return nil, err
	}
	dummySecret, err := internal.RandomSecret(32)
	if err != nil {
		return nil, err
	}
	dummyHash, err := argon.Hash(dummySecret)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	// -------- TOKENS --------
	var jwtOpts []jwt.Option
	if b.now != nil {
		jwtOpts = append(jwtOpts, jwt.WithClock(b.now))
	}
	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Access: jwt.KeyConfig{
			SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
			PrivateKey:    cloneBytes(cfg.JWT.AccessPrivateKey),
			PublicKey:     cloneBytes(cfg.JWT.AccessPublicKey),
			KeyID:         cfg.JWT.AccessKeyID,
			VerifyKeys:    cloneKeyMap(cfg.JWT.AccessVerifyKeys),
		},
		Refresh: jwt.KeyConfig{
			SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
			PrivateKey:    cloneBytes(cfg.JWT.RefreshPrivateKey),
			PublicKey:     cloneBytes(cfg.JWT.RefreshPublicKey),
			KeyID:         cfg.JWT.RefreshKeyID,
			VerifyKeys:    cloneKeyMap(cfg.JWT.RefreshVerifyKeys),
		},
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		Leeway:   cfg.JWT.Leeway,
	}, jwtOpts...)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		policy:       policy,
		sessionStore: store,
		provider:     b.provider,
		argon:        argon,
		hasher:       password.NewMulti(argon),
		dummyHash:    dummyHash,
		jwtManager:   jm,
		metrics:      NewMetrics(cfg.Metrics),
		now:          time.Now,
	}
	if b.now != nil {
		engine.now = b.now
	}
	if creator, ok := b.provider.(PrincipalCreator); ok {
		engine.creator = creator
	}
	if updater, ok := b.provider.(RoleUpdater); ok {
		engine.roleUpdater = updater
	}
	if cfg.Security.EnableLoginThrottle {
		engine.loginLimiter = limiter.New(limiter.Config{
			Rate:  cfg.Security.LoginRate,
			Burst: cfg.Security.LoginBurst,
		})
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	engine.flows = engine.buildFlows()

	b.built = true

	return engine, nil
}
