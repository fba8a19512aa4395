package authcore

import (
	"errors"
	"time"
)

// Config is the full engine configuration. Start from [DefaultConfig] and
// override what you need; Build validates the result.
type Config struct {
	JWT        JWTConfig
	Session    SessionConfig
	Password   PasswordConfig
	Security   SecurityConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
	Permission PermissionConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds token lifetimes and signing keys. Access and refresh
// tokens are signed with separate keys; Build rejects configurations where
// one key would verify both kinds.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional

	AccessPrivateKey  []byte
	AccessPublicKey   []byte
	AccessKeyID       string
	AccessVerifyKeys  map[string][]byte
	RefreshPrivateKey []byte
	RefreshPublicKey  []byte
	RefreshKeyID      string
	RefreshVerifyKeys map[string][]byte

	Issuer   string
	Audience string
	Leeway   time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls how refresh-token hashes are keyed and stored.
type SessionConfig struct {
	// RedisPrefix namespaces keys when the store is built by WithRedis.
	RedisPrefix string
	// KeyByDevice keys sessions by (principal, device) instead of principal
	// alone. The device comes from WithDeviceID at login and is carried in
	// the refresh token.
	KeyByDevice bool
	// RevokeOnRoleChange clears the principal's session in SetRole. Only
	// available in single-session mode.
	RevokeOnRoleChange bool
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id parameters used for both credentials and
// refresh-token hashes. Memory is in KiB.
type PasswordConfig struct {
	Memory         uint32
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinSecretBytes int
	UpgradeOnLogin bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls login throttling.
type SecurityConfig struct {
	EnableLoginThrottle bool
	EnableIPThrottle    bool
	// LoginRate is the sustained attempts per second per email (and per IP
	// when EnableIPThrottle is set).
	LoginRate  float64
	LoginBurst int
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// PermissionConfig controls role defaults.
type PermissionConfig struct {
	// DefaultRole is assigned by Register when no role is given. Empty means
	// a role must always be given.
	DefaultRole string
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns production-leaning defaults. Signing keys are left
// empty and must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "ed25519",
		},
		Session: SessionConfig{
			RedisPrefix: "rt",
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			MinSecretBytes: 8,
			UpgradeOnLogin: true,
		},
		Security: SecurityConfig{
			EnableLoginThrottle: true,
			EnableIPThrottle:    false,
			LoginRate:           1.0 / 60,
			LoginBurst:          5,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessPrivateKey = cloneBytes(cfg.JWT.AccessPrivateKey)
	out.JWT.AccessPublicKey = cloneBytes(cfg.JWT.AccessPublicKey)
	out.JWT.RefreshPrivateKey = cloneBytes(cfg.JWT.RefreshPrivateKey)
	out.JWT.RefreshPublicKey = cloneBytes(cfg.JWT.RefreshPublicKey)
	out.JWT.AccessVerifyKeys = cloneKeyMap(cfg.JWT.AccessVerifyKeys)
	out.JWT.RefreshVerifyKeys = cloneKeyMap(cfg.JWT.RefreshVerifyKeys)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneKeyMap(m map[string][]byte) map[string][]byte {
	if m == nil {
		return nil
	}
	out := make(map[string][]byte, len(m))
	for k, v := range m {
		out[k] = cloneBytes(v)
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for internal consistency. Key material
// is parsed later by Build.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must exceed AccessTTL")
	}
	if c.JWT.Leeway < 0 {
		return errors.New("JWT Leeway must be >= 0")
	}

	switch c.JWT.SigningMethod {
	case "ed25519":
		if len(c.JWT.AccessPrivateKey) == 0 || len(c.JWT.AccessPublicKey) == 0 {
			return errors.New("ed25519 requires AccessPrivateKey and AccessPublicKey")
		}
		if len(c.JWT.RefreshPrivateKey) == 0 || len(c.JWT.RefreshPublicKey) == 0 {
			return errors.New("ed25519 requires RefreshPrivateKey and RefreshPublicKey")
		}
	case "hs256":
		if len(c.JWT.AccessPrivateKey) == 0 || len(c.JWT.RefreshPrivateKey) == 0 {
			return errors.New("hs256 requires AccessPrivateKey and RefreshPrivateKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}

	// Session
	if c.Session.RevokeOnRoleChange && c.Session.KeyByDevice {
		return errors.New("Session RevokeOnRoleChange requires single-session mode")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinSecretBytes < 0 {
		return errors.New("Password MinSecretBytes must be >= 0")
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.LoginRate <= 0 {
			return errors.New("Security LoginRate must be > 0 when throttling is enabled")
		}
		if c.Security.LoginBurst <= 0 {
			return errors.New("Security LoginBurst must be > 0 when throttling is enabled")
		}
	}
	if c.Security.EnableIPThrottle && !c.Security.EnableLoginThrottle {
		return errors.New("Security EnableIPThrottle requires EnableLoginThrottle")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}
