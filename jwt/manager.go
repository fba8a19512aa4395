package jwt

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// SigningMethod selects the JWS algorithm for a key set.
type SigningMethod string

const (
	// MethodEd25519 signs with an Ed25519 private key (EdDSA).
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with a shared HMAC secret.
	MethodHS256 SigningMethod = "hs256"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrWrongKind is returned when a token of one kind is presented as another.
	ErrWrongKind = errors.New("token kind mismatch")
	// ErrSharedKeys is returned when access and refresh tokens would be
	// verifiable with the same key.
	ErrSharedKeys = errors.New("access and refresh signing keys must differ")
)

// KeyConfig describes how one token kind is signed and verified.
//
// KeyID is written to the kid header of new tokens. VerifyKeys, when set,
// maps kid to verification key and lets previously active keys keep
// verifying during a rotation window.
type KeyConfig struct {
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	KeyID         string
	VerifyKeys    map[string][]byte
}

// Config holds token lifetimes and the two key sets.
type Config struct {
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	Access       KeyConfig
	Refresh      KeyConfig
	Issuer       string
	Audience     string
	Leeway       time.Duration
	MaxFutureIAT time.Duration
}

// Claims is the payload of both token kinds.
type Claims struct {
	Role     string `json:"role"`
	Kind     Kind   `json:"typ"`
	DeviceID string `json:"did,omitempty"`
	jwt.RegisteredClaims
}

// Pair is an access/refresh token pair minted together.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Manager mints and verifies tokens. It is immutable after NewManager and
// safe for concurrent use.
type Manager struct {
	config  Config
	access  *keySet
	refresh *keySet
	now     func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock overrides the wall clock used for iat/exp.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager validates cfg and builds a Manager.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, errors.New("refresh TTL must exceed access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}

	access, err := newKeySet(cfg.Access)
	if err != nil {
		return nil, fmt.Errorf("access keys: %w", err)
	}
	refresh, err := newKeySet(cfg.Refresh)
	if err != nil {
		return nil, fmt.Errorf("refresh keys: %w", err)
	}
	if access.overlaps(refresh) {
		return nil, ErrSharedKeys
	}

	m := &Manager{
		config:  cfg,
		access:  access,
		refresh: refresh,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// AccessTTL returns the configured access-token lifetime. It bounds how long a
// captured access token stays usable after its session is revoked.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

// IssuePair mints an access and a refresh token for subject, both carrying
// role. deviceID may be empty.
func (m *Manager) IssuePair(subject, role, deviceID string) (Pair, error) {
	if subject == "" {
		return Pair{}, errors.New("empty subject")
	}
	now := m.now()

	accessExp := now.Add(m.config.AccessTTL)
	access, err := m.sign(m.access, m.claims(KindAccess, subject, role, deviceID, now, accessExp))
	if err != nil {
		return Pair{}, err
	}

	refreshExp := now.Add(m.config.RefreshTTL)
	refresh, err := m.sign(m.refresh, m.claims(KindRefresh, subject, role, deviceID, now, refreshExp))
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ParseAccess verifies signature, expiry and kind of an access token.
func (m *Manager) ParseAccess(token string) (*Claims, error) {
	return m.parse(token, m.access, KindAccess)
}

// ParseRefresh verifies signature, expiry and kind of a refresh token.
func (m *Manager) ParseRefresh(token string) (*Claims, error) {
	return m.parse(token, m.refresh, KindRefresh)
}

func (m *Manager) claims(kind Kind, subject, role, deviceID string, now, exp time.Time) Claims {
	c := Claims{
		Role:     role,
		Kind:     kind,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        ulid.Make().String(),
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if m.config.Audience != "" {
		c.Audience = jwt.ClaimStrings{m.config.Audience}
	}
	return c
}

func (m *Manager) sign(ks *keySet, claims Claims) (string, error) {
	token := jwt.NewWithClaims(ks.method, claims)
	if ks.keyID != "" {
		token.Header["kid"] = ks.keyID
	}
	return token.SignedString(ks.signKey)
}

func (m *Manager) parse(tokenStr string, ks *keySet, want Kind) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{ks.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &Claims{}, ks.verifyKeyFor)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Kind != want {
		return nil, ErrWrongKind
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidSubject
	}
	if claims.IssuedAt == nil {
		return nil, jwt.ErrTokenRequiredClaimMissing
	}
	if claims.IssuedAt.Time.After(m.now().Add(m.config.MaxFutureIAT)) {
		return nil, errors.New("token iat too far in the future")
	}
	return claims, nil
}

// keySet is the resolved signing material for one token kind.
type keySet struct {
	method     jwt.SigningMethod
	signKey    any
	verifyKey  any
	keyID      string
	verifyKeys map[string]any
	raw        [][]byte
}

func newKeySet(cfg KeyConfig) (*keySet, error) {
	ks := &keySet{keyID: strings.TrimSpace(cfg.KeyID)}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < 32 {
			return nil, errors.New("hs256 secret must be at least 32 bytes")
		}
		ks.method = jwt.SigningMethodHS256
		ks.signKey = cfg.PrivateKey
		ks.verifyKey = cfg.PrivateKey
		ks.raw = append(ks.raw, cfg.PrivateKey)
	case MethodEd25519:
		ks.method = jwt.SigningMethodEdDSA
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		ks.signKey = priv
		pub := priv.Public().(ed25519.PublicKey)
		if len(cfg.PublicKey) > 0 {
			if pub, err = parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
		ks.verifyKey = pub
		ks.raw = append(ks.raw, []byte(pub))
	default:
		return nil, errors.New("unsupported signing method")
	}

	if len(cfg.VerifyKeys) > 0 {
		ks.verifyKeys = make(map[string]any, len(cfg.VerifyKeys))
		for kid, raw := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, errors.New("verify key map contains empty kid")
			}
			key, err := ks.decodeVerifyKey(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid verify key for kid %q: %w", kid, err)
			}
			ks.verifyKeys[kid] = key
			ks.raw = append(ks.raw, raw)
		}
		if ks.keyID == "" {
			return nil, errors.New("KeyID is required when VerifyKeys is set")
		}
		if _, ok := ks.verifyKeys[ks.keyID]; !ok {
			return nil, errors.New("KeyID is not present in VerifyKeys")
		}
	}
	return ks, nil
}

func (ks *keySet) decodeVerifyKey(raw []byte) (any, error) {
	if ks.method == jwt.SigningMethodHS256 {
		if len(raw) < 32 {
			return nil, errors.New("hs256 secret must be at least 32 bytes")
		}
		return raw, nil
	}
	return parseEdPublicKey(raw)
}

func (ks *keySet) verifyKeyFor(t *jwt.Token) (any, error) {
	if t.Method.Alg() != ks.method.Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}
	kid, _ := t.Header["kid"].(string)
	if len(ks.verifyKeys) > 0 {
		key, ok := ks.verifyKeys[kid]
		if !ok {
			return nil, errors.New("unknown kid")
		}
		return key, nil
	}
	if ks.keyID != "" && kid != ks.keyID {
		return nil, errors.New("unknown kid")
	}
	return ks.verifyKey, nil
}

func (ks *keySet) overlaps(other *keySet) bool {
	for _, a := range ks.raw {
		for _, b := range other.raw {
			if bytes.Equal(a, b) {
				return true
			}
		}
	}
	return false
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
