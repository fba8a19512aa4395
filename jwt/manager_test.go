package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func hsConfig() Config {
	return Config{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Access: KeyConfig{
			SigningMethod: MethodHS256,
			PrivateKey:    []byte(strings.Repeat("a", 32)),
		},
		Refresh: KeyConfig{
			SigningMethod: MethodHS256,
			PrivateKey:    []byte(strings.Repeat("r", 32)),
		},
		Issuer: "authcore-test",
	}
}

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func TestIssuePairCarriesSubjectAndRole(t *testing.T) {
	m, err := NewManager(hsConfig())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	pair, err := m.IssuePair("p-1", "advisor", "")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if !pair.RefreshExpiresAt.After(pair.AccessExpiresAt) {
		t.Fatal("expected refresh to outlive access")
	}

	access, err := m.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if access.Subject != "p-1" || access.Role != "advisor" || access.Kind != KindAccess {
		t.Fatalf("unexpected access claims: %+v", access)
	}

	refresh, err := m.ParseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ParseRefresh: %v", err)
	}
	if refresh.Subject != "p-1" || refresh.Role != "advisor" || refresh.Kind != KindRefresh {
		t.Fatalf("unexpected refresh claims: %+v", refresh)
	}
	if refresh.ID == access.ID {
		t.Fatal("expected distinct jti per token")
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	m, err := NewManager(hsConfig())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	pair, err := m.IssuePair("p-1", "mentor", "")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	if _, err := m.ParseAccess(pair.RefreshToken); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
	if _, err := m.ParseRefresh(pair.AccessToken); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
}

func TestWrongKindWithSameKeyIsRejected(t *testing.T) {
	cfg := hsConfig()
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	claims := Claims{
		Role: "dean",
		Kind: KindRefresh,
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "p-1",
			Issuer:    cfg.Issuer,
			IssuedAt:  gjwt.NewNumericDate(time.Now()),
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	forged, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(cfg.Access.PrivateKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.ParseAccess(forged); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("expected ErrWrongKind, got %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	issuedAt := time.Now().Add(-time.Hour)
	issuer, err := NewManager(hsConfig(), WithClock(func() time.Time { return issuedAt }))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	pair, err := issuer.IssuePair("p-1", "mentor", "")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	verifier, err := NewManager(hsConfig())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := verifier.ParseAccess(pair.AccessToken); !errors.Is(err, gjwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if _, err := verifier.ParseRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("refresh token should still be valid: %v", err)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	m, err := NewManager(hsConfig())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	pair, err := m.IssuePair("p-1", "mentor", "")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	parts := strings.Split(pair.AccessToken, ".")
	forged, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, Claims{
		Role: "dean",
		Kind: KindAccess,
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "p-1",
			IssuedAt:  gjwt.NewNumericDate(time.Now()),
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte(strings.Repeat("x", 32)))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	spliced := strings.Split(forged, ".")[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]
	if _, err := m.ParseAccess(spliced); err == nil {
		t.Fatal("expected tampered payload to be rejected")
	}
}

func TestNewManagerRejectsSharedKeys(t *testing.T) {
	cfg := hsConfig()
	cfg.Refresh.PrivateKey = cfg.Access.PrivateKey
	if _, err := NewManager(cfg); !errors.Is(err, ErrSharedKeys) {
		t.Fatalf("expected ErrSharedKeys, got %v", err)
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero access ttl", func(c *Config) { c.AccessTTL = 0 }},
		{"refresh shorter than access", func(c *Config) { c.RefreshTTL = time.Minute }},
		{"short hs secret", func(c *Config) { c.Access.PrivateKey = []byte("short") }},
		{"unknown method", func(c *Config) { c.Refresh.SigningMethod = "rs512" }},
		{"leeway too large", func(c *Config) { c.Leeway = time.Hour }},
		{"kid missing from verify keys", func(c *Config) {
			c.Access.KeyID = "k2"
			c.Access.VerifyKeys = map[string][]byte{"k1": []byte(strings.Repeat("b", 32))}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := hsConfig()
			tc.mutate(&cfg)
			if _, err := NewManager(cfg); err == nil {
				t.Fatal("expected config error")
			}
		})
	}
}

func TestEd25519KeyRotation(t *testing.T) {
	oldPub, oldPriv := newEdKeys(t)
	newPub, newPriv := newEdKeys(t)
	_, refreshPriv := newEdKeys(t)

	base := Config{
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Refresh:    KeyConfig{SigningMethod: MethodEd25519, PrivateKey: refreshPriv},
	}

	oldCfg := base
	oldCfg.Access = KeyConfig{SigningMethod: MethodEd25519, PrivateKey: oldPriv, KeyID: "k1"}
	oldMgr, err := NewManager(oldCfg)
	if err != nil {
		t.Fatalf("NewManager(old): %v", err)
	}
	oldPair, err := oldMgr.IssuePair("p-1", "mentor", "")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	rotated := base
	rotated.Access = KeyConfig{
		SigningMethod: MethodEd25519,
		PrivateKey:    newPriv,
		KeyID:         "k2",
		VerifyKeys: map[string][]byte{
			"k1": oldPub,
			"k2": newPub,
		},
	}
	newMgr, err := NewManager(rotated)
	if err != nil {
		t.Fatalf("NewManager(rotated): %v", err)
	}

	if _, err := newMgr.ParseAccess(oldPair.AccessToken); err != nil {
		t.Fatalf("old kid should verify during rotation: %v", err)
	}
	newPair, err := newMgr.IssuePair("p-1", "mentor", "")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if _, err := oldMgr.ParseAccess(newPair.AccessToken); err == nil {
		t.Fatal("old manager must not accept a token signed with the new key")
	}
}

func TestDeviceIDRoundTrip(t *testing.T) {
	m, err := NewManager(hsConfig())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	pair, err := m.IssuePair("p-1", "mentor", "laptop")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	c, err := m.ParseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ParseRefresh: %v", err)
	}
	if c.DeviceID != "laptop" {
		t.Fatalf("expected device id, got %q", c.DeviceID)
	}
}
