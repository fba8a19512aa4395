package password

import (
	"errors"
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		Memory:         8 * 1024,
		Time:           1,
		Parallelism:    1,
		SaltLength:     16,
		KeyLength:      32,
		MinSecretBytes: 8,
	}
}

func newTestArgon2(t *testing.T) *Argon2 {
	t.Helper()
	a, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	return a
}

func TestHashAndVerify(t *testing.T) {
	a := newTestArgon2(t)

	hash, err := a.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := a.Verify("P@ssw0rd-Ascii", hash)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("expected verification to succeed")
	}

	ok, err = a.Verify("wrong-password", hash)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("expected wrong secret to fail")
	}
}

func TestHashIsSalted(t *testing.T) {
	a := newTestArgon2(t)

	h1, _ := a.Hash("same-secret-value")
	h2, _ := a.Hash("same-secret-value")
	if h1 == h2 {
		t.Fatal("expected distinct hashes for the same secret")
	}
}

func TestHashRejectsShortSecret(t *testing.T) {
	a := newTestArgon2(t)
	if _, err := a.Hash("short"); !errors.Is(err, ErrSecretTooShort) {
		t.Fatalf("expected ErrSecretTooShort, got %v", err)
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"memory", func(c *Config) { c.Memory = 1024 }},
		{"time", func(c *Config) { c.Time = 0 }},
		{"parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"salt", func(c *Config) { c.SaltLength = 8 }},
		{"key", func(c *Config) { c.KeyLength = 8 }},
		{"min secret", func(c *Config) { c.MinSecretBytes = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := NewArgon2(cfg); err == nil {
				t.Fatal("expected config error")
			}
		})
	}
}

func TestNeedsUpgrade(t *testing.T) {
	old := newTestArgon2(t)
	hash, err := old.Hash("upgrade-me-please")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	stronger := testConfig()
	stronger.Time = 2
	current, err := NewArgon2(stronger)
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}

	up, err := current.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade: %v", err)
	}
	if !up {
		t.Fatal("expected weaker hash to need upgrade")
	}

	up, err = old.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade: %v", err)
	}
	if up {
		t.Fatal("expected same-config hash not to need upgrade")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	a := newTestArgon2(t)

	for _, bad := range []string{
		"not-a-phc-hash",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5",
	} {
		if _, err := a.Verify("secret-secret", bad); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("expected ErrMalformedHash for %q, got %v", bad, err)
		}
	}
}
