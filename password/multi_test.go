package password

import (
	"errors"
	"testing"
)

func TestMultiVerifiesBcryptAndFlagsUpgrade(t *testing.T) {
	m := NewMulti(newTestArgon2(t))

	legacy, err := NewBcrypt(4)
	if err != nil {
		t.Fatalf("NewBcrypt: %v", err)
	}
	hash, err := legacy.Hash("legacy-secret")
	if err != nil {
		t.Fatalf("bcrypt Hash: %v", err)
	}

	ok, err := m.Verify("legacy-secret", hash)
	if err != nil || !ok {
		t.Fatalf("expected bcrypt hash to verify, ok=%v err=%v", ok, err)
	}
	ok, err = m.Verify("other-secret", hash)
	if err != nil || ok {
		t.Fatalf("expected bcrypt mismatch, ok=%v err=%v", ok, err)
	}

	up, err := m.NeedsUpgrade(hash)
	if err != nil || !up {
		t.Fatalf("expected bcrypt hash to need upgrade, up=%v err=%v", up, err)
	}
}

func TestMultiHashesWithArgon2(t *testing.T) {
	m := NewMulti(newTestArgon2(t))

	hash, err := m.Hash("primary-secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !IsArgon2(hash) {
		t.Fatalf("expected argon2id hash, got %q", hash)
	}
	up, err := m.NeedsUpgrade(hash)
	if err != nil || up {
		t.Fatalf("expected fresh hash to be current, up=%v err=%v", up, err)
	}
}

func TestMultiRejectsUnknownFormat(t *testing.T) {
	m := NewMulti(newTestArgon2(t))
	if _, err := m.Verify("x", "plaintext"); !errors.Is(err, ErrMalformedHash) {
		t.Fatalf("expected ErrMalformedHash, got %v", err)
	}
}
