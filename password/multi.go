package password

// Hasher is the secret hashing primitive used for credentials and for
// refresh tokens at rest.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encoded string) (bool, error)
}

// Multi hashes with argon2id and verifies both argon2id and legacy bcrypt
// hashes. Any bcrypt hash, or an argon2id hash with weaker parameters,
// reports NeedsUpgrade.
type Multi struct {
	primary *Argon2
	legacy  *Bcrypt
}

var _ Hasher = (*Multi)(nil)

// NewMulti wraps primary. Legacy bcrypt verification needs no configuration.
func NewMulti(primary *Argon2) *Multi {
	return &Multi{primary: primary, legacy: &Bcrypt{}}
}

// Hash hashes secret with the primary argon2id configuration.
func (m *Multi) Hash(secret string) (string, error) {
	return m.primary.Hash(secret)
}

// Verify dispatches on the hash prefix.
func (m *Multi) Verify(secret, encoded string) (bool, error) {
	switch {
	case IsArgon2(encoded):
		return m.primary.Verify(secret, encoded)
	case IsBcrypt(encoded):
		return m.legacy.Verify(secret, encoded)
	default:
		return false, ErrMalformedHash
	}
}

// NeedsUpgrade reports whether encoded should be replaced by a fresh
// primary hash.
func (m *Multi) NeedsUpgrade(encoded string) (bool, error) {
	if IsBcrypt(encoded) {
		return true, nil
	}
	return m.primary.NeedsUpgrade(encoded)
}
