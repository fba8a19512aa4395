package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	argon2Prefix          = "$argon2id$"
)

var (
	// ErrSecretTooShort is returned by Hash when the secret is below Config.MinSecretBytes.
	ErrSecretTooShort = errors.New("secret below minimum length")
	// ErrMalformedHash is returned when a stored hash cannot be parsed.
	ErrMalformedHash = errors.New("malformed secret hash")
)

// Config holds argon2id cost parameters. Memory is in KiB.
type Config struct {
	Memory         uint32
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinSecretBytes int
}

// Argon2 hashes secrets with argon2id and encodes them in PHC format.
//
// Argon2 is immutable after construction and safe for concurrent use.
type Argon2 struct {
	config Config
}

type phcHash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// NewArgon2 validates cfg and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, fmt.Errorf("argon2 memory must be >= %d KiB", minMemoryKB)
	case cfg.Time < minTimeCost:
		return nil, errors.New("argon2 time must be >= 1")
	case cfg.Parallelism < minParallelism:
		return nil, errors.New("argon2 parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return nil, fmt.Errorf("argon2 salt length must be >= %d", minSaltLength)
	case cfg.KeyLength < minKeyLength:
		return nil, fmt.Errorf("argon2 key length must be >= %d", minKeyLength)
	case cfg.MinSecretBytes < 0:
		return nil, errors.New("minimum secret length cannot be negative")
	}
	return &Argon2{config: cfg}, nil
}

// Hash derives a salted argon2id key from secret. The secret bytes are used
// exactly as given; no Unicode normalisation is applied.
func (a *Argon2) Hash(secret string) (string, error) {
	if len(secret) < a.config.MinSecretBytes {
		return "", ErrSecretTooShort
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(secret), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether secret matches encoded. The derived keys are
// compared in constant time. A malformed hash is an error, not a mismatch.
func (a *Argon2) Verify(secret, encoded string) (bool, error) {
	h, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}
	key := argon2.IDKey([]byte(secret), h.salt, h.time, h.memory, h.parallelism, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(key, h.key) == 1, nil
}

// NeedsUpgrade reports whether encoded was produced with weaker parameters
// than the hasher's current configuration.
func (a *Argon2) NeedsUpgrade(encoded string) (bool, error) {
	h, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}
	return h.memory < a.config.Memory ||
		h.time < a.config.Time ||
		h.parallelism < a.config.Parallelism ||
		uint32(len(h.key)) != a.config.KeyLength, nil
}

// IsArgon2 reports whether encoded looks like an argon2id PHC string.
func IsArgon2(encoded string) bool {
	return strings.HasPrefix(encoded, argon2Prefix)
}

// decodePHC parses $argon2id$v=19$m=..,t=..,p=..$salt$key.
func decodePHC(encoded string) (*phcHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrMalformedHash, version)
	}

	h := &phcHash{}
	seen := 0
	for _, kv := range strings.Split(parts[3], ",") {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, ErrMalformedHash
		}
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, ErrMalformedHash
		}
		switch name {
		case "m":
			if uint32(v) < minMemoryKB {
				return nil, ErrMalformedHash
			}
			h.memory = uint32(v)
		case "t":
			if uint32(v) < minTimeCost {
				return nil, ErrMalformedHash
			}
			h.time = uint32(v)
		case "p":
			if v < uint64(minParallelism) || v > 255 {
				return nil, ErrMalformedHash
			}
			h.parallelism = uint8(v)
		default:
			return nil, ErrMalformedHash
		}
		seen++
	}
	if seen != 3 || h.memory == 0 || h.time == 0 || h.parallelism == 0 {
		return nil, ErrMalformedHash
	}

	var err error
	if h.salt, err = decodeB64(parts[4]); err != nil || len(h.salt) < int(minSaltLength) {
		return nil, ErrMalformedHash
	}
	if h.key, err = decodeB64(parts[5]); err != nil || len(h.key) == 0 {
		return nil, ErrMalformedHash
	}
	return h, nil
}

// decodeB64 accepts both padded and unpadded standard base64, since other
// PHC producers disagree on padding.
func decodeB64(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}
