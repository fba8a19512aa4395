//go:build integration
// +build integration

package test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newIntegrationStore(t *testing.T) (*session.RedisStore, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewRedisStore(rdb, "it", time.Hour)
	return store, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

// hashFor returns a stable stand-in for a stored refresh hash. The store
// treats hashes as opaque strings, so any distinct value works.
func hashFor(label string) string {
	sum := sha256.Sum256([]byte(label))
	return hex.EncodeToString(sum[:])
}
