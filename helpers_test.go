package authcore

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testSecret = "correct horse battery staple"

type memProvider struct {
	mu      sync.Mutex
	byID    map[string]Principal
	byEmail map[string]string
	seq     int
	updates int
}

func newMemProvider() *memProvider {
	return &memProvider{
		byID:    make(map[string]Principal),
		byEmail: make(map[string]string),
	}
}

func (m *memProvider) FindByEmail(_ context.Context, email string) (Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	return m.byID[id], nil
}

func (m *memProvider) FindByID(_ context.Context, id string) (Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	return p, nil
}

func (m *memProvider) UpdateCredentialHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return ErrPrincipalNotFound
	}
	p.CredentialHash = hash
	m.byID[id] = p
	m.updates++
	return nil
}

func (m *memProvider) CreatePrincipal(_ context.Context, email, hash, role string) (Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return Principal{}, ErrPrincipalExists
	}
	m.seq++
	p := Principal{ID: "p" + strconv.Itoa(m.seq), Email: email, CredentialHash: hash, Role: role}
	m.byID[p.ID] = p
	m.byEmail[email] = p.ID
	return p, nil
}

func (m *memProvider) UpdateRole(_ context.Context, id, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return ErrPrincipalNotFound
	}
	p.Role = role
	m.byID[id] = p
	return nil
}

func (m *memProvider) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byID[id]
	delete(m.byEmail, p.Email)
	delete(m.byID, id)
}

// rekey moves a principal to a caller-chosen ID.
func (m *memProvider) rekey(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byID[from]
	delete(m.byID, from)
	p.ID = to
	m.byID[to] = p
	m.byEmail[p.Email] = to
}

func (m *memProvider) get(id string) Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

// lookupOnlyProvider hides the optional creator and updater interfaces.
type lookupOnlyProvider struct {
	inner *memProvider
}

func (l lookupOnlyProvider) FindByEmail(ctx context.Context, email string) (Principal, error) {
	return l.inner.FindByEmail(ctx, email)
}

func (l lookupOnlyProvider) FindByID(ctx context.Context, id string) (Principal, error) {
	return l.inner.FindByID(ctx, id)
}

func (l lookupOnlyProvider) UpdateCredentialHash(ctx context.Context, id, hash string) error {
	return l.inner.UpdateCredentialHash(ctx, id, hash)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.AccessPrivateKey = []byte("access-signing-secret-for-tests-0001")
	cfg.JWT.RefreshPrivateKey = []byte("refresh-signing-secret-for-tests-002")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Security.EnableLoginThrottle = false
	return cfg
}

type testEnv struct {
	engine   *Engine
	provider *memProvider
	mr       *miniredis.Miniredis
	rdb      *redis.Client
}

func newTestEnv(t testing.TB, mutate func(*Config), opts ...func(*Builder)) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	provider := newMemProvider()

	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithRoles(DefaultRoleTable()).
		WithPrincipalProvider(provider)
	for _, opt := range opts {
		opt(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return &testEnv{engine: engine, provider: provider, mr: mr, rdb: rdb}
}

func (env *testEnv) register(t testing.TB, email, role string) Principal {
	t.Helper()
	p, err := env.engine.Register(context.Background(), email, testSecret, role)
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return p
}

func (env *testEnv) login(t testing.TB, email string) TokenPair {
	t.Helper()
	pair, err := env.engine.Login(context.Background(), email, testSecret)
	if err != nil {
		t.Fatalf("Login(%s) failed: %v", email, err)
	}
	return pair
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
