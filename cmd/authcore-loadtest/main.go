package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const secret = "loadtest-secret-value"

// memProvider is a map-backed principal provider for the load test.
type memProvider struct {
	mu      sync.RWMutex
	byID    map[string]authcore.Principal
	byEmail map[string]string
}

func (m *memProvider) FindByEmail(_ context.Context, email string) (authcore.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return authcore.Principal{}, authcore.ErrPrincipalNotFound
	}
	return m.byID[id], nil
}

func (m *memProvider) FindByID(_ context.Context, id string) (authcore.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byID[id]
	if !ok {
		return authcore.Principal{}, authcore.ErrPrincipalNotFound
	}
	return p, nil
}

func (m *memProvider) UpdateCredentialHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return authcore.ErrPrincipalNotFound
	}
	p.CredentialHash = hash
	m.byID[id] = p
	return nil
}

func (m *memProvider) CreatePrincipal(_ context.Context, email, hash, role string) (authcore.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return authcore.Principal{}, authcore.ErrPrincipalExists
	}
	p := authcore.Principal{ID: uuid.NewString(), Email: email, CredentialHash: hash, Role: role}
	m.byID[p.ID] = p
	m.byEmail[email] = p.ID
	return p, nil
}

type principalState struct {
	id   string
	pair authcore.TokenPair
}

func main() {
	var (
		principals  = flag.Int("principals", 200, "number of principals to register and log in")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "access validations to run")
		racers      = flag.Int("racers", 8, "concurrent refreshes per refresh token")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "rt-load", "refresh hash key prefix")
	)
	flag.Parse()

	if *principals <= 0 || *concurrency <= 0 || *ops <= 0 || *racers <= 0 {
		fmt.Fprintln(os.Stderr, "principals, concurrency, ops and racers must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	engine, err := buildEngine(client, *prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states := make([]principalState, *principals)
	fmt.Printf("registering and logging in %d principals...\n", *principals)
	startSeed := time.Now()
	for i := range states {
		email := fmt.Sprintf("load-%d@example.edu", i)
		p, err := engine.Register(ctx, email, secret, authcore.RoleAdvisor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "register failed: %v\n", err)
			os.Exit(1)
		}
		pair, err := engine.Login(ctx, email, secret)
		if err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = principalState{id: p.ID, pair: pair}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	validateStats := runValidatePhase(ctx, engine, states, *ops, *concurrency)
	refreshStats, anomalies := runRacePhase(ctx, engine, states, *racers)

	fmt.Println("---- results ----")
	printStats("validate", validateStats)
	printStats("refresh", refreshStats)
	if anomalies > 0 {
		fmt.Printf("FAIL: %d refresh tokens did not have exactly one winner\n", anomalies)
		os.Exit(1)
	}
	fmt.Println("every raced refresh token had exactly one winner")
}

func buildEngine(client redis.UniversalClient, prefix string) (*authcore.Engine, error) {
	cfg := authcore.DefaultConfig()
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.AccessPrivateKey = randomKey()
	cfg.JWT.RefreshPrivateKey = randomKey()
	cfg.Session.RedisPrefix = prefix
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Security.EnableLoginThrottle = false
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	return authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithRoles(authcore.DefaultRoleTable()).
		WithPrincipalProvider(&memProvider{
			byID:    make(map[string]authcore.Principal),
			byEmail: make(map[string]string),
		}).
		Build()
}

func randomKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	return key
}

func runValidatePhase(ctx context.Context, engine *authcore.Engine, states []principalState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := mrand.New(mrand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				t0 := time.Now()
				_, err := engine.Require(ctx, states[idx].pair.AccessToken, authcore.CapApproveReport)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runRacePhase presents each principal's refresh token from racers
// goroutines at once and counts tokens that did not end with one winner.
func runRacePhase(ctx context.Context, engine *authcore.Engine, states []principalState, racers int) (phaseStats, int) {
	var (
		latencies = make([]time.Duration, 0, len(states)*racers)
		mu        sync.Mutex
		failures  int64
		anomalies int
	)

	start := time.Now()
	for i := range states {
		token := states[i].pair.RefreshToken
		gate := make(chan struct{})
		var wins int64
		var wg sync.WaitGroup
		for r := 0; r < racers; r++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-gate
				t0 := time.Now()
				_, err := engine.Refresh(ctx, token)
				d := time.Since(t0)
				switch {
				case err == nil:
					atomic.AddInt64(&wins, 1)
				case errors.Is(err, authcore.ErrSessionRevoked):
				default:
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}()
		}
		close(gate)
		wg.Wait()
		if wins != 1 {
			anomalies++
		}
	}
	total := time.Since(start)
	return computeStats(total, latencies, failures), anomalies
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
