package goSession

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSession/account"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_750_000_000, 0).UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testSecrets() SecretsConfig {
	return SecretsConfig{
		UserAccess:   []byte("user-access-secret-0123456789abcdef"),
		UserRefresh:  []byte("user-refresh-secret-0123456789abcdef"),
		AdminAccess:  []byte("admin-access-secret-0123456789abcdef"),
		AdminRefresh: []byte("admin-refresh-secret-0123456789abcdef"),
	}
}

// testConfig keeps Argon2 cheap so tests that hash stay fast.
func testConfig() Config {
	cfg := defaultConfig()
	cfg.Secrets = testSecrets()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Security.MaxLoginAttempts = 3
	cfg.Security.LoginCooldownDuration = time.Minute
	cfg.OTP.MaxAttempts = 3
	cfg.OTP.Cooldown = time.Minute
	return cfg
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

type testEnv struct {
	engine   *Engine
	accounts *account.MemoryStore
	clock    *testClock
	redis    *miniredis.Miniredis
	sent     chan OTPNotification
}

type testOption func(*Builder)

func withAudit(sink AuditSink) testOption {
	return func(b *Builder) {
		b.config.Audit.Enabled = true
		b.config.Audit.BufferSize = 64
		b.WithAuditSink(sink)
	}
}

func newTestEnv(t testing.TB, cfg Config, opts ...testOption) *testEnv {
	t.Helper()

	mr, rdb := newTestRedis(t)
	env := &testEnv{
		accounts: account.NewMemoryStore(),
		clock:    newTestClock(),
		redis:    mr,
		sent:     make(chan OTPNotification, 16),
	}

	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAccountStore(env.accounts).
		WithClock(env.clock.Now).
		WithNotifier(NotifierFunc(func(_ context.Context, n OTPNotification) error {
			env.sent <- n
			return nil
		})).
		WithMetricsEnabled(true)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}
	env.engine = engine

	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return env
}

// seedAccount stores a confirmed account with the given password.
func (env *testEnv) seedAccount(t testing.TB, id string, tier Tier, password string) *Account {
	t.Helper()

	hash, err := env.engine.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	acct := &Account{
		ID:           id,
		Email:        id + "@example.com",
		Username:     id,
		Tier:         tier,
		PasswordHash: hash,
		ConfirmedAt:  env.clock.Now(),
		CreatedAt:    env.clock.Now(),
	}
	if err := env.accounts.Create(context.Background(), acct); err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	return acct
}

func (env *testEnv) waitNotification(t *testing.T) OTPNotification {
	t.Helper()

	select {
	case n := <-env.sent:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("expected otp notification")
		return OTPNotification{}
	}
}
