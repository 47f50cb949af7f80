package goSession

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/notify"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/revocation"
	"github.com/MrEthical07/goSession/secret"
)

// Builder assembles an [Engine]. A Builder can be used for a single Build.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	accounts   AccountStore
	revocation RevocationStore
	hasher     Hasher
	notifier   Notifier
	auditSink  AuditSink
	logger     *zap.Logger
	now        func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecrets sets the four signing secrets.
func (b *Builder) WithSecrets(s SecretsConfig) *Builder {
	b.config.Secrets = SecretsConfig{
		UserAccess:   cloneBytes(s.UserAccess),
		UserRefresh:  cloneBytes(s.UserRefresh),
		AdminAccess:  cloneBytes(s.AdminAccess),
		AdminRefresh: cloneBytes(s.AdminRefresh),
	}
	return b
}

// WithRedis sets the Redis client used for the default revocation ledger and
// for login and confirm throttling.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRevocationStore overrides the Redis ledger, e.g. with a
// [revocation.PostgresStore].
func (b *Builder) WithRevocationStore(store RevocationStore) *Builder {
	b.revocation = store
	return b
}

// WithAccountStore sets the account store. Required.
func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.accounts = store
	return b
}

// WithHasher overrides the hasher selected by Config.Password.Algorithm.
func (b *Builder) WithHasher(h Hasher) *Builder {
	b.hasher = h
	return b
}

// WithNotifier sets where confirmation codes are delivered. Without one
// codes are only returned to the caller of IssueOTP.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithAuditSink sets the audit sink. Audit must also be enabled in Config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides time.Now for tokens, OTP expiry and the watermark.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the authenticate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. Missing, weak or
// reused secrets and invalid settings fail with [ErrConfiguration].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if b.accounts == nil {
		return nil, fmt.Errorf("%w: account store required", ErrConfiguration)
	}

	// -------- SECRETS + CODEC --------
	registry, err := secret.NewRegistry(secret.Secrets{
		UserAccess:   cfg.Secrets.UserAccess,
		UserRefresh:  cfg.Secrets.UserRefresh,
		AdminAccess:  cfg.Secrets.AdminAccess,
		AdminRefresh: cfg.Secrets.AdminRefresh,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	codec, err := jwt.NewCodec(jwt.Config{
		Registry:     registry,
		Issuer:       cfg.JWT.Issuer,
		Leeway:       cfg.JWT.Leeway,
		MaxFutureIAT: cfg.JWT.MaxFutureIAT,
		Now:          now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	// -------- REVOCATION LEDGER --------
	ledger := b.revocation
	if ledger == nil {
		if b.redis == nil {
			return nil, fmt.Errorf("%w: revocation store or redis client required", ErrConfiguration)
		}
		ledger = revocation.NewRedisStore(b.redis, cfg.Revocation.RedisPrefix, cfg.RevocationRetention()).WithClock(now)
	}

	// -------- HASHER --------
	hasher := b.hasher
	if hasher == nil {
		hasher, err = newHasher(cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config:     cloneConfig(cfg),
		codec:      codec,
		revocation: ledger,
		accounts:   b.accounts,
		hasher:     hasher,
		logger:     logger.Named("gosession"),
		now:        now,
	}

	if b.redis != nil && (cfg.Security.EnableLoginThrottle || cfg.Security.EnableConfirmThrottle) {
		engine.limiter = rate.New(b.redis, rate.Config{
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
			MaxConfirmAttempts:    cfg.OTP.MaxAttempts,
			ConfirmCooldown:       cfg.OTP.Cooldown,
		})
	}

	engine.metrics = NewMetrics(cfg.Metrics)
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	notifier := b.notifier
	if notifier == nil {
		notifier = notify.NoOp{}
	}
	engine.notifications = newNotificationDispatcher(cfg.Notification, notifier, engine.notificationResult)

	b.built = true

	return engine, nil
}

func newHasher(cfg PasswordConfig) (Hasher, error) {
	switch cfg.Algorithm {
	case "bcrypt":
		return password.NewBcrypt(cfg.BcryptCost), nil
	default:
		return password.NewArgon2(password.Config{
			Memory:           cfg.Memory,
			Time:             cfg.Time,
			Parallelism:      cfg.Parallelism,
			SaltLength:       cfg.SaltLength,
			KeyLength:        cfg.KeyLength,
			MaxPasswordBytes: cfg.MaxPasswordBytes,
		})
	}
}
