package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/account"
	"github.com/MrEthical07/goSession/internal/config"
	"github.com/MrEthical07/goSession/notify"
	"github.com/MrEthical07/goSession/revocation"
)

type pinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

type dependencies struct {
	engine    *goSession.Engine
	purger    purger
	retention time.Duration
	pingers   []pinger
	closers   []func()
}

func (d *dependencies) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func (d *dependencies) health(ctx context.Context) error {
	for _, p := range d.pingers {
		if _, err := p.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := p.rdb.Ping(ctx).Err(); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

type mongoPinger struct{ client *mongo.Client }

func (p mongoPinger) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := p.client.Ping(ctx, nil); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// wire builds the stores, notifier and engine selected by cfg. On error every
// resource opened so far is released.
func wire(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *dependencies, err error) {
	deps := &dependencies{}
	defer func() {
		if err != nil {
			deps.close()
		}
	}()

	engineCfg := cfg.Engine()
	deps.retention = engineCfg.RevocationRetention()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	deps.closers = append(deps.closers, func() { _ = rdb.Close() })
	deps.pingers = append(deps.pingers, redisPinger{rdb: rdb})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	b := goSession.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithLogger(logger)

	switch cfg.RevocationBackend {
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		deps.closers = append(deps.closers, pool.Close)
		store := revocation.NewPostgresStore(pool)
		if _, err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		deps.purger = store
		deps.pingers = append(deps.pingers, store)
		b.WithRevocationStore(store)
	case config.BackendRedis:
	default:
		return nil, fmt.Errorf("unknown revocation backend %q", cfg.RevocationBackend)
	}

	switch cfg.AccountBackend {
	case config.BackendMongo:
		client, err := account.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		deps.closers = append(deps.closers, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		})
		store := account.NewMongoStore(client, cfg.MongoDatabase, "")
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		deps.pingers = append(deps.pingers, mongoPinger{client: client})
		b.WithAccountStore(store)
	case config.BackendMemory:
		logger.Warn("accounts are kept in memory and lost on restart")
		b.WithAccountStore(account.NewMemoryStore())
	default:
		return nil, fmt.Errorf("unknown account backend %q", cfg.AccountBackend)
	}

	notifier, closeNotifier, err := newNotifier(cfg, logger)
	if err != nil {
		return nil, err
	}
	if closeNotifier != nil {
		deps.closers = append(deps.closers, closeNotifier)
	}
	b.WithNotifier(notifier)

	if cfg.AuditEnabled {
		b.WithAuditSink(goSession.NewZapSink(logger.Named("audit")))
	}
	b.WithMetricsEnabled(cfg.MetricsEnabled)

	engine, err := b.Build()
	if err != nil {
		return nil, err
	}
	deps.engine = engine
	deps.closers = append(deps.closers, engine.Close)
	return deps, nil
}

func newNotifier(cfg *config.Config, logger *zap.Logger) (goSession.Notifier, func(), error) {
	logNotifier := notify.NewLogNotifier(logger)

	switch cfg.NotifyBackend {
	case config.BackendLog:
		return logNotifier, nil, nil
	case config.BackendSMTP:
		sender, err := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.Email,
			Password: cfg.Password,
			From:     cfg.Email,
			Subject:  fmt.Sprintf("%s: please confirm your email", cfg.ApplicationName),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("smtp: %w", err)
		}
		return notify.Multi{logNotifier, sender}, nil, nil
	case config.BackendKafka:
		publisher, err := notify.NewKafkaPublisher(cfg.KafkaBrokersList(), cfg.KafkaTopic)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka: %w", err)
		}
		return notify.Multi{logNotifier, publisher}, func() { _ = publisher.Close() }, nil
	default:
		return nil, nil, errors.New("unknown notify backend " + cfg.NotifyBackend)
	}
}
