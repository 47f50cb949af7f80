package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	MaxConfirmAttempts    int
	ConfirmCooldown       time.Duration
}

// Limiter counts failed login and confirmation attempts in Redis.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckLogin returns ErrRateLimited when email has exhausted its budget.
func (l *Limiter) CheckLogin(ctx context.Context, email string) error {
	return l.checkCounter(ctx, loginKey(email), l.config.MaxLoginAttempts)
}

// IncrementLogin records a failed login for email.
func (l *Limiter) IncrementLogin(ctx context.Context, email string) error {
	_, err := l.incrementWithTTL(ctx, loginKey(email), l.config.LoginCooldownDuration)
	return err
}

// ResetLogin clears the failed-login counter after a successful login.
func (l *Limiter) ResetLogin(ctx context.Context, email string) error {
	if err := l.redis.Del(ctx, loginKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// CheckConfirm returns ErrRateLimited when accountID has exhausted its
// confirmation budget.
func (l *Limiter) CheckConfirm(ctx context.Context, accountID string) error {
	return l.checkCounter(ctx, confirmKey(accountID), l.config.MaxConfirmAttempts)
}

// IncrementConfirm records a failed OTP confirmation for accountID.
func (l *Limiter) IncrementConfirm(ctx context.Context, accountID string) error {
	_, err := l.incrementWithTTL(ctx, confirmKey(accountID), l.config.ConfirmCooldown)
	return err
}

// ResetConfirm clears the confirmation counter, typically when a new OTP is issued.
func (l *Limiter) ResetConfirm(ctx context.Context, accountID string) error {
	if err := l.redis.Del(ctx, confirmKey(accountID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	if maxAttempts <= 0 {
		return nil
	}
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(maxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func loginKey(email string) string {
	return "gs:rl:login:" + email
}

func confirmKey(accountID string) string {
	return "gs:rl:confirm:" + accountID
}
