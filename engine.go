package goSession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/internal"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/jwt"
)

// Engine issues, authenticates and invalidates credentials and runs the
// account confirmation flow. It is immutable after [Builder.Build] and safe
// for concurrent use.
type Engine struct {
	config        Config
	codec         *jwt.Codec
	revocation    RevocationStore
	accounts      AccountStore
	hasher        Hasher
	limiter       *rate.Limiter
	notifications *notificationDispatcher
	audit         *internalaudit.Dispatcher
	metrics       *Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// Close drains pending notifications, then pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.notifications != nil {
		e.notifications.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// NotificationsDropped returns the number of OTP notifications that were
// never handed to the notifier.
func (e *Engine) NotificationsDropped() uint64 {
	if e == nil || e.notifications == nil {
		return 0
	}
	return e.notifications.Dropped()
}

// MetricsSnapshot returns a copy of the in-process counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.codec != nil && e.accounts != nil && e.revocation != nil && e.hasher != nil
}

// backendFailure logs and classifies an infrastructure error.
func (e *Engine) backendFailure(ctx context.Context, op string, err error) error {
	e.metricInc(MetricBackendUnavailable)
	e.logger.Warn("backend failure",
		zap.String("op", op),
		zap.String("request_id", requestIDFromContext(ctx)),
		zap.Error(err),
	)
	return infraError(ctx, err)
}

// Login issues an access and refresh token for accountID signed under tier.
// Both tokens share one fresh token ID. Login does not read or mutate the
// account.
func (e *Engine) Login(ctx context.Context, accountID string, tier Tier) (*TokenPair, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	pair, err := e.issuePair(accountID, tier)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, accountID, "", tier, err, nil)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, accountID, pair.TokenID, tier, nil, nil)
	return pair, nil
}

func (e *Engine) issuePair(accountID string, tier Tier) (*TokenPair, error) {
	if accountID == "" || !tier.Valid() {
		return nil, ErrInvalidInput
	}

	jti, err := internal.NewTokenID()
	if err != nil {
		return nil, fmt.Errorf("%w: token id: %v", ErrUnavailable, err)
	}

	now := e.now()
	access, err := e.codec.Issue(accountID, tier, PurposeAccess, e.config.JWT.AccessTTL, jti)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	refresh, err := e.codec.Issue(accountID, tier, PurposeRefresh, e.config.JWT.RefreshTTL, jti)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return &TokenPair{
		Tier:             tier,
		TokenID:          jti,
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(e.config.JWT.AccessTTL),
		RefreshExpiresAt: now.Add(e.config.JWT.RefreshTTL),
	}, nil
}

// LoginWithPassword checks email and password and logs the account in under
// its own tier. Unknown emails and wrong passwords are indistinguishable.
// An unconfirmed account only learns it is unconfirmed after presenting the
// right password.
func (e *Engine) LoginWithPassword(ctx context.Context, email, password string) (*TokenPair, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	email = normalizeEmail(email)
	throttled := e.loginThrottled()

	if throttled {
		if err := e.limiter.CheckLogin(ctx, email); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricLoginRateLimited)
				e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", "", ErrRateLimited, nil)
				return nil, ErrRateLimited
			}
			return nil, e.backendFailure(ctx, "login.check_rate", err)
		}
	}

	fail := func(accountID string, reason string) (*TokenPair, error) {
		if throttled {
			if err := e.limiter.IncrementLogin(ctx, email); err != nil {
				e.logger.Warn("login throttle increment failed", zap.Error(err))
			}
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, accountID, "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, ErrInvalidCredentials
	}

	if email == "" || password == "" {
		return fail("", "empty_input")
	}

	acct, err := e.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return fail("", "account_not_found")
		}
		return nil, e.backendFailure(ctx, "login.find_account", err)
	}

	ok, err := e.hasher.Verify(password, acct.PasswordHash)
	if err != nil || !ok {
		return fail(acct.ID, "password_mismatch")
	}

	if !acct.Confirmed() {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, acct.ID, "", acct.Tier, ErrAccountUnconfirmed, nil)
		return nil, ErrAccountUnconfirmed
	}

	if e.config.Password.UpgradeOnLogin {
		e.upgradePasswordHash(ctx, acct, password)
	}
	password = ""

	if throttled {
		if err := e.limiter.ResetLogin(ctx, email); err != nil {
			e.logger.Warn("login throttle reset failed", zap.Error(err))
		}
	}

	return e.Login(ctx, acct.ID, acct.Tier)
}

// upgradePasswordHash rehashes password under the current parameters when the
// stored hash is weaker. Failures are logged and never fail the login.
func (e *Engine) upgradePasswordHash(ctx context.Context, acct *Account, password string) {
	up, ok := e.hasher.(interface {
		NeedsUpgrade(encodedHash string) (bool, error)
	})
	if !ok {
		return
	}
	needsUpgrade, err := up.NeedsUpgrade(acct.PasswordHash)
	if err != nil || !needsUpgrade {
		return
	}
	upgraded, err := e.hasher.Hash(password)
	if err != nil {
		e.logger.Warn("password hash upgrade generation failed", zap.String("account_id", acct.ID), zap.Error(err))
		return
	}
	if err := e.accounts.UpdatePasswordHash(ctx, acct.ID, upgraded); err != nil {
		e.logger.Warn("password hash upgrade update failed", zap.String("account_id", acct.ID), zap.Error(err))
	}
}

// Refresh authenticates a refresh credential and issues a new access token
// carrying the same token ID, so revoking that ID later still invalidates
// both. The refresh token itself is returned unchanged and the new access
// token never outlives it.
func (e *Engine) Refresh(ctx context.Context, presentedRefresh string) (*TokenPair, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res, err := e.Authenticate(ctx, presentedRefresh, PurposeRefresh)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", "", "", err, nil)
		return nil, err
	}

	_, refreshToken, _ := ParseCredential(presentedRefresh)

	now := e.now()
	ttl := e.config.JWT.AccessTTL
	if remaining := res.ExpiresAt.Sub(now); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrExpiredToken
	}

	access, err := e.codec.Issue(res.Account.ID, res.Tier, PurposeAccess, ttl, res.TokenID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, res.Account.ID, res.TokenID, res.Tier, nil, nil)
	return &TokenPair{
		Tier:             res.Tier,
		TokenID:          res.TokenID,
		AccessToken:      access,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  now.Add(ttl),
		RefreshExpiresAt: res.ExpiresAt,
	}, nil
}

func (e *Engine) loginThrottled() bool {
	return e.limiter != nil && e.config.Security.EnableLoginThrottle
}

func (e *Engine) confirmThrottled() bool {
	return e.limiter != nil && e.config.Security.EnableConfirmThrottle
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
