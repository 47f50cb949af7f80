package goSession

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/account"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
	"github.com/MrEthical07/goSession/notify"
	"github.com/MrEthical07/goSession/revocation"
	"github.com/MrEthical07/goSession/secret"
	"go.uber.org/zap"
)

// Tier selects the signing-secret family of a credential.
type Tier = secret.Tier

// Purpose distinguishes access tokens from refresh tokens.
type Purpose = secret.Purpose

const (
	// TierUser signs credentials for regular accounts.
	TierUser = secret.TierUser
	// TierAdmin signs credentials for administrator accounts.
	TierAdmin = secret.TierAdmin

	// PurposeAccess marks short-lived tokens presented on every request.
	PurposeAccess = secret.PurposeAccess
	// PurposeRefresh marks long-lived tokens exchanged for new access tokens.
	PurposeRefresh = secret.PurposeRefresh
)

// Account is the persisted identity record.
type Account = account.Account

// AccountStore persists accounts, OTP state and the credentials watermark.
// [account.MemoryStore] and [account.MongoStore] implement it.
type AccountStore = account.Store

// Notifier delivers freshly issued confirmation codes.
type Notifier = notify.Notifier

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc = notify.Func

// OTPNotification is handed to a [Notifier] once per issued code.
type OTPNotification = notify.OTPNotification

// RevocationRecord is one entry of the revoked-token ledger.
type RevocationRecord = revocation.Record

// RevocationStore is the revoked-token ledger. Revoke must be insert-if-absent
// and IsRevoked must never report false on a backend failure.
// [revocation.RedisStore] and [revocation.PostgresStore] implement it.
type RevocationStore interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, rec RevocationRecord) error
}

// Hasher produces and checks one-way hashes for passwords and OTP codes.
// Verify must compare in constant time and report a mismatch as (false, nil).
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encoded string) (bool, error)
}

// TokenPair is the result of a login. Both tokens carry the same TokenID.
type TokenPair struct {
	Tier             Tier
	TokenID          string
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AccessCredential returns the access token in presentation form.
func (p *TokenPair) AccessCredential() string {
	return FormatCredential(p.Tier, p.AccessToken)
}

// RefreshCredential returns the refresh token in presentation form.
func (p *TokenPair) RefreshCredential() string {
	return FormatCredential(p.Tier, p.RefreshToken)
}

// FormatCredential joins tier and token as "<TIER> <token>".
func FormatCredential(tier Tier, token string) string {
	return string(tier) + " " + token
}

// ParseCredential splits a presented credential into its tier and token.
// Exactly one space must separate two non-empty parts and the tier must be
// known; anything else is [ErrMalformedCredential].
func ParseCredential(presented string) (Tier, string, error) {
	prefix, token, ok := strings.Cut(presented, " ")
	if !ok || prefix == "" || token == "" || strings.ContainsAny(token, " \t") {
		return "", "", ErrMalformedCredential
	}
	tier, err := secret.ParseTier(prefix)
	if err != nil {
		return "", "", ErrMalformedCredential
	}
	return tier, token, nil
}

// AuthResult is returned by [Engine.Authenticate].
type AuthResult struct {
	Account   *Account
	Tier      Tier
	Purpose   Purpose
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// LogoutScope selects what [Engine.Logout] invalidates.
type LogoutScope uint8

const (
	// ScopeOnly revokes the presented credential's token ID.
	ScopeOnly LogoutScope = iota + 1
	// ScopeAll invalidates every credential issued to the account so far.
	ScopeAll
)

// String returns the wire name of the scope.
func (s LogoutScope) String() string {
	switch s {
	case ScopeOnly:
		return "ONLY"
	case ScopeAll:
		return "ALL"
	default:
		return "UNKNOWN"
	}
}

// ParseLogoutScope accepts "ONLY" and "ALL" (case-insensitive).
func ParseLogoutScope(s string) (LogoutScope, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ONLY":
		return ScopeOnly, nil
	case "ALL":
		return ScopeAll, nil
	default:
		return 0, ErrInvalidInput
	}
}

// SignupRequest is the input for [Engine.Signup]. Tier defaults to
// [TierUser].
type SignupRequest struct {
	Email    string
	Username string
	Password string
	Tier     Tier
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// ZapSink is an [AuditSink] that writes events through a zap logger.
type ZapSink = internalaudit.ZapSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewZapSink creates a [ZapSink] on a child of logger named "audit".
func NewZapSink(logger *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(logger)
}

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess            = MetricID(internalmetrics.MetricLoginSuccess)
	MetricLoginFailure            = MetricID(internalmetrics.MetricLoginFailure)
	MetricLoginRateLimited        = MetricID(internalmetrics.MetricLoginRateLimited)
	MetricRefreshSuccess          = MetricID(internalmetrics.MetricRefreshSuccess)
	MetricRefreshFailure          = MetricID(internalmetrics.MetricRefreshFailure)
	MetricAuthenticateSuccess     = MetricID(internalmetrics.MetricAuthenticateSuccess)
	MetricAuthenticateFailure     = MetricID(internalmetrics.MetricAuthenticateFailure)
	MetricRevokedTokenRejected    = MetricID(internalmetrics.MetricRevokedTokenRejected)
	MetricStaleCredentialRejected = MetricID(internalmetrics.MetricStaleCredentialRejected)
	MetricLogout                  = MetricID(internalmetrics.MetricLogout)
	MetricLogoutAll               = MetricID(internalmetrics.MetricLogoutAll)
	MetricSignupSuccess           = MetricID(internalmetrics.MetricSignupSuccess)
	MetricSignupDuplicate         = MetricID(internalmetrics.MetricSignupDuplicate)
	MetricOTPIssued               = MetricID(internalmetrics.MetricOTPIssued)
	MetricConfirmSuccess          = MetricID(internalmetrics.MetricConfirmSuccess)
	MetricConfirmFailure          = MetricID(internalmetrics.MetricConfirmFailure)
	MetricConfirmRateLimited      = MetricID(internalmetrics.MetricConfirmRateLimited)
	MetricNotificationSent        = MetricID(internalmetrics.MetricNotificationSent)
	MetricNotificationFailed      = MetricID(internalmetrics.MetricNotificationFailed)
	MetricNotificationDropped     = MetricID(internalmetrics.MetricNotificationDropped)
	MetricBackendUnavailable      = MetricID(internalmetrics.MetricBackendUnavailable)
	MetricAuthenticateLatency     = MetricID(internalmetrics.MetricAuthenticateLatency)

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
