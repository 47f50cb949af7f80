package goSession

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/revocation"
)

// LogoutOne revokes tokenID so no credential carrying it is honoured again.
// Revoking an already revoked ID is a no-op. The record's IssuedAt is set to
// now, which keeps it at least as long as the retention window requires.
func (e *Engine) LogoutOne(ctx context.Context, tokenID, accountID string) error {
	return e.revoke(ctx, tokenID, accountID, time.Time{})
}

func (e *Engine) revoke(ctx context.Context, tokenID, accountID string, issuedAt time.Time) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if tokenID == "" || accountID == "" {
		return ErrInvalidInput
	}

	now := e.now()
	if issuedAt.IsZero() {
		issuedAt = now
	}
	err := e.revocation.Revoke(ctx, RevocationRecord{
		JTI:       tokenID,
		AccountID: accountID,
		IssuedAt:  issuedAt,
		RevokedAt: now,
	})
	if err != nil {
		if errors.Is(err, revocation.ErrInvalidRecord) {
			return ErrInvalidInput
		}
		err = e.backendFailure(ctx, "logout.revoke", err)
		e.emitAudit(ctx, auditEventLogoutSession, false, accountID, tokenID, "", err, nil)
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogoutSession, true, accountID, tokenID, "", nil, nil)
	return nil
}

// LogoutAll invalidates every credential issued to accountID up to now by
// advancing its credentials watermark. It costs one store write regardless
// of how many tokens exist.
func (e *Engine) LogoutAll(ctx context.Context, accountID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if accountID == "" {
		return ErrInvalidInput
	}

	at := e.now().Truncate(time.Second)
	if err := e.accounts.BumpWatermark(ctx, accountID, at); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		err = e.backendFailure(ctx, "logout_all.bump_watermark", err)
		e.emitAudit(ctx, auditEventLogoutAll, false, accountID, "", "", err, nil)
		return err
	}

	e.metricInc(MetricLogoutAll)
	e.emitAudit(ctx, auditEventLogoutAll, true, accountID, "", "", nil, nil)
	return nil
}

// Logout applies scope to an authenticated credential: ScopeOnly revokes its
// token ID, ScopeAll advances the account watermark.
func (e *Engine) Logout(ctx context.Context, res *AuthResult, scope LogoutScope) error {
	if res == nil || res.Account == nil {
		return ErrInvalidInput
	}
	switch scope {
	case ScopeOnly:
		return e.revoke(ctx, res.TokenID, res.Account.ID, res.IssuedAt)
	case ScopeAll:
		return e.LogoutAll(ctx, res.Account.ID)
	default:
		return ErrInvalidInput
	}
}
