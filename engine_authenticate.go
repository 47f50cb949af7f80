package goSession

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

// Authenticate verifies a presented "<TIER> <token>" credential for purpose.
// Checks run in a fixed order and the first failure wins:
//
//  1. credential shape and tier ([ErrMalformedCredential])
//  2. signature, expiry and claims under (tier, purpose) ([ErrInvalidToken], [ErrExpiredToken])
//  3. revocation ledger ([ErrRevokedToken])
//  4. account lookup ([ErrAccountNotFound])
//  5. credentials watermark ([ErrStaleCredential])
//
// Store failures surface as [ErrPersistence] or [ErrUnavailable]; they never
// become a pass.
func (e *Engine) Authenticate(ctx context.Context, presented string, purpose Purpose) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	var start time.Time
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	res, err := e.authenticate(ctx, presented, purpose)

	if !start.IsZero() {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}
	if err != nil {
		e.metricInc(MetricAuthenticateFailure)
		switch {
		case errors.Is(err, ErrRevokedToken):
			e.metricInc(MetricRevokedTokenRejected)
		case errors.Is(err, ErrStaleCredential):
			e.metricInc(MetricStaleCredentialRejected)
		}
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, "", "", "", err, func() map[string]string {
			return map[string]string{"purpose": string(purpose)}
		})
		return nil, err
	}

	e.metricInc(MetricAuthenticateSuccess)
	return res, nil
}

func (e *Engine) authenticate(ctx context.Context, presented string, purpose Purpose) (*AuthResult, error) {
	if !purpose.Valid() {
		return nil, ErrInvalidInput
	}

	tier, token, err := ParseCredential(presented)
	if err != nil {
		return nil, err
	}

	claims, err := e.codec.Verify(token, tier, purpose)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	issuedAt := claims.IssuedAtTime()
	if claims.Subject == "" || issuedAt.IsZero() {
		return nil, ErrInvalidToken
	}

	revoked, err := e.revocation.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, e.backendFailure(ctx, "authenticate.is_revoked", err)
	}
	if revoked {
		return nil, ErrRevokedToken
	}

	acct, err := e.accounts.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, e.backendFailure(ctx, "authenticate.find_account", err)
	}

	if issuedBeforeWatermark(issuedAt, acct.CredentialsChangedAt) {
		return nil, ErrStaleCredential
	}

	return &AuthResult{
		Account:   acct.Public(),
		Tier:      tier,
		Purpose:   purpose,
		TokenID:   claims.ID,
		IssuedAt:  issuedAt,
		ExpiresAt: claims.ExpiresAtTime(),
	}, nil
}

// issuedBeforeWatermark compares at whole-second resolution because iat is
// carried in seconds. A token issued in the same second as the watermark is
// still accepted.
func issuedBeforeWatermark(issuedAt, watermark time.Time) bool {
	if watermark.IsZero() {
		return false
	}
	return watermark.Unix() > issuedAt.Unix()
}
