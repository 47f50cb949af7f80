package goSession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/internal/rate"
)

// IssueOTP generates a fresh confirmation code for accountID, stores only its
// hash with an expiry of now+OTP.TTL, and returns the plaintext. Any earlier
// code stops working. Confirmed accounts get [ErrAlreadyConfirmed].
func (e *Engine) IssueOTP(ctx context.Context, accountID string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	if accountID == "" {
		return "", ErrInvalidInput
	}

	acct, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return "", ErrAccountNotFound
		}
		return "", e.backendFailure(ctx, "issue_otp.find_account", err)
	}
	code, _, err := e.issueOTP(ctx, acct)
	if err != nil {
		return "", err
	}
	return code, nil
}

func (e *Engine) issueOTP(ctx context.Context, acct *Account) (string, time.Time, error) {
	if acct.Confirmed() {
		return "", time.Time{}, ErrAlreadyConfirmed
	}

	code, err := internal.NewOTP(e.config.OTP.Digits)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: otp generation: %v", ErrUnavailable, err)
	}
	hash, err := e.hasher.Hash(code)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: otp hash: %v", ErrConfiguration, err)
	}

	expiresAt := e.now().Add(e.config.OTP.TTL)
	if err := e.accounts.SetOTP(ctx, acct.ID, hash, expiresAt); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyConfirmed):
			return "", time.Time{}, ErrAlreadyConfirmed
		case errors.Is(err, ErrAccountNotFound):
			return "", time.Time{}, ErrAccountNotFound
		}
		return "", time.Time{}, e.backendFailure(ctx, "issue_otp.set_otp", err)
	}

	if e.confirmThrottled() {
		if err := e.limiter.ResetConfirm(ctx, acct.ID); err != nil {
			e.logger.Warn("confirm throttle reset failed", zap.Error(err))
		}
	}

	e.metricInc(MetricOTPIssued)
	e.emitAudit(ctx, auditEventOTPIssued, true, acct.ID, "", acct.Tier, nil, nil)
	return code, expiresAt, nil
}

// Confirm checks code against the outstanding OTP of accountID and, on a
// match, marks the account confirmed and clears the OTP in one conditional
// store write. Checks run in order: already confirmed, no pending code,
// expired code, then the constant-time hash comparison. Of two concurrent
// successful confirms exactly one wins; the other sees
// [ErrAlreadyConfirmed]. Confirm never issues tokens.
func (e *Engine) Confirm(ctx context.Context, accountID, code string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if accountID == "" {
		return ErrInvalidInput
	}

	acct, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return e.backendFailure(ctx, "confirm.find_account", err)
	}
	return e.confirm(ctx, acct, code)
}

// ConfirmEmail is Confirm addressed by email.
func (e *Engine) ConfirmEmail(ctx context.Context, email, code string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	email = normalizeEmail(email)
	if email == "" {
		return ErrInvalidInput
	}

	acct, err := e.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return e.backendFailure(ctx, "confirm.find_account", err)
	}
	return e.confirm(ctx, acct, code)
}

func (e *Engine) confirm(ctx context.Context, acct *Account, code string) error {
	err := e.checkOTP(ctx, acct, code)
	if err != nil {
		if IsConfirmationFailure(err) {
			e.metricInc(MetricConfirmFailure)
			e.emitAudit(ctx, auditEventConfirmFailure, false, acct.ID, "", acct.Tier, err, nil)
		}
		return err
	}

	if err := e.accounts.MarkConfirmed(ctx, acct.ID, acct.OTPHash, e.now()); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyConfirmed), errors.Is(err, ErrNoPendingOTP):
			// Lost a race with another confirm or a reissue.
			e.metricInc(MetricConfirmFailure)
			e.emitAudit(ctx, auditEventConfirmFailure, false, acct.ID, "", acct.Tier, err, nil)
			return err
		case errors.Is(err, ErrAccountNotFound):
			return ErrAccountNotFound
		}
		return e.backendFailure(ctx, "confirm.mark_confirmed", err)
	}

	if e.confirmThrottled() {
		if err := e.limiter.ResetConfirm(ctx, acct.ID); err != nil {
			e.logger.Warn("confirm throttle reset failed", zap.Error(err))
		}
	}

	e.metricInc(MetricConfirmSuccess)
	e.emitAudit(ctx, auditEventConfirmSuccess, true, acct.ID, "", acct.Tier, nil, nil)
	return nil
}

func (e *Engine) checkOTP(ctx context.Context, acct *Account, code string) error {
	if acct.Confirmed() {
		return ErrAlreadyConfirmed
	}
	if !acct.HasPendingOTP() {
		return ErrNoPendingOTP
	}
	if e.now().After(acct.OTPExpiresAt) {
		return ErrOTPExpired
	}

	if e.confirmThrottled() {
		if err := e.limiter.CheckConfirm(ctx, acct.ID); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricConfirmRateLimited)
				e.emitAudit(ctx, auditEventConfirmRateLimited, false, acct.ID, "", acct.Tier, ErrRateLimited, nil)
				return ErrRateLimited
			}
			return e.backendFailure(ctx, "confirm.check_rate", err)
		}
	}

	ok, err := e.hasher.Verify(code, acct.OTPHash)
	if err != nil || !ok {
		if e.confirmThrottled() {
			if err := e.limiter.IncrementConfirm(ctx, acct.ID); err != nil {
				e.logger.Warn("confirm throttle increment failed", zap.Error(err))
			}
		}
		return ErrInvalidOTP
	}
	return nil
}

// SendConfirmation issues a fresh code and queues it for delivery to the
// account's email. Delivery happens in the background; its failure is logged
// and audited but never reported to the caller.
func (e *Engine) SendConfirmation(ctx context.Context, accountID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if accountID == "" {
		return ErrInvalidInput
	}

	acct, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return e.backendFailure(ctx, "send_confirmation.find_account", err)
	}
	return e.sendConfirmation(ctx, acct)
}

// ResendConfirmation is SendConfirmation addressed by email.
func (e *Engine) ResendConfirmation(ctx context.Context, email string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	email = normalizeEmail(email)
	if email == "" {
		return ErrInvalidInput
	}

	acct, err := e.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return e.backendFailure(ctx, "send_confirmation.find_account", err)
	}
	return e.sendConfirmation(ctx, acct)
}

func (e *Engine) sendConfirmation(ctx context.Context, acct *Account) error {
	code, expiresAt, err := e.issueOTP(ctx, acct)
	if err != nil {
		return err
	}
	e.queueNotification(ctx, OTPNotification{
		AccountID: acct.ID,
		Email:     acct.Email,
		Username:  acct.Username,
		Code:      code,
		ExpiresAt: expiresAt,
	})
	return nil
}

func (e *Engine) queueNotification(ctx context.Context, n OTPNotification) {
	if e.notifications.enqueue(ctx, n) {
		return
	}
	e.metricInc(MetricNotificationDropped)
	e.logger.Warn("otp notification dropped",
		zap.String("account_id", n.AccountID),
		zap.String("request_id", requestIDFromContext(ctx)),
	)
}

// notificationResult runs on the notification worker after each delivery.
func (e *Engine) notificationResult(n OTPNotification, err error) {
	if err == nil {
		e.metricInc(MetricNotificationSent)
		return
	}
	e.metricInc(MetricNotificationFailed)
	e.logger.Warn("otp notification failed",
		zap.String("account_id", n.AccountID),
		zap.Error(err),
	)
	e.emitAudit(context.Background(), auditEventNotificationFailed, false, n.AccountID, "", "", err, nil)
}
