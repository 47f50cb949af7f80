package goSession

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventLoginRateLimited    = "login_rate_limited"
	auditEventRefreshSuccess      = "refresh_success"
	auditEventRefreshFailure      = "refresh_failure"
	auditEventAuthenticateFailure = "authenticate_failure"
	auditEventLogoutSession       = "logout_session"
	auditEventLogoutAll           = "logout_all"
	auditEventSignupSuccess       = "signup_success"
	auditEventSignupFailure       = "signup_failure"
	auditEventOTPIssued           = "otp_issued"
	auditEventConfirmSuccess      = "confirm_success"
	auditEventConfirmFailure      = "confirm_failure"
	auditEventConfirmRateLimited  = "confirm_rate_limited"
	auditEventNotificationFailed  = "notification_failed"
)

// AuditErrorCode is the stable, non-sensitive error label stored on audit
// events.
type AuditErrorCode string

const (
	auditErrMalformedCredential AuditErrorCode = "malformed_credential"
	auditErrInvalidToken        AuditErrorCode = "invalid_token"
	auditErrExpiredToken        AuditErrorCode = "expired_token"
	auditErrRevokedToken        AuditErrorCode = "revoked_token"
	auditErrStaleCredential     AuditErrorCode = "stale_credential"
	auditErrAccountNotFound     AuditErrorCode = "account_not_found"
	auditErrInvalidCredentials  AuditErrorCode = "invalid_credentials"
	auditErrAccountUnconfirmed  AuditErrorCode = "account_unconfirmed"
	auditErrAlreadyConfirmed    AuditErrorCode = "already_confirmed"
	auditErrNoPendingOTP        AuditErrorCode = "no_pending_otp"
	auditErrOTPExpired          AuditErrorCode = "otp_expired"
	auditErrInvalidOTP          AuditErrorCode = "invalid_otp"
	auditErrRateLimited         AuditErrorCode = "rate_limited"
	auditErrDuplicate           AuditErrorCode = "duplicate"
	auditErrPasswordPolicy      AuditErrorCode = "password_policy"
	auditErrInvalidInput        AuditErrorCode = "invalid_input"
	auditErrUnavailable         AuditErrorCode = "backend_unavailable"
	auditErrPersistence         AuditErrorCode = "persistence_failure"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	tokenID string,
	tier Tier,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if requestID := requestIDFromContext(ctx); requestID != "" {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["request_id"] = requestID
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		TokenID:   tokenID,
		Tier:      string(tier),
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrMalformedCredential):
		return auditErrMalformedCredential
	case errors.Is(err, ErrExpiredToken):
		return auditErrExpiredToken
	case errors.Is(err, ErrInvalidToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrRevokedToken):
		return auditErrRevokedToken
	case errors.Is(err, ErrStaleCredential):
		return auditErrStaleCredential
	case errors.Is(err, ErrAccountNotFound):
		return auditErrAccountNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAccountUnconfirmed):
		return auditErrAccountUnconfirmed
	case errors.Is(err, ErrAlreadyConfirmed):
		return auditErrAlreadyConfirmed
	case errors.Is(err, ErrNoPendingOTP):
		return auditErrNoPendingOTP
	case errors.Is(err, ErrOTPExpired):
		return auditErrOTPExpired
	case errors.Is(err, ErrInvalidOTP):
		return auditErrInvalidOTP
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrInvalidInput):
		return auditErrInvalidInput
	case errors.Is(err, ErrUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrPersistence):
		return auditErrPersistence
	default:
		return auditErrInternal
	}
}
