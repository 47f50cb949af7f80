package goSession

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/account"
)

var (
	// ErrConfiguration is returned by Build for missing, weak or reused
	// secrets and invalid settings.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrEngineNotReady is returned when a method is called on a nil or
	// partially built Engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidInput is returned for empty identifiers and unknown enum values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedCredential is returned when a credential is not "<TIER> <token>".
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrInvalidToken is returned for bad signatures, malformed tokens,
	// missing claims and purpose or tier mismatches.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for correctly signed tokens past expiry.
	ErrExpiredToken = errors.New("token expired")
	// ErrRevokedToken is returned when the token ID is in the revocation ledger.
	ErrRevokedToken = errors.New("token revoked")
	// ErrStaleCredential is returned when the token was issued before the
	// account's last logout-everywhere.
	ErrStaleCredential = errors.New("credential issued before last logout-all")
	// ErrAccountNotFound is returned when the token subject has no account.
	ErrAccountNotFound = account.ErrNotFound

	// ErrAlreadyConfirmed is returned when the account is already confirmed.
	ErrAlreadyConfirmed = account.ErrAlreadyConfirmed
	// ErrNoPendingOTP is returned when no confirmation code is outstanding.
	ErrNoPendingOTP = account.ErrNoPendingOTP
	// ErrOTPExpired is returned when the outstanding code is past its expiry.
	ErrOTPExpired = errors.New("otp expired")
	// ErrInvalidOTP is returned when the code does not match.
	ErrInvalidOTP = errors.New("invalid otp")

	// ErrInvalidCredentials is returned by password login for unknown emails
	// and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountUnconfirmed is returned by password login before confirmation.
	ErrAccountUnconfirmed = errors.New("account not confirmed")
	// ErrAccountExists is returned by Signup for a taken email or username.
	ErrAccountExists = account.ErrExists
	// ErrPasswordPolicy is returned by Signup for unacceptable passwords.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrRateLimited is returned once a login or confirm budget is exhausted.
	ErrRateLimited = errors.New("rate limited")

	// ErrPersistence wraps store failures. Never retried or converted into a
	// verdict.
	ErrPersistence = errors.New("persistence failure")
	// ErrUnavailable wraps cancellations and deadline expiries.
	ErrUnavailable = errors.New("backend unavailable")
)

// IsAuthenticationFailure reports whether err is a verdict about the
// presented credential, as opposed to an infrastructure failure. HTTP
// adapters answer all of these with the same 401.
func IsAuthenticationFailure(err error) bool {
	return errors.Is(err, ErrMalformedCredential) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrRevokedToken) ||
		errors.Is(err, ErrStaleCredential) ||
		errors.Is(err, ErrAccountNotFound)
}

// IsConfirmationFailure reports whether err is a verdict of Confirm.
func IsConfirmationFailure(err error) bool {
	return errors.Is(err, ErrAlreadyConfirmed) ||
		errors.Is(err, ErrNoPendingOTP) ||
		errors.Is(err, ErrOTPExpired) ||
		errors.Is(err, ErrInvalidOTP)
}

// IsInfrastructureFailure reports whether err came from a backend rather
// than from the caller's input.
func IsInfrastructureFailure(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, ErrUnavailable)
}

// infraError classifies a backend failure. Cancellation of the caller's
// context becomes ErrUnavailable; everything else is ErrPersistence.
func infraError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if IsInfrastructureFailure(err) {
		return err
	}
	if (ctx != nil && ctx.Err() != nil) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
