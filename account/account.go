package account

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/secret"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrExists is returned by Create when the email or username is taken.
	ErrExists = errors.New("account already exists")
	// ErrAlreadyConfirmed is returned when a confirmation-only write targets a
	// confirmed account.
	ErrAlreadyConfirmed = errors.New("account already confirmed")
	// ErrNoPendingOTP is returned by MarkConfirmed when the account has no
	// OTP, or a different OTP than the one verified.
	ErrNoPendingOTP = errors.New("no pending otp")
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("account store unavailable")
)

// Account is the persisted identity. Zero times mean "unset".
type Account struct {
	ID                   string
	Email                string
	Username             string
	Tier                 secret.Tier
	PasswordHash         string
	OTPHash              string
	OTPExpiresAt         time.Time
	ConfirmedAt          time.Time
	CredentialsChangedAt time.Time
	CreatedAt            time.Time
}

// Confirmed reports whether the account has completed OTP confirmation.
func (a *Account) Confirmed() bool {
	return a != nil && !a.ConfirmedAt.IsZero()
}

// HasPendingOTP reports whether an OTP hash is stored.
func (a *Account) HasPendingOTP() bool {
	return a != nil && a.OTPHash != ""
}

// Clone returns a copy safe to hand to callers.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	return &out
}

// Public returns a copy with password and OTP hashes removed.
func (a *Account) Public() *Account {
	out := a.Clone()
	if out == nil {
		return nil
	}
	out.PasswordHash = ""
	out.OTPHash = ""
	return out
}

// Store persists accounts.
//
// SetOTP fails with ErrAlreadyConfirmed for confirmed accounts. MarkConfirmed
// succeeds only while the account is unconfirmed and its stored OTP hash
// equals expectedOTPHash; it then sets ConfirmedAt and clears both OTP fields
// atomically. BumpWatermark stores max(current, at). UpdatePasswordHash
// replaces the stored hash without touching the watermark.
type Store interface {
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, acct *Account) error
	SetOTP(ctx context.Context, id, otpHash string, expiresAt time.Time) error
	MarkConfirmed(ctx context.Context, id, expectedOTPHash string, at time.Time) error
	BumpWatermark(ctx context.Context, id string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
}
