package notify

import (
	"context"
	"errors"
	"time"
)

// OTPNotification carries a freshly issued confirmation code.
type OTPNotification struct {
	AccountID string
	Email     string
	Username  string
	Code      string
	ExpiresAt time.Time
}

// Notifier delivers confirmation codes.
type Notifier interface {
	SendOTP(ctx context.Context, n OTPNotification) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n OTPNotification) error

// SendOTP calls f.
func (f Func) SendOTP(ctx context.Context, n OTPNotification) error {
	return f(ctx, n)
}

// NoOp discards every notification.
type NoOp struct{}

// SendOTP implements Notifier.
func (NoOp) SendOTP(context.Context, OTPNotification) error { return nil }

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

// SendOTP implements Notifier.
func (m Multi) SendOTP(ctx context.Context, n OTPNotification) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.SendOTP(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
