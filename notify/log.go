package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier records that a code was issued without delivering it. The code
// itself is never logged; use it for local development alongside a mail
// catcher or a test hook.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a LogNotifier. A nil logger discards output.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

// SendOTP implements Notifier.
func (l *LogNotifier) SendOTP(_ context.Context, n OTPNotification) error {
	l.logger.Info("confirmation code issued",
		zap.String("account_id", n.AccountID),
		zap.String("email", n.Email),
		zap.Time("expires_at", n.ExpiresAt),
	)
	return nil
}
