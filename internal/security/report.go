package security

import "time"

// PasswordReport describes the configured password hasher. Argon2 fields
// are zero for bcrypt and BcryptCost is zero for Argon2id.
type PasswordReport struct {
	Algorithm   string
	Memory      uint32
	Time        uint32
	Parallelism uint8
	BcryptCost  int
}

// Report is a point-in-time summary of an engine's security posture. It
// never carries secret material.
type Report struct {
	SigningAlgorithm   string
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	RevocationLedger   string
	RevocationRetained time.Duration
	Password           PasswordReport
	OTPDigits          int
	OTPTTL             time.Duration
	LoginThrottle      bool
	ConfirmThrottle    bool
	AuditEnabled       bool
	MetricsEnabled     bool
	Warnings           []string
}

// ReportInput is the raw configuration a Report is derived from.
type ReportInput struct {
	SigningAlgorithm      string
	AccessTTL             time.Duration
	RefreshTTL            time.Duration
	RevocationLedger      string
	RevocationRetention   time.Duration
	Password              PasswordReport
	OTPDigits             int
	OTPTTL                time.Duration
	EnableLoginThrottle   bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	EnableConfirmThrottle bool
	MaxConfirmAttempts    int
	ConfirmCooldown       time.Duration
	LimiterConfigured     bool
	AuditEnabled          bool
	MetricsEnabled        bool
}

// Thresholds above which BuildReport adds a warning.
const (
	longAccessTTL  = time.Hour
	longRefreshTTL = 30 * 24 * time.Hour
	longOTPTTL     = 30 * time.Minute
)

// BuildReport derives a Report from input. A throttle only counts as active
// when it is enabled, has a positive budget and cooldown, and a limiter
// backend exists.
func BuildReport(input ReportInput) Report {
	loginThrottle := input.LimiterConfigured &&
		input.EnableLoginThrottle &&
		input.MaxLoginAttempts > 0 &&
		input.LoginCooldownDuration > 0
	confirmThrottle := input.LimiterConfigured &&
		input.EnableConfirmThrottle &&
		input.MaxConfirmAttempts > 0 &&
		input.ConfirmCooldown > 0

	r := Report{
		SigningAlgorithm:   input.SigningAlgorithm,
		AccessTTL:          input.AccessTTL,
		RefreshTTL:         input.RefreshTTL,
		RevocationLedger:   input.RevocationLedger,
		RevocationRetained: input.RevocationRetention,
		Password:           input.Password,
		OTPDigits:          input.OTPDigits,
		OTPTTL:             input.OTPTTL,
		LoginThrottle:      loginThrottle,
		ConfirmThrottle:    confirmThrottle,
		AuditEnabled:       input.AuditEnabled,
		MetricsEnabled:     input.MetricsEnabled,
	}

	if input.AccessTTL > longAccessTTL {
		r.Warnings = append(r.Warnings, "access tokens live longer than one hour")
	}
	if input.RefreshTTL > longRefreshTTL {
		r.Warnings = append(r.Warnings, "refresh tokens live longer than 30 days")
	}
	if input.OTPTTL > longOTPTTL {
		r.Warnings = append(r.Warnings, "confirmation codes live longer than 30 minutes")
	}
	if !loginThrottle {
		r.Warnings = append(r.Warnings, "password login is not rate limited")
	}
	if !confirmThrottle {
		r.Warnings = append(r.Warnings, "confirmation attempts are not rate limited")
	}
	return r
}
