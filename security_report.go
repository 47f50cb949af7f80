package goSession

import (
	"github.com/MrEthical07/goSession/internal/security"
	"github.com/MrEthical07/goSession/revocation"
)

// SecurityReport summarizes the engine's security-relevant settings.
type SecurityReport = security.Report

// SecurityReport returns the posture of this engine. It never includes
// secrets and is safe to log.
func (e *Engine) SecurityReport() SecurityReport {
	if !e.ready() {
		return SecurityReport{}
	}
	cfg := e.config

	ledger := "custom"
	switch e.revocation.(type) {
	case *revocation.RedisStore:
		ledger = "redis"
	case *revocation.PostgresStore:
		ledger = "postgres"
	}

	pw := security.PasswordReport{Algorithm: cfg.Password.Algorithm}
	if pw.Algorithm == "bcrypt" {
		pw.BcryptCost = cfg.Password.BcryptCost
	} else {
		pw.Memory = cfg.Password.Memory
		pw.Time = cfg.Password.Time
		pw.Parallelism = cfg.Password.Parallelism
	}

	return security.BuildReport(security.ReportInput{
		SigningAlgorithm:      "HS256",
		AccessTTL:             cfg.JWT.AccessTTL,
		RefreshTTL:            cfg.JWT.RefreshTTL,
		RevocationLedger:      ledger,
		RevocationRetention:   cfg.RevocationRetention(),
		Password:              pw,
		OTPDigits:             cfg.OTP.Digits,
		OTPTTL:                cfg.OTP.TTL,
		EnableLoginThrottle:   cfg.Security.EnableLoginThrottle,
		MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
		LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		EnableConfirmThrottle: cfg.Security.EnableConfirmThrottle,
		MaxConfirmAttempts:    cfg.OTP.MaxAttempts,
		ConfirmCooldown:       cfg.OTP.Cooldown,
		LimiterConfigured:     e.limiter != nil,
		AuditEnabled:          cfg.Audit.Enabled,
		MetricsEnabled:        cfg.Metrics.Enabled,
	})
}
