package goSession

import (
	"errors"
	"time"

	"github.com/MrEthical07/goSession/password"
)

// Config holds every engine setting. Build clones it; later mutation by the
// caller has no effect on a built Engine.
type Config struct {
	JWT          JWTConfig
	Secrets      SecretsConfig
	OTP          OTPConfig
	Password     PasswordConfig
	Security     SecurityConfig
	Revocation   RevocationConfig
	Notification NotificationConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls token lifetimes and claim validation.
type JWTConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	// Leeway tolerates clock skew on exp and iat.
	Leeway time.Duration
	// MaxFutureIAT rejects tokens issued further in the future than this.
	MaxFutureIAT time.Duration
}

// SecretsConfig holds one HMAC secret per tier and purpose. All four are
// required, each at least 32 bytes, and no two may be equal.
type SecretsConfig struct {
	UserAccess   []byte
	UserRefresh  []byte
	AdminAccess  []byte
	AdminRefresh []byte
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig controls account confirmation codes.
type OTPConfig struct {
	Digits int
	TTL    time.Duration
	// MaxAttempts bounds wrong codes per account within Cooldown. Only
	// enforced when a Redis client is configured.
	MaxAttempts int
	Cooldown    time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects and tunes the hasher used for passwords and OTPs.
type PasswordConfig struct {
	Algorithm        string // "argon2id" (default) or "bcrypt"
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	BcryptCost       int
	MaxPasswordBytes int
	// UpgradeOnLogin rehashes a password after a successful login when the
	// stored hash was produced with weaker parameters.
	UpgradeOnLogin   bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls password-login throttling.
type SecurityConfig struct {
	EnableLoginThrottle   bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	EnableConfirmThrottle bool
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig controls the Redis ledger built when no store is supplied.
type RevocationConfig struct {
	RedisPrefix string
	// Retention is how long a revocation is remembered. Zero means
	// RefreshTTL plus JWT Leeway; shorter values are rejected.
	Retention time.Duration
}

// NotificationConfig controls the background OTP delivery worker.
type NotificationConfig struct {
	BufferSize int
	DropIfFull bool
	Timeout    time.Duration
}

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the defaults used by [New]. Secrets are left empty.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	argon := password.DefaultConfig()
	return Config{
		JWT: JWTConfig{
			AccessTTL:    15 * time.Minute,
			RefreshTTL:   7 * 24 * time.Hour,
			Leeway:       0,
			MaxFutureIAT: 10 * time.Minute,
		},
		OTP: OTPConfig{
			Digits:      6,
			TTL:         10 * time.Minute,
			MaxAttempts: 5,
			Cooldown:    10 * time.Minute,
		},
		Password: PasswordConfig{
			Algorithm:        "argon2id",
			Memory:           argon.Memory,
			Time:             argon.Time,
			Parallelism:      argon.Parallelism,
			SaltLength:       argon.SaltLength,
			KeyLength:        argon.KeyLength,
			BcryptCost:       12,
			MaxPasswordBytes: password.DefaultMaxPasswordBytes,
			UpgradeOnLogin:   true,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:   true,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			EnableConfirmThrottle: true,
		},
		Revocation: RevocationConfig{
			RedisPrefix: "gs:rev",
		},
		Notification: NotificationConfig{
			BufferSize: 256,
			DropIfFull: true,
			Timeout:    10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Secrets.UserAccess = cloneBytes(cfg.Secrets.UserAccess)
	out.Secrets.UserRefresh = cloneBytes(cfg.Secrets.UserRefresh)
	out.Secrets.AdminAccess = cloneBytes(cfg.Secrets.AdminAccess)
	out.Secrets.AdminRefresh = cloneBytes(cfg.Secrets.AdminRefresh)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// RevocationRetention is how long a revocation must outlive the iat of the
// token it names: a refresh token is accepted until exp plus Leeway.
func (c *Config) RevocationRetention() time.Duration {
	return max(c.Revocation.Retention, c.JWT.RefreshTTL) + c.JWT.Leeway
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks everything except the secrets, which Build hands to the
// secret registry.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}
	if c.JWT.MaxFutureIAT < 0 || c.JWT.MaxFutureIAT > 24*time.Hour {
		return errors.New("JWT MaxFutureIAT must be between 0 and 24h")
	}

	// OTP
	if c.OTP.Digits < 6 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be between 6 and 10")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}
	if c.OTP.TTL > time.Hour {
		return errors.New("OTP TTL must be <= 1h")
	}
	if c.Security.EnableConfirmThrottle {
		if c.OTP.MaxAttempts <= 0 {
			return errors.New("OTP MaxAttempts must be > 0 when confirm throttling is enabled")
		}
		if c.OTP.Cooldown <= 0 {
			return errors.New("OTP Cooldown must be > 0 when confirm throttling is enabled")
		}
	}

	// Password
	switch c.Password.Algorithm {
	case "argon2id":
		if c.Password.Memory < 8*1024 {
			return errors.New("Password Memory must be >= 8192 KB")
		}
		if c.Password.Time < 1 {
			return errors.New("Password Time must be >= 1")
		}
		if c.Password.Parallelism < 1 {
			return errors.New("Password Parallelism must be >= 1")
		}
		if c.Password.SaltLength < 16 {
			return errors.New("Password SaltLength must be >= 16")
		}
		if c.Password.KeyLength < 16 {
			return errors.New("Password KeyLength must be >= 16")
		}
	case "bcrypt":
		if c.Password.BcryptCost < 4 || c.Password.BcryptCost > 31 {
			return errors.New("Password BcryptCost must be between 4 and 31")
		}
	default:
		return errors.New("Password Algorithm must be 'argon2id' or 'bcrypt'")
	}
	if c.Password.MaxPasswordBytes < password.MinPasswordBytes {
		return errors.New("Password MaxPasswordBytes is below the minimum password length")
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security LoginCooldownDuration must be > 0")
		}
	}

	// Revocation
	if c.Revocation.Retention < 0 {
		return errors.New("Revocation Retention must be >= 0")
	}
	if c.Revocation.Retention > 0 && c.Revocation.Retention < c.JWT.RefreshTTL+c.JWT.Leeway {
		return errors.New("Revocation Retention must cover RefreshTTL plus Leeway")
	}

	// Notification
	if c.Notification.BufferSize <= 0 {
		return errors.New("Notification BufferSize must be > 0")
	}
	if c.Notification.Timeout <= 0 {
		return errors.New("Notification Timeout must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
