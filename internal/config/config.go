// Package config loads the sessiond configuration from the environment and an
// optional .env file using Viper, and converts it into a goSession.Config.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	goSession "github.com/MrEthical07/goSession"
)

// Backend names accepted by the *_BACKEND variables.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendLog      = "log"
	BackendSMTP     = "smtp"
	BackendKafka    = "kafka"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port int `mapstructure:"PORT"`
	// Mode is DEV or PROD. PROD switches logs to JSON.
	Mode     string `mapstructure:"MODE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// ApplicationName becomes the JWT issuer.
	ApplicationName string `mapstructure:"APPLICATION_NAME"`

	AccessUserSecret   string `mapstructure:"ACCESS_USER_TOKEN_SECRET"`
	RefreshUserSecret  string `mapstructure:"REFRESH_USER_TOKEN_SECRET"`
	AccessAdminSecret  string `mapstructure:"ACCESS_ADMIN_TOKEN_SECRET"`
	RefreshAdminSecret string `mapstructure:"REFRESH_ADMIN_TOKEN_SECRET"`
	// AccessExpiresIn and RefreshExpiresIn are token lifetimes in seconds.
	AccessExpiresIn  int `mapstructure:"ACCESS_EXPIRES_IN"`
	RefreshExpiresIn int `mapstructure:"REFRESH_EXPIRES_IN"`

	// PasswordAlgorithm is argon2id or bcrypt. Salt is the bcrypt cost.
	PasswordAlgorithm string `mapstructure:"PASSWORD_ALGORITHM"`
	Salt              int    `mapstructure:"SALT"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// RevocationBackend is redis or postgres.
	RevocationBackend string `mapstructure:"REVOCATION_BACKEND"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	// PurgeInterval controls how often expired Postgres ledger rows are removed.
	PurgeInterval string `mapstructure:"PURGE_INTERVAL"`

	// AccountBackend is memory or mongo.
	AccountBackend string `mapstructure:"ACCOUNT_BACKEND"`
	MongoURI       string `mapstructure:"MONGO_URI"`
	MongoDatabase  string `mapstructure:"MONGO_DATABASE"`

	// NotifyBackend is log, smtp or kafka.
	NotifyBackend string `mapstructure:"NOTIFY_BACKEND"`
	// Email and Password are the SMTP sender credentials.
	Email        string `mapstructure:"EMAIL"`
	Password     string `mapstructure:"PASSWORD"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	AuditEnabled   bool `mapstructure:"AUDIT_ENABLED"`
	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is ignored.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		_ = v.ReadInConfig()
	}

	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 5000)
	v.SetDefault("MODE", "DEV")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APPLICATION_NAME", "goSession")
	v.SetDefault("ACCESS_USER_TOKEN_SECRET", "")
	v.SetDefault("REFRESH_USER_TOKEN_SECRET", "")
	v.SetDefault("ACCESS_ADMIN_TOKEN_SECRET", "")
	v.SetDefault("REFRESH_ADMIN_TOKEN_SECRET", "")
	v.SetDefault("ACCESS_EXPIRES_IN", 900)
	v.SetDefault("REFRESH_EXPIRES_IN", 604800)
	v.SetDefault("PASSWORD_ALGORITHM", "argon2id")
	v.SetDefault("SALT", 12)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REVOCATION_BACKEND", BackendRedis)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("PURGE_INTERVAL", "1h")
	v.SetDefault("ACCOUNT_BACKEND", BackendMemory)
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "gosession")
	v.SetDefault("NOTIFY_BACKEND", BackendLog)
	v.SetDefault("EMAIL", "")
	v.SetDefault("PASSWORD", "")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "gosession.otp")
	v.SetDefault("AUDIT_ENABLED", false)
	v.SetDefault("METRICS_ENABLED", true)
}

func (c *Config) normalize() {
	c.Mode = strings.ToUpper(strings.TrimSpace(c.Mode))
	c.PasswordAlgorithm = strings.ToLower(strings.TrimSpace(c.PasswordAlgorithm))
	c.RevocationBackend = strings.ToLower(strings.TrimSpace(c.RevocationBackend))
	c.AccountBackend = strings.ToLower(strings.TrimSpace(c.AccountBackend))
	c.NotifyBackend = strings.ToLower(strings.TrimSpace(c.NotifyBackend))
}

// Validate checks presence and consistency of settings. Secret strength is
// checked later by goSession's Build.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("config: PORT must be between 1 and 65535")
	}
	if c.AccessUserSecret == "" || c.RefreshUserSecret == "" ||
		c.AccessAdminSecret == "" || c.RefreshAdminSecret == "" {
		return errors.New("config: all four *_TOKEN_SECRET variables must be set")
	}
	if c.AccessExpiresIn <= 0 || c.RefreshExpiresIn <= 0 {
		return errors.New("config: ACCESS_EXPIRES_IN and REFRESH_EXPIRES_IN must be > 0")
	}

	switch c.RevocationBackend {
	case BackendRedis:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL must be set when REVOCATION_BACKEND=postgres")
		}
		if _, err := time.ParseDuration(c.PurgeInterval); err != nil {
			return fmt.Errorf("config: PURGE_INTERVAL: %w", err)
		}
	default:
		return fmt.Errorf("config: unknown REVOCATION_BACKEND %q", c.RevocationBackend)
	}

	switch c.AccountBackend {
	case BackendMemory:
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("config: MONGO_URI must be set when ACCOUNT_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("config: unknown ACCOUNT_BACKEND %q", c.AccountBackend)
	}

	switch c.NotifyBackend {
	case BackendLog:
	case BackendSMTP:
		if c.Email == "" {
			return errors.New("config: EMAIL must be set when NOTIFY_BACKEND=smtp")
		}
	case BackendKafka:
		if len(c.KafkaBrokersList()) == 0 {
			return errors.New("config: KAFKA_BROKERS must be set when NOTIFY_BACKEND=kafka")
		}
	default:
		return fmt.Errorf("config: unknown NOTIFY_BACKEND %q", c.NotifyBackend)
	}

	return nil
}

// Production reports whether MODE selects production behaviour.
func (c *Config) Production() bool {
	return c.Mode == "PROD" || c.Mode == "PRODUCTION"
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// PurgeEvery parses PurgeInterval, defaulting to one hour.
func (c *Config) PurgeEvery() time.Duration {
	d, err := time.ParseDuration(c.PurgeInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// KafkaBrokersList returns broker addresses from the comma-separated setting.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Engine converts the loaded settings into an engine configuration,
// starting from goSession.DefaultConfig.
func (c *Config) Engine() goSession.Config {
	cfg := goSession.DefaultConfig()
	cfg.JWT.Issuer = c.ApplicationName
	cfg.JWT.AccessTTL = time.Duration(c.AccessExpiresIn) * time.Second
	cfg.JWT.RefreshTTL = time.Duration(c.RefreshExpiresIn) * time.Second
	cfg.Secrets = goSession.SecretsConfig{
		UserAccess:   []byte(c.AccessUserSecret),
		UserRefresh:  []byte(c.RefreshUserSecret),
		AdminAccess:  []byte(c.AccessAdminSecret),
		AdminRefresh: []byte(c.RefreshAdminSecret),
	}
	cfg.Password.Algorithm = c.PasswordAlgorithm
	if c.PasswordAlgorithm == "bcrypt" {
		cfg.Password.BcryptCost = c.Salt
	}
	cfg.Audit.Enabled = c.AuditEnabled
	cfg.Metrics.Enabled = c.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = c.MetricsEnabled
	return cfg
}
