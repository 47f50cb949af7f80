package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_USER_TOKEN_SECRET", "env-user-access-0123456789abcdef012")
	t.Setenv("REFRESH_USER_TOKEN_SECRET", "env-user-refresh-0123456789abcdef012")
	t.Setenv("ACCESS_ADMIN_TOKEN_SECRET", "env-admin-access-0123456789abcdef012")
	t.Setenv("REFRESH_ADMIN_TOKEN_SECRET", "env-admin-refresh-0123456789abcdef012")
}

func TestLoadDefaults(t *testing.T) {
	setSecrets(t)

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, "DEV", cfg.Mode)
	assert.False(t, cfg.Production())
	assert.Equal(t, BackendRedis, cfg.RevocationBackend)
	assert.Equal(t, BackendMemory, cfg.AccountBackend)
	assert.Equal(t, BackendLog, cfg.NotifyBackend)
	assert.Equal(t, time.Hour, cfg.PurgeEvery())

	engineCfg := cfg.Engine()
	assert.Equal(t, 15*time.Minute, engineCfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, engineCfg.JWT.RefreshTTL)
	assert.Equal(t, "goSession", engineCfg.JWT.Issuer)
	assert.Equal(t, []byte("env-user-access-0123456789abcdef012"), engineCfg.Secrets.UserAccess)
	assert.NoError(t, engineCfg.Validate())
}

func TestLoadFromDotEnvWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "PORT=8081\n" +
		"MODE=prod\n" +
		"ACCESS_EXPIRES_IN=60\n" +
		"PASSWORD_ALGORITHM=bcrypt\n" +
		"SALT=10\n" +
		"ACCESS_USER_TOKEN_SECRET=file-user-access-0123456789abcdef\n" +
		"REFRESH_USER_TOKEN_SECRET=file-user-refresh-0123456789abcdef\n" +
		"ACCESS_ADMIN_TOKEN_SECRET=file-admin-access-0123456789abcdef\n" +
		"REFRESH_ADMIN_TOKEN_SECRET=file-admin-refresh-0123456789abcdef\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("PORT", "9090")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port, "env must override .env")
	assert.True(t, cfg.Production())
	assert.Equal(t, "file-user-access-0123456789abcdef", cfg.AccessUserSecret)

	engineCfg := cfg.Engine()
	assert.Equal(t, time.Minute, engineCfg.JWT.AccessTTL)
	assert.Equal(t, "bcrypt", engineCfg.Password.Algorithm)
	assert.Equal(t, 10, engineCfg.Password.BcryptCost)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":       {"ACCESS_ADMIN_TOKEN_SECRET": ""},
		"postgres without dsn": {"REVOCATION_BACKEND": "postgres"},
		"mongo without uri":    {"ACCOUNT_BACKEND": "mongo"},
		"kafka without broker": {"NOTIFY_BACKEND": "kafka"},
		"smtp without email":   {"NOTIFY_BACKEND": "smtp"},
		"unknown backend":      {"ACCOUNT_BACKEND": "dynamo"},
		"bad port":             {"PORT": "70000"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setSecrets(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadFile("")
			assert.Error(t, err)
		})
	}
}

func TestKafkaBrokersList(t *testing.T) {
	cfg := &Config{KafkaBrokers: " a:9092, ,b:9092 "}
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokersList())

	var nilCfg *Config
	assert.Nil(t, nilCfg.KafkaBrokersList())
}
