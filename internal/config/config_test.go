package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "JWT_SECRET", "ADMIN_USER", "ADMIN_PASS", "STRIPE_SECRET_KEY", "BOOKINGGO_STORAGE", "BOOKINGGO_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

// chdir is a Go 1.21-compatible stand-in for testing.T.Chdir (added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsFromEnvOnly(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":3500", cfg.BasicConfig.ServerAddress)
	require.Equal(t, "json", cfg.BasicConfig.Storage)
	require.True(t, filepath.IsAbs(cfg.BasicConfig.DataFile))
	require.Equal(t, "db.json", filepath.Base(cfg.BasicConfig.DataFile))
	require.Equal(t, "uploads", filepath.Base(cfg.BasicConfig.UploadDir))
	require.Equal(t, DefaultJWTSecret, cfg.Auth.JWTSecret)
	require.Equal(t, 240, cfg.Auth.TokenTTLMinutes)
	require.Equal(t, "cad", cfg.Checkout.Currency)
	require.Equal(t, int64(2500), cfg.Checkout.UnitAmount)
	require.True(t, cfg.UsesDefaultCredentials())
	require.True(t, cfg.ShouldSeed())
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `{
		"basic_config": {"server_address": ":9000", "data_file": "data/db.json", "seed_on_init": false},
		"auth": {"jwt_secret": "from-file", "admin_user": "ops", "admin_pass": "hunter2"},
		"checkout": {"stripe_secret_key": "sk_file", "unit_amount": 1000},
		"databases": {"sqlite3": {"dsn": "bookinggo.db"}}
	}`)
	t.Setenv("PORT", "4100")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("BOOKINGGO_STORAGE", "SQLITE3")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":4100", cfg.BasicConfig.ServerAddress)
	require.Equal(t, "from-env", cfg.Auth.JWTSecret)
	require.Equal(t, "ops", cfg.Auth.AdminUser)
	require.Equal(t, "sqlite3", cfg.BasicConfig.Storage)
	require.Equal(t, int64(1000), cfg.Checkout.UnitAmount)
	require.Equal(t, filepath.Join(filepath.Dir(path), "data", "db.json"), cfg.BasicConfig.DataFile)
	require.Equal(t, filepath.Join(filepath.Dir(path), "bookinggo.db"), cfg.Databases["sqlite3"].DSN)
	require.False(t, cfg.UsesDefaultCredentials())
	require.False(t, cfg.ShouldSeed())
}

func TestLoadRequiresStripeKey(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, `{}`))
	require.ErrorContains(t, err, "STRIPE_SECRET_KEY")
}

func TestLoadRejectsBadInput(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{not json`))
	require.Error(t, err)

	t.Setenv("PORT", "http")
	_, err = Load(writeConfig(t, `{}`))
	require.ErrorContains(t, err, "PORT")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BasicConfig: BasicConfig{Storage: "json"},
			Checkout:    CheckoutConfig{StripeSecretKey: "sk", UnitAmount: 2500},
		}
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.BasicConfig.Storage = "postgres"
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.BasicConfig.Storage = "mysql"
	require.ErrorContains(t, cfg.Validate(), "mysql")
	cfg.Databases = map[string]DatabaseConfig{"mysql": {Host: "db"}}
	require.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Checkout.UnitAmount = -1
	require.Error(t, cfg.Validate())
}
