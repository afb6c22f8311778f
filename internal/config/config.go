package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultJWTSecret = "dev_secret_change_me"
	DefaultAdminUser = "admin"
	DefaultAdminPass = "admin123"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Auth        AuthConfig                `json:"auth"`
	Checkout    CheckoutConfig            `json:"checkout"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
}

type BasicConfig struct {
	ServerAddress   string `json:"server_address"`
	Storage         string `json:"storage"`
	DataFile        string `json:"data_file"`
	UploadDir       string `json:"upload_dir"`
	LogLevel        string `json:"log_level"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds"`
	SeedOnInit      *bool  `json:"seed_on_init"`
}

type AuthConfig struct {
	JWTSecret       string `json:"jwt_secret"`
	AdminUser       string `json:"admin_user"`
	AdminPass       string `json:"admin_pass"`
	TokenTTLMinutes int    `json:"token_ttl_minutes"`
}

type CheckoutConfig struct {
	StripeSecretKey string `json:"stripe_secret_key"`
	StripeAPIURL    string `json:"stripe_api_url"`
	Currency        string `json:"currency"`
	UnitAmount      int64  `json:"unit_amount"`
	SuccessURL      string `json:"success_url"`
	CancelURL       string `json:"cancel_url"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Load reads configuration from the provided path (defaults to config.json),
// applies environment overrides and fills defaults. A missing default file is
// not an error; an explicitly named one is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	var cfg Config
	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	baseDir := filepath.Dir(absPath)
	cfg.BasicConfig.DataFile = resolvePath(baseDir, cfg.BasicConfig.DataFile)
	cfg.BasicConfig.UploadDir = resolvePath(baseDir, cfg.BasicConfig.UploadDir)
	if sqlite, ok := cfg.Databases["sqlite3"]; ok && sqlite.DSN != "" && !strings.HasPrefix(sqlite.DSN, ":memory:") && !strings.HasPrefix(sqlite.DSN, "file:") {
		sqlite.DSN = resolvePath(baseDir, sqlite.DSN)
		cfg.Databases["sqlite3"] = sqlite
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration the server cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Checkout.StripeSecretKey) == "" {
		return errors.New("stripe_secret_key must be configured (STRIPE_SECRET_KEY)")
	}
	switch c.BasicConfig.Storage {
	case "json", "sqlite3", "mysql":
	default:
		return fmt.Errorf("unsupported storage %q", c.BasicConfig.Storage)
	}
	if c.BasicConfig.Storage != "json" {
		if _, ok := c.Databases[c.BasicConfig.Storage]; !ok {
			return fmt.Errorf("database config for %s not found", c.BasicConfig.Storage)
		}
	}
	if c.Checkout.UnitAmount <= 0 {
		return errors.New("checkout unit_amount must be positive")
	}
	return nil
}

// UsesDefaultCredentials reports whether the development secret or admin
// credentials are still in effect.
func (c *Config) UsesDefaultCredentials() bool {
	return c.Auth.JWTSecret == DefaultJWTSecret ||
		(c.Auth.AdminUser == DefaultAdminUser && c.Auth.AdminPass == DefaultAdminPass)
}

// ShouldSeed reports whether a freshly created data file gets sample records.
func (c *Config) ShouldSeed() bool {
	return c.BasicConfig.SeedOnInit == nil || *c.BasicConfig.SeedOnInit
}

func applyEnv(cfg *Config) error {
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.BasicConfig.ServerAddress = ":" + port
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("ADMIN_USER"); v != "" {
		cfg.Auth.AdminUser = v
	}
	if v := os.Getenv("ADMIN_PASS"); v != "" {
		cfg.Auth.AdminPass = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		cfg.Checkout.StripeSecretKey = v
	}
	if v := os.Getenv("BOOKINGGO_STORAGE"); v != "" {
		cfg.BasicConfig.Storage = strings.ToLower(v)
	}
	if v := os.Getenv("BOOKINGGO_LOG_LEVEL"); v != "" {
		cfg.BasicConfig.LogLevel = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	b := &cfg.BasicConfig
	if b.ServerAddress == "" {
		b.ServerAddress = ":3500"
	}
	if b.Storage == "" {
		b.Storage = "json"
	}
	b.Storage = strings.ToLower(b.Storage)
	if b.Storage == "sqlite" {
		b.Storage = "sqlite3"
	}
	if b.DataFile == "" {
		b.DataFile = "db.json"
	}
	if b.UploadDir == "" {
		b.UploadDir = "uploads"
	}
	if b.LogLevel == "" {
		b.LogLevel = "info"
	}
	if b.CacheTTLSeconds <= 0 {
		b.CacheTTLSeconds = 60
	}

	a := &cfg.Auth
	if a.JWTSecret == "" {
		a.JWTSecret = DefaultJWTSecret
	}
	if a.AdminUser == "" {
		a.AdminUser = DefaultAdminUser
	}
	if a.AdminPass == "" {
		a.AdminPass = DefaultAdminPass
	}
	if a.TokenTTLMinutes <= 0 {
		a.TokenTTLMinutes = 4 * 60
	}

	ch := &cfg.Checkout
	if ch.Currency == "" {
		ch.Currency = "cad"
	}
	if ch.UnitAmount == 0 {
		ch.UnitAmount = 2500
	}
	if ch.SuccessURL == "" {
		ch.SuccessURL = "http://localhost:5173/success?session_id={CHECKOUT_SESSION_ID}"
	}
	if ch.CancelURL == "" {
		ch.CancelURL = "http://localhost:5173/cancel"
	}

	if cfg.Databases == nil {
		cfg.Databases = make(map[string]DatabaseConfig)
	}
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
