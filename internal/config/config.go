package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	//App
	Env string // dev / staging / prod
	//HTTP
	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	AllowedOrigins   []string
	TrustedProxies   []string // CIDRs or addresses of the ingress proxies

	// Storage
	Store         string // postgres | memory
	DBAddr        string
	DBDebug       bool
	DBMigrate     bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Messaging
	RabbitURL      string
	RabbitExchange string

	// Security
	SecretKey  string
	BcryptCost int
	SessionTTL time.Duration

	// Password reset links
	PasswordResetBaseURL  string
	PasswordResetTokenTTL time.Duration

	// Dev bootstrap superuser (optional)
	SeedSuperuserEmail    string
	SeedSuperuserPassword string

	RateLimitEnabled bool
}

// SecureCookies is true outside dev; it switches cookies to __Host- names.
func (c *Config) SecureCookies() bool { return c.Env != "dev" }

// Load reads the environment. A .env file in the working directory is
// loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                   getEnv("ENV", "dev"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		Store:                 strings.ToLower(getEnv("STORE", StorePostgres)),
		DBAddr:                os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RabbitURL:             os.Getenv("RABBIT_URL"),
		RabbitExchange:        getEnv("RABBIT_EXCHANGE", "city.events"),
		PasswordResetBaseURL:  getEnv("PASSWORD_RESET_BASE_URL", "http://localhost:8080"),
		SeedSuperuserEmail:    os.Getenv("SEED_SUPERUSER_EMAIL"),
		SeedSuperuserPassword: os.Getenv("SEED_SUPERUSER_PASSWORD"),
		AllowedOrigins:        splitList(os.Getenv("ALLOWED_ORIGINS")),
		TrustedProxies:        splitList(os.Getenv("TRUSTED_PROXIES")),
	}

	// required values
	cfg.SecretKey = os.Getenv("SECRET_KEY")
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("missing required env var: SECRET_KEY")
	}

	var err error
	if cfg.DBDebug, err = getBool("DB_DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.DBMigrate, err = getBool("DB_MIGRATE", true); err != nil {
		return nil, err
	}
	if cfg.RateLimitEnabled, err = getBool("RL_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 12); err != nil {
		return nil, err
	}

	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 14*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.PasswordResetTokenTTL, err = getDuration("PASSWORD_RESET_TOKEN_TTL", 72*time.Hour); err != nil {
		return nil, err
	}
	if cfg.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}

	switch cfg.Store {
	case StorePostgres:
		if cfg.DBAddr == "" {
			return nil, fmt.Errorf("missing required env var: DATABASE_URL (STORE=postgres)")
		}
		if err := validatePostgresDSN(cfg.DBAddr); err != nil {
			return nil, err
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("invalid STORE %q: want postgres or memory", cfg.Store)
	}

	if _, err := url.ParseRequestURI(cfg.PasswordResetBaseURL); err != nil {
		return nil, fmt.Errorf("invalid PASSWORD_RESET_BASE_URL: %w", err)
	}

	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:8080", "http://127.0.0.1:8080"}
	}

	return cfg, nil
}

func validatePostgresDSN(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("invalid DATABASE_URL scheme %q", u.Scheme)
	}
	if strings.Trim(u.Path, "/") == "" {
		return errors.New("invalid DATABASE_URL: missing database name")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
