// Package config loads application configuration from environment
// variables. main loads a .env file first when one is present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // APP_ENV: dev, test or prod
	Port           string // APP_PORT
	DBUser         string
	DBPass         string // may be empty
	DBHost         string
	DBPort         string
	DBName         string
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int

	Catalog CatalogConfig
	Webhook WebhookConfig
	Admin   AdminConfig
	Cache   CacheConfig
	Redis   RedisConfig
	Limit   RateLimitConfig

	RabbitURL   string // RABBITMQ_URL; empty disables publishing
	OrderLogDir string // ORDER_LOG_DIR; where the order consumer appends
}

// CatalogConfig points the gateway at the remote GraphQL catalog.
type CatalogConfig struct {
	Endpoint    string
	AccessToken string
	LocationID  string
	Timeout     time.Duration
}

// WebhookConfig holds the shared signing secret. An empty secret makes the
// webhook endpoint refuse every delivery.
type WebhookConfig struct {
	Secret string
}

// AdminConfig seeds the first admin account at start-up when set.
type AdminConfig struct {
	Email    string
	Password string
}

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool { return c.Env == "dev" || c.Env == "development" }

// Load reads the environment. Every missing or malformed required variable
// is reported in the returned error.
func Load() (Config, error) {
	var l loader
	cfg := Config{
		Env:            l.must("APP_ENV"),
		Port:           getenv("APP_PORT", "8080"),
		DBUser:         l.must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         l.must("DB_HOST"),
		DBPort:         getenv("DB_PORT", "3306"),
		DBName:         l.must("DB_NAME"),
		JWTSecret:      l.must("JWT_SECRET"),
		AccessTTLMin:   l.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: l.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     envInt("BCRYPT_COST", 12),
		Catalog: CatalogConfig{
			Endpoint:    l.must("CATALOG_GRAPHQL_URL"),
			AccessToken: l.must("CATALOG_ACCESS_TOKEN"),
			LocationID:  os.Getenv("CATALOG_LOCATION_ID"),
			Timeout:     envDur("CATALOG_TIMEOUT", 30*time.Second),
		},
		Webhook: WebhookConfig{Secret: os.Getenv("WEBHOOK_SECRET")},
		Admin: AdminConfig{
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		Cache:       LoadCacheConfig(),
		Redis:       LoadRedisConfig(),
		Limit:       LoadRateLimitConfig(),
		RabbitURL:   os.Getenv("RABBITMQ_URL"),
		OrderLogDir: getenv("ORDER_LOG_DIR", "logs"),
	}
	if cfg.AccessTTLMin < 0 || cfg.RefreshTTLDays < 0 {
		l.errs = append(l.errs, errors.New("token TTLs must not be negative"))
	}
	return cfg, errors.Join(l.errs...)
}

// loader collects problems so that one start-up reports all of them.
type loader struct{ errs []error }

// must retrieves a required variable.
func (l *loader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		l.errs = append(l.errs, fmt.Errorf("missing required env var: %s", key))
	}
	return v
}

// mustInt is like must but converts the value to an integer.
func (l *loader) mustInt(key string) int {
	s := l.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid int for %s: %q", key, s))
	}
	return n
}
