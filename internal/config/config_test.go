package config

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":                "test",
		"DB_USER":                "app",
		"DB_HOST":                "localhost",
		"DB_NAME":                "events",
		"JWT_SECRET":             "jwt",
		"ACCESS_TOKEN_TTL_MIN":   "15",
		"REFRESH_TOKEN_TTL_DAYS": "7",
		"CATALOG_GRAPHQL_URL":    "https://shop.example/admin/api/2024-10/graphql.json",
		"CATALOG_ACCESS_TOKEN":   "shpat_x",
	} {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	setRequired(t)
	t.Setenv("WEBHOOK_SECRET", "whsec")
	t.Setenv("CATALOG_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, 5*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "whsec", cfg.Webhook.Secret)
	assert.False(t, cfg.IsDev())
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CATALOG_ACCESS_TOKEN", "")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "JWT_SECRET")
	assert.ErrorContains(t, err, "CATALOG_ACCESS_TOKEN")
	assert.ErrorContains(t, err, `invalid int for ACCESS_TOKEN_TTL_MIN: "soon"`)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_TTL_EVENT", "120")
	t.Setenv("CACHE_TTL_LIST", "2m")
	t.Setenv("CACHE_TTL_POPULAR", "garbage")
	t.Setenv("CACHE_ENABLED", "off")

	c := LoadCacheConfig()
	assert.False(t, c.Enabled)
	assert.Equal(t, 120*time.Second, c.TTLs.Full)
	assert.Equal(t, 600*time.Second, c.TTLs.Tickets)
	assert.Equal(t, 2*time.Minute, c.TTLs.List)
	assert.Equal(t, 600*time.Second, c.TTLs.Popular)
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 10*time.Second, c.TTL)
	assert.Equal(t, "rl", c.Prefix)
}

func TestRedis(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	assert.Equal(t, "cache:6380", LoadRedisConfig().Addr)
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	assert.Equal(t, "redis:6379", LoadRedisConfig().Addr)

}

func TestNewRedisClient_DegradesWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client := NewRedisClient(RedisConfig{Addr: addr}, zap.NewNop())
	require.NotNil(t, client)
	_ = client.Close()

	// nothing listens on the address once the server is gone
	mr.Close()
	assert.Nil(t, NewRedisClient(RedisConfig{Addr: addr}, zap.NewNop()))
}
