package config

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig is read from REDIS_ADDR or REDIS_HOST/REDIS_PORT (the pair
// wins), REDIS_PASSWORD, REDIS_DB and REDIS_TLS.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

func LoadRedisConfig() RedisConfig {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
		addr = host + ":" + port
	}
	tlsEnv := envStr("REDIS_TLS", "")
	return RedisConfig{
		Addr:     addr,
		Password: envStr("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
		TLS:      strings.EqualFold(tlsEnv, "true") || tlsEnv == "1",
	}
}

// NewRedisClient connects and pings Redis. It returns nil when the server
// is unreachable; the cache and the rate limiter then degrade to
// pass-through.
func NewRedisClient(rc RedisConfig, log *zap.Logger) *redis.Client {
	var tlsConf *tls.Config
	if rc.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      rc.Addr,
		Password:  rc.Password,
		DB:        rc.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, cache and rate limiting disabled", zap.String("addr", rc.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
