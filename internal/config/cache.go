package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/event-ticketing-admin/internal/cache"
)

// CacheConfig controls the read-through event cache. When Enabled is false
// or Redis is unreachable the cache runs in pass-through mode.
type CacheConfig struct {
	Enabled bool
	TTLs    cache.TTLs
}

// LoadCacheConfig reads CACHE_* variables. TTLs accept Go durations
// ("10m") or plain seconds ("600").
func LoadCacheConfig() CacheConfig {
	def := cache.DefaultTTLs()
	return CacheConfig{
		Enabled: envBool("CACHE_ENABLED", true),
		TTLs: cache.TTLs{
			Full:    parseTTL(os.Getenv("CACHE_TTL_EVENT"), def.Full),
			Tickets: parseTTL(os.Getenv("CACHE_TTL_TICKETS"), def.Tickets),
			List:    parseTTL(os.Getenv("CACHE_TTL_LIST"), def.List),
			Popular: parseTTL(os.Getenv("CACHE_TTL_POPULAR"), def.Popular),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseTTL(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
