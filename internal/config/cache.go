package config

import "time"

// CacheConfig defines settings for the public read cache (report list, map
// and contacts). When Enabled is false or no Redis client is configured,
// caching is disabled. Entries are purged on every report mutation, so TTL
// only bounds staleness caused by writes from another instance.
// KeyStrategy is "path" or "path_query" (default).
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      envSet("CACHE_METHODS", "GET,HEAD"),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "path_query"),
		Prefix:       envStr("CACHE_PREFIX", "agri:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 2<<20),
	}
}
