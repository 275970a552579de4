package config

import "time"

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  Only GET requests whose path is listed in Paths are cached:
// catalog data changes rarely, while seat maps and bookings must always be
// read fresh.  Admin writes invalidate every entry under Prefix.
type CacheConfig struct {
    Enabled      bool
    Paths        map[string]bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* variables.  Defaults are used when
// variables are not set.
func LoadCacheConfig() CacheConfig {
    paths := map[string]bool{}
    for _, p := range envList("CACHE_PATHS", "/api/movies,/api/prices,/api/theatres") {
        paths[p] = true
    }
    c := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Paths:        paths,
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        Prefix:       envStr("CACHE_PREFIX", "cinemax:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if c.TTL <= 0 {
        c.TTL = time.Second
    }
    return c
}
