package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestLoadSeedConfig(t *testing.T) {
    t.Setenv("SEED_FROM", "2025-12-01")
    t.Setenv("SEED_DAYS", "0")
    t.Setenv("SEED_ENABLED", "off")

    c := LoadSeedConfig()
    assert.False(t, c.Enabled)
    assert.Equal(t, 1, c.Days)
    assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), c.From)
    assert.Equal(t, "admin1234", c.AdminPassword)
}

func TestRateLimitNormalize(t *testing.T) {
    c := RateLimitConfig{Capacity: 0, AuthCapacity: 50, RefillInterval: 0, TTL: time.Second}.normalize()
    assert.Equal(t, 1, c.Capacity)
    assert.Equal(t, 1, c.AuthCapacity)
    assert.Equal(t, 1, c.RefillTokens)
    assert.Equal(t, time.Second, c.RefillInterval)
    assert.Equal(t, 5*time.Second, c.TTL)
}

func TestLoadCacheConfigPaths(t *testing.T) {
    t.Setenv("CACHE_PATHS", "/api/movies, ,/api/prices")
    c := LoadCacheConfig()
    assert.True(t, c.Paths["/api/movies"])
    assert.True(t, c.Paths["/api/prices"])
    assert.False(t, c.Paths["/api/seats/1"])
    assert.Len(t, c.Paths, 2)
}

func TestLoadRedisConfigHostPort(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache:6379")
    t.Setenv("REDIS_HOST", "redis")
    t.Setenv("REDIS_PORT", "6380")
    assert.Equal(t, "redis:6380", LoadRedisConfig().Addr)
}
