package config

import "time"

// RateLimitConfig configures the token bucket guarding booking creation.
// Buckets live in Redis so every server process shares them; when Redis
// is unavailable an in-process limiter with the same capacity and refill
// rate is used instead.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int           // bucket size, i.e. the burst of bookings allowed
    RefillTokens   int           // tokens added per RefillInterval
    RefillInterval time.Duration
    TTL            time.Duration // idle buckets expire after this
    KeyStrategy    string        // "user", "ip", "ip_user" or "user_route"
    Prefix         string
}

// TokenInterval is the time it takes to earn back a single token.
func (c RateLimitConfig) TokenInterval() time.Duration {
    if c.RefillTokens < 1 {
        return c.RefillInterval
    }
    return c.RefillInterval / time.Duration(c.RefillTokens)
}

// LoadRateLimitConfig reads RATE_LIMIT_*. The defaults let a student
// create ten bookings in a burst and one more every six seconds.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "user_route"),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "campus:rl"),
    }
    cfg.Capacity = max(cfg.Capacity, 1)
    cfg.RefillTokens = max(cfg.RefillTokens, 1)
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    // a bucket must outlive a full refill or it resets to full early
    cfg.TTL = max(cfg.TTL, 5*cfg.RefillInterval)
    return cfg
}
