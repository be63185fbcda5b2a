package config

import (
    "net/http"
    "strings"
    "time"
)

// IdempotencyConfig defines settings for the Idempotency-Key replay
// middleware on booking creation.  When Enabled is false or no Redis client
// is configured, requests pass through untouched.  Methods lists the HTTP
// methods that honour the header.  TTL bounds how long a stored response
// can be replayed.  Prefix namespaces Redis keys and MaxBodyBytes caps the
// size of a stored response.
type IdempotencyConfig struct {
    Enabled      bool
    Header       string
    Methods      map[string]bool
    TTL          time.Duration
    LockTTL      time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadIdempotencyConfig reads environment variables to build an
// IdempotencyConfig.  Defaults are used when variables are not set.
func LoadIdempotencyConfig() IdempotencyConfig {
    cfg := IdempotencyConfig{
        Enabled:      envBool("IDEMPOTENCY_ENABLED", true),
        Header:       envStr("IDEMPOTENCY_HEADER", "Idempotency-Key"),
        Methods:      parseMethods(envStr("IDEMPOTENCY_METHODS", http.MethodPost)),
        TTL:          envDur("IDEMPOTENCY_TTL", 24*time.Hour),
        LockTTL:      envDur("IDEMPOTENCY_LOCK_TTL", 30*time.Second),
        Prefix:       envStr("IDEMPOTENCY_PREFIX", "idem"),
        MaxBodyBytes: envInt("IDEMPOTENCY_MAX_BODY_BYTES", 64<<10),
    }
    if cfg.MaxBodyBytes < 1 {
        cfg.MaxBodyBytes = 64 << 10
    }
    if cfg.LockTTL <= 0 {
        cfg.LockTTL = 30 * time.Second
    }
    return cfg
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            m[p] = true
        }
    }
    return m
}
