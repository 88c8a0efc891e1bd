package config

import "time"

type RateLimitConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Capacity       int           `yaml:"capacity"`
	RefillTokens   int           `yaml:"refill_tokens"`
	RefillInterval time.Duration `yaml:"refill_interval"`
	TTL            time.Duration `yaml:"ttl"`
	KeyStrategy    string        `yaml:"key_strategy"`
	Prefix         string        `yaml:"prefix"`
}

func defaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        true,
		Capacity:       60,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_user",
		Prefix:         "rl",
	}
}

func (r *RateLimitConfig) applyEnv() {
	r.Enabled = envBool("RATE_LIMIT_ENABLED", r.Enabled)
	r.Capacity = envInt("RATE_LIMIT_CAPACITY", r.Capacity)
	r.RefillTokens = envInt("RATE_LIMIT_REFILL_TOKENS", r.RefillTokens)
	r.RefillInterval = envDur("RATE_LIMIT_REFILL_INTERVAL", r.RefillInterval)
	r.TTL = envDur("RATE_LIMIT_TTL", r.TTL)
	r.KeyStrategy = envStr("RATE_LIMIT_KEY_STRATEGY", r.KeyStrategy)
	r.Prefix = envStr("RATE_LIMIT_PREFIX", r.Prefix)
	if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		r.RefillTokens = 1
		r.RefillInterval = every
	}
}

// normalize clamps values the token bucket cannot work with.
func (r *RateLimitConfig) normalize() {
	if r.Capacity < 1 {
		r.Capacity = 1
	}
	if r.RefillTokens < 1 {
		r.RefillTokens = 1
	}
	if r.RefillInterval <= 0 {
		r.RefillInterval = time.Second
	}
	if minTTL := 5 * r.RefillInterval; r.TTL < minTTL {
		r.TTL = minTTL
	}
	if r.Prefix == "" {
		r.Prefix = "rl"
	}
}
