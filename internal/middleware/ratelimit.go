package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movieweb/internal/config"
)

// tokenBucket refills KEYS[1] by whole intervals, then takes one token.
// ARGV: now_ms, capacity, refill, interval_ms, ttl_s.
// It returns {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local now, cap, refill, every, ttl =
  tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local h = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill_ms')
local left, at = tonumber(h[1]) or cap, tonumber(h[2]) or now

if every > 0 and refill > 0 and now > at then
  local n = math.floor((now - at) / every)
  left = math.min(cap, left + n * refill)
  at = at + n * every
end

local ok, wait = 0, 0
if left >= 1 then
  ok, left = 1, left - 1
else
  wait = math.max(0, every - (now - at))
end

redis.call('HSET', KEYS[1], 'tokens', left, 'last_refill_ms', at)
redis.call('EXPIRE', KEYS[1], ttl)
return { ok, left, wait }
`)

// NewTokenBucket limits requests per key with a Redis token bucket. It
// is a pass-through when disabled or when rdb is nil. Redis errors let
// the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, logger *logrus.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			vals, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(), int64(cfg.TTL/time.Second),
			).Int64Slice()
			if err != nil || len(vals) != 3 {
				logger.WithError(err).WithField("key", key).Warn("rate limit check skipped")
				return next(c)
			}
			allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if allowed {
				return next(c)
			}

			secs := int(math.Ceil(float64(retryMs) / 1000))
			h.Set("Retry-After", strconv.Itoa(secs))
			logger.WithFields(logrus.Fields{"key": key, "retry_ms": retryMs}).Info("rate limited")
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}

// keyParts lists, per strategy, which request attributes make up the
// bucket key. Unknown strategies fall back to ip_user.
var keyParts = map[string][]string{
	"ip":            {"ip"},
	"user":          {"user"},
	"route":         {"route"},
	"ip_route":      {"ip", "route"},
	"ip_user":       {"ip", "user"},
	"ip_user_route": {"ip", "user", "route"},
}

func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	fields, ok := keyParts[strings.ToLower(cfg.KeyStrategy)]
	if !ok {
		fields = keyParts["ip_user"]
	}
	key := []string{cfg.Prefix}
	for _, f := range fields {
		var v string
		switch f {
		case "ip":
			if v = c.RealIP(); v == "" {
				v = "unknown"
			}
		case "user":
			v = subject(c)
		case "route":
			v = c.Request().Method + " " + c.Path()
		}
		key = append(key, f, v)
	}
	return strings.Join(key, ":")
}
