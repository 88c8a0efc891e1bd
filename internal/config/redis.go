package config

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisConfig locates the Redis server backing the lookup cache and the
// rate limiter. Addr wins over Host and Port when both are set.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

func defaultRedisConfig() RedisConfig {
	return RedisConfig{Enabled: true, Addr: "localhost:6379"}
}

func (r *RedisConfig) applyEnv() {
	r.Enabled = envBool("REDIS_ENABLED", r.Enabled)
	r.Addr = envStr("REDIS_ADDR", r.Addr)
	r.Host = envStr("REDIS_HOST", r.Host)
	r.Port = envStr("REDIS_PORT", r.Port)
	r.Password = envStr("REDIS_PASSWORD", r.Password)
	r.DB = envInt("REDIS_DB", r.DB)
	r.TLS = envBool("REDIS_TLS", r.TLS)
}

// Address resolves the host:port to dial.
func (r RedisConfig) Address() string {
	if r.Host != "" && r.Port != "" {
		return r.Host + ":" + r.Port
	}
	if r.Addr != "" {
		return r.Addr
	}
	return "localhost:6379"
}

// NewRedisClient connects to Redis and pings it with a short timeout. It
// returns nil when Redis is disabled or unreachable; callers then run
// without caching and rate limiting.
func NewRedisClient(cfg RedisConfig, logger *logrus.Logger) *redis.Client {
	if !cfg.Enabled {
		return nil
	}
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Address(),
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if logger != nil {
			logger.WithError(err).WithField("addr", cfg.Address()).Warn("redis unavailable, cache and rate limiting disabled")
		}
		_ = client.Close()
		return nil
	}
	return client
}
