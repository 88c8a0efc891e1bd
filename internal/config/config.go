// Package config loads application configuration. Values come from an
// optional YAML file (MOVIEWEB_CONFIG, default movieweb.yaml) and are
// overridden by environment variables, which may themselves be read from
// a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendMySQL = "mysql"
	BackendJSON  = "json"
)

// Config holds all runtime configuration values.
type Config struct {
	Env      string `yaml:"env"`
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	StoreBackend string   `yaml:"store_backend"` // mysql or json
	DataFile     string   `yaml:"data_file"`     // json backend document
	DB           DBConfig `yaml:"db"`

	Lookup LookupConfig `yaml:"lookup"`

	JWTSecret    string `yaml:"jwt_secret"` // empty disables API auth
	AccessTTLMin int    `yaml:"access_token_ttl_min"`

	RabbitMQURL    string `yaml:"rabbitmq_url"` // empty disables activity events
	ActivityLogDir string `yaml:"activity_log_dir"`

	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type DBConfig struct {
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Name string `yaml:"name"`
}

type LookupConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	Rate     float64       `yaml:"rate"` // requests per second
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Env:          "dev",
		Port:         "5000",
		LogLevel:     "info",
		StoreBackend: BackendMySQL,
		DataFile:     "data/movies.json",
		DB: DBConfig{
			User: "root",
			Host: "127.0.0.1",
			Port: "3306",
			Name: "movieweb",
		},
		Lookup: LookupConfig{
			BaseURL:  "http://www.omdbapi.com/",
			Timeout:  10 * time.Second,
			Rate:     5,
			CacheTTL: 24 * time.Hour,
		},
		AccessTTLMin:   60,
		ActivityLogDir: "logs",
		Redis:          defaultRedisConfig(),
		RateLimit:      defaultRateLimitConfig(),
	}
}

// Load reads .env, the YAML file and the environment, in that order of
// increasing precedence, and validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	path := envStr("MOVIEWEB_CONFIG", "movieweb.yaml")
	if err := loadFile(path, &cfg); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	cfg.RateLimit.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile overlays the YAML file at path onto cfg. A missing file is not
// an error.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envStr("APP_ENV", cfg.Env)
	cfg.Port = envStr("APP_PORT", cfg.Port)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)

	cfg.StoreBackend = strings.ToLower(envStr("STORE_BACKEND", cfg.StoreBackend))
	cfg.DataFile = envStr("DATA_FILE", cfg.DataFile)
	cfg.DB.User = envStr("DB_USER", cfg.DB.User)
	cfg.DB.Pass = envStr("DB_PASS", cfg.DB.Pass)
	cfg.DB.Host = envStr("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = envStr("DB_PORT", cfg.DB.Port)
	cfg.DB.Name = envStr("DB_NAME", cfg.DB.Name)

	cfg.Lookup.BaseURL = envStr("OMDB_BASE_URL", cfg.Lookup.BaseURL)
	cfg.Lookup.APIKey = envStr("OMDB_API_KEY", cfg.Lookup.APIKey)
	cfg.Lookup.Timeout = envDur("LOOKUP_TIMEOUT", cfg.Lookup.Timeout)
	cfg.Lookup.Rate = envFloat("LOOKUP_RATE", cfg.Lookup.Rate)
	cfg.Lookup.CacheTTL = envDur("LOOKUP_CACHE_TTL", cfg.Lookup.CacheTTL)

	cfg.JWTSecret = envStr("JWT_SECRET", cfg.JWTSecret)
	cfg.AccessTTLMin = envInt("ACCESS_TOKEN_TTL_MIN", cfg.AccessTTLMin)

	cfg.RabbitMQURL = envStr("RABBITMQ_URL", envStr("AMQP_URL", cfg.RabbitMQURL))
	cfg.ActivityLogDir = envStr("ACTIVITY_LOG_DIR", cfg.ActivityLogDir)

	cfg.Redis.applyEnv()
	cfg.RateLimit.applyEnv()
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	var problems []string
	if c.Port == "" {
		problems = append(problems, "APP_PORT is empty")
	}
	switch c.StoreBackend {
	case BackendMySQL:
		if c.DB.User == "" || c.DB.Host == "" || c.DB.Port == "" || c.DB.Name == "" {
			problems = append(problems, "DB_USER, DB_HOST, DB_PORT and DB_NAME are required for the mysql backend")
		}
	case BackendJSON:
		if c.DataFile == "" {
			problems = append(problems, "DATA_FILE is required for the json backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.Lookup.Timeout <= 0 {
		problems = append(problems, "LOOKUP_TIMEOUT must be positive")
	}
	if c.JWTSecret != "" && c.AccessTTLMin <= 0 {
		problems = append(problems, "ACCESS_TOKEN_TTL_MIN must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
