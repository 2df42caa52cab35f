// Package config loads portal configuration from an optional YAML file and
// SNT_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SNT"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Session     SessionConfig     `mapstructure:"session"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
	QA          QAConfig          `mapstructure:"qa"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// SecureCookies sets the Secure flag; enable behind HTTPS.
	SecureCookies bool `mapstructure:"secure_cookies"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

const (
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
)

type SessionConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig selects the zap encoder. An empty Format picks console on
// a terminal and json otherwise.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type RateLimiterConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// QAConfig controls the diagnostics toolkit. Stage and role override
// cookies are honoured only while Enabled is true.
type QAConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	Workers        int           `mapstructure:"workers"`
	MaxPages       int           `mapstructure:"max_pages"`
	MaxHops        int           `mapstructure:"max_hops"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// RequestsPerSecond throttles QA clients; zero disables the throttle.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	ExpectationsFile  string  `mapstructure:"expectations_file"`
}

// Load reads configPath (or ./config.yaml when empty and present), then
// environment variables such as SNT_SERVER_PORT. SNT_DB overrides the
// database path.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if p := os.Getenv("SNT_DB"); p != "" {
		cfg.Database.Path = p
	}
	if cfg.QA.BaseURL == "" {
		cfg.QA.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "snt.db"
	}
	return filepath.Join(home, ".snt", "snt.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.secure_cookies", false)

	v.SetDefault("database.path", defaultDBPath())

	v.SetDefault("session.backend", SessionBackendSQLite)
	v.SetDefault("session.ttl", "720h")
	v.SetDefault("session.redis.addr", "localhost:6379")
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("rate_limiter.enabled", true)
	v.SetDefault("rate_limiter.requests_per_second", 20.0)
	v.SetDefault("rate_limiter.burst_size", 40)

	v.SetDefault("qa.enabled", false)
	v.SetDefault("qa.base_url", "")
	v.SetDefault("qa.workers", 4)
	v.SetDefault("qa.max_pages", 200)
	v.SetDefault("qa.max_hops", 5)
	v.SetDefault("qa.request_timeout", "10s")
	v.SetDefault("qa.requests_per_second", 15.0)
	v.SetDefault("qa.expectations_file", "")
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	switch c.Session.Backend {
	case SessionBackendSQLite:
	case SessionBackendRedis:
		if c.Session.Redis.Addr == "" {
			return fmt.Errorf("session.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	if c.RateLimiter.Enabled {
		if c.RateLimiter.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limiter requests per second must be positive")
		}
		if c.RateLimiter.BurstSize <= 0 {
			return fmt.Errorf("rate limiter burst size must be positive")
		}
	}
	if c.QA.Workers <= 0 {
		return fmt.Errorf("qa workers must be positive")
	}
	if c.QA.MaxHops <= 0 || c.QA.MaxPages <= 0 {
		return fmt.Errorf("qa max_hops and max_pages must be positive")
	}
	if c.QA.RequestsPerSecond < 0 {
		return fmt.Errorf("qa requests per second cannot be negative")
	}
	return nil
}
