// Package config loads the settings of the redis-omx services from YAML and
// the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Redis  RedisConfig  `yaml:"redis"`
	Log    LogConfig    `yaml:"log"`
	Search SearchConfig `yaml:"search"`
}

// RedisConfig configures the connection to Redis Stack.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username,omitempty"`
	Password     string        `yaml:"password,omitempty"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// SearchConfig configures result paging.
type SearchConfig struct {
	// PageSize is the number of hits fetched per page when returning all results.
	PageSize int `yaml:"page_size"`

	// PageRate caps pages per second when returning all results. Zero disables pacing.
	PageRate float64 `yaml:"page_rate"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Search: SearchConfig{
			PageSize: 10,
		},
	}
}

// Load reads a YAML file over the defaults, applies environment overrides and
// validates the result. An empty path loads the defaults.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without validating.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	return cfg, nil
}

// applyEnv overrides settings from environment variables named
// REDIS_OMX_<SECTION>_<KEY>, e.g. REDIS_OMX_REDIS_ADDR.
func (c *Config) applyEnv() error {
	if val := os.Getenv("REDIS_OMX_REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_OMX_REDIS_USERNAME"); val != "" {
		c.Redis.Username = val
	}
	if val := os.Getenv("REDIS_OMX_REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("REDIS_OMX_REDIS_DB"); val != "" {
		db, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("REDIS_OMX_REDIS_DB must be an integer, got %q", val)
		}
		c.Redis.DB = db
	}
	if val := os.Getenv("REDIS_OMX_LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("REDIS_OMX_SEARCH_PAGE_SIZE"); val != "" {
		size, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("REDIS_OMX_SEARCH_PAGE_SIZE must be an integer, got %q", val)
		}
		c.Search.PageSize = size
	}
	return nil
}

// Validate checks the configuration for values the services cannot start with.
func (c *Config) Validate() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Redis.DB < 0 || c.Redis.DB > 15 {
		return fmt.Errorf("redis.db must be between 0 and 15, got: %d", c.Redis.DB)
	}
	if c.Redis.PoolSize <= 0 {
		return fmt.Errorf("redis.pool_size must be greater than 0, got: %d", c.Redis.PoolSize)
	}
	if c.Redis.MinIdleConns < 0 {
		return fmt.Errorf("redis.min_idle_conns must be non-negative, got: %d", c.Redis.MinIdleConns)
	}
	if c.Redis.DialTimeout <= 0 {
		return fmt.Errorf("redis.dial_timeout must be greater than 0, got: %v", c.Redis.DialTimeout)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Search.PageSize <= 0 {
		return fmt.Errorf("search.page_size must be greater than 0, got: %d", c.Search.PageSize)
	}
	if c.Search.PageRate < 0 {
		return fmt.Errorf("search.page_rate must be non-negative, got: %v", c.Search.PageRate)
	}
	return nil
}

// NewLogger builds a zap logger for the configured level.
func (c LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// Limiter returns the page limiter, or nil when pacing is disabled.
func (c SearchConfig) Limiter() *rate.Limiter {
	if c.PageRate <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(c.PageRate), 1)
}
