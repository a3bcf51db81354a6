// Package config loads engine configuration from the environment or a
// YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything needed to open the reference engine and,
// optionally, the result cache.
type Config struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	Redis           RedisConfig   `yaml:"redis"`
}

// RedisConfig configures the optional result cache. An empty Addr disables
// it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// FromEnv loads configuration from PREQUELIZE_* environment variables. A
// .env file in the working directory is loaded first when present.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Driver: os.Getenv("PREQUELIZE_DRIVER"),
		DSN:    os.Getenv("PREQUELIZE_DSN"),
		Redis: RedisConfig{
			Addr:     os.Getenv("PREQUELIZE_REDIS_ADDR"),
			Password: os.Getenv("PREQUELIZE_REDIS_PASSWORD"),
		},
	}

	var err error
	if cfg.MaxOpenConns, err = intEnv("PREQUELIZE_MAX_OPEN_CONNS"); err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns, err = intEnv("PREQUELIZE_MAX_IDLE_CONNS"); err != nil {
		return nil, err
	}
	if cfg.Redis.DB, err = intEnv("PREQUELIZE_REDIS_DB"); err != nil {
		return nil, err
	}
	if cfg.ConnMaxLifetime, err = durationEnv("PREQUELIZE_CONN_MAX_LIFETIME"); err != nil {
		return nil, err
	}
	if cfg.Redis.TTL, err = durationEnv("PREQUELIZE_REDIS_TTL"); err != nil {
		return nil, err
	}

	return cfg, cfg.validate()
}

// FromFile loads configuration from a YAML file.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Driver == "" {
		return fmt.Errorf("config: driver is required")
	}
	if c.DSN == "" {
		return fmt.Errorf("config: dsn is required")
	}
	return nil
}

func intEnv(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
