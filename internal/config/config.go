package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Port               string `yaml:"port"`
	ShutdownTimeoutSec int    `yaml:"shutdown_timeout_sec"`
}

type Cache struct {
	TTLSeconds       int `yaml:"ttl_sec"`
	MaxItems         int `yaml:"max_items"`
	SweepIntervalSec int `yaml:"sweep_interval_sec"`
}

type Upstream struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
	UserAgent  string `yaml:"user_agent"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	Cache    Cache    `yaml:"cache"`
	Upstream Upstream `yaml:"upstream"`
	Log      Log      `yaml:"log"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", ShutdownTimeoutSec: 5},
		Cache: Cache{
			TTLSeconds: 60,
			MaxItems:   10000,
		},
		Upstream: Upstream{
			BaseURL:    "https://query1.finance.yahoo.com",
			TimeoutSec: 3,
			UserAgent:  "quote-service/1.0",
		},
		Log: Log{Level: "info", Format: "json"},
	}
}

// TTL returns the cache freshness window.
func (c Config) TTL() time.Duration { return time.Duration(c.Cache.TTLSeconds) * time.Second }

// UpstreamTimeout bounds a single upstream quote request.
func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSec) * time.Second
}

func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.Cache.SweepIntervalSec) * time.Second
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSec) * time.Second
}

// Load reads YAML config from path. JSON files parse too. If path is empty,
// config.yaml in the working directory is used when present; otherwise the
// defaults apply. Environment variables override the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first setting that would make the service unusable.
func (c Config) Validate() error {
	p, err := strconv.Atoi(c.Server.Port)
	if err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid port: %q", c.Server.Port)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache ttl must not be negative: %d", c.Cache.TTLSeconds)
	}
	if c.Cache.MaxItems < 0 {
		return fmt.Errorf("cache max items must not be negative: %d", c.Cache.MaxItems)
	}
	if c.Upstream.TimeoutSec <= 0 {
		return fmt.Errorf("upstream timeout must be positive: %d", c.Upstream.TimeoutSec)
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid upstream base url: %q", c.Upstream.BaseURL)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if err := envInt("CACHE_TTL_SEC", &cfg.Cache.TTLSeconds); err != nil {
		return err
	}
	if err := envInt("CACHE_MAX_ITEMS", &cfg.Cache.MaxItems); err != nil {
		return err
	}
	if err := envInt("CACHE_SWEEP_INTERVAL_SEC", &cfg.Cache.SweepIntervalSec); err != nil {
		return err
	}
	if v := os.Getenv("UPSTREAM_BASE_URL"); v != "" {
		cfg.Upstream.BaseURL = strings.TrimRight(v, "/")
	}
	// REQUEST_TIMEOUT_SEC is kept as an alias; the specific name wins.
	if err := envInt("REQUEST_TIMEOUT_SEC", &cfg.Upstream.TimeoutSec); err != nil {
		return err
	}
	if err := envInt("UPSTREAM_TIMEOUT_SEC", &cfg.Upstream.TimeoutSec); err != nil {
		return err
	}
	if v := os.Getenv("UPSTREAM_USER_AGENT"); v != "" {
		cfg.Upstream.UserAgent = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	x, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || x < 0 {
		return fmt.Errorf("invalid %s: %q", key, v)
	}
	*dst = x
	return nil
}
