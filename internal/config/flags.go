package config

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// BindFlags registers the command-line overrides shared by the binaries.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML or JSON config file")
	fs.String("port", "", "listen port")
	fs.Int("cache-ttl", 0, "seconds a fetched quote is served from cache")
	fs.String("upstream-url", "", "base URL of the upstream quote API")
	fs.Int("timeout", 0, "upstream request timeout in seconds")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("log-format", "", "json or console")
}

// FromFlags loads the file named by --config, applies env overrides, then any
// flag the user set explicitly, and validates the result.
func FromFlags(fs *pflag.FlagSet) (Config, error) {
	path, _ := fs.GetString("config")
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if fs.Changed("port") {
		cfg.Server.Port, _ = fs.GetString("port")
	}
	if fs.Changed("cache-ttl") {
		cfg.Cache.TTLSeconds, _ = fs.GetInt("cache-ttl")
	}
	if fs.Changed("upstream-url") {
		v, _ := fs.GetString("upstream-url")
		cfg.Upstream.BaseURL = strings.TrimRight(v, "/")
	}
	if fs.Changed("timeout") {
		cfg.Upstream.TimeoutSec, _ = fs.GetInt("timeout")
	}
	if fs.Changed("log-level") {
		cfg.Log.Level, _ = fs.GetString("log-level")
	}
	if fs.Changed("log-format") {
		cfg.Log.Format, _ = fs.GetString("log-format")
	}
	return cfg, cfg.Validate()
}
