package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rendis/expressive/pkg/expressive"
)

// Config holds the CLI configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	LogLevel    string `json:"log_level"`
	CacheSize   int    `json:"cache_size"`
	Conditional bool   `json:"conditional"`
	// Reference names the engine rule outcomes are cross-checked with: "expr", "cel" or "".
	Reference string `json:"reference"`
}

func defaultConfig() Config {
	return Config{
		LogLevel:  "info",
		CacheSize: expressive.DefaultCacheSize,
	}
}

func expressiveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".expressive"
	}
	return filepath.Join(home, ".expressive")
}

func settingsPath() string {
	return filepath.Join(expressiveDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("EXPRESSIVE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("EXPRESSIVE_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CacheSize = n
		}
	}
	if v := os.Getenv("EXPRESSIVE_CONDITIONAL"); v != "" {
		cfg.Conditional = v == "true" || v == "1"
	}
	if v := os.Getenv("EXPRESSIVE_REFERENCE"); v != "" {
		cfg.Reference = v
	}

	if cfg.CacheSize <= 0 {
		cfg.CacheSize = expressive.DefaultCacheSize
	}
	return cfg
}

// engineOptions translates the configuration into engine options.
func (c Config) engineOptions(opts ...expressive.Option) []expressive.Option {
	if c.Conditional {
		opts = append(opts, expressive.WithConditional())
	}
	return opts
}
