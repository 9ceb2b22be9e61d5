package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/expressive/pkg/expressive"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := loadConfig()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, expressive.DefaultCacheSize, cfg.CacheSize)
	assert.False(t, cfg.Conditional)
	assert.Empty(t, cfg.Reference)
}

func TestLoadConfig_Layers(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".expressive")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"),
		[]byte(`{"log_level": "debug", "cache_size": 8, "reference": "cel"}`), 0o600))

	cfg := loadConfig()
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.CacheSize)
	assert.Equal(t, "cel", cfg.Reference)

	t.Setenv("EXPRESSIVE_LOG_LEVEL", "warn")
	t.Setenv("EXPRESSIVE_CACHE_SIZE", "-3")
	t.Setenv("EXPRESSIVE_CONDITIONAL", "1")
	t.Setenv("EXPRESSIVE_REFERENCE", "expr")

	cfg = loadConfig()
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, expressive.DefaultCacheSize, cfg.CacheSize)
	assert.True(t, cfg.Conditional)
	assert.Equal(t, "expr", cfg.Reference)
	assert.Len(t, cfg.engineOptions(), 1)
}
